package models

// Sex values accepted by the backend.
const (
	SexMale   = "MASCULINO"
	SexFemale = "FEMININO"
)

// Patient mirrors the backend's patient DTO.
type Patient struct {
	ID               int64  `json:"id,omitempty"`
	FullName         string `json:"nomeCompleto"`
	CPF              string `json:"cpf"`
	BirthDate        string `json:"dataNascimento"` // YYYY-MM-DD
	Sex              string `json:"sexo"`
	WhatsApp         string `json:"telefoneWhatsapp"`
	Email            string `json:"email,omitempty"`
	MedicalRecord    string `json:"prontuario,omitempty"`
	TotalConsults    int    `json:"totalConsultas,omitempty"`
	LastConsultation string `json:"ultimaConsulta,omitempty"` // ISO datetime
}

// DashboardStats is served by /api/v1/dashboard/stats.
type DashboardStats struct {
	TotalPatients     int    `json:"totalPacientes"`
	ConsultsToday     int    `json:"consultasHoje"`
	ConsultsThisMonth int    `json:"consultasMes"`
	NextConsultation  string `json:"proximaConsulta"`
}

// TodayConsultation is an entry of /api/v1/dashboard/consultas-hoje.
type TodayConsultation struct {
	ID          int64  `json:"id"`
	PatientID   int64  `json:"pacienteId"`
	PatientName string `json:"nomePaciente"`
	Initials    string `json:"iniciais"`
	Time        string `json:"horario"`
	Goal        string `json:"objetivo,omitempty"`
}
