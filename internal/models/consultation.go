package models

// PhotoType identifies one of the four standard photographic angles.
type PhotoType string

const (
	PhotoFront     PhotoType = "ANTERIOR"
	PhotoBack      PhotoType = "POSTERIOR"
	PhotoLeftSide  PhotoType = "LATERAL_ESQUERDA"
	PhotoRightSide PhotoType = "LATERAL_DIREITA"
)

// PhotoTypes lists every angle in upload order.
var PhotoTypes = []PhotoType{PhotoFront, PhotoBack, PhotoLeftSide, PhotoRightSide}

// ConsultationSummary is the list view of a consultation.
type ConsultationSummary struct {
	ID               int64    `json:"id"`
	PatientID        int64    `json:"pacienteId"`
	PatientName      string   `json:"nomePaciente"`
	Date             string   `json:"dataConsulta"`
	Weight           *float64 `json:"peso,omitempty"`
	BodyFatPercent   *float64 `json:"percentualGordura,omitempty"`
	Goal             string   `json:"objetivo,omitempty"`
	HasAssessment    bool     `json:"temAvaliacaoFisica"`
	HasQuestionnaire bool     `json:"temQuestionario"`
	HasPhotos        bool     `json:"temFotos"`
}

// ConsultationDetail is a consultation with every record attached.
type ConsultationDetail struct {
	ID            int64                   `json:"id"`
	PatientID     int64                   `json:"pacienteId"`
	PatientName   string                  `json:"nomePaciente"`
	Date          string                  `json:"dataConsulta"`
	Assessment    *PhysicalAssessment     `json:"avaliacaoFisica,omitempty"`
	Questionnaire *LifestyleQuestionnaire `json:"questionario,omitempty"`
	Photos        *PhotoRecord            `json:"registroFotografico,omitempty"`
}

// PhysicalAssessment holds perimeters (cm), skinfolds (mm) and body composition.
type PhysicalAssessment struct {
	ID             int64    `json:"id,omitempty"`
	ConsultationID int64    `json:"consultaId,omitempty"`
	Height         *float64 `json:"altura,omitempty"`

	Shoulder           *float64 `json:"perimetroOmbro,omitempty"`
	Chest              *float64 `json:"perimetroTorax,omitempty"`
	Waist              *float64 `json:"perimetroCintura,omitempty"`
	Abdomen            *float64 `json:"perimetroAbdominal,omitempty"`
	Hip                *float64 `json:"perimetroQuadril,omitempty"`
	RightArmRelaxed    *float64 `json:"perimetroBracoDireitoRelax,omitempty"`
	RightArmContracted *float64 `json:"perimetroBracoDireitoContr,omitempty"`
	LeftArmRelaxed     *float64 `json:"perimetroBracoEsquerdoRelax,omitempty"`
	LeftArmContracted  *float64 `json:"perimetroBracoEsquerdoContr,omitempty"`
	RightForearm       *float64 `json:"perimetroAntebracoDireito,omitempty"`
	LeftForearm        *float64 `json:"perimetroAntebracoEsquerdo,omitempty"`
	RightThigh         *float64 `json:"perimetroCoxaDireita,omitempty"`
	LeftThigh          *float64 `json:"perimetroCoxaEsquerda,omitempty"`
	RightCalf          *float64 `json:"perimetroPanturrilhaDireita,omitempty"`
	LeftCalf           *float64 `json:"perimetroPanturrilhaEsquerda,omitempty"`

	TricepsFold     *float64 `json:"dobraTriceps,omitempty"`
	ChestFold       *float64 `json:"dobraPeito,omitempty"`
	MidAxillaryFold *float64 `json:"dobraAxilarMedia,omitempty"`
	SubscapularFold *float64 `json:"dobraSubescapular,omitempty"`
	AbdominalFold   *float64 `json:"dobraAbdominal,omitempty"`
	SuprailiacFold  *float64 `json:"dobraSupraIliaca,omitempty"`
	ThighFold       *float64 `json:"dobraCoxa,omitempty"`

	Weight         *float64 `json:"pesoAtual,omitempty"`
	LeanMass       *float64 `json:"massaMagra,omitempty"`
	FatMass        *float64 `json:"massaGorda,omitempty"`
	BodyFatPercent *float64 `json:"percentualGordura,omitempty"`
	BMI            *float64 `json:"imc,omitempty"`
}

// LifestyleQuestionnaire is the lifestyle intake answered at a consultation.
type LifestyleQuestionnaire struct {
	ID             int64 `json:"id,omitempty"`
	ConsultationID int64 `json:"consultaId,omitempty"`

	Goal              string `json:"objetivo,omitempty"`
	TrainingFrequency string `json:"frequenciaTreino,omitempty"`
	TrainingTime      string `json:"tempoTreino,omitempty"`

	Surgeries        string `json:"cirurgias,omitempty"`
	Diseases         string `json:"doencas,omitempty"`
	FamilyHistory    string `json:"historicoFamiliar,omitempty"`
	Medications      string `json:"medicamentos,omitempty"`
	Supplements      string `json:"suplementos,omitempty"`
	UsesAnabolics    bool   `json:"usoAnabolizantes"`
	AnabolicCycle    string `json:"cicloAnabolizantes,omitempty"`
	AnabolicDuration string `json:"duracaoAnabolizantes,omitempty"`

	Smokes          *bool    `json:"fuma,omitempty"`
	AlcoholFreq     string   `json:"frequenciaAlcool,omitempty"`
	BowelFunction   string   `json:"funcionamentoIntestino,omitempty"`
	SleepQuality    string   `json:"qualidadeSono,omitempty"`
	DailyWaterLitre *float64 `json:"ingestaoAguaDiaria,omitempty"`

	DislikedFoods   string `json:"alimentosNaoGosta,omitempty"`
	FavoriteFruits  string `json:"frutasPreferidas,omitempty"`
	DesiredMeals    int    `json:"numeroRefeicoesDesejadas,omitempty"`
	HungriestPeriod string `json:"horarioMaiorFome,omitempty"`

	BloodPressure string `json:"pressaoArterial,omitempty"`
}

// PhotoRecord references the stored photos of a consultation.
type PhotoRecord struct {
	ID             int64  `json:"id,omitempty"`
	ConsultationID int64  `json:"consultaId"`
	Front          string `json:"fotoAnterior,omitempty"`
	Back           string `json:"fotoPosterior,omitempty"`
	LeftSide       string `json:"fotoLateralEsquerda,omitempty"`
	RightSide      string `json:"fotoLateralDireita,omitempty"`
}

// CreateConsultation is the body sent when creating or updating a consultation.
type CreateConsultation struct {
	Assessment    PhysicalAssessment     `json:"avaliacaoFisica"`
	Questionnaire LifestyleQuestionnaire `json:"questionarioEstiloVida"`
}

// ConsultationComparison is served by /consultas/comparar/{pacienteId}.
type ConsultationComparison struct {
	Initial     ConsultationDetail `json:"consultaInicial"`
	Final       ConsultationDetail `json:"consultaFinal"`
	Differences Differences        `json:"diferencas"`
}

// Differences between two consultations.
type Differences struct {
	Weight         *float64           `json:"diferencaPeso,omitempty"`
	BodyFatPercent *float64           `json:"diferencaPercentualGordura,omitempty"`
	LeanMass       *float64           `json:"diferencaMassaMagra,omitempty"`
	FatMass        *float64           `json:"diferencaMassaGorda,omitempty"`
	BMI            *float64           `json:"diferencaImc,omitempty"`
	Perimeters     map[string]float64 `json:"diferencasPerimetros,omitempty"`
	Skinfolds      map[string]float64 `json:"diferencasDobras,omitempty"`
}
