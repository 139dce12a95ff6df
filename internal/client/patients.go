package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/iancoleman/strcase"

	"github.com/nutricontrol/nutricontrol/internal/clinical"
	"github.com/nutricontrol/nutricontrol/internal/models"
)

const patientsPath = "/api/v1/pacientes"

// Field names the backend has used over time for the last consultation date,
// in order of preference once normalised to lowerCamelCase.
var lastConsultationKeys = []string{"ultimaConsulta", "dataConsulta", "createdAt"}

// PatientService manages patient records.
type PatientService struct {
	client *Client
}

func (s *PatientService) List(ctx context.Context) ([]models.Patient, error) {
	var raw []json.RawMessage
	req := s.client.request(ctx).SetResult(&raw)
	if _, err := s.client.execute(req, http.MethodGet, patientsPath); err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	return decodePatients(raw)
}

func (s *PatientService) Get(ctx context.Context, id int64) (models.Patient, error) {
	var raw json.RawMessage
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&raw)
	if _, err := s.client.execute(req, http.MethodGet, patientsPath+"/{id}"); err != nil {
		return models.Patient{}, fmt.Errorf("getting patient %d: %w", id, err)
	}
	return decodePatient(raw)
}

// GetByCPF looks a patient up by CPF, masked or not.
func (s *PatientService) GetByCPF(ctx context.Context, cpf string) (models.Patient, error) {
	var raw json.RawMessage
	req := s.client.request(ctx).
		SetPathParam("cpf", clinical.StripMask(cpf)).
		SetResult(&raw)
	if _, err := s.client.execute(req, http.MethodGet, patientsPath+"/cpf/{cpf}"); err != nil {
		return models.Patient{}, fmt.Errorf("getting patient by cpf: %w", err)
	}
	return decodePatient(raw)
}

func (s *PatientService) SearchByName(ctx context.Context, name string) ([]models.Patient, error) {
	var raw []json.RawMessage
	req := s.client.request(ctx).
		SetQueryParam("nome", name).
		SetResult(&raw)
	if _, err := s.client.execute(req, http.MethodGet, patientsPath+"/buscar"); err != nil {
		return nil, fmt.Errorf("searching patients: %w", err)
	}
	return decodePatients(raw)
}

func (s *PatientService) Create(ctx context.Context, patient models.Patient) (models.Patient, error) {
	var out models.Patient
	req := s.client.request(ctx).
		SetBody(patient).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodPost, patientsPath); err != nil {
		return models.Patient{}, fmt.Errorf("creating patient: %w", err)
	}
	return out, nil
}

func (s *PatientService) Update(ctx context.Context, id int64, patient models.Patient) (models.Patient, error) {
	var out models.Patient
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(patient).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodPut, patientsPath+"/{id}"); err != nil {
		return models.Patient{}, fmt.Errorf("updating patient %d: %w", id, err)
	}
	return out, nil
}

func (s *PatientService) Delete(ctx context.Context, id int64) error {
	req := s.client.request(ctx).SetPathParam("id", strconv.FormatInt(id, 10))
	if _, err := s.client.execute(req, http.MethodDelete, patientsPath+"/{id}"); err != nil {
		return fmt.Errorf("deleting patient %d: %w", id, err)
	}
	return nil
}

func decodePatients(raw []json.RawMessage) ([]models.Patient, error) {
	patients := make([]models.Patient, 0, len(raw))
	for _, r := range raw {
		p, err := decodePatient(r)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// decodePatient decodes a patient and fills LastConsultation from whichever
// alias the backend sent.
func decodePatient(raw json.RawMessage) (models.Patient, error) {
	var p models.Patient
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Patient{}, fmt.Errorf("decoding patient: %w", err)
	}
	if p.LastConsultation != "" {
		return p, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return p, nil
	}

	// camelCase spellings sort before snake_case ones and win on collision
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	normalised := make(map[string]string, len(fields))
	for _, k := range keys {
		var value string
		if json.Unmarshal(fields[k], &value) != nil || value == "" {
			continue
		}
		key := strcase.ToLowerCamel(k)
		if _, ok := normalised[key]; !ok {
			normalised[key] = value
		}
	}

	for _, key := range lastConsultationKeys {
		if value, ok := normalised[key]; ok {
			p.LastConsultation = value
			break
		}
	}

	return p, nil
}
