package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/nutricontrol/nutricontrol/internal/models"
)

const consultationsPath = "/api/v1/consultas"

// MaxPhotoSize is the largest photo accepted for upload.
const MaxPhotoSize = 5 << 20

var (
	// ErrPhotoTooLarge is returned for photos above MaxPhotoSize.
	ErrPhotoTooLarge = errors.New("photo exceeds 5MB")

	// ErrNotAnImage is returned for uploads that are not images.
	ErrNotAnImage = errors.New("photo is not an image")

	// ErrNoPhotos is returned when an upload has nothing to send.
	ErrNoPhotos = errors.New("no photos to upload")
)

// Photo is an image to attach to a consultation.
type Photo struct {
	FileName string
	Content  []byte
}

// ConsultationService manages consultations and their records.
type ConsultationService struct {
	client *Client
}

// CreateForPatient opens a consultation for a patient.
func (s *ConsultationService) CreateForPatient(ctx context.Context, patientID int64, body models.CreateConsultation) (models.ConsultationSummary, error) {
	var out models.ConsultationSummary
	req := s.client.request(ctx).
		SetPathParam("patientID", strconv.FormatInt(patientID, 10)).
		SetBody(body).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodPost, consultationsPath+"/paciente/{patientID}"); err != nil {
		return out, fmt.Errorf("creating consultation for patient %d: %w", patientID, err)
	}
	return out, nil
}

func (s *ConsultationService) Update(ctx context.Context, id int64, body models.CreateConsultation) (models.ConsultationSummary, error) {
	var out models.ConsultationSummary
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(body).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodPut, consultationsPath+"/{id}"); err != nil {
		return out, fmt.Errorf("updating consultation %d: %w", id, err)
	}
	return out, nil
}

func (s *ConsultationService) ListByPatient(ctx context.Context, patientID int64) ([]models.ConsultationSummary, error) {
	var out []models.ConsultationSummary
	req := s.client.request(ctx).
		SetPathParam("patientID", strconv.FormatInt(patientID, 10)).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodGet, consultationsPath+"/paciente/{patientID}"); err != nil {
		return nil, fmt.Errorf("listing consultations of patient %d: %w", patientID, err)
	}
	return out, nil
}

func (s *ConsultationService) List(ctx context.Context) ([]models.ConsultationSummary, error) {
	var out []models.ConsultationSummary
	req := s.client.request(ctx).SetResult(&out)
	if _, err := s.client.execute(req, http.MethodGet, consultationsPath); err != nil {
		return nil, fmt.Errorf("listing consultations: %w", err)
	}
	return out, nil
}

// Get returns a consultation with its assessment, questionnaire and photos.
func (s *ConsultationService) Get(ctx context.Context, id int64) (models.ConsultationDetail, error) {
	var out models.ConsultationDetail
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodGet, consultationsPath+"/{id}"); err != nil {
		return out, fmt.Errorf("getting consultation %d: %w", id, err)
	}
	return out, nil
}

// Compare returns the evolution of a patient between two consultations.
func (s *ConsultationService) Compare(ctx context.Context, patientID, initialID, finalID int64) (models.ConsultationComparison, error) {
	var out models.ConsultationComparison
	req := s.client.request(ctx).
		SetPathParam("patientID", strconv.FormatInt(patientID, 10)).
		SetQueryParam("consultaInicialId", strconv.FormatInt(initialID, 10)).
		SetQueryParam("consultaFinalId", strconv.FormatInt(finalID, 10)).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodGet, consultationsPath+"/comparar/{patientID}"); err != nil {
		return out, fmt.Errorf("comparing consultations %d and %d: %w", initialID, finalID, err)
	}
	return out, nil
}

// UpdateDate moves a consultation to newDate, an ISO date or datetime.
func (s *ConsultationService) UpdateDate(ctx context.Context, id int64, newDate string) (models.ConsultationSummary, error) {
	var out models.ConsultationSummary
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetQueryParam("novaData", newDate).
		SetBody(struct{}{}).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodPut, consultationsPath+"/{id}/data"); err != nil {
		return out, fmt.Errorf("updating date of consultation %d: %w", id, err)
	}
	return out, nil
}

func (s *ConsultationService) Delete(ctx context.Context, id int64) error {
	req := s.client.request(ctx).SetPathParam("id", strconv.FormatInt(id, 10))
	if _, err := s.client.execute(req, http.MethodDelete, consultationsPath+"/{id}"); err != nil {
		return fmt.Errorf("deleting consultation %d: %w", id, err)
	}
	return nil
}

func (s *ConsultationService) SaveAssessment(ctx context.Context, id int64, assessment models.PhysicalAssessment) (models.PhysicalAssessment, error) {
	var out models.PhysicalAssessment
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(assessment).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodPost, consultationsPath+"/{id}/avaliacao-fisica"); err != nil {
		return out, fmt.Errorf("saving assessment of consultation %d: %w", id, err)
	}
	return out, nil
}

func (s *ConsultationService) SaveQuestionnaire(ctx context.Context, id int64, questionnaire models.LifestyleQuestionnaire) (models.LifestyleQuestionnaire, error) {
	var out models.LifestyleQuestionnaire
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(questionnaire).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodPost, consultationsPath+"/{id}/questionario"); err != nil {
		return out, fmt.Errorf("saving questionnaire of consultation %d: %w", id, err)
	}
	return out, nil
}

// UploadPhotos sends one multipart field per photo angle. Every photo is
// checked before anything is sent.
func (s *ConsultationService) UploadPhotos(ctx context.Context, id int64, photos map[models.PhotoType]Photo) (models.PhotoRecord, error) {
	var out models.PhotoRecord
	if len(photos) == 0 {
		return out, ErrNoPhotos
	}

	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&out)

	for _, typ := range models.PhotoTypes {
		photo, ok := photos[typ]
		if !ok {
			continue
		}
		if err := validatePhoto(photo); err != nil {
			return out, fmt.Errorf("photo %s: %w", typ, err)
		}
		req.SetFileReader(string(typ), photo.FileName, bytes.NewReader(photo.Content))
	}

	if _, err := s.client.execute(req, http.MethodPost, consultationsPath+"/{id}/fotos"); err != nil {
		return out, fmt.Errorf("uploading photos of consultation %d: %w", id, err)
	}
	return out, nil
}

// Photos returns the stored photo URL of each angle.
func (s *ConsultationService) Photos(ctx context.Context, id int64) (map[models.PhotoType]string, error) {
	out := map[models.PhotoType]string{}
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&out)
	if _, err := s.client.execute(req, http.MethodGet, consultationsPath+"/{id}/fotos"); err != nil {
		return nil, fmt.Errorf("getting photos of consultation %d: %w", id, err)
	}
	return out, nil
}

func validatePhoto(photo Photo) error {
	if len(photo.Content) > MaxPhotoSize {
		return ErrPhotoTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(photo.Content), "image/") {
		return ErrNotAnImage
	}
	return nil
}
