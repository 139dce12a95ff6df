package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

const reportsPath = "/api/v1/relatorios"

// ErrNotPDF is returned when a report download is not a PDF document.
var ErrNotPDF = errors.New("report is not a PDF document")

// ReportService downloads reports rendered by the backend.
type ReportService struct {
	client *Client
}

// ConsultationPDF downloads the report of a single consultation.
func (s *ReportService) ConsultationPDF(ctx context.Context, id int64) ([]byte, error) {
	return s.download(ctx, reportsPath+"/consultas/{id}/pdf", id)
}

// PatientPDF downloads the history report of a patient.
func (s *ReportService) PatientPDF(ctx context.Context, id int64) ([]byte, error) {
	return s.download(ctx, reportsPath+"/pacientes/{id}/pdf", id)
}

func (s *ReportService) download(ctx context.Context, path string, id int64) ([]byte, error) {
	req := s.client.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetHeader("Accept", "application/pdf")

	resp, err := s.client.execute(req, http.MethodGet, path)
	if err != nil {
		return nil, fmt.Errorf("downloading report %d: %w", id, err)
	}

	body := resp.Body()
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		return nil, fmt.Errorf("downloading report %d: %w", id, ErrNotPDF)
	}
	return body, nil
}
