package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nutricontrol/nutricontrol/internal/models"
)

const dashboardPath = "/api/v1/dashboard"

// DashboardService reads the home screen summaries.
type DashboardService struct {
	client *Client
}

func (s *DashboardService) Stats(ctx context.Context) (models.DashboardStats, error) {
	var out models.DashboardStats
	req := s.client.request(ctx).SetResult(&out)
	if _, err := s.client.execute(req, http.MethodGet, dashboardPath+"/stats"); err != nil {
		return out, fmt.Errorf("getting dashboard stats: %w", err)
	}
	return out, nil
}

func (s *DashboardService) TodayConsultations(ctx context.Context) ([]models.TodayConsultation, error) {
	var out []models.TodayConsultation
	req := s.client.request(ctx).SetResult(&out)
	if _, err := s.client.execute(req, http.MethodGet, dashboardPath+"/consultas-hoje"); err != nil {
		return nil, fmt.Errorf("getting today's consultations: %w", err)
	}
	return out, nil
}

func (s *DashboardService) RecentPatients(ctx context.Context) ([]models.Patient, error) {
	var raw []json.RawMessage
	req := s.client.request(ctx).SetResult(&raw)
	if _, err := s.client.execute(req, http.MethodGet, dashboardPath+"/pacientes-recentes"); err != nil {
		return nil, fmt.Errorf("getting recent patients: %w", err)
	}
	return decodePatients(raw)
}
