package shell

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/awnumar/memguard"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/nutricontrol/nutricontrol/internal/apierror"
	"github.com/nutricontrol/nutricontrol/internal/client"
	"github.com/nutricontrol/nutricontrol/internal/clinical"
	"github.com/nutricontrol/nutricontrol/internal/guard"
	"github.com/nutricontrol/nutricontrol/internal/models"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/session"
)

// MsgStaleLogin is returned when the session was ended while a login was in
// flight.
const MsgStaleLogin = "the session changed during login, please try again"

type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

type sessionResponse struct {
	Authenticated bool                `json:"authenticated"`
	User          *models.UserProfile `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	target := navigation.SanitizeReturnTo(r.URL.Query().Get(navigation.ReturnParam))
	if s.session.IsAuthenticated() {
		http.Redirect(w, r, target.String(), http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{navigation.ReturnParam: target.String()})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: apierror.MsgInvalidData})
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := []byte(r.PostForm.Get("password"))
	defer memguard.WipeBytes(password)

	if email == "" || len(password) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	returnTo := r.PostForm.Get(navigation.ReturnParam)
	if returnTo == "" {
		returnTo = r.URL.Query().Get(navigation.ReturnParam)
	}
	target := navigation.SanitizeReturnTo(returnTo)

	ticket := s.session.Begin()
	resp, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		status, msg := http.StatusUnauthorized, client.MsgLoginFailed
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) {
			status, msg = statusOf(err), apiErr.Message
		}
		s.toasts.Error(msg)
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	if err := s.session.Establish(ticket, resp); err != nil {
		status, msg := http.StatusUnauthorized, client.MsgLoginFailed
		if errors.Is(err, session.ErrStaleLogin) {
			status, msg = http.StatusConflict, MsgStaleLogin
		}
		log.Warn().Err(err).Str("email", email).Msg("login not established")
		s.toasts.Error(msg)
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	s.toasts.Success("welcome, " + resp.Name)
	s.nav.Navigate(target)
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.session.Terminate(session.ReasonLogout)
	s.nav.Navigate(navigation.LoginPath)
	http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
}

func (s *Server) sessionInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: s.session.IsAuthenticated(),
		User:          s.session.CurrentUser(),
	})
}

func (s *Server) notifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.toasts.List())
}

// page runs a guarded page load. The router follows the request so a session
// ending mid-load returns the user to it after signing in again.
func (s *Server) page(load func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dest := navigation.Destination(r.URL.RequestURI())
		s.nav.Navigate(dest)

		out, err := load(r)
		if err != nil {
			s.writeError(w, dest, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) report(download func(ctx context.Context, id int64) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dest := navigation.Destination(r.URL.RequestURI())
		s.nav.Navigate(dest)

		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, dest, err)
			return
		}

		pdf, err := download(r.Context(), id)
		if err != nil {
			s.writeError(w, dest, err)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "inline; filename=relatorio-"+strconv.FormatInt(id, 10)+".pdf")
		_, _ = w.Write(pdf)
	}
}

func (s *Server) writeError(w http.ResponseWriter, dest navigation.Destination, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	resp := errorResponse{Error: apierror.Message(err)}
	if apierror.IsUnauthorized(err) {
		resp.Redirect = navigation.LoginDestination(dest).String()
	}
	writeJSON(w, statusOf(err), resp)
}

func statusOf(err error) int {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch {
	case apiErr.Kind == apierror.KindNetwork:
		return http.StatusBadGateway
	case apiErr.Kind == apierror.KindUnauthorized:
		return http.StatusUnauthorized
	case apiErr.Status > 0:
		return apiErr.Status
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return parseID(chi.URLParam(r, name), name)
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &apierror.Error{
			Kind:    apierror.KindBadRequest,
			Status:  http.StatusBadRequest,
			Message: "invalid " + name,
			Err:     err,
		}
	}
	return id, nil
}

type dashboardPage struct {
	User           *models.UserProfile        `json:"user,omitempty"`
	Stats          models.DashboardStats      `json:"stats"`
	Today          []models.TodayConsultation `json:"today"`
	RecentPatients []models.Patient           `json:"recentPatients"`
}

func (s *Server) dashboard(r *http.Request) (any, error) {
	ctx := r.Context()

	stats, err := s.api.Dashboard.Stats(ctx)
	if err != nil {
		return nil, err
	}
	today, err := s.api.Dashboard.TodayConsultations(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.api.Dashboard.RecentPatients(ctx)
	if err != nil {
		return nil, err
	}

	user, _ := guard.UserFromContext(ctx)
	return dashboardPage{User: user, Stats: stats, Today: today, RecentPatients: recent}, nil
}

func (s *Server) patients(r *http.Request) (any, error) {
	patients, err := s.api.Patients.List(r.Context())
	if err != nil {
		return nil, err
	}
	return clinical.FilterPatients(patients, r.URL.Query().Get("q")), nil
}

type patientPage struct {
	models.Patient
	Age       *int   `json:"idade,omitempty"`
	Initials  string `json:"iniciais"`
	ChatLink  string `json:"whatsappLink,omitempty"`
	Formatted struct {
		CPF   string `json:"cpf"`
		Phone string `json:"telefone"`
	} `json:"formatado"`
}

func (s *Server) patient(r *http.Request) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}

	p, err := s.api.Patients.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}

	page := patientPage{Patient: p, Initials: clinical.Initials(p.FullName)}
	if age, err := clinical.Age(p.BirthDate, time.Now()); err == nil {
		page.Age = &age
	}
	if p.WhatsApp != "" {
		page.ChatLink = clinical.WhatsAppLink(p.WhatsApp)
	}
	page.Formatted.CPF = clinical.FormatCPF(p.CPF)
	page.Formatted.Phone = clinical.FormatPhone(p.WhatsApp)

	return page, nil
}

func (s *Server) patientConsultations(r *http.Request) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return s.api.Consultations.ListByPatient(r.Context(), id)
}

func (s *Server) consultation(r *http.Request) (any, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return s.api.Consultations.Get(r.Context(), id)
}

func (s *Server) compare(r *http.Request) (any, error) {
	patientID, err := pathID(r, "pacienteId")
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	initialID, err := parseID(q.Get("inicial"), "inicial")
	if err != nil {
		return nil, err
	}
	finalID, err := parseID(q.Get("final"), "final")
	if err != nil {
		return nil, err
	}
	return s.api.Consultations.Compare(r.Context(), patientID, initialID, finalID)
}
