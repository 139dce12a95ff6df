// Package shell serves the signed-in web experience: login and logout, the
// session and notification feeds, and the guarded clinical pages.
package shell

import (
	"context"
	"net/http"
	"strings"

	"filippo.io/csrf"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nutricontrol/nutricontrol/internal/client"
	"github.com/nutricontrol/nutricontrol/internal/guard"
	httpmiddleware "github.com/nutricontrol/nutricontrol/internal/http"
	"github.com/nutricontrol/nutricontrol/internal/models"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/notify"
	"github.com/nutricontrol/nutricontrol/internal/session"
)

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	Login(ctx context.Context, email string, password []byte) (models.LoginResponse, error)
}

// Session is the part of session.State the shell drives.
type Session interface {
	guard.Session
	Begin() session.Ticket
	Establish(ticket session.Ticket, resp models.LoginResponse) error
	Terminate(reason session.Reason) bool
}

// Toasts is the notification center the shell publishes and lists.
type Toasts interface {
	notify.Notifier
	List() []notify.Toast
}

// Navigator is a navigator whose current destination can be read back.
type Navigator interface {
	navigation.Navigator
	Current() navigation.Destination
}

type Config struct {
	CORSOrigins    []string
	LoginRateLimit int // per minute per client IP
}

type Server struct {
	session Session
	auth    Authenticator
	api     *client.Client
	guard   *guard.Guard
	nav     Navigator
	toasts  Toasts
	limiter *httpmiddleware.RateLimiter
	cfg     Config
}

func New(cfg Config, sess Session, auth Authenticator, api *client.Client, nav Navigator, toasts Toasts) *Server {
	return &Server{
		session: sess,
		auth:    auth,
		api:     api,
		guard:   guard.New(sess, nav),
		nav:     nav,
		toasts:  toasts,
		limiter: httpmiddleware.NewRateLimiter(cfg.LoginRateLimit),
		cfg:     cfg,
	}
}

// Routes returns the chi router without the outer protections.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.ClientIPMiddleware())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/login", s.loginPage)
	r.With(s.limiter.Middleware).Post("/login", s.login)
	r.Post("/logout", s.logout)

	r.Route("/api", func(api chi.Router) {
		api.Get("/session", s.sessionInfo)
		api.Get("/notifications", s.notifications)
	})

	r.Group(func(p chi.Router) {
		p.Use(s.guard.Middleware)

		p.Get("/dashboard", s.page(s.dashboard))
		p.Get("/pacientes", s.page(s.patients))
		p.Get("/pacientes/{id}", s.page(s.patient))
		p.Get("/pacientes/{id}/consultas", s.page(s.patientConsultations))
		p.Get("/pacientes/{id}/relatorio", s.report(s.api.Reports.PatientPDF))
		p.Get("/consultas/{id}", s.page(s.consultation))
		p.Get("/consultas/{id}/relatorio", s.report(s.api.Reports.ConsultationPDF))
		p.Get("/consultas/comparar/{pacienteId}", s.page(s.compare))
	})

	return r
}

// Handler wraps Routes with tracing, compression, CORS on /api/ and
// cross-origin protection everywhere else.
func (s *Server) Handler() http.Handler {
	routes := s.Routes()
	protection := csrf.New()
	withCORS := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}).Handler(routes)
	protected := protection.Handler(routes)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			withCORS.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})

	return otelhttp.NewHandler(gzhttp.GzipHandler(handler), "nutricontrol-shell")
}

func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/")
}
