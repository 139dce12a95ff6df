package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"

	"github.com/nutricontrol/nutricontrol/internal/client"
	"github.com/nutricontrol/nutricontrol/internal/config"
	"github.com/nutricontrol/nutricontrol/internal/credentials"
	"github.com/nutricontrol/nutricontrol/internal/guard"
	"github.com/nutricontrol/nutricontrol/internal/logger"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/notify"
	"github.com/nutricontrol/nutricontrol/internal/session"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in, run `nutricontrol login` first")

type Globals struct {
	Debug   bool
	Version string

	// Overrides applied on top of the loaded configuration.
	ConfigFile string
	APIURL     string
	StateDir   string
	Backend    string

	In  io.Reader
	Out io.Writer
}

func (g *Globals) stdout() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

func (g *Globals) stdin() io.Reader {
	if g.In != nil {
		return g.In
	}
	return os.Stdin
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// app is the session subsystem wired from configuration.
type app struct {
	cfg    config.Config
	store  *credentials.Store
	state  *session.State
	router *navigation.Router
	toasts *notify.Center
	api    *client.Client
	auth   *client.AuthClient
	guard  *guard.Guard

	closers []func() error
}

func newApp(globals *Globals) (*app, error) {
	cfg, err := config.Load(globals.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if globals.APIURL != "" {
		cfg.APIURL = globals.APIURL
		cfg.LoginURL = globals.APIURL
	}
	if globals.StateDir != "" {
		cfg.StateDir = globals.StateDir
	}
	if globals.Backend != "" {
		cfg.StoreBackend = globals.Backend
	}
	cfg.Debug = cfg.Debug || globals.Debug
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Logger = logger.Setup(cfg.Debug)

	a := &app{cfg: cfg}

	backend, err := a.openBackend()
	if err != nil {
		return nil, err
	}

	a.store = credentials.NewStore(backend)
	a.state = session.New(a.store)
	a.router = navigation.NewRouter(navigation.DashboardPath)
	a.router.OnNavigate(logSignInRequired)
	a.toasts = notify.NewCenter(cfg.ToastDuration)
	a.toasts.OnPush(logToast)
	a.guard = guard.New(a.state, a.router)

	a.api = client.New(client.Config{
		APIURL:        cfg.APIURL,
		Timeout:       cfg.RequestTimeout,
		RetryMaxTries: cfg.RetryMaxTries,
		RedirectDelay: cfg.RedirectDelay,
	}, a.state, a.router, a.toasts)
	a.closers = append(a.closers, func() error { a.api.Close(); return nil })

	a.auth = client.NewAuthClient(cfg.LoginURL, cfg.RequestTimeout)

	return a, nil
}

func (a *app) openBackend() (credentials.Backend, error) {
	switch a.cfg.StoreBackend {
	case config.BackendMemory:
		return credentials.NewMemoryBackend(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(a.cfg.StateDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		backend, err := credentials.OpenBoltBackend(filepath.Join(a.cfg.StateDir, "session.db"), &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, backend.Close)
		return backend, nil
	default:
		return credentials.NewFileBackend(filepath.Join(a.cfg.StateDir, "session"))
	}
}

// require runs the route guard for dest.
func (a *app) require(dest navigation.Destination) error {
	if a.guard.Check(dest) == guard.Deny {
		return ErrNotSignedIn
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("failed to close")
		}
	}
	a.toasts.Clear()
}

func logSignInRequired(dest navigation.Destination) {
	if dest.Path() != navigation.LoginPath {
		return
	}
	log.Warn().Str("return_to", navigation.ReturnTo(dest).String()).Msg("Sign in required")
}

func logToast(t notify.Toast) {
	event := log.Info()
	switch t.Type {
	case notify.TypeError:
		event = log.Error()
	case notify.TypeWarning:
		event = log.Warn()
	}
	event.Str("toast", string(t.Type)).Msg(t.Message)
}
