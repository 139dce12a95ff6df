package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nutricontrol/nutricontrol/internal/session"
	"github.com/nutricontrol/nutricontrol/internal/shell"
	"github.com/nutricontrol/nutricontrol/internal/telemetry"
)

// ServeCmd runs the local web shell.
type ServeCmd struct {
	Listen  string `help:"HTTP listen address, overrides the config" env:"NUTRI_LISTEN"`
	Tracing bool   `help:"enable OpenTelemetry export" default:"false" env:"NUTRI_TRACING"`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.Tracing {
		log.Info().Float64("sample_ratio", a.cfg.TraceSampleRatio).Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "nutricontrol", globals.Version, a.cfg.TraceSampleRatio)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize telemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
		}
	}

	monitor := session.NewMonitor(ctx, a.state, a.router, a.toasts, a.cfg.ExpiryCheckInterval)
	defer monitor.Stop()

	listen := a.cfg.Listen
	if s.Listen != "" {
		listen = s.Listen
	}

	srv := configureHTTPServer(listen, shell.New(shell.Config{
		CORSOrigins:    a.cfg.CORSOrigins,
		LoginRateLimit: a.cfg.LoginRateLimit,
	}, a.state, a.auth, a.api, a.router, a.toasts).Handler())

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", listen).
			Str("api", a.cfg.APIURL).
			Bool("authenticated", a.state.IsAuthenticated()).
			Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
