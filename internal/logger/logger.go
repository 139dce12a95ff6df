package logger

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

var _ resty.Logger = (*Resty)(nil)

// Resty routes resty's internal messages through zerolog.
type Resty struct {
	logger zerolog.Logger
}

func NewResty(logger zerolog.Logger) *Resty {
	return &Resty{logger: logger.With().Str("component", "resty").Logger()}
}

func (r *Resty) Errorf(format string, v ...any) {
	r.logger.Error().Msg(fmt.Sprintf(format, v...))
}

func (r *Resty) Warnf(format string, v ...any) {
	r.logger.Warn().Msg(fmt.Sprintf(format, v...))
}

func (r *Resty) Debugf(format string, v ...any) {
	r.logger.Debug().Msg(fmt.Sprintf(format, v...))
}

// Requests installs hooks on client that log every backend call with its
// outcome and duration.
func Requests(client *resty.Client, logger zerolog.Logger, destination string) {
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		event := logger.Debug()
		switch {
		case resp.StatusCode() >= http.StatusInternalServerError:
			event = logger.Error()
		case resp.StatusCode() >= http.StatusBadRequest:
			event = logger.Warn()
		}

		event.
			Str("destination", destination).
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("http call")

		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		logger.Error().
			Err(err).
			Str("destination", destination).
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http call failed")
	})
}
