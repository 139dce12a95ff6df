package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nutricontrol/nutricontrol/internal/apierror"
	"github.com/nutricontrol/nutricontrol/internal/logger"
	"github.com/nutricontrol/nutricontrol/internal/models"
)

// MsgLoginFailed is shown when the backend rejects a login without a message.
const MsgLoginFailed = "login failed, check your credentials"

// ErrEmptyLoginToken is returned when a successful login carries no token.
var ErrEmptyLoginToken = errors.New("login response has no token")

// AuthClient calls the login endpoint. It sends no bearer token and a
// rejected login never touches the session.
type AuthClient struct {
	rest *resty.Client
}

// NewAuthClient creates a login client for the backend at loginURL.
func NewAuthClient(loginURL string, timeout time.Duration, opts ...Option) *AuthClient {
	o := options{
		base:   http.DefaultTransport,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rest := resty.New().
		SetBaseURL(loginURL).
		SetTransport(otelhttp.NewTransport(o.base)).
		SetTimeout(timeout).
		SetLogger(logger.NewResty(o.logger)).
		SetHeader("Accept", "application/json")

	logger.Requests(rest, o.logger, "auth")

	return &AuthClient{rest: rest}
}

// Login exchanges credentials for a session token. Failures are returned as
// *apierror.Error carrying the backend's message when it sent one.
func (a *AuthClient) Login(ctx context.Context, email string, password []byte) (models.LoginResponse, error) {
	var out models.LoginResponse

	resp, err := a.rest.R().
		SetContext(ctx).
		SetBody(models.LoginRequest{Email: strings.TrimSpace(email), Password: string(password)}).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return out, err
		}
		return out, apierror.Network(err)
	}

	if !resp.IsSuccess() {
		apiErr := apierror.FromResponse(resp.StatusCode(), resp.Body())
		apiErr.Message = apierror.BodyMessage(resp.Body())
		if apiErr.Message == "" {
			apiErr.Message = MsgLoginFailed
		}

		log.Info().
			Str("email", email).
			Int("status", resp.StatusCode()).
			Msg("login rejected")
		return models.LoginResponse{}, apiErr
	}

	if strings.TrimSpace(out.Token) == "" {
		return models.LoginResponse{}, fmt.Errorf("login as %s: %w", email, ErrEmptyLoginToken)
	}

	return out, nil
}
