// Package apierror classifies failed backend calls into user-facing errors.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the class of a failure.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindBadRequest   Kind = "bad_request"
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
	KindUnknown      Kind = "unknown"
)

// User-facing messages.
const (
	MsgSessionExpired = "session expired, please log in again"
	MsgNotFound       = "resource not found"
	MsgInvalidData    = "invalid data"
	MsgServer         = "internal server error"
	MsgNoConnection   = "no connection to the server"
)

// Error is a classified backend failure.
type Error struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Method  string `json:"-"`
	URL     string `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// FromResponse classifies a non-2xx response. body may be nil.
func FromResponse(status int, body []byte) *Error {
	e := &Error{Status: status}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		e.Message = MsgSessionExpired
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		e.Message = MsgNotFound
	case status == http.StatusBadRequest:
		e.Kind = KindBadRequest
		e.Message = messageOr(body, MsgInvalidData)
	case status == http.StatusInternalServerError:
		e.Kind = KindServer
		e.Message = messageOr(body, MsgServer)
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
		e.Message = generic(status)
	case status > http.StatusInternalServerError:
		e.Kind = KindServer
		e.Message = generic(status)
	default:
		e.Kind = KindUnknown
		e.Message = generic(status)
	}

	return e
}

// Network wraps a transport failure where no response was received.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNoConnection, Err: err}
}

// Unauthorized builds an unauthorized error that did not come from a response,
// such as a request refused locally because the session is gone.
func Unauthorized(err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: MsgSessionExpired, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsUnauthorized reports whether err is an unauthorized failure.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// BodyMessage extracts the "message" field of a JSON error body.
func BodyMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

func messageOr(body []byte, fallback string) string {
	if msg := BodyMessage(body); msg != "" {
		return msg
	}
	return fallback
}

func generic(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return fmt.Sprintf("error %d", status)
	}
	return fmt.Sprintf("error %d: %s", status, text)
}
