// Package notify holds short-lived user-visible notices (toasts).
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Type is the severity of a toast.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// DefaultDuration is how long a toast stays visible when none is given.
const DefaultDuration = 4 * time.Second

// Toast is a single notice.
type Toast struct {
	ID       string        `json:"id"`
	Type     Type          `json:"type"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
}

// Notifier surfaces user-visible messages.
type Notifier interface {
	Success(message string, duration ...time.Duration) string
	Error(message string, duration ...time.Duration) string
	Warning(message string, duration ...time.Duration) string
	Info(message string, duration ...time.Duration) string
}

// Center keeps the visible toasts. A toast with a positive duration is
// removed automatically once it elapses; a zero duration keeps it until
// Remove or Clear.
type Center struct {
	mu              sync.Mutex
	toasts          []Toast
	timers          map[string]*time.Timer
	listeners       []func(Toast)
	defaultDuration time.Duration
}

var _ Notifier = (*Center)(nil)

// NewCenter creates a center. A non-positive defaultDuration uses DefaultDuration.
func NewCenter(defaultDuration time.Duration) *Center {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Center{
		timers:          make(map[string]*time.Timer),
		defaultDuration: defaultDuration,
	}
}

func (c *Center) Success(message string, duration ...time.Duration) string {
	return c.show(TypeSuccess, message, duration)
}

func (c *Center) Error(message string, duration ...time.Duration) string {
	return c.show(TypeError, message, duration)
}

func (c *Center) Warning(message string, duration ...time.Duration) string {
	return c.show(TypeWarning, message, duration)
}

func (c *Center) Info(message string, duration ...time.Duration) string {
	return c.show(TypeInfo, message, duration)
}

func (c *Center) show(typ Type, message string, duration []time.Duration) string {
	toast := Toast{
		ID:       uuid.NewString(),
		Type:     typ,
		Message:  message,
		Duration: c.defaultDuration,
	}
	if len(duration) > 0 {
		toast.Duration = duration[0]
	}

	c.mu.Lock()
	c.toasts = append(c.toasts, toast)
	if toast.Duration > 0 {
		id := toast.ID
		c.timers[id] = time.AfterFunc(toast.Duration, func() { c.Remove(id) })
	}
	listeners := append([]func(Toast){}, c.listeners...)
	c.mu.Unlock()

	log.Debug().Str("id", toast.ID).Str("type", string(typ)).Str("message", message).Msg("toast shown")

	for _, fn := range listeners {
		fn(toast)
	}

	return toast.ID
}

// Remove drops the toast with the given id. Unknown ids are ignored.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}

	kept := c.toasts[:0]
	for _, toast := range c.toasts {
		if toast.ID != id {
			kept = append(kept, toast)
		}
	}
	c.toasts = kept
}

// Clear drops every toast.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.toasts = nil
}

// List returns the visible toasts, oldest first.
func (c *Center) List() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Toast(nil), c.toasts...)
}

// OnPush registers fn to be called for every new toast.
func (c *Center) OnPush(fn func(Toast)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}
