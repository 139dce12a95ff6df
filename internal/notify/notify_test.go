package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenter_Show(t *testing.T) {
	c := NewCenter(0)

	var pushed []Toast
	c.OnPush(func(toast Toast) { pushed = append(pushed, toast) })

	okID := c.Success("saved", 0)
	errID := c.Error("failed", 0)
	c.Warning("careful", 0)
	c.Info("fyi", 0)

	toasts := c.List()
	require.Len(t, toasts, 4)
	assert.Equal(t, okID, toasts[0].ID)
	assert.Equal(t, TypeSuccess, toasts[0].Type)
	assert.Equal(t, errID, toasts[1].ID)
	assert.Equal(t, TypeError, toasts[1].Type)
	assert.Equal(t, TypeWarning, toasts[2].Type)
	assert.Equal(t, TypeInfo, toasts[3].Type)
	assert.NotEqual(t, okID, errID)
	assert.Len(t, pushed, 4)
}

func TestCenter_DefaultDuration(t *testing.T) {
	c := NewCenter(0)
	c.Info("hello")
	t.Cleanup(c.Clear)

	toasts := c.List()
	require.Len(t, toasts, 1)
	assert.Equal(t, DefaultDuration, toasts[0].Duration)
}

func TestCenter_AutoExpire(t *testing.T) {
	c := NewCenter(0)
	c.Info("short", 20*time.Millisecond)
	c.Info("sticky", 0)

	require.Eventually(t, func() bool {
		return len(c.List()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "sticky", c.List()[0].Message)
}

func TestCenter_RemoveAndClear(t *testing.T) {
	c := NewCenter(time.Minute)
	first := c.Info("one")
	c.Info("two")

	c.Remove(first)
	c.Remove("unknown")
	require.Len(t, c.List(), 1)
	assert.Equal(t, "two", c.List()[0].Message)

	c.Clear()
	assert.Empty(t, c.List())
}
