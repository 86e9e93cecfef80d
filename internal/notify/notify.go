// Package notify is the transient notification center for the
// dashboard. Notifications carry a level and a message, live for a
// fixed TTL and are consumed by the status area of the UI.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// DefaultTTL is how long a notification stays visible before it is
// auto-dismissed.
const DefaultTTL = 8 * time.Second

// Notification is one transient user-visible message.
type Notification struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Center collects notifications and expires them after their TTL.
type Center struct {
	mu    sync.Mutex
	ttl   time.Duration
	items []Notification

	now func() time.Time
}

// NewCenter creates a Center with the given TTL; zero means DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, now: time.Now}
}

// Push adds a notification and returns its ID.
func (c *Center) Push(level Level, message string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.items = append(c.items, n)
	return n.ID
}

// Success is shorthand for Push(LevelSuccess, message).
func (c *Center) Success(message string) string { return c.Push(LevelSuccess, message) }

// Error is shorthand for Push(LevelError, message).
func (c *Center) Error(message string) string { return c.Push(LevelError, message) }

// Info is shorthand for Push(LevelInfo, message).
func (c *Center) Info(message string) string { return c.Push(LevelInfo, message) }

// Active returns the notifications that have not expired, oldest first,
// pruning expired ones as a side effect.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	live := c.items[:0]
	for _, n := range c.items {
		if now.Before(n.ExpiresAt) {
			live = append(live, n)
		}
	}
	c.items = live
	out := make([]Notification, len(live))
	copy(out, live)
	return out
}

// Dismiss removes a notification by ID before its TTL elapses.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
