// Package notify is the in-process notification log. Producers append
// typed notifications; subscribers receive a fanout of each new entry
// (the HTTP layer bridges it to open clients over websocket) while the
// producer gets its own result back and never hears its own broadcast.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sapliy/teamdesk/internal/store"
)

type Category string

const (
	CategoryGeneral Category = "general"
	CategoryReport  Category = "report"
	CategoryRequest Category = "request"
	CategoryAbsence Category = "absence"
)

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	Category  Category  `json:"category"`
}

const notificationsKey = "teamdesk.notifications"

// Center owns the notification list. The list is newest-first and
// persisted wholesale on every mutation.
type Center struct {
	mu    sync.Mutex
	kv    store.Store
	log   *slog.Logger
	items []Notification
	subs  []func(Notification)
}

func NewCenter(kv store.Store, log *slog.Logger) (*Center, error) {
	c := &Center{kv: kv, log: log}
	raw, ok := kv.Get(notificationsKey)
	if !ok || raw == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), &c.items); err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return c, nil
}

// Reload replaces the in-memory list with whatever the store holds,
// for use after a restore rewrites the persisted state.
func (c *Center) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.kv.Get(notificationsKey)
	if !ok || raw == "" {
		c.items = nil
		return nil
	}
	var items []Notification
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return fmt.Errorf("failed to reload notifications: %w", err)
	}
	c.items = items
	return nil
}

// Subscribe registers a fanout callback for newly added notifications.
// Callbacks run outside the center's lock and must not block for long.
func (c *Center) Subscribe(fn func(Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Center) persistLocked() error {
	raw, err := json.Marshal(c.items)
	if err != nil {
		return fmt.Errorf("failed to encode notifications: %w", err)
	}
	return c.kv.Set(notificationsKey, string(raw))
}

// Add prepends a fresh unread notification and fans it out. Existing
// entries are never reordered.
func (c *Center) Add(title, message string, category Category) (Notification, error) {
	n := Notification{
		ID:        uuid.New().String(),
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
		Read:      false,
		Category:  category,
	}

	c.mu.Lock()
	c.items = append([]Notification{n}, c.items...)
	if err := c.persistLocked(); err != nil {
		// The caller is told the add failed, so the entry must not
		// linger in memory or reach subscribers.
		c.items = c.items[1:]
		c.mu.Unlock()
		return Notification{}, err
	}
	subs := make([]func(Notification), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
	c.log.Debug("notification added", "id", n.ID, "category", n.Category)
	return n, nil
}

// MarkRead flips exactly one notification's read flag.
func (c *Center) MarkRead(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			return c.persistLocked()
		}
	}
	return fmt.Errorf("notification %s not found", id)
}

// ClearAll empties the list. A subsequent load must see zero entries, so
// the persisted record is removed rather than rewritten.
func (c *Center) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return c.kv.Remove(notificationsKey)
}

func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Center) ListByCategory(category Category) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Notification
	for _, n := range c.items {
		if n.Category == category {
			out = append(out, n)
		}
	}
	return out
}

func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, n := range c.items {
		if !n.Read {
			count++
		}
	}
	return count
}
