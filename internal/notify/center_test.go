package notify

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sapliy/teamdesk/internal/store"
)

func newTestCenter(t *testing.T) (*Center, store.Store) {
	t.Helper()
	kv := store.NewMemoryStore()
	c, err := NewCenter(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewCenter failed: %v", err)
	}
	return c, kv
}

func TestCenter_AddNewestFirst(t *testing.T) {
	c, _ := newTestCenter(t)

	if _, err := c.Add("first", "m1", CategoryGeneral); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Add("second", "m2", CategoryReport); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Add("third", "m3", CategoryReport); err != nil {
		t.Fatal(err)
	}

	list := c.List()
	if len(list) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(list))
	}
	if list[0].Title != "third" || list[2].Title != "first" {
		t.Errorf("Expected newest-first ordering, got %s..%s", list[0].Title, list[2].Title)
	}

	reports := c.ListByCategory(CategoryReport)
	if len(reports) != 2 || reports[0].Title != "third" || reports[1].Title != "second" {
		t.Errorf("ListByCategory returned wrong items: %+v", reports)
	}
	if got := c.ListByCategory(CategoryAbsence); len(got) != 0 {
		t.Errorf("Expected no absence notifications, got %+v", got)
	}
}

func TestCenter_MarkRead(t *testing.T) {
	c, _ := newTestCenter(t)
	n, _ := c.Add("a", "m", CategoryGeneral)
	c.Add("b", "m", CategoryGeneral)

	if c.Unread() != 2 {
		t.Fatalf("Expected 2 unread, got %d", c.Unread())
	}
	if err := c.MarkRead(n.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if c.Unread() != 1 {
		t.Errorf("Expected 1 unread after MarkRead, got %d", c.Unread())
	}
	if err := c.MarkRead("missing"); err == nil {
		t.Error("Expected error for unknown id")
	}
}

func TestCenter_ClearAllSurvivesReload(t *testing.T) {
	c, kv := newTestCenter(t)
	c.Add("a", "m", CategoryGeneral)
	if err := c.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if len(c.List()) != 0 {
		t.Error("Expected empty list after ClearAll")
	}

	reloaded, err := NewCenter(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded.List()) != 0 {
		t.Error("Cleared notifications must not come back after reload")
	}
}

func TestCenter_PersistenceRoundTrip(t *testing.T) {
	c, kv := newTestCenter(t)
	c.Add("kept", "m", CategoryRequest)

	reloaded, err := NewCenter(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	list := reloaded.List()
	if len(list) != 1 || list[0].Title != "kept" || list[0].Category != CategoryRequest {
		t.Errorf("Expected persisted notification to survive reload, got %+v", list)
	}
}

type flakyStore struct {
	*store.MemoryStore
	failSet bool
}

func (s *flakyStore) Set(key, value string) error {
	if s.failSet {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(key, value)
}

func TestCenter_AddRollsBackOnPersistFailure(t *testing.T) {
	kv := &flakyStore{MemoryStore: store.NewMemoryStore()}
	c, err := NewCenter(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}

	var fanned int
	c.Subscribe(func(Notification) { fanned++ })

	kv.failSet = true
	if _, err := c.Add("lost", "m", CategoryGeneral); err == nil {
		t.Fatal("Expected an error when persisting fails")
	}
	if len(c.List()) != 0 {
		t.Error("A failed Add must not leave the entry in memory")
	}
	if fanned != 0 {
		t.Error("A failed Add must not reach subscribers")
	}

	kv.failSet = false
	if _, err := c.Add("kept", "m", CategoryGeneral); err != nil {
		t.Fatal(err)
	}
	list := c.List()
	if len(list) != 1 || list[0].Title != "kept" {
		t.Errorf("Expected only the successful entry, got %+v", list)
	}
}

func TestCenter_ReloadFollowsStore(t *testing.T) {
	c, kv := newTestCenter(t)
	c.Add("cached", "m", CategoryGeneral)

	// Another writer replaces the persisted list out from under the
	// center, as a client restore does.
	replacement := Notification{ID: "r1", Title: "replacement", Category: CategoryReport}
	raw, _ := json.Marshal([]Notification{replacement})
	kv.Set("teamdesk.notifications", string(raw))

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	list := c.List()
	if len(list) != 1 || list[0].Title != "replacement" {
		t.Errorf("Expected the replaced list after Reload, got %+v", list)
	}

	if err := kv.Remove("teamdesk.notifications"); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(c.List()) != 0 {
		t.Error("Reload over a missing key must empty the list")
	}
}

func TestCenter_SubscriberFanout(t *testing.T) {
	c, _ := newTestCenter(t)

	var got []Notification
	c.Subscribe(func(n Notification) { got = append(got, n) })

	added, _ := c.Add("ping", "m", CategoryGeneral)
	if len(got) != 1 || got[0].ID != added.ID {
		t.Errorf("Expected subscriber to receive the added notification, got %+v", got)
	}
}
