package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "teamdesk.json")

	s := NewFileStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load on missing file should succeed, got %v", err)
	}

	if err := s.Set("schedule", `{"enabled":true}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("last_backup", "2026-08-31T07:00:00Z"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh store over the same file must see both keys.
	reopened := NewFileStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	v, ok := reopened.Get("schedule")
	if !ok || v != `{"enabled":true}` {
		t.Errorf("Expected persisted schedule value, got %q (ok=%v)", v, ok)
	}

	if err := reopened.Remove("schedule"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := reopened.Get("schedule"); ok {
		t.Error("Expected schedule key to be gone after Remove")
	}

	keys := reopened.Keys()
	if len(keys) != 1 || keys[0] != "last_backup" {
		t.Errorf("Expected [last_backup], got %v", keys)
	}
}

func TestFileStore_LoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load on empty file should succeed, got %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Errorf("Expected no keys, got %v", s.Keys())
	}
}
