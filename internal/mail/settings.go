package mail

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sapliy/teamdesk/internal/store"
)

const settingsKey = "teamdesk.email_config"

// SettingsStore is the single owner of the transport config. Every read
// and write goes through it; updates are resolver+validator gated and
// either fully replace the stored config or leave it untouched.
type SettingsStore struct {
	mu  sync.RWMutex
	kv  store.Store
	cfg Config
}

func NewSettingsStore(kv store.Store) (*SettingsStore, error) {
	s := &SettingsStore{kv: kv}
	raw, ok := kv.Get(settingsKey)
	if !ok {
		s.cfg = Resolve(Config{}, Patch{Provider: providerPtr(ProviderCustom)})
		return s, nil
	}
	if err := json.Unmarshal([]byte(raw), &s.cfg); err != nil {
		return nil, fmt.Errorf("failed to load email config: %w", err)
	}
	return s, nil
}

func providerPtr(p Provider) *Provider { return &p }

// Reload re-reads the persisted config, discarding the cached copy.
// Used after a restore replaces the stored state out from under it.
func (s *SettingsStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.kv.Get(settingsKey)
	if !ok {
		s.cfg = Resolve(Config{}, Patch{Provider: providerPtr(ProviderCustom)})
		return nil
	}
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return fmt.Errorf("failed to reload email config: %w", err)
	}
	s.cfg = cfg
	return nil
}

func (s *SettingsStore) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update resolves the patch against the current config and validates the
// result. A non-empty error list means nothing was persisted.
func (s *SettingsStore) Update(patch Patch) (Config, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := Resolve(s.cfg, patch)
	if errs := Validate(resolved); len(errs) > 0 {
		return s.cfg, errs, nil
	}

	raw, err := json.Marshal(resolved)
	if err != nil {
		return s.cfg, nil, fmt.Errorf("failed to encode email config: %w", err)
	}
	if err := s.kv.Set(settingsKey, string(raw)); err != nil {
		return s.cfg, nil, fmt.Errorf("failed to persist email config: %w", err)
	}
	s.cfg = resolved
	return resolved, nil, nil
}
