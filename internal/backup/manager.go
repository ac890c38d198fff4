package backup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sapliy/teamdesk/internal/directory"
	"github.com/sapliy/teamdesk/internal/store"
	"github.com/sapliy/teamdesk/pkg/metrics"
)

const (
	historyKey    = "teamdesk.backup_history"
	lastBackupKey = "teamdesk.last_backup"
)

// Client-side keys that never leave the machine in a backup.
var excludedKeyPrefixes = []string{"session", "auth_token", "csrf"}

func excludedKey(key string) bool {
	for _, prefix := range excludedKeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

type Manager struct {
	mu        sync.Mutex
	kv        store.Store
	dir       *directory.Directory
	backupDir string
	log       *slog.Logger
	now       func() time.Time

	afterClientRestore []func() error
}

func NewManager(kv store.Store, dir *directory.Directory, backupDir string, log *slog.Logger) *Manager {
	return &Manager{
		kv:        kv,
		dir:       dir,
		backupDir: backupDir,
		log:       log,
		now:       time.Now,
	}
}

// AfterClientRestore registers hooks that run once a client-scope
// restore has replaced the persisted keys. Components caching store
// state register their reloads here so a restore reaches them too.
func (m *Manager) AfterClientRestore(fns ...func() error) {
	m.afterClientRestore = append(m.afterClientRestore, fns...)
}

func (m *Manager) metadata(kind Kind) Metadata {
	return Metadata{Version: FormatVersion, CreatedAt: m.now().UTC(), Type: kind}
}

// filename embeds the creation time; colons are swapped for dashes so
// the name is safe on every filesystem.
func (m *Manager) filename(kind Kind) string {
	stamp := strings.ReplaceAll(m.now().UTC().Format(time.RFC3339), ":", "-")
	return fmt.Sprintf("teamdesk-backup-%s-%s.json", kind, stamp)
}

func (m *Manager) writeSnapshot(snap Snapshot) (string, error) {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	name := m.filename(snap.Metadata.Type)
	if err := os.WriteFile(filepath.Join(m.backupDir, name), raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return name, nil
}

func (m *Manager) clientData() (json.RawMessage, error) {
	data := make(map[string]string)
	for _, key := range m.kv.Keys() {
		if excludedKey(key) {
			continue
		}
		if v, ok := m.kv.Get(key); ok {
			data[key] = v
		}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode client data: %w", err)
	}
	return raw, nil
}

func (m *Manager) serverData() (json.RawMessage, error) {
	raw, err := json.Marshal(m.dir.Export())
	if err != nil {
		return nil, fmt.Errorf("failed to encode server data: %w", err)
	}
	return raw, nil
}

func (m *Manager) recordHistory(kind Kind, action, filename string) {
	entry := HistoryEntry{
		ID:        uuid.New().String(),
		Kind:      kind,
		Action:    action,
		Filename:  filename,
		Timestamp: m.now(),
	}
	var history []HistoryEntry
	if raw, ok := m.kv.Get(historyKey); ok && raw != "" {
		// A corrupt history record is not worth failing a backup over.
		_ = json.Unmarshal([]byte(raw), &history)
	}
	history = append([]HistoryEntry{entry}, history...)
	if raw, err := json.Marshal(history); err == nil {
		if err := m.kv.Set(historyKey, string(raw)); err != nil {
			m.log.Error("failed to persist backup history", "error", err)
		}
	}
	if err := m.kv.Set(lastBackupKey, m.now().UTC().Format(time.RFC3339)); err != nil {
		m.log.Error("failed to persist last-backup timestamp", "error", err)
	}
}

func (m *Manager) History() []HistoryEntry {
	var history []HistoryEntry
	if raw, ok := m.kv.Get(historyKey); ok && raw != "" {
		_ = json.Unmarshal([]byte(raw), &history)
	}
	return history
}

// CreateClientSnapshot exports every persisted key/value pair except the
// session/token exclusion set.
func (m *Manager) CreateClientSnapshot() (Snapshot, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createClientLocked()
}

func (m *Manager) createClientLocked() (Snapshot, string, error) {
	data, err := m.clientData()
	if err != nil {
		return Snapshot{}, "", err
	}
	snap := Snapshot{Metadata: m.metadata(KindClient), Data: data}
	name, err := m.writeSnapshot(snap)
	if err != nil {
		return Snapshot{}, "", err
	}
	m.recordHistory(KindClient, "create", name)
	metrics.BackupsCreated.WithLabelValues(string(KindClient)).Inc()
	m.log.Info("client backup created", "file", name)
	return snap, name, nil
}

// CreateServerSnapshot exports the whole server datastore.
func (m *Manager) CreateServerSnapshot() (Snapshot, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createServerLocked()
}

func (m *Manager) createServerLocked() (Snapshot, string, error) {
	data, err := m.serverData()
	if err != nil {
		return Snapshot{}, "", err
	}
	snap := Snapshot{Metadata: m.metadata(KindServer), Data: data}
	name, err := m.writeSnapshot(snap)
	if err != nil {
		return Snapshot{}, "", err
	}
	m.recordHistory(KindServer, "create", name)
	metrics.BackupsCreated.WithLabelValues(string(KindServer)).Inc()
	m.log.Info("server backup created", "file", name)
	return snap, name, nil
}

// CreateIntegratedSnapshot combines client and server data in one file.
func (m *Manager) CreateIntegratedSnapshot() (Snapshot, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clientData, err := m.clientData()
	if err != nil {
		return Snapshot{}, "", err
	}
	serverData, err := m.serverData()
	if err != nil {
		return Snapshot{}, "", err
	}
	snap := Snapshot{
		Metadata:   m.metadata(KindIntegrated),
		ClientData: clientData,
		ServerData: serverData,
	}
	name, err := m.writeSnapshot(snap)
	if err != nil {
		return Snapshot{}, "", err
	}
	m.recordHistory(KindIntegrated, "create", name)
	metrics.BackupsCreated.WithLabelValues(string(KindIntegrated)).Inc()
	m.log.Info("integrated backup created", "file", name)
	return snap, name, nil
}

// List returns the snapshot files currently in the backup directory,
// newest name first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Open reads one snapshot file back, for downloads. The name is
// sanitized against path traversal.
func (m *Manager) Open(name string) ([]byte, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".json") {
		return nil, fmt.Errorf("invalid backup filename %q", name)
	}
	raw, err := os.ReadFile(filepath.Join(m.backupDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read backup %s: %w", name, err)
	}
	return raw, nil
}

// Restore parses a snapshot blob and dispatches to the handler for its
// tagged kind. Any parse, metadata or payload problem aborts before a
// single byte of current state changes.
func (m *Manager) Restore(blob []byte) error {
	var probe struct {
		Metadata   *Metadata       `json:"metadata"`
		Data       json.RawMessage `json:"data"`
		ClientData json.RawMessage `json:"clientData"`
		ServerData json.RawMessage `json:"serverData"`
	}
	if err := json.Unmarshal(blob, &probe); err != nil {
		return fmt.Errorf("backup is not valid JSON: %w", err)
	}
	if probe.Metadata == nil {
		return fmt.Errorf("backup is missing its metadata block")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kind := probe.Metadata.Type
	switch kind {
	case KindClient:
		return m.restoreClient(probe.Data)
	case KindServer, kindLegacyFull:
		return m.restoreServer(probe.Data)
	case KindIntegrated:
		if err := m.restoreServer(probe.ServerData); err != nil {
			return err
		}
		return m.restoreClient(probe.ClientData)
	default:
		return fmt.Errorf("unrecognized backup type %q", kind)
	}
}

func (m *Manager) restoreClient(payload json.RawMessage) error {
	if len(payload) == 0 {
		return fmt.Errorf("backup has no client payload")
	}
	var incoming map[string]string
	if err := json.Unmarshal(payload, &incoming); err != nil {
		return fmt.Errorf("client payload is malformed: %w", err)
	}

	// Safety snapshot of the data about to be overwritten.
	current, err := m.clientData()
	if err != nil {
		return err
	}
	preName, err := m.writeSnapshot(Snapshot{Metadata: m.metadata(KindPreRestoreClient), Data: current})
	if err != nil {
		return fmt.Errorf("failed to write pre-restore snapshot: %w", err)
	}
	m.recordHistory(KindPreRestoreClient, "create", preName)

	// Full overwrite of the client scope, never a merge.
	for _, key := range m.kv.Keys() {
		if excludedKey(key) {
			continue
		}
		if err := m.kv.Remove(key); err != nil {
			return fmt.Errorf("failed to clear key %s: %w", key, err)
		}
	}
	for key, value := range incoming {
		if excludedKey(key) {
			continue
		}
		if err := m.kv.Set(key, value); err != nil {
			return fmt.Errorf("failed to restore key %s: %w", key, err)
		}
	}

	for _, fn := range m.afterClientRestore {
		if err := fn(); err != nil {
			return fmt.Errorf("restored data could not be reloaded: %w", err)
		}
	}

	m.recordHistory(KindClient, "restore", "")
	metrics.BackupsRestored.WithLabelValues(string(KindClient)).Inc()
	m.log.Info("client data restored", "keys", len(incoming))
	return nil
}

func (m *Manager) restoreServer(payload json.RawMessage) error {
	if len(payload) == 0 {
		return fmt.Errorf("backup has no server payload")
	}
	var incoming directory.Export
	if err := json.Unmarshal(payload, &incoming); err != nil {
		return fmt.Errorf("server payload is malformed: %w", err)
	}

	current, err := m.serverData()
	if err != nil {
		return err
	}
	preName, err := m.writeSnapshot(Snapshot{Metadata: m.metadata(KindPreRestoreServer), Data: current})
	if err != nil {
		return fmt.Errorf("failed to write pre-restore snapshot: %w", err)
	}
	m.recordHistory(KindPreRestoreServer, "create", preName)

	if err := m.dir.Import(incoming); err != nil {
		return fmt.Errorf("server restore failed: %w", err)
	}

	m.recordHistory(KindServer, "restore", "")
	metrics.BackupsRestored.WithLabelValues(string(KindServer)).Inc()
	m.log.Info("server data restored",
		"departments", len(incoming.Departments),
		"employees", len(incoming.Employees))
	return nil
}

// LastBackupAt returns the persisted last-backup timestamp, if any.
func (m *Manager) LastBackupAt() (time.Time, bool) {
	raw, ok := m.kv.Get(lastBackupKey)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
