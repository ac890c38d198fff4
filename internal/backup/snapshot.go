// Package backup is the snapshot/restore engine. Three snapshot kinds
// exist (client key/value data, the server datastore, or both combined)
// and every restore first writes a pre-restore safety snapshot of the
// state it is about to overwrite.
package backup

import (
	"encoding/json"
	"time"
)

type Kind string

const (
	KindClient     Kind = "client"
	KindServer     Kind = "server"
	KindIntegrated Kind = "integrated"

	// Safety snapshots written immediately before a restore mutates
	// the matching scope.
	KindPreRestoreClient Kind = "pre-restore-client"
	KindPreRestoreServer Kind = "pre-restore-server"

	// Older exports tagged "full" are server snapshots.
	kindLegacyFull Kind = "full"
)

const FormatVersion = "1.0"

type Metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Type      Kind      `json:"type"`
}

// Snapshot is the on-disk backup format. Client and server snapshots
// carry their payload in Data; integrated snapshots populate ClientData
// and ServerData instead. Payloads stay raw until the restore handler
// for the tagged kind decodes them.
type Snapshot struct {
	Metadata   Metadata        `json:"metadata"`
	Data       json.RawMessage `json:"data,omitempty"`
	ClientData json.RawMessage `json:"clientData,omitempty"`
	ServerData json.RawMessage `json:"serverData,omitempty"`
}

// HistoryEntry records one completed backup or restore.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Action    string    `json:"action"` // "create" or "restore"
	Filename  string    `json:"filename,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
