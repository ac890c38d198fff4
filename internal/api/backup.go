package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sapliy/teamdesk/internal/backup"
	"github.com/sapliy/teamdesk/pkg/jsonutil"
)

type createBackupRequest struct {
	Kind string `json:"kind"` // client, server or integrated; default server
}

func (s *Server) createBackupHandler(w http.ResponseWriter, r *http.Request) {
	var req createBackupRequest
	if r.Body != nil {
		// An empty body means a plain server backup.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var (
		filename string
		err      error
	)
	switch backup.Kind(req.Kind) {
	case backup.KindClient:
		_, filename, err = s.backups.CreateClientSnapshot()
	case backup.KindIntegrated:
		_, filename, err = s.backups.CreateIntegratedSnapshot()
	case backup.KindServer, "":
		_, filename, err = s.backups.CreateServerSnapshot()
	default:
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "unknown backup kind "+req.Kind)
		return
	}
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonutil.WriteSuccess(w, map[string]any{"filename": filename})
}

// exportDataHandler streams the current server datastore as a snapshot,
// for client-side integrated backups.
func (s *Server) exportDataHandler(w http.ResponseWriter, r *http.Request) {
	snap, _, err := s.backups.CreateServerSnapshot()
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) listBackupsHandler(w http.ResponseWriter, r *http.Request) {
	files, err := s.backups.List()
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []string{}
	}
	extra := map[string]any{"backups": files, "history": s.backups.History()}
	if last, ok := s.backups.LastBackupAt(); ok {
		extra["lastBackup"] = last
	}
	jsonutil.WriteSuccess(w, extra)
}

func (s *Server) downloadBackupHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	raw, err := s.backups.Open(name)
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Write(raw)
}

func (s *Server) restoreBackupHandler(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "failed to read request body: "+err.Error())
		return
	}
	if err := s.backups.Restore(blob); err != nil {
		// Restore errors are surfaced as-is; nothing was mutated on
		// format errors and partial server failures must not be masked.
		jsonutil.WriteErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	jsonutil.WriteSuccess(w, nil)
}
