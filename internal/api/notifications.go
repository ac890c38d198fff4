package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sapliy/teamdesk/internal/notify"
	"github.com/sapliy/teamdesk/internal/report"
	"github.com/sapliy/teamdesk/pkg/jsonutil"
)

func (s *Server) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	var items []notify.Notification
	if category := r.URL.Query().Get("category"); category != "" {
		items = s.center.ListByCategory(notify.Category(category))
	} else {
		items = s.center.List()
	}
	if items == nil {
		items = []notify.Notification{}
	}
	jsonutil.WriteSuccess(w, map[string]any{
		"notifications": items,
		"unread":        s.center.Unread(),
	})
}

func (s *Server) markReadHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.center.MarkRead(id); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusNotFound, err.Error())
		return
	}
	jsonutil.WriteSuccess(w, nil)
}

func (s *Server) clearNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.center.ClearAll(); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonutil.WriteSuccess(w, nil)
}

func (s *Server) getScheduleHandler(w http.ResponseWriter, r *http.Request) {
	jsonutil.WriteSuccess(w, map[string]any{"schedule": s.runner.Schedule()})
}

func (s *Server) updateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var sched report.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.runner.UpdateSchedule(sched); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	jsonutil.WriteSuccess(w, map[string]any{"schedule": sched})
}
