// Package api is the JSON HTTP boundary: email flows, notification
// feed, schedule and config management, backups, and the thin directory
// CRUD.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sapliy/teamdesk/internal/backup"
	"github.com/sapliy/teamdesk/internal/directory"
	"github.com/sapliy/teamdesk/internal/mail"
	"github.com/sapliy/teamdesk/internal/notify"
	"github.com/sapliy/teamdesk/internal/report"
	"github.com/sapliy/teamdesk/internal/store"
	"github.com/sapliy/teamdesk/pkg/jsonutil"
)

type Server struct {
	kv       store.Store
	dir      *directory.Directory
	settings *mail.SettingsStore
	mailer   *mail.Client
	center   *notify.Center
	runner   *report.Runner
	backups  *backup.Manager
	hub      *wsHub
	log      *slog.Logger
	router   *mux.Router
}

func NewServer(
	kv store.Store,
	dir *directory.Directory,
	settings *mail.SettingsStore,
	mailer *mail.Client,
	center *notify.Center,
	runner *report.Runner,
	backups *backup.Manager,
	log *slog.Logger,
) *Server {
	s := &Server{
		kv:       kv,
		dir:      dir,
		settings: settings,
		mailer:   mailer,
		center:   center,
		runner:   runner,
		backups:  backups,
		hub:      newWSHub(log),
		log:      log,
		router:   mux.NewRouter(),
	}
	// Every new notification fans out to connected clients so other
	// open views can play their sound.
	center.Subscribe(s.hub.Broadcast)
	// A client-scope restore rewrites the persisted keys under the
	// components that cache them; reload so the API serves restored data.
	backups.AfterClientRestore(settings.Reload, center.Reload, runner.Reload)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Email
	s.router.HandleFunc("/api/email/config", s.getEmailConfigHandler).Methods("GET")
	s.router.HandleFunc("/api/email/config", s.updateEmailConfigHandler).Methods("PUT")
	s.router.HandleFunc("/api/email/send-test", s.sendTestHandler).Methods("POST")
	s.router.HandleFunc("/api/email/send-welcome", s.sendWelcomeHandler).Methods("POST")
	s.router.HandleFunc("/api/email/send-activity-report", s.sendActivityReportHandler).Methods("POST")

	// Schedule
	s.router.HandleFunc("/api/schedule", s.getScheduleHandler).Methods("GET")
	s.router.HandleFunc("/api/schedule", s.updateScheduleHandler).Methods("PUT")

	// Notifications
	s.router.HandleFunc("/api/notifications", s.listNotificationsHandler).Methods("GET")
	s.router.HandleFunc("/api/notifications", s.clearNotificationsHandler).Methods("DELETE")
	s.router.HandleFunc("/api/notifications/{id}/read", s.markReadHandler).Methods("POST")
	s.router.HandleFunc("/api/notifications/ws", s.notificationsWSHandler)

	// Backups
	s.router.HandleFunc("/api/backup/create", s.createBackupHandler).Methods("POST")
	s.router.HandleFunc("/api/backup/export-data", s.exportDataHandler).Methods("GET")
	s.router.HandleFunc("/api/backup/list", s.listBackupsHandler).Methods("GET")
	s.router.HandleFunc("/api/backup/download/{filename}", s.downloadBackupHandler).Methods("GET")
	s.router.HandleFunc("/api/backup/restore", s.restoreBackupHandler).Methods("POST")

	// Directory CRUD
	s.router.HandleFunc("/api/departments", s.listDepartmentsHandler).Methods("GET")
	s.router.HandleFunc("/api/employees", s.listEmployeesHandler).Methods("GET")
	s.router.HandleFunc("/api/employees", s.addEmployeeHandler).Methods("POST")
	s.router.HandleFunc("/api/resources", s.listResourcesHandler).Methods("GET")
	s.router.HandleFunc("/api/resources", s.addResourceHandler).Methods("POST")
	s.router.HandleFunc("/api/requests", s.listRequestsHandler).Methods("GET")
	s.router.HandleFunc("/api/requests", s.addRequestHandler).Methods("POST")

	s.router.Use(s.corsMiddleware)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
