package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sapliy/teamdesk/internal/backup"
	"github.com/sapliy/teamdesk/internal/directory"
	"github.com/sapliy/teamdesk/internal/mail"
	"github.com/sapliy/teamdesk/internal/notify"
	"github.com/sapliy/teamdesk/internal/report"
	"github.com/sapliy/teamdesk/internal/store"
)

type fakeTransport struct {
	verifyErr error
	sendErr   error
	sent      []mail.Message
}

func (f *fakeTransport) Verify(ctx context.Context, cfg mail.Config) error { return f.verifyErr }

func (f *fakeTransport) Send(ctx context.Context, cfg mail.Config, msg mail.Message) (*mail.SendResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, msg)
	return &mail.SendResult{MessageID: "fake-id"}, nil
}

func testServer(t *testing.T, transport *fakeTransport) (*Server, *directory.Directory) {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv := store.NewMemoryStore()
	dir := directory.NewSeeded()

	settings, err := mail.NewSettingsStore(kv)
	if err != nil {
		t.Fatal(err)
	}
	provider := mail.ProviderCustom
	enabled := true
	host := "mail.example.com"
	user, pass := "u", "p"
	from := "teamdesk@example.com"
	if _, errs, err := settings.Update(mail.Patch{
		Provider: &provider, Host: &host,
		Username: &user, Password: &pass,
		FromEmail: &from, Enabled: &enabled,
	}); err != nil || len(errs) > 0 {
		t.Fatalf("settings update failed: %v %v", errs, err)
	}

	mailer := mail.NewClientWith(discard, transport, transport)
	center, err := notify.NewCenter(kv, discard)
	if err != nil {
		t.Fatal(err)
	}
	runner, err := report.NewRunner(kv, settings, mailer, center, dir, nil, discard)
	if err != nil {
		t.Fatal(err)
	}
	backups := backup.NewManager(kv, dir, t.TempDir(), discard)

	return NewServer(kv, dir, settings, mailer, center, runner, backups, discard), dir
}

func TestSendTestHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		transport      *fakeTransport
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success",
			body:           `{"recipient":"someone@example.com"}`,
			transport:      &fakeTransport{},
			expectedStatus: http.StatusOK,
			expectedBody:   `"success":true`,
		},
		{
			name:           "invalid recipient",
			body:           `{"recipient":"nope"}`,
			transport:      &fakeTransport{},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "not a valid email",
		},
		{
			name:           "verify failure classified",
			body:           `{"recipient":"someone@example.com"}`,
			transport:      &fakeTransport{verifyErr: errors.New("Greeting never received")},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServer(t, tt.transport)

			req := httptest.NewRequest("POST", "/api/email/send-test", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("Expected body to contain %q, got %s", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestUpdateEmailConfig_RejectsInvalidEnabled(t *testing.T) {
	srv, _ := testServer(t, &fakeTransport{})

	// Switching to resend with mismatched credentials must not persist.
	body := `{"provider":"resend","username":"key-a","password":"key-b","enabled":true}`
	req := httptest.NewRequest("PUT", "/api/email/config", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d (%s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "API key") {
		t.Errorf("Expected the resend API key error, got %s", w.Body.String())
	}
	if cfg := srv.settings.Get(); cfg.Provider != mail.ProviderCustom {
		t.Errorf("Stored config must stay unchanged on validation failure, got provider %s", cfg.Provider)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	srv, _ := testServer(t, &fakeTransport{})
	n, err := srv.center.Add("hello", "world", notify.CategoryGeneral)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/api/notifications", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "hello") {
		t.Fatalf("Expected the notification in the list, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("POST", "/api/notifications/"+n.ID+"/read", nil))
	if w.Code != http.StatusOK {
		t.Errorf("MarkRead failed: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/notifications", nil))
	if w.Code != http.StatusOK {
		t.Errorf("ClearAll failed: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/api/notifications", nil))
	if !strings.Contains(w.Body.String(), `"notifications":[]`) {
		t.Errorf("Expected empty list after clear, got %s", w.Body.String())
	}
}

func TestNotificationsWS_ConcurrentAdds(t *testing.T) {
	srv, _ := testServer(t, &fakeTransport{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/notifications/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// Wait for the hub to register the connection before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for {
		srv.hub.mu.Lock()
		registered := len(srv.hub.conns)
		srv.hub.mu.Unlock()
		if registered == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Adds land on many goroutines at once; every fanout write must
	// still arrive as a well-formed frame.
	const adds = 50
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := srv.center.Add(fmt.Sprintf("n-%d", i), "m", notify.CategoryGeneral); err != nil {
				t.Errorf("Add failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	seen := make(map[string]bool)
	for i := 0; i < adds; i++ {
		var got notify.Notification
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		seen[got.Title] = true
	}
	if len(seen) != adds {
		t.Errorf("Expected %d distinct notifications, got %d", adds, len(seen))
	}
}

func TestRestoreClient_ReloadsLiveComponents(t *testing.T) {
	srv, _ := testServer(t, &fakeTransport{})
	if _, err := srv.center.Add("before", "m", notify.CategoryGeneral); err != nil {
		t.Fatal(err)
	}

	restoredList := []notify.Notification{{
		ID: "r1", Title: "restored", Message: "m",
		Timestamp: time.Now(), Category: notify.CategoryGeneral,
	}}
	rawList, _ := json.Marshal(restoredList)
	rawCfg, _ := json.Marshal(mail.Config{Provider: mail.ProviderCustom, Port: "587"})
	blob, _ := json.Marshal(map[string]any{
		"metadata": map[string]string{"version": "1.0", "createdAt": "2026-03-01T00:00:00Z", "type": "client"},
		"data": map[string]string{
			"teamdesk.notifications": string(rawList),
			"teamdesk.email_config":  string(rawCfg),
		},
	})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("POST", "/api/backup/restore", bytes.NewReader(blob)))
	if w.Code != http.StatusOK {
		t.Fatalf("Restore failed: %d (%s)", w.Code, w.Body.String())
	}

	// The live components must serve the restored state, not their caches.
	list := srv.center.List()
	if len(list) != 1 || list[0].Title != "restored" {
		t.Fatalf("Expected the restored notification list, got %+v", list)
	}
	if cfg := srv.settings.Get(); cfg.Enabled {
		t.Error("Restored email config is disabled; the settings cache must follow")
	}

	// The next mutation builds on the restored state instead of
	// writing the stale cache back over it.
	if _, err := srv.center.Add("after", "m", notify.CategoryGeneral); err != nil {
		t.Fatal(err)
	}
	reloaded, err := notify.NewCenter(srv.kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	persisted := reloaded.List()
	if len(persisted) != 2 || persisted[0].Title != "after" || persisted[1].Title != "restored" {
		t.Errorf("Expected [after restored] persisted, got %+v", persisted)
	}
}

func TestBackupRestoreEndpoint_RejectsBogusType(t *testing.T) {
	srv, _ := testServer(t, &fakeTransport{})

	blob := `{"metadata":{"version":"1.0","createdAt":"2026-03-02T07:00:00Z","type":"bogus"}}`
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("POST", "/api/backup/restore", strings.NewReader(blob)))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unrecognized backup type") {
		t.Errorf("Expected the restore error surfaced as-is, got %s", w.Body.String())
	}
}

func TestResourceRequest_AlertsLead(t *testing.T) {
	transport := &fakeTransport{}
	srv, dir := testServer(t, transport)

	dept := dir.ListDepartments()[0]
	employee := dir.AddEmployee("Req Uester", "req@example.com", dept.ID, "member")
	resource := dir.ListResources()[0]

	body := `{"employeeId":"` + employee.ID + `","resourceId":"` + resource.ID + `","quantity":2}`
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("POST", "/api/requests", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if len(transport.sent) != 1 {
		t.Fatalf("Expected one alert email to the lead, got %d", len(transport.sent))
	}
	lead, err := dir.FindDepartmentLead(dept.ID)
	if err != nil {
		t.Fatal(err)
	}
	if transport.sent[0].To[0] != lead.Email {
		t.Errorf("Alert must go to the department lead %s, got %v", lead.Email, transport.sent[0].To)
	}

	requests := srv.center.ListByCategory(notify.CategoryRequest)
	if len(requests) != 1 {
		t.Errorf("Expected a request notification, got %+v", requests)
	}
}
