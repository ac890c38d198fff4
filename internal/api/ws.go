package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sapliy/teamdesk/internal/notify"
)

// wsHub pushes every new notification to all connected clients. A slow
// or gone client is dropped rather than allowed to stall the rest.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	log   *slog.Logger
}

func newWSHub(log *slog.Logger) *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]struct{}), log: log}
}

func (h *wsHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	conn.Close()
}

// Broadcast pushes one notification to every connected client. Writes
// stay under the hub lock: gorilla/websocket allows at most one
// concurrent writer per connection, and Broadcast runs on whichever
// goroutine called Center.Add. The write deadline keeps a stalled
// client from holding the lock.
func (h *wsHub) Broadcast(n notify.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(n); err != nil {
			h.log.Debug("dropping websocket client", "error", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) notificationsWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	s.hub.add(conn)

	// Read loop only exists to notice the close.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
