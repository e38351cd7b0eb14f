package server

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// versionEvent is pushed to every websocket client when the tree changes.
// Clients re-fetch /api/tree when the version advances past what they hold.
type versionEvent struct {
	Version uint64 `json:"version"`
}

// hub fans tree-change notifications out to connected websocket clients.
type hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]chan versionEvent
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func newHub(logger *log.Logger) *hub {
	return &hub{
		clients: make(map[*websocket.Conn]chan versionEvent),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// broadcast queues a version event for every client. Slow clients drop
// intermediate events; only the latest version matters.
func (h *hub) broadcast(version uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- versionEvent{Version: version}:
		default:
		}
	}
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	ch := make(chan versionEvent, 8)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "remote", conn.RemoteAddr())

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Reader goroutine detects disconnects; inbound messages are ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev := <-ch:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
