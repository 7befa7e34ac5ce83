package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

const writeWait = 5 * time.Second

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSManager pushes sender events to every connected client.
type WSManager struct {
	Clients map[*gws.Conn]string
	mu      sync.Mutex

	upgrader gws.Upgrader
	log      *slog.Logger
}

var _ ports.EventPublisher = (*WSManager)(nil)

// NewWSManager accepts connections without an Origin header or from one of
// allowedOrigins.
func NewWSManager(allowedOrigins []string) *WSManager {
	m := &WSManager{
		Clients: make(map[*gws.Conn]string),
		log:     slog.Default().With("component", "websocket"),
	}
	m.upgrader = gws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			m.log.Warn("rejected websocket origin", "origin", origin)
			return false
		},
	}
	return m
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Debug("upgrade failed", "error", err)
		return
	}

	m.mu.Lock()
	m.Clients[conn] = r.RemoteAddr
	m.mu.Unlock()
	m.log.Info("websocket connected", "remote", r.RemoteAddr)

	// Reads only detect the disconnect.
	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.Clients, conn)
			m.mu.Unlock()
			conn.Close()
			m.log.Info("websocket disconnected", "remote", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish broadcasts a sender event.
func (m *WSManager) Publish(event ports.SenderEvent) {
	m.broadcastMessage(WSMessage{Type: event.Type, Payload: event.Status})
}

func (m *WSManager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Clients)
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		m.log.Error("json marshal failed", "type", msg.Type, "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.Clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(gws.TextMessage, data); err != nil {
			conn.Close()
			delete(m.Clients, conn)
		}
	}
}
