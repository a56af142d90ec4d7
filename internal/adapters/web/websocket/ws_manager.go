package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/lcalzada-xor/airstrike/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/airstrike/internal/core/services/audit"
)

// DefaultInterval is the status push period.
const DefaultInterval = time.Second

type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WSManager pushes the engine status to every connected client.
type WSManager struct {
	Source         handlers.StatusSource
	Interval       time.Duration
	AllowedOrigins []string

	clients  map[*ws.Conn]string
	mu       sync.Mutex
	upgrader ws.Upgrader
}

func NewWSManager(source handlers.StatusSource, allowedOrigins ...string) *WSManager {
	m := &WSManager{
		Source:         source,
		Interval:       DefaultInterval,
		AllowedOrigins: allowedOrigins,
		clients:        make(map[*ws.Conn]string),
	}
	m.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

// checkOrigin accepts no Origin, the serving host itself and the allowlist.
func (m *WSManager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range m.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	log.Printf("WebSocket: Rejected origin: %s", origin)
	return false
}

func (m *WSManager) Start(ctx context.Context) {
	go m.processAndBroadcast(ctx)
}

// Clients returns the number of open connections.
func (m *WSManager) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	actor := audit.ActorFrom(r.Context())

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = actor
	m.mu.Unlock()
	log.Printf("WebSocket connected: actor=%s", actor)

	// First frame goes out immediately.
	m.send(conn, m.statusMessage())

	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			log.Printf("WebSocket disconnected: actor=%s", actor)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (m *WSManager) processAndBroadcast(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			if m.Clients() > 0 {
				m.broadcastMessage(m.statusMessage())
			}
		}
	}
}

func (m *WSManager) statusMessage() WSMessage {
	return WSMessage{Type: "status", Payload: handlers.BuildStatus(m.Source)}
}

// BroadcastLog sends a log message to all connected clients
func (m *WSManager) BroadcastLog(message string, level string) {
	m.broadcastMessage(WSMessage{
		Type:    "log",
		Payload: map[string]string{"message": message, "level": level},
	})
}

func (m *WSManager) send(conn *ws.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(conn, data)
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		m.write(conn, data)
	}
}

// write must be called with mu held.
func (m *WSManager) write(conn *ws.Conn, data []byte) {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
		conn.Close()
		delete(m.clients, conn)
	}
}

func (m *WSManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		_ = conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, ""), time.Now().Add(time.Second))
		conn.Close()
		delete(m.clients, conn)
	}
}
