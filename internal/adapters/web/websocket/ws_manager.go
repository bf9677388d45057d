package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/lcalzada-xor/cvelens/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

const writeTimeout = 5 * time.Second

// WSMessage is a server-initiated notification.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type client struct {
	conn *gorillaws.Conn
	mu   sync.Mutex
}

func (c *client) write(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(gorillaws.TextMessage, data)
}

// WSManager answers prediction requests over websocket connections.
// Each text frame is one CVE JSON object; each reply is a prediction or {"error": ...}.
type WSManager struct {
	Service  ports.PredictionService
	Clients  map[*gorillaws.Conn]*client
	upgrader gorillaws.Upgrader
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewWSManager creates a manager. An empty allowedOrigins accepts same-origin requests only.
func NewWSManager(service ports.PredictionService, allowedOrigins []string, logger *slog.Logger) *WSManager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &WSManager{
		Service: service,
		Clients: make(map[*gorillaws.Conn]*client),
		logger:  logger,
	}
	m.upgrader = gorillaws.Upgrader{
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
			logger.Warn("WebSocket: rejected origin", "origin", origin)
			return false
		},
	}
	return m
}

// Start closes every connection when ctx ends.
func (m *WSManager) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for conn := range m.Clients {
			conn.Close()
			delete(m.Clients, conn)
		}
	}()
}

// HandleWebSocket upgrades the request and serves predictions until the peer disconnects.
func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("Upgrade error", "error", err)
		return
	}
	conn.SetReadLimit(1 << 20)

	c := &client{conn: conn}
	m.mu.Lock()
	m.Clients[conn] = c
	m.mu.Unlock()
	m.logger.Debug("WebSocket connected", "remote", r.RemoteAddr)

	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.Clients, conn)
			m.mu.Unlock()
			m.logger.Debug("WebSocket disconnected", "remote", r.RemoteAddr)
		}()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind != gorillaws.TextMessage {
				continue
			}
			if err := c.write(m.answer(data)); err != nil {
				return
			}
		}
	}()
}

func (m *WSManager) answer(data []byte) interface{} {
	var req handlers.PredictRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return map[string]string{"error": "invalid JSON"}
	}
	if err := req.Validate(); err != nil {
		return map[string]string{"error": err.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	preds, err := m.Service.Predict(ctx, []domain.CVERecord{req.Record()})
	switch {
	case errors.Is(err, domain.ErrModelNotLoaded):
		return map[string]string{"error": "model not loaded"}
	case err != nil:
		m.logger.Error("WebSocket prediction failed", "cve_id", req.CVEID, "error", err)
		return map[string]string{"error": "prediction failed"}
	}
	return preds[0]
}

// NotifyReload tells every client that a new artifact is being served.
func (m *WSManager) NotifyReload(info domain.ArtifactInfo) {
	m.broadcastMessage(WSMessage{Type: "artifact:reloaded", Payload: info})
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn, c := range m.Clients {
		if err := c.write(msg); err != nil {
			conn.Close()
			delete(m.Clients, conn)
		}
	}
}
