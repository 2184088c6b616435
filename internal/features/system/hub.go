package system

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Hub tracks live websocket connections per workspace and pushes alert
// payloads to them. A workspace with no connections is a no-op broadcast.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[*websocket.Conn]bool
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]map[*websocket.Conn]bool),
		logger: logger,
	}
}

func (h *Hub) Register(workspaceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[workspaceID] == nil {
		h.conns[workspaceID] = make(map[*websocket.Conn]bool)
	}
	h.conns[workspaceID][conn] = true
}

func (h *Hub) Unregister(workspaceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[workspaceID], conn)
	if len(h.conns[workspaceID]) == 0 {
		delete(h.conns, workspaceID)
	}
}

// Broadcast sends a JSON message to every connection in the workspace.
// Connections that fail to write are dropped.
func (h *Hub) Broadcast(workspaceID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns[workspaceID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("dropping dead websocket connection",
				zap.String("workspace_id", workspaceID),
				zap.Error(err),
			)
			conn.Close()
			delete(h.conns[workspaceID], conn)
		}
	}
}
