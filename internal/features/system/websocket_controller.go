package system

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type WebSocketController struct {
	hub    *Hub
	logger *zap.Logger
}

func NewWebSocketController(hub *Hub, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		hub:    hub,
		logger: logger,
	}
}

// HandleWebSocket keeps the connection registered with the hub for the
// lifetime of the socket. The stream is push-only; inbound frames are
// discarded and a read error ends the session.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	workspaceID, _ := c.Locals("workspace_id").(string)
	if workspaceID == "" {
		c.Close()
		return
	}

	h.hub.Register(workspaceID, c)
	defer func() {
		h.hub.Unregister(workspaceID, c)
		c.Close()
	}()

	h.logger.Debug("websocket connected", zap.String("workspace_id", workspaceID))

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
