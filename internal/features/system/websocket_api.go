package system

import (
	"go-opsdesk/internal/common/api"
	"go-opsdesk/internal/config"
	"go-opsdesk/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WebSocketApi struct {
	Controller *WebSocketController
	Config     *config.Config
}

func NewWebSocketApi(controller *WebSocketController, cfg *config.Config) api.Route {
	return &WebSocketApi{
		Controller: controller,
		Config:     cfg,
	}
}

// Setup authenticates the upgrade via a token query parameter (browsers cannot
// set an Authorization header on websocket handshakes) and stashes the
// workspace id for the connection handler.
func (h *WebSocketApi) Setup(app *fiber.App) {
	app.Use("/api/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		if h.Config.SkipAuth {
			c.Locals("workspace_id", primitive.NilObjectID.Hex())
			return c.Next()
		}

		claims, err := utils.ValidateToken(c.Query("token"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		c.Locals("workspace_id", claims.WorkspaceID)
		return c.Next()
	})

	app.Get("/api/ws", websocket.New(h.Controller.HandleWebSocket))
}
