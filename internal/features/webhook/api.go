package webhook

import (
	"go-opsdesk/internal/common/api"
	"go-opsdesk/internal/config"
	"go-opsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WebhookApi struct {
	controller *WebhookController
	config     *config.Config
}

func NewWebhookApi(controller *WebhookController, config *config.Config) api.Route {
	return &WebhookApi{
		controller: controller,
		config:     config,
	}
}

// Webhook management is owner-only end to end: subscriptions carry signing
// secrets and point at external systems.
func (h *WebhookApi) Setup(app *fiber.App) {
	webhooks := app.Group("/api/webhooks", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireOwner())

	webhooks.Get("/", h.controller.List)
	webhooks.Post("/", h.controller.Create)
	webhooks.Get("/:id", h.controller.Get)
	webhooks.Put("/:id", h.controller.Update)
	webhooks.Delete("/:id", h.controller.Delete)
	webhooks.Post("/:id/test", h.controller.Test)
	webhooks.Get("/:id/deliveries", h.controller.ListDeliveries)
}
