package audit

import (
	"go-opsdesk/internal/common/api"
	"go-opsdesk/internal/config"
	"go-opsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
}

func NewAuditApi(controller *AuditController, config *config.Config) api.Route {
	return &AuditApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	logs := app.Group("/api/audit-logs", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireOwner())

	logs.Get("/", h.controller.List)
}
