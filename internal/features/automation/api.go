package automation

import (
	"go-opsdesk/internal/common/api"
	"go-opsdesk/internal/config"
	"go-opsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AutomationApi struct {
	controller *AutomationController
	config     *config.Config
}

func NewAutomationApi(controller *AutomationController, config *config.Config) api.Route {
	return &AutomationApi{
		controller: controller,
		config:     config,
	}
}

func (h *AutomationApi) Setup(app *fiber.App) {
	automations := app.Group("/api/automations", middleware.AuthMiddleware(h.config.SkipAuth))

	automations.Get("/", h.controller.ListRules)
	automations.Get("/logs", h.controller.ListLogs)
	automations.Get("/logs/export", h.controller.ExportLogs)
	automations.Get("/:id", h.controller.GetRule)

	automations.Post("/", middleware.RequireOwner(), h.controller.CreateRule)
	automations.Put("/:id", middleware.RequireOwner(), h.controller.UpdateRule)
	automations.Delete("/:id", middleware.RequireOwner(), h.controller.DeleteRule)
}
