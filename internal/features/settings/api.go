package settings

import (
	"go-opsdesk/internal/common/api"
	"go-opsdesk/internal/config"
	"go-opsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettingsApi struct {
	controller *SettingsController
	config     *config.Config
}

func NewSettingsApi(controller *SettingsController, config *config.Config) api.Route {
	return &SettingsApi{
		controller: controller,
		config:     config,
	}
}

func (h *SettingsApi) Setup(app *fiber.App) {
	settings := app.Group("/api/settings", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireOwner())

	settings.Get("/", h.controller.Get)
	settings.Put("/email", h.controller.UpdateEmailConfig)
	settings.Put("/sms", h.controller.UpdateSMSConfig)
}
