package settings

import (
	"go-opsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettingsController struct {
	service SettingsService
}

func NewSettingsController(service SettingsService) *SettingsController {
	return &SettingsController{
		service: service,
	}
}

// Get godoc
// @Summary Get workspace settings
// @Description Provider configuration with secrets redacted
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/settings [get]
func (c *SettingsController) Get(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	emailCfg, err := c.service.GetEmailConfig(ctx.UserContext(), workspaceID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	smsCfg, err := c.service.GetSMSConfig(ctx.UserContext(), workspaceID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"email": emailCfg,
		"sms":   smsCfg,
	})
}

// UpdateEmailConfig godoc
// @Summary Update email provider config
// @Tags settings
// @Accept json
// @Produce json
// @Param config body EmailConfig true "SMTP configuration"
// @Success 200 {object} map[string]interface{}
// @Router /api/settings/email [put]
func (c *SettingsController) UpdateEmailConfig(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	var cfg EmailConfig
	if err := ctx.BodyParser(&cfg); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateEmailConfig(ctx.UserContext(), workspaceID, cfg); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"message": "Email configuration updated"})
}

// UpdateSMSConfig godoc
// @Summary Update SMS provider config
// @Tags settings
// @Accept json
// @Produce json
// @Param config body SMSConfig true "SMS provider configuration"
// @Success 200 {object} map[string]interface{}
// @Router /api/settings/sms [put]
func (c *SettingsController) UpdateSMSConfig(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	var cfg SMSConfig
	if err := ctx.BodyParser(&cfg); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateSMSConfig(ctx.UserContext(), workspaceID, cfg); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"message": "SMS configuration updated"})
}
