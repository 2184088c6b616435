package webhook

import (
	"strconv"

	"go-opsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WebhookController struct {
	service WebhookService
}

func NewWebhookController(service WebhookService) *WebhookController {
	return &WebhookController{
		service: service,
	}
}

// Create godoc
// @Summary Create webhook subscription
// @Description Create a webhook. The signing secret is returned once and never again.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param webhook body CreateWebhookRequest true "Webhook"
// @Success 201 {object} map[string]interface{}
// @Router /api/webhooks [post]
func (c *WebhookController) Create(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	var req CreateWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	w, secret, err := c.service.CreateWebhook(ctx.UserContext(), workspaceID, &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"webhook": w,
		"secret":  secret,
	})
}

// List godoc
// @Summary List webhook subscriptions
// @Tags webhooks
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/webhooks [get]
func (c *WebhookController) List(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	webhooks, err := c.service.ListWebhooks(ctx.UserContext(), workspaceID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"data": webhooks})
}

// Get godoc
// @Summary Get webhook subscription
// @Tags webhooks
// @Produce json
// @Param id path string true "Webhook ID"
// @Success 200 {object} Webhook
// @Router /api/webhooks/{id} [get]
func (c *WebhookController) Get(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	w, err := c.service.GetWebhook(ctx.UserContext(), workspaceID, ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Webhook not found"})
	}

	return ctx.JSON(w)
}

// Update godoc
// @Summary Update webhook subscription
// @Tags webhooks
// @Accept json
// @Produce json
// @Param id path string true "Webhook ID"
// @Param webhook body UpdateWebhookRequest true "Fields to update"
// @Success 200 {object} Webhook
// @Router /api/webhooks/{id} [put]
func (c *WebhookController) Update(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	var req UpdateWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	w, err := c.service.UpdateWebhook(ctx.UserContext(), workspaceID, ctx.Params("id"), &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(w)
}

// Delete godoc
// @Summary Delete webhook subscription
// @Tags webhooks
// @Param id path string true "Webhook ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/webhooks/{id} [delete]
func (c *WebhookController) Delete(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	if err := c.service.DeleteWebhook(ctx.UserContext(), workspaceID, ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Webhook not found"})
	}

	return ctx.JSON(fiber.Map{"message": "Webhook deleted"})
}

// Test godoc
// @Summary Test webhook connectivity
// @Description Delivers a synthetic webhook.test event to the live endpoint
// @Tags webhooks
// @Produce json
// @Param id path string true "Webhook ID"
// @Success 200 {object} DeliveryResult
// @Router /api/webhooks/{id}/test [post]
func (c *WebhookController) Test(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	result, err := c.service.TestWebhook(ctx.UserContext(), workspaceID, ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Webhook not found"})
	}

	return ctx.JSON(result)
}

// ListDeliveries godoc
// @Summary List delivery logs
// @Tags webhooks
// @Produce json
// @Param id path string true "Webhook ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/webhooks/{id}/deliveries [get]
func (c *WebhookController) ListDeliveries(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	logs, total, err := c.service.ListDeliveries(ctx.UserContext(), workspaceID, ctx.Params("id"), page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
