package automation

import (
	"fmt"
	"strconv"
	"time"

	"go-opsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AutomationController struct {
	service AutomationService
}

func NewAutomationController(service AutomationService) *AutomationController {
	return &AutomationController{
		service: service,
	}
}

// CreateRule godoc
// @Summary Create automation rule
// @Description Create a tenant-scoped automation rule (trigger, action, template)
// @Tags automations
// @Accept json
// @Produce json
// @Param rule body CreateRuleRequest true "Rule"
// @Success 201 {object} AutomationRule
// @Router /api/automations [post]
func (c *AutomationController) CreateRule(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	var req CreateRuleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	rule, err := c.service.CreateRule(ctx.UserContext(), workspaceID, &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(rule)
}

// ListRules godoc
// @Summary List automation rules
// @Tags automations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/automations [get]
func (c *AutomationController) ListRules(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "10"), 10, 64)

	rules, total, err := c.service.ListRules(ctx.UserContext(), workspaceID, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  rules,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetRule godoc
// @Summary Get automation rule
// @Tags automations
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} AutomationRule
// @Router /api/automations/{id} [get]
func (c *AutomationController) GetRule(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	rule, err := c.service.GetRule(ctx.UserContext(), workspaceID, ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rule not found"})
	}

	return ctx.JSON(rule)
}

// UpdateRule godoc
// @Summary Update automation rule
// @Tags automations
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param rule body UpdateRuleRequest true "Fields to update"
// @Success 200 {object} AutomationRule
// @Router /api/automations/{id} [put]
func (c *AutomationController) UpdateRule(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	var req UpdateRuleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	rule, err := c.service.UpdateRule(ctx.UserContext(), workspaceID, ctx.Params("id"), &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(rule)
}

// DeleteRule godoc
// @Summary Delete automation rule
// @Tags automations
// @Param id path string true "Rule ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/automations/{id} [delete]
func (c *AutomationController) DeleteRule(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	if err := c.service.DeleteRule(ctx.UserContext(), workspaceID, ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rule not found"})
	}

	return ctx.JSON(fiber.Map{"message": "Rule deleted"})
}

// ListLogs godoc
// @Summary List execution logs
// @Tags automations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/automations/logs [get]
func (c *AutomationController) ListLogs(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	logs, total, err := c.service.ListLogs(ctx.UserContext(), workspaceID, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// ExportLogs godoc
// @Summary Export execution logs as XLSX
// @Tags automations
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /api/automations/logs/export [get]
func (c *AutomationController) ExportLogs(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	buf, err := c.service.ExportLogs(ctx.UserContext(), workspaceID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	filename := fmt.Sprintf("execution-logs-%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.Send(buf.Bytes())
}
