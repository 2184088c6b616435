package audit

import (
	"strconv"

	"go-opsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{
		service: service,
	}
}

// List godoc
// @Summary List audit logs
// @Description List workspace audit trail entries, optionally filtered by module or action
// @Tags audit
// @Produce json
// @Param module query string false "Module filter"
// @Param action query string false "Action filter"
// @Success 200 {object} map[string]interface{}
// @Router /api/audit-logs [get]
func (c *AuditController) List(ctx *fiber.Ctx) error {
	workspaceID, err := middleware.WorkspaceID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid workspace"})
	}

	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filters := map[string]interface{}{}
	if m := ctx.Query("module"); m != "" {
		filters["module"] = m
	}
	if a := ctx.Query("action"); a != "" {
		filters["action"] = a
	}

	logs, err := c.service.ListLogs(ctx.UserContext(), workspaceID, filters, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  logs,
		"page":  page,
		"limit": limit,
	})
}
