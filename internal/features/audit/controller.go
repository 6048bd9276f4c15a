package audit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	AuditService AuditService
}

func NewAuditController(auditService AuditService) *AuditController {
	return &AuditController{AuditService: auditService}
}

// ListLogs godoc
// @Summary      List audit logs
// @Description  Get a paginated list of audit log entries for the organization
// @Tags         audit
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Param        module query string false "Filter by module"
// @Param        action query string false "Filter by action"
// @Param        record_id query string false "Filter by record ID"
// @Success      200  {object} map[string]interface{}
// @Failure      500  {string} string "Failed to fetch audit logs"
// @Router       /audit-logs [get]
func (ctrl *AuditController) ListLogs(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)

	filters := map[string]interface{}{
		"module":    c.Query("module"),
		"action":    c.Query("action"),
		"record_id": c.Query("record_id"),
	}

	logs, err := ctrl.AuditService.ListLogs(c.Context(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit logs",
		})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"page":  page,
		"limit": limit,
	})
}
