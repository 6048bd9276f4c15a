package audit

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewAuditApi(controller *AuditController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *AuditApi {
	return &AuditApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/audit-logs", middleware.AuthMiddleware(h.config.SkipAuth))

	audit.Get("/", rbac.RequireAction(h.evaluator, h.policy, "audit", rbac.ActionList), h.controller.ListLogs)
}
