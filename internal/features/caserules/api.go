package caserules

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CaseRulesApi struct {
	controller *RuleController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewCaseRulesApi(controller *RuleController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *CaseRulesApi {
	return &CaseRulesApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *CaseRulesApi) Setup(app *fiber.App) {
	guard := func(action rbac.Action) fiber.Handler {
		return rbac.RequireAction(h.evaluator, h.policy, "caserules", action)
	}

	rules := app.Group("/api/case-rules", middleware.AuthMiddleware(h.config.SkipAuth))

	rules.Post("/calculate", guard("calculate"), h.controller.Calculate)
	rules.Get("/", guard(rbac.ActionList), h.controller.ListRules)
	rules.Post("/", guard(rbac.ActionCreate), h.controller.CreateRule)
	rules.Get("/:id", guard(rbac.ActionRetrieve), h.controller.GetRule)
	rules.Put("/:id", guard(rbac.ActionUpdate), h.controller.UpdateRule)
	rules.Delete("/:id", guard(rbac.ActionDestroy), h.controller.DeleteRule)
}
