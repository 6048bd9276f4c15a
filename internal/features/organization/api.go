package organization

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type OrganizationApi struct {
	controller *OrganizationController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewOrganizationApi(controller *OrganizationController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *OrganizationApi {
	return &OrganizationApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *OrganizationApi) Setup(app *fiber.App) {
	org := app.Group("/api/organization", middleware.AuthMiddleware(h.config.SkipAuth))

	org.Get("/", rbac.RequireAction(h.evaluator, h.policy, "organization", rbac.ActionRetrieve), h.controller.GetMyOrganization)
	org.Put("/", rbac.RequireAction(h.evaluator, h.policy, "organization", rbac.ActionUpdate), h.controller.UpdateMyOrganization)
	org.Post("/sync-roles", rbac.RequirePermission(h.evaluator, "org.manage_roles"), h.controller.SyncRoles)
}
