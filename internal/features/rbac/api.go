package rbac

import (
	"go-lpm/internal/config"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RBACApi struct {
	controller *RBACController
	config     *config.Config
	evaluator  *Evaluator
	policy     *PolicyMap
}

func NewRBACApi(controller *RBACController, config *config.Config, evaluator *Evaluator, policy *PolicyMap) *RBACApi {
	return &RBACApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *RBACApi) Setup(app *fiber.App) {
	guard := func(resource string, action Action) fiber.Handler {
		return RequireAction(h.evaluator, h.policy, resource, action)
	}

	rbacGroup := app.Group("/api/rbac", middleware.AuthMiddleware(h.config.SkipAuth))

	rbacGroup.Get("/permissions", guard("permission", ActionList), h.controller.ListPermissions)

	rbacGroup.Get("/roles", guard("role", ActionList), h.controller.ListRoles)
	rbacGroup.Post("/roles", guard("role", ActionCreate), h.controller.CreateRole)
	rbacGroup.Get("/roles/:id", guard("role", ActionRetrieve), h.controller.GetRole)
	rbacGroup.Put("/roles/:id", guard("role", ActionUpdate), h.controller.UpdateRole)
	rbacGroup.Delete("/roles/:id", guard("role", ActionDestroy), h.controller.DeleteRole)

	rbacGroup.Post("/assignments", guard("role", "grant"), h.controller.GrantRole)
	rbacGroup.Delete("/assignments", guard("role", "revoke"), h.controller.RevokeRole)
}
