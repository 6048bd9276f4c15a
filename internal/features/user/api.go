package user

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewUserApi(controller *UserController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *UserApi {
	return &UserApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	guard := func(action rbac.Action) fiber.Handler {
		return rbac.RequireAction(h.evaluator, h.policy, "user", action)
	}

	users := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))

	users.Get("/me", rbac.RequireOrganizationMember(), h.controller.GetMe)
	users.Get("/", guard(rbac.ActionList), h.controller.ListUsers)
	users.Get("/:id", guard(rbac.ActionRetrieve), h.controller.GetUser)
	users.Put("/:id", guard(rbac.ActionUpdate), h.controller.UpdateUser)
	users.Put("/:id/status", guard(rbac.ActionUpdate), h.controller.SetStatus)
}
