package auth

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewAuthApi(controller *AuthController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *AuthApi {
	return &AuthApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *AuthApi) Setup(app *fiber.App) {
	authGroup := app.Group("/api/auth")

	authGroup.Post("/register", h.controller.Register)
	authGroup.Post("/login", h.controller.Login)
	// Outside the /invitations group so it stays reachable without a token.
	authGroup.Post("/accept-invitation", h.controller.Accept)

	invitations := authGroup.Group("/invitations", middleware.AuthMiddleware(h.config.SkipAuth))
	invitations.Post("/", rbac.RequireAction(h.evaluator, h.policy, "invitation", rbac.ActionCreate), h.controller.Invite)
	invitations.Get("/", rbac.RequireAction(h.evaluator, h.policy, "invitation", rbac.ActionList), h.controller.ListInvitations)
}
