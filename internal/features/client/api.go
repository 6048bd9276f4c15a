package client

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ClientApi struct {
	controller *ClientController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewClientApi(controller *ClientController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *ClientApi {
	return &ClientApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *ClientApi) Setup(app *fiber.App) {
	guard := func(action rbac.Action) fiber.Handler {
		return rbac.RequireAction(h.evaluator, h.policy, "client", action)
	}

	clients := app.Group("/api/clients", middleware.AuthMiddleware(h.config.SkipAuth))

	clients.Get("/", guard(rbac.ActionList), h.controller.ListClients)
	clients.Post("/", guard(rbac.ActionCreate), h.controller.CreateClient)
	clients.Get("/:id", guard(rbac.ActionRetrieve), h.controller.GetClient)
	clients.Put("/:id", guard(rbac.ActionUpdate), h.controller.UpdateClient)
	clients.Delete("/:id", guard(rbac.ActionDestroy), h.controller.DeleteClient)
}
