package messaging

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MessagingApi struct {
	controller *MessagingController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewMessagingApi(controller *MessagingController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *MessagingApi {
	return &MessagingApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *MessagingApi) Setup(app *fiber.App) {
	guard := func(resource string, action rbac.Action) fiber.Handler {
		return rbac.RequireAction(h.evaluator, h.policy, resource, action)
	}

	threads := app.Group("/api/threads", middleware.AuthMiddleware(h.config.SkipAuth))
	threads.Get("/", guard("thread", rbac.ActionList), h.controller.ListThreads)
	threads.Post("/", guard("thread", rbac.ActionCreate), h.controller.CreateThread)
	threads.Get("/:id", guard("thread", rbac.ActionRetrieve), h.controller.GetThread)
	threads.Get("/:id/messages", guard("message", rbac.ActionList), h.controller.ListMessages)
	threads.Post("/:id/messages", guard("message", rbac.ActionCreate), h.controller.PostMessage)
}
