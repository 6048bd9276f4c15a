package notification

import (
	common_models "go-lpm/internal/common/models"
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewNotificationApi(controller *NotificationController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *NotificationApi {
	return &NotificationApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	guard := func(action rbac.Action) fiber.Handler {
		return rbac.RequireAction(h.evaluator, h.policy, "notification", action)
	}

	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth))
	group.Get("/", guard(rbac.ActionList), h.controller.List)
	group.Get("/unread-count", guard("unread_count"), h.controller.UnreadCount)
	group.Put("/:id/read", guard("mark_read"), h.controller.MarkRead)
	group.Post("/mark-all-read", guard("mark_all_read"), h.controller.MarkAllRead)

	ws := app.Group("/api/ws", middleware.AuthMiddleware(h.config.SkipAuth))
	ws.Use(func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		// The websocket wrapper copies only string-keyed Locals onto the
		// connection, so re-key the principal for the stream handler.
		c.Locals(string(common_models.PrincipalKey), rbac.PrincipalFrom(c.Context()))
		return c.Next()
	})
	ws.Get("/", websocket.New(h.controller.Stream))
}
