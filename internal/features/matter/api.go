package matter

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MatterApi struct {
	matters   *MatterController
	deadlines *DeadlineController
	config    *config.Config
	evaluator *rbac.Evaluator
	policy    *rbac.PolicyMap
}

func NewMatterApi(matters *MatterController, deadlines *DeadlineController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *MatterApi {
	return &MatterApi{
		matters:   matters,
		deadlines: deadlines,
		config:    config,
		evaluator: evaluator,
		policy:    policy,
	}
}

func (h *MatterApi) Setup(app *fiber.App) {
	guard := func(resource string, action rbac.Action) fiber.Handler {
		return rbac.RequireAction(h.evaluator, h.policy, resource, action)
	}

	matters := app.Group("/api/matters", middleware.AuthMiddleware(h.config.SkipAuth))
	matters.Get("/", guard("matter", rbac.ActionList), h.matters.ListMatters)
	matters.Post("/", guard("matter", rbac.ActionCreate), h.matters.CreateMatter)
	matters.Get("/:id", guard("matter", rbac.ActionRetrieve), h.matters.GetMatter)
	matters.Put("/:id", guard("matter", rbac.ActionUpdate), h.matters.UpdateMatter)
	matters.Delete("/:id", guard("matter", rbac.ActionDestroy), h.matters.DeleteMatter)
	matters.Post("/:id/access", guard("matter", "grant_access"), h.matters.GrantAccess)
	matters.Delete("/:id/access", guard("matter", "revoke_access"), h.matters.RevokeAccess)

	deadlines := app.Group("/api/deadlines", middleware.AuthMiddleware(h.config.SkipAuth))
	// Fixed paths before the :id wildcard.
	deadlines.Get("/summary", guard("deadline", "summary"), h.deadlines.Summary)
	deadlines.Get("/calendar", guard("deadline", "calendar"), h.deadlines.Calendar)
	deadlines.Get("/", guard("deadline", rbac.ActionList), h.deadlines.ListDeadlines)
	deadlines.Post("/", guard("deadline", rbac.ActionCreate), h.deadlines.CreateDeadline)
	deadlines.Get("/:id", guard("deadline", rbac.ActionRetrieve), h.deadlines.GetDeadline)
	deadlines.Put("/:id", guard("deadline", rbac.ActionUpdate), h.deadlines.UpdateDeadline)
	deadlines.Delete("/:id", guard("deadline", rbac.ActionDestroy), h.deadlines.DeleteDeadline)
	deadlines.Post("/:id/complete", guard("deadline", "mark_completed"), h.deadlines.MarkCompleted)
}
