package billing

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BillingApi struct {
	controller *BillingController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewBillingApi(controller *BillingController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *BillingApi {
	return &BillingApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *BillingApi) Setup(app *fiber.App) {
	guard := func(resource string, action rbac.Action) fiber.Handler {
		return rbac.RequireAction(h.evaluator, h.policy, resource, action)
	}

	entries := app.Group("/api/time-entries", middleware.AuthMiddleware(h.config.SkipAuth))
	entries.Get("/", guard("timeentry", rbac.ActionList), h.controller.ListTimeEntries)
	entries.Post("/", guard("timeentry", rbac.ActionCreate), h.controller.CreateTimeEntry)
	entries.Get("/:id", guard("timeentry", rbac.ActionRetrieve), h.controller.GetTimeEntry)
	entries.Put("/:id", guard("timeentry", rbac.ActionUpdate), h.controller.UpdateTimeEntry)
	entries.Delete("/:id", guard("timeentry", rbac.ActionDestroy), h.controller.DeleteTimeEntry)

	expenses := app.Group("/api/expenses", middleware.AuthMiddleware(h.config.SkipAuth))
	expenses.Get("/", guard("expense", rbac.ActionList), h.controller.ListExpenses)
	expenses.Post("/", guard("expense", rbac.ActionCreate), h.controller.CreateExpense)
	expenses.Get("/:id", guard("expense", rbac.ActionRetrieve), h.controller.GetExpense)
	expenses.Put("/:id", guard("expense", rbac.ActionUpdate), h.controller.UpdateExpense)
	expenses.Delete("/:id", guard("expense", rbac.ActionDestroy), h.controller.DeleteExpense)

	invoices := app.Group("/api/invoices", middleware.AuthMiddleware(h.config.SkipAuth))
	invoices.Get("/", guard("invoice", rbac.ActionList), h.controller.ListInvoices)
	invoices.Post("/", guard("invoice", rbac.ActionCreate), h.controller.CreateInvoice)
	invoices.Get("/:id", guard("invoice", rbac.ActionRetrieve), h.controller.GetInvoice)
	invoices.Delete("/:id", guard("invoice", rbac.ActionDestroy), h.controller.DeleteInvoice)
	invoices.Post("/:id/mark-paid", guard("invoice", "mark_paid"), h.controller.MarkPaid)
	invoices.Get("/:id/payments", guard("payment", rbac.ActionList), h.controller.ListPayments)
	invoices.Post("/:id/payments", guard("payment", rbac.ActionCreate), h.controller.RecordPayment)

	billing := app.Group("/api/billing", middleware.AuthMiddleware(h.config.SkipAuth))
	billing.Get("/summary", rbac.RequireOrganizationMember(), h.controller.Summary)
	billing.Get("/export", guard("billing", "export"), h.controller.Export)
	billing.Post("/export/external", guard("billing", "export"), h.controller.ExportExternal)
}
