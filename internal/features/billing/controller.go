package billing

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BillingController struct {
	Service BillingService
}

func NewBillingController(service BillingService) *BillingController {
	return &BillingController{Service: service}
}

func (ctrl *BillingController) CreateTimeEntry(c *fiber.Ctx) error {
	var entry TimeEntry
	if err := c.BodyParser(&entry); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if entry.MatterID.IsZero() || entry.Minutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "matter_id and positive minutes are required",
		})
	}

	if err := ctrl.Service.CreateTimeEntry(c.Context(), &entry); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (ctrl *BillingController) ListTimeEntries(c *fiber.Ctx) error {
	matterID, ok := optionalObjectID(c, "matter_id")
	if !ok {
		return nil
	}
	page, limit := pagination(c)

	entries, err := ctrl.Service.ListTimeEntries(c.Context(), matterID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch time entries",
		})
	}
	return c.JSON(fiber.Map{"data": entries, "page": page, "limit": limit})
}

func (ctrl *BillingController) GetTimeEntry(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	entry, err := ctrl.Service.GetTimeEntry(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Time entry not found",
		})
	}
	return c.JSON(entry)
}

func (ctrl *BillingController) UpdateTimeEntry(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	var entry TimeEntry
	if err := c.BodyParser(&entry); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	entry.ID = id

	if err := ctrl.Service.UpdateTimeEntry(c.Context(), &entry); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Time entry not found",
		})
	}
	return c.JSON(entry)
}

func (ctrl *BillingController) DeleteTimeEntry(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	if err := ctrl.Service.DeleteTimeEntry(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Time entry not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Time entry deleted"})
}

func (ctrl *BillingController) CreateExpense(c *fiber.Ctx) error {
	var expense Expense
	if err := c.BodyParser(&expense); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if expense.MatterID.IsZero() || expense.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "matter_id and positive amount are required",
		})
	}

	if err := ctrl.Service.CreateExpense(c.Context(), &expense); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(expense)
}

func (ctrl *BillingController) ListExpenses(c *fiber.Ctx) error {
	matterID, ok := optionalObjectID(c, "matter_id")
	if !ok {
		return nil
	}
	page, limit := pagination(c)

	expenses, err := ctrl.Service.ListExpenses(c.Context(), matterID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch expenses",
		})
	}
	return c.JSON(fiber.Map{"data": expenses, "page": page, "limit": limit})
}

func (ctrl *BillingController) GetExpense(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	expense, err := ctrl.Service.GetExpense(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Expense not found",
		})
	}
	return c.JSON(expense)
}

func (ctrl *BillingController) UpdateExpense(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	var expense Expense
	if err := c.BodyParser(&expense); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	expense.ID = id

	if err := ctrl.Service.UpdateExpense(c.Context(), &expense); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Expense not found",
		})
	}
	return c.JSON(expense)
}

func (ctrl *BillingController) DeleteExpense(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	if err := ctrl.Service.DeleteExpense(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Expense not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Expense deleted"})
}

// CreateInvoice godoc
// @Summary      Create an invoice
// @Description  Creates an invoice on a matter; the number is assigned from the organization's sequence
// @Tags         billing
// @Accept       json
// @Produce      json
// @Success      201 {object} Invoice
// @Router       /invoices [post]
func (ctrl *BillingController) CreateInvoice(c *fiber.Ctx) error {
	var inv Invoice
	if err := c.BodyParser(&inv); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if inv.MatterID.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "matter_id is required",
		})
	}

	if err := ctrl.Service.CreateInvoice(c.Context(), &inv); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

func (ctrl *BillingController) ListInvoices(c *fiber.Ctx) error {
	page, limit := pagination(c)
	invoices, err := ctrl.Service.ListInvoices(c.Context(), c.Query("status"), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invoices",
		})
	}
	return c.JSON(fiber.Map{"data": invoices, "page": page, "limit": limit})
}

func (ctrl *BillingController) GetInvoice(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	inv, err := ctrl.Service.GetInvoice(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}
	return c.JSON(inv)
}

// MarkPaid godoc
// @Summary      Mark an invoice paid
// @Tags         billing
// @Produce      json
// @Success      200 {object} Invoice
// @Router       /invoices/{id}/mark-paid [post]
func (ctrl *BillingController) MarkPaid(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}

	inv, err := ctrl.Service.MarkPaid(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrInvoiceAlreadyPaid) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}
	return c.JSON(inv)
}

func (ctrl *BillingController) DeleteInvoice(c *fiber.Ctx) error {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	if err := ctrl.Service.DeleteInvoice(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Invoice deleted"})
}

func (ctrl *BillingController) RecordPayment(c *fiber.Ctx) error {
	invoiceID, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	var p Payment
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if p.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Positive amount is required",
		})
	}
	p.InvoiceID = invoiceID

	if err := ctrl.Service.RecordPayment(c.Context(), &p); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (ctrl *BillingController) ListPayments(c *fiber.Ctx) error {
	invoiceID, ok := pathObjectID(c, "id")
	if !ok {
		return nil
	}
	page, limit := pagination(c)

	payments, err := ctrl.Service.ListPayments(c.Context(), invoiceID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payments",
		})
	}
	return c.JSON(fiber.Map{"data": payments, "page": page, "limit": limit})
}

// Summary godoc
// @Summary      Billing summary
// @Description  Aggregate hours, expenses and outstanding balance over the caller's visible rows
// @Tags         billing
// @Produce      json
// @Success      200 {object} BillingSummary
// @Router       /billing/summary [get]
func (ctrl *BillingController) Summary(c *fiber.Ctx) error {
	summary, err := ctrl.Service.Summary(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute billing summary",
		})
	}
	return c.JSON(summary)
}

// Export godoc
// @Summary      Export billing data as xlsx
// @Tags         billing
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200
// @Router       /billing/export [get]
func (ctrl *BillingController) Export(c *fiber.Ctx) error {
	data, filename, err := ctrl.Service.ExportWorkbook(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export billing data",
		})
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(data)
}

// ExportExternal pushes visible invoices into the configured external SQL
// reporting database.
func (ctrl *BillingController) ExportExternal(c *fiber.Ctx) error {
	n, err := ctrl.Service.ExportToExternal(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "External export failed",
		})
	}
	return c.JSON(fiber.Map{"message": "Export complete", "rows": n})
}

func pathObjectID(c *fiber.Ctx, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid " + param,
		})
		return primitive.NilObjectID, false
	}
	return id, true
}

func optionalObjectID(c *fiber.Ctx, query string) (*primitive.ObjectID, bool) {
	raw := c.Query(query)
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid " + query,
		})
		return nil, false
	}
	return &id, true
}

func pagination(c *fiber.Ctx) (int64, int64) {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	return page, limit
}
