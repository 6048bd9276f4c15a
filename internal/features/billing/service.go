package billing

import (
	"context"
	"errors"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/matter"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvoiceAlreadyPaid = errors.New("invoice is already paid")

// Time entries and expenses follow the matter's visibility; invoices and
// payments additionally open up to the matter's portal client and have their
// own bypass.
var (
	timeEntryRowPolicy = rbac.RowPolicy{
		Resource:         "timeentry",
		MatterField:      "matter_id",
		BypassPermission: "matter.view_all",
	}
	expenseRowPolicy = rbac.RowPolicy{
		Resource:         "expense",
		MatterField:      "matter_id",
		BypassPermission: "matter.view_all",
	}
	invoiceRowPolicy = rbac.RowPolicy{
		Resource:         "invoice",
		ClientField:      "client_id",
		MatterField:      "matter_id",
		BypassPermission: "invoice.view_all",
	}
	paymentRowPolicy = rbac.RowPolicy{
		Resource:         "payment",
		MatterField:      "matter_id",
		BypassPermission: "invoice.view_all",
	}
)

// NumberSource hands out per-organization invoice numbers. Satisfied by the
// organization service.
type NumberSource interface {
	NextInvoiceNumber(ctx context.Context, orgID primitive.ObjectID) (string, error)
}

// ExternalExporter pushes invoice rows into an external reporting database.
// Satisfied by the integrations feature; may be a no-op when unconfigured.
type ExternalExporter interface {
	ExportInvoices(ctx context.Context, orgID primitive.ObjectID, invoices []Invoice) (int, error)
}

type BillingService interface {
	CreateTimeEntry(ctx context.Context, entry *TimeEntry) error
	GetTimeEntry(ctx context.Context, id primitive.ObjectID) (*TimeEntry, error)
	ListTimeEntries(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, entry *TimeEntry) error
	DeleteTimeEntry(ctx context.Context, id primitive.ObjectID) error

	CreateExpense(ctx context.Context, expense *Expense) error
	GetExpense(ctx context.Context, id primitive.ObjectID) (*Expense, error)
	ListExpenses(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]Expense, error)
	UpdateExpense(ctx context.Context, expense *Expense) error
	DeleteExpense(ctx context.Context, id primitive.ObjectID) error

	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id primitive.ObjectID) (*Invoice, error)
	ListInvoices(ctx context.Context, status string, page, limit int64) ([]Invoice, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID) (*Invoice, error)
	DeleteInvoice(ctx context.Context, id primitive.ObjectID) error

	RecordPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, invoiceID primitive.ObjectID, page, limit int64) ([]Payment, error)

	Summary(ctx context.Context) (*BillingSummary, error)
	ExportWorkbook(ctx context.Context) ([]byte, string, error)
	ExportToExternal(ctx context.Context) (int, error)
}

type BillingServiceImpl struct {
	TimeEntries  TimeEntryRepository
	Expenses     ExpenseRepository
	Invoices     InvoiceRepository
	Payments     PaymentRepository
	Matters      matter.MatterService
	Numbers      NumberSource
	Scoper       *rbac.Scoper
	External     ExternalExporter
	AuditService rbac.AuditLogger
}

func NewBillingService(
	timeEntries TimeEntryRepository,
	expenses ExpenseRepository,
	invoices InvoiceRepository,
	payments PaymentRepository,
	matters matter.MatterService,
	numbers NumberSource,
	scoper *rbac.Scoper,
	external ExternalExporter,
	auditService rbac.AuditLogger,
) BillingService {
	return &BillingServiceImpl{
		TimeEntries:  timeEntries,
		Expenses:     expenses,
		Invoices:     invoices,
		Payments:     payments,
		Matters:      matters,
		Numbers:      numbers,
		Scoper:       scoper,
		External:     external,
		AuditService: auditService,
	}
}

func (s *BillingServiceImpl) CreateTimeEntry(ctx context.Context, entry *TimeEntry) error {
	principal := rbac.PrincipalFrom(ctx)

	// The author must be able to see the matter.
	if _, err := s.Matters.GetMatter(ctx, entry.MatterID); err != nil {
		return err
	}

	entry.TenantID = principal.OrganizationID
	entry.UserID = principal.UserID
	if entry.Source == "" {
		entry.Source = TimeEntrySourceManual
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}
	if err := s.TimeEntries.Create(ctx, entry); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "time_entry", entry.ID.Hex(), map[string]models.Change{
		"minutes": {New: entry.Minutes},
		"matter":  {New: entry.MatterID.Hex()},
	})
	return nil
}

func (s *BillingServiceImpl) GetTimeEntry(ctx context.Context, id primitive.ObjectID) (*TimeEntry, error) {
	filter, err := s.scoped(ctx, timeEntryRowPolicy)
	if err != nil {
		return nil, err
	}
	filter["_id"] = id
	return s.TimeEntries.FindOne(ctx, filter)
}

func (s *BillingServiceImpl) ListTimeEntries(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]TimeEntry, error) {
	filter, err := s.scoped(ctx, timeEntryRowPolicy)
	if err != nil {
		return nil, err
	}
	if matterID != nil {
		filter["matter_id"] = *matterID
	}
	page, limit = normalizePage(page, limit)
	return s.TimeEntries.List(ctx, filter, limit, (page-1)*limit)
}

func (s *BillingServiceImpl) UpdateTimeEntry(ctx context.Context, entry *TimeEntry) error {
	existing, err := s.GetTimeEntry(ctx, entry.ID)
	if err != nil {
		return err
	}

	entry.TenantID = existing.TenantID
	entry.MatterID = existing.MatterID
	entry.UserID = existing.UserID
	entry.CreatedAt = existing.CreatedAt
	if err := s.TimeEntries.Update(ctx, entry); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "time_entry", entry.ID.Hex(), map[string]models.Change{
		"minutes": {Old: existing.Minutes, New: entry.Minutes},
		"rate":    {Old: existing.Rate, New: entry.Rate},
	})
	return nil
}

func (s *BillingServiceImpl) DeleteTimeEntry(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetTimeEntry(ctx, id); err != nil {
		return err
	}
	if err := s.TimeEntries.Delete(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "time_entry", id.Hex(), nil)
	return nil
}

func (s *BillingServiceImpl) CreateExpense(ctx context.Context, expense *Expense) error {
	principal := rbac.PrincipalFrom(ctx)

	if _, err := s.Matters.GetMatter(ctx, expense.MatterID); err != nil {
		return err
	}

	expense.TenantID = principal.OrganizationID
	if expense.Date.IsZero() {
		expense.Date = time.Now()
	}
	if err := s.Expenses.Create(ctx, expense); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "expense", expense.ID.Hex(), map[string]models.Change{
		"amount": {New: expense.Amount},
		"matter": {New: expense.MatterID.Hex()},
	})
	return nil
}

func (s *BillingServiceImpl) GetExpense(ctx context.Context, id primitive.ObjectID) (*Expense, error) {
	filter, err := s.scoped(ctx, expenseRowPolicy)
	if err != nil {
		return nil, err
	}
	filter["_id"] = id
	return s.Expenses.FindOne(ctx, filter)
}

func (s *BillingServiceImpl) ListExpenses(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]Expense, error) {
	filter, err := s.scoped(ctx, expenseRowPolicy)
	if err != nil {
		return nil, err
	}
	if matterID != nil {
		filter["matter_id"] = *matterID
	}
	page, limit = normalizePage(page, limit)
	return s.Expenses.List(ctx, filter, limit, (page-1)*limit)
}

func (s *BillingServiceImpl) UpdateExpense(ctx context.Context, expense *Expense) error {
	existing, err := s.GetExpense(ctx, expense.ID)
	if err != nil {
		return err
	}

	expense.TenantID = existing.TenantID
	expense.MatterID = existing.MatterID
	expense.CreatedAt = existing.CreatedAt
	if err := s.Expenses.Update(ctx, expense); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "expense", expense.ID.Hex(), map[string]models.Change{
		"amount": {Old: existing.Amount, New: expense.Amount},
	})
	return nil
}

func (s *BillingServiceImpl) DeleteExpense(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetExpense(ctx, id); err != nil {
		return err
	}
	if err := s.Expenses.Delete(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "expense", id.Hex(), nil)
	return nil
}

// CreateInvoice claims the organization's next invoice number and denormalizes
// the matter's client for portal scoping.
func (s *BillingServiceImpl) CreateInvoice(ctx context.Context, inv *Invoice) error {
	principal := rbac.PrincipalFrom(ctx)

	m, err := s.Matters.GetMatter(ctx, inv.MatterID)
	if err != nil {
		return err
	}

	number, err := s.Numbers.NextInvoiceNumber(ctx, principal.OrganizationID)
	if err != nil {
		return err
	}

	inv.TenantID = principal.OrganizationID
	inv.ClientID = m.ClientID
	inv.Number = number
	if inv.Status == "" {
		inv.Status = InvoiceStatusDraft
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = time.Now()
	}
	inv.Total = inv.Subtotal + inv.TaxTotal
	if err := s.Invoices.Create(ctx, inv); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "invoice", inv.ID.Hex(), map[string]models.Change{
		"number": {New: inv.Number},
		"total":  {New: inv.Total},
	})
	return nil
}

func (s *BillingServiceImpl) GetInvoice(ctx context.Context, id primitive.ObjectID) (*Invoice, error) {
	filter, err := s.scoped(ctx, invoiceRowPolicy)
	if err != nil {
		return nil, err
	}
	filter["_id"] = id
	return s.Invoices.FindOne(ctx, filter)
}

func (s *BillingServiceImpl) ListInvoices(ctx context.Context, status string, page, limit int64) ([]Invoice, error) {
	filter, err := s.scoped(ctx, invoiceRowPolicy)
	if err != nil {
		return nil, err
	}
	if status != "" {
		filter["status"] = status
	}
	page, limit = normalizePage(page, limit)
	return s.Invoices.List(ctx, filter, limit, (page-1)*limit)
}

func (s *BillingServiceImpl) MarkPaid(ctx context.Context, id primitive.ObjectID) (*Invoice, error) {
	principal := rbac.PrincipalFrom(ctx)
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == InvoiceStatusPaid {
		return nil, ErrInvoiceAlreadyPaid
	}

	if err := s.Invoices.SetStatus(ctx, principal.OrganizationID, id, InvoiceStatusPaid); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionPayment, "invoice", id.Hex(), map[string]models.Change{
		"status": {Old: inv.Status, New: InvoiceStatusPaid},
	})

	inv.Status = InvoiceStatusPaid
	return inv, nil
}

func (s *BillingServiceImpl) DeleteInvoice(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetInvoice(ctx, id); err != nil {
		return err
	}
	if err := s.Invoices.Delete(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "invoice", id.Hex(), nil)
	return nil
}

func (s *BillingServiceImpl) RecordPayment(ctx context.Context, p *Payment) error {
	principal := rbac.PrincipalFrom(ctx)

	inv, err := s.GetInvoice(ctx, p.InvoiceID)
	if err != nil {
		return err
	}

	p.TenantID = principal.OrganizationID
	p.MatterID = inv.MatterID
	p.RecordedBy = principal.UserID
	if p.Method == "" {
		p.Method = PaymentMethodManual
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	if err := s.Payments.Create(ctx, p); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionPayment, "payment", p.ID.Hex(), map[string]models.Change{
		"invoice": {New: inv.Number},
		"amount":  {New: p.Amount},
	})
	return nil
}

func (s *BillingServiceImpl) ListPayments(ctx context.Context, invoiceID primitive.ObjectID, page, limit int64) ([]Payment, error) {
	filter, err := s.scoped(ctx, paymentRowPolicy)
	if err != nil {
		return nil, err
	}
	filter["invoice_id"] = invoiceID
	page, limit = normalizePage(page, limit)
	return s.Payments.List(ctx, filter, limit, (page-1)*limit)
}

// Summary aggregates over the caller's visible rows, so a lawyer sees their
// matters' numbers and an administrator with the bypass sees the firm's.
func (s *BillingServiceImpl) Summary(ctx context.Context) (*BillingSummary, error) {
	timeFilter, err := s.scoped(ctx, timeEntryRowPolicy)
	if err != nil {
		return nil, err
	}
	minutes, err := s.TimeEntries.SumMinutes(ctx, timeFilter)
	if err != nil {
		return nil, err
	}

	expenseFilter, err := s.scoped(ctx, expenseRowPolicy)
	if err != nil {
		return nil, err
	}
	expenses, err := s.Expenses.SumAmount(ctx, expenseFilter)
	if err != nil {
		return nil, err
	}

	invoiceFilter, err := s.scoped(ctx, invoiceRowPolicy)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.Invoices.SumOutstanding(ctx, invoiceFilter)
	if err != nil {
		return nil, err
	}

	return &BillingSummary{
		TotalHours:         float64(minutes) / 60,
		TotalExpenses:      expenses,
		OutstandingBalance: outstanding,
	}, nil
}

// ExportToExternal pushes the caller's visible invoices into the configured
// external reporting database.
func (s *BillingServiceImpl) ExportToExternal(ctx context.Context) (int, error) {
	principal := rbac.PrincipalFrom(ctx)

	filter, err := s.scoped(ctx, invoiceRowPolicy)
	if err != nil {
		return 0, err
	}
	invoices, err := s.Invoices.List(ctx, filter, exportRowCap, 0)
	if err != nil {
		return 0, err
	}

	n, err := s.External.ExportInvoices(ctx, principal.OrganizationID, invoices)
	if err != nil {
		return 0, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionExport, "billing", principal.OrganizationID.Hex(), map[string]models.Change{
		"target": {New: "external_sql"},
		"rows":   {New: n},
	})
	return n, nil
}

func (s *BillingServiceImpl) scoped(ctx context.Context, policy rbac.RowPolicy) (bson.M, error) {
	principal := rbac.PrincipalFrom(ctx)
	return s.Scoper.Scope(ctx, principal, policy)
}

func normalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return page, limit
}
