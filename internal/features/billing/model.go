package billing

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

const (
	TimeEntrySourceManual = "manual"
	TimeEntrySourceEmail  = "email"
	TimeEntrySourceDoc    = "doc"
	TimeEntrySourceCall   = "call"
)

const (
	PaymentMethodStripe  = "stripe"
	PaymentMethodInterac = "interac"
	PaymentMethodManual  = "manual"
)

type TimeEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	MatterID    primitive.ObjectID `bson:"matter_id" json:"matter_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Description string             `bson:"description" json:"description"`
	Minutes     int64              `bson:"minutes" json:"minutes"`
	Rate        float64            `bson:"rate" json:"rate"`
	Date        time.Time          `bson:"date" json:"date"`
	Billable    bool               `bson:"billable" json:"billable"`
	Source      string             `bson:"source" json:"source"` // manual, email, doc, call
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

type Expense struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	MatterID    primitive.ObjectID `bson:"matter_id" json:"matter_id"`
	Description string             `bson:"description" json:"description"`
	Amount      float64            `bson:"amount" json:"amount"`
	Date        time.Time          `bson:"date" json:"date"`
	TaxCode     string             `bson:"tax_code,omitempty" json:"tax_code,omitempty"`
	ReceiptFile string             `bson:"receipt_file,omitempty" json:"receipt_file,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Invoice numbers are unique per organization and never reused. ClientID is
// denormalized from the matter at creation so portal scoping stays a single
// field match.
type Invoice struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	MatterID  primitive.ObjectID `bson:"matter_id" json:"matter_id"`
	ClientID  primitive.ObjectID `bson:"client_id" json:"client_id"`
	Number    string             `bson:"number" json:"number"`
	IssueDate time.Time          `bson:"issue_date" json:"issue_date"`
	DueDate   time.Time          `bson:"due_date" json:"due_date"`
	Subtotal  float64            `bson:"subtotal" json:"subtotal"`
	TaxTotal  float64            `bson:"tax_total" json:"tax_total"`
	Total     float64            `bson:"total" json:"total"`
	Status    string             `bson:"status" json:"status"` // draft, sent, paid, overdue
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type Payment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	InvoiceID   primitive.ObjectID `bson:"invoice_id" json:"invoice_id"`
	MatterID    primitive.ObjectID `bson:"matter_id" json:"matter_id"`
	Amount      float64            `bson:"amount" json:"amount"`
	Date        time.Time          `bson:"date" json:"date"`
	Method      string             `bson:"method" json:"method"` // stripe, interac, manual
	ExternalRef string             `bson:"external_ref,omitempty" json:"external_ref,omitempty"`
	RecordedBy  primitive.ObjectID `bson:"recorded_by" json:"recorded_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// BillingSummary is the dashboard aggregate over what the caller can see.
type BillingSummary struct {
	TotalHours         float64 `json:"total_hours"`
	TotalExpenses      float64 `json:"total_expenses"`
	OutstandingBalance float64 `json:"outstanding_balance"`
}
