package billing

import (
	"context"
	"fmt"
	"testing"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/matter"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeInvoiceRepo struct {
	invoices map[primitive.ObjectID]*Invoice
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *Invoice) error {
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) FindOne(ctx context.Context, filter bson.M) (*Invoice, error) {
	id, _ := filter["_id"].(primitive.ObjectID)
	inv, ok := r.invoices[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if tenantID, ok := filter["tenant_id"].(primitive.ObjectID); ok && inv.TenantID != tenantID {
		return nil, mongo.ErrNoDocuments
	}
	copied := *inv
	return &copied, nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, inv *Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) SetStatus(ctx context.Context, orgID, id primitive.ObjectID, status string) error {
	r.invoices[id].Status = status
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) SumOutstanding(ctx context.Context, filter bson.M) (float64, error) {
	var total float64
	for _, inv := range r.invoices {
		if inv.Status != InvoiceStatusPaid {
			total += inv.Total
		}
	}
	return total, nil
}

type fakeMatterService struct {
	matter.MatterService
	matters map[primitive.ObjectID]*matter.Matter
}

func (s *fakeMatterService) GetMatter(ctx context.Context, id primitive.ObjectID) (*matter.Matter, error) {
	m, ok := s.matters[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return m, nil
}

type sequenceNumbers struct {
	next int
}

func (n *sequenceNumbers) NextInvoiceNumber(ctx context.Context, orgID primitive.ObjectID) (string, error) {
	n.next++
	return fmt.Sprintf("INV-%05d", n.next), nil
}

type noopAudit struct{}

func (noopAudit) LogChange(ctx context.Context, action models.AuditAction, module string, recordID string, changes map[string]models.Change) error {
	return nil
}

type staticRoleSource struct {
	codes []string
}

func (s staticRoleSource) RolesForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]rbac.Role, error) {
	return []rbac.Role{{Name: "test", PermissionCodes: s.codes}}, nil
}

type staticMatterResolver struct{}

func (staticMatterResolver) VisibleMatterIDs(ctx context.Context, orgID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}

func (staticMatterResolver) ClientMatterIDs(ctx context.Context, orgID, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}

func billingTestService(invoices *fakeInvoiceRepo, matters *fakeMatterService, numbers NumberSource) *BillingServiceImpl {
	return &BillingServiceImpl{
		Invoices:     invoices,
		Matters:      matters,
		Numbers:      numbers,
		Scoper:       rbac.NewScoper(rbac.NewEvaluator(staticRoleSource{codes: []string{"invoice.view_all"}}), staticMatterResolver{}),
		AuditService: noopAudit{},
	}
}

func billingCtx(orgID, userID primitive.ObjectID) context.Context {
	principal := models.Principal{UserID: userID, OrganizationID: orgID, Authenticated: true}
	return context.WithValue(context.Background(), models.PrincipalKey, principal)
}

func TestCreateInvoiceClaimsNumberAndClient(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	matterID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()

	invoices := &fakeInvoiceRepo{invoices: map[primitive.ObjectID]*Invoice{}}
	matters := &fakeMatterService{matters: map[primitive.ObjectID]*matter.Matter{
		matterID: {ID: matterID, TenantID: orgID, ClientID: clientID},
	}}
	s := billingTestService(invoices, matters, &sequenceNumbers{})
	ctx := billingCtx(orgID, userID)

	first := &Invoice{MatterID: matterID, Subtotal: 1000, TaxTotal: 130}
	if err := s.CreateInvoice(ctx, first); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
	second := &Invoice{MatterID: matterID, Subtotal: 500}
	if err := s.CreateInvoice(ctx, second); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	if first.Number != "INV-00001" || second.Number != "INV-00002" {
		t.Errorf("numbers = %q, %q; want sequential INV numbers", first.Number, second.Number)
	}
	if first.ClientID != clientID {
		t.Errorf("client not denormalized from the matter: %v", first.ClientID)
	}
	if first.Total != 1130 {
		t.Errorf("total = %v, want subtotal plus tax", first.Total)
	}
	if first.Status != InvoiceStatusDraft {
		t.Errorf("status = %q, want draft default", first.Status)
	}
	if first.TenantID != orgID {
		t.Errorf("tenant = %v, want the caller's organization", first.TenantID)
	}
}

func TestCreateInvoiceRequiresVisibleMatter(t *testing.T) {
	orgID := primitive.NewObjectID()
	invoices := &fakeInvoiceRepo{invoices: map[primitive.ObjectID]*Invoice{}}
	matters := &fakeMatterService{matters: map[primitive.ObjectID]*matter.Matter{}}
	s := billingTestService(invoices, matters, &sequenceNumbers{})

	inv := &Invoice{MatterID: primitive.NewObjectID(), Subtotal: 100}
	if err := s.CreateInvoice(billingCtx(orgID, primitive.NewObjectID()), inv); err == nil {
		t.Fatal("expected error for an invisible matter")
	}
	if len(invoices.invoices) != 0 {
		t.Error("invoice persisted despite matter check failing")
	}
}

func TestMarkPaid(t *testing.T) {
	orgID := primitive.NewObjectID()
	invoiceID := primitive.NewObjectID()
	invoices := &fakeInvoiceRepo{invoices: map[primitive.ObjectID]*Invoice{
		invoiceID: {ID: invoiceID, TenantID: orgID, Number: "INV-00007", Status: InvoiceStatusSent, Total: 250},
	}}
	s := billingTestService(invoices, &fakeMatterService{}, &sequenceNumbers{})
	ctx := billingCtx(orgID, primitive.NewObjectID())

	inv, err := s.MarkPaid(ctx, invoiceID)
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if inv.Status != InvoiceStatusPaid {
		t.Errorf("returned status = %q", inv.Status)
	}
	if invoices.invoices[invoiceID].Status != InvoiceStatusPaid {
		t.Error("stored invoice not updated")
	}

	if _, err := s.MarkPaid(ctx, invoiceID); err != ErrInvoiceAlreadyPaid {
		t.Errorf("second MarkPaid error = %v, want ErrInvoiceAlreadyPaid", err)
	}
}

func TestMarkPaidHonorsTenantScope(t *testing.T) {
	orgID := primitive.NewObjectID()
	otherOrg := primitive.NewObjectID()
	invoiceID := primitive.NewObjectID()
	invoices := &fakeInvoiceRepo{invoices: map[primitive.ObjectID]*Invoice{
		invoiceID: {ID: invoiceID, TenantID: otherOrg, Status: InvoiceStatusSent},
	}}
	s := billingTestService(invoices, &fakeMatterService{}, &sequenceNumbers{})

	if _, err := s.MarkPaid(billingCtx(orgID, primitive.NewObjectID()), invoiceID); err == nil {
		t.Fatal("expected a cross-tenant invoice to be unreachable")
	}
	if invoices.invoices[invoiceID].Status == InvoiceStatusPaid {
		t.Error("cross-tenant invoice was mutated")
	}
}

func TestRecordPaymentDenormalizesMatter(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	matterID := primitive.NewObjectID()
	invoiceID := primitive.NewObjectID()
	invoices := &fakeInvoiceRepo{invoices: map[primitive.ObjectID]*Invoice{
		invoiceID: {ID: invoiceID, TenantID: orgID, MatterID: matterID, Number: "INV-00003", Status: InvoiceStatusSent},
	}}
	payments := &fakePaymentRepo{}
	s := billingTestService(invoices, &fakeMatterService{}, &sequenceNumbers{})
	s.Payments = payments

	p := &Payment{InvoiceID: invoiceID, Amount: 250}
	if err := s.RecordPayment(billingCtx(orgID, userID), p); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if p.MatterID != matterID {
		t.Errorf("payment matter = %v, want the invoice's matter %v", p.MatterID, matterID)
	}
	if p.RecordedBy != userID {
		t.Errorf("recorded by %v, want the caller", p.RecordedBy)
	}
	if p.Method != PaymentMethodManual {
		t.Errorf("method = %q, want manual default", p.Method)
	}
	if len(payments.created) != 1 {
		t.Errorf("payments persisted = %d, want 1", len(payments.created))
	}
}

type fakePaymentRepo struct {
	created []*Payment
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.created = append(r.created, p)
	return nil
}

func (r *fakePaymentRepo) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Payment, error) {
	var out []Payment
	for _, p := range r.created {
		out = append(out, *p)
	}
	return out, nil
}
