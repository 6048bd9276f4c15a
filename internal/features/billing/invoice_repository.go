package billing

import (
	"context"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	FindOne(ctx context.Context, filter bson.M) (*Invoice, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	SetStatus(ctx context.Context, orgID, id primitive.ObjectID, status string) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
	SumOutstanding(ctx context.Context, filter bson.M) (float64, error)
}

type InvoiceRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewInvoiceRepository(mongodb *database.MongodbDB) InvoiceRepository {
	return &InvoiceRepositoryImpl{
		Collection: mongodb.DB.Collection("invoices"),
	}
}

func (r *InvoiceRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *InvoiceRepositoryImpl) Create(ctx context.Context, inv *Invoice) error {
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, inv)
	return err
}

func (r *InvoiceRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*Invoice, error) {
	var inv Invoice
	if err := r.Collection.FindOne(ctx, filter).Decode(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Invoice, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "issue_date", Value: -1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var invoices []Invoice
	if err = cursor.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *InvoiceRepositoryImpl) Update(ctx context.Context, inv *Invoice) error {
	inv.UpdatedAt = time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": inv.ID, "tenant_id": inv.TenantID},
		bson.M{"$set": inv},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *InvoiceRepositoryImpl) SetStatus(ctx context.Context, orgID, id primitive.ObjectID, status string) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": orgID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *InvoiceRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SumOutstanding totals unpaid invoices within the caller's scope.
func (r *InvoiceRepositoryImpl) SumOutstanding(ctx context.Context, filter bson.M) (float64, error) {
	scoped := bson.M{}
	for k, v := range filter {
		scoped[k] = v
	}
	scoped["status"] = bson.M{"$ne": InvoiceStatusPaid}
	return sumField(ctx, r.Collection, scoped, "$total")
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Payment, error)
}

type PaymentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewPaymentRepository(mongodb *database.MongodbDB) PaymentRepository {
	return &PaymentRepositoryImpl{
		Collection: mongodb.DB.Collection("payments"),
	}
}

func (r *PaymentRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "invoice_id", Value: 1}},
	})
	return err
}

func (r *PaymentRepositoryImpl) Create(ctx context.Context, p *Payment) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, p)
	return err
}

func (r *PaymentRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Payment, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var payments []Payment
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
