package organization

import (
	"context"
	"fmt"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	NextMatterReference(ctx context.Context, orgID primitive.ObjectID) (string, error)
	NextInvoiceNumber(ctx context.Context, orgID primitive.ObjectID) (string, error)
	TouchRBACSync(ctx context.Context, orgID primitive.ObjectID) error
}

type OrganizationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewOrganizationRepository(mongodb *database.MongodbDB) OrganizationRepository {
	return &OrganizationRepositoryImpl{
		Collection: mongodb.DB.Collection("organizations"),
	}
}

func (r *OrganizationRepositoryImpl) Create(ctx context.Context, org *models.Organization) error {
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, org)
	return err
}

func (r *OrganizationRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Organization, error) {
	var org models.Organization
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	err := r.Collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) Update(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now()
	filter := bson.M{"_id": org.ID}
	update := bson.M{"$set": org}
	_, err := r.Collection.UpdateOne(ctx, filter, update)
	return err
}

// NextMatterReference atomically claims the next sequence number and formats
// the matter reference, e.g. "MAT-00042". The findOneAndUpdate keeps the
// counter gap-free under concurrent matter creation.
func (r *OrganizationRepositoryImpl) NextMatterReference(ctx context.Context, orgID primitive.ObjectID) (string, error) {
	filter := bson.M{"_id": orgID}
	update := bson.M{"$inc": bson.M{"matter_seq": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var org models.Organization
	if err := r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&org); err != nil {
		return "", err
	}

	prefix := org.MatterPrefix
	if prefix == "" {
		prefix = "MAT"
	}
	return fmt.Sprintf("%s-%05d", prefix, org.MatterSeq), nil
}

// NextInvoiceNumber claims the next per-organization invoice number. Numbers
// are unique within an organization, never reused.
func (r *OrganizationRepositoryImpl) NextInvoiceNumber(ctx context.Context, orgID primitive.ObjectID) (string, error) {
	filter := bson.M{"_id": orgID}
	update := bson.M{"$inc": bson.M{"invoice_seq": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var org models.Organization
	if err := r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&org); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%05d", org.InvoiceSeq), nil
}

// TouchRBACSync writes the sync timestamp onto the organization document.
// Inside a transaction this write serializes concurrent role syncs for the
// same organization: the second writer aborts with a write conflict.
func (r *OrganizationRepositoryImpl) TouchRBACSync(ctx context.Context, orgID primitive.ObjectID) error {
	now := time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": orgID},
		bson.M{"$set": bson.M{"rbac_synced_at": now, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
