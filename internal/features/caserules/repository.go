package caserules

import (
	"context"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RuleRepository interface {
	Create(ctx context.Context, rule *Rule) error
	FindByID(ctx context.Context, orgID, id primitive.ObjectID) (*Rule, error)
	List(ctx context.Context, orgID primitive.ObjectID) ([]Rule, error)
	Update(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
}

type RuleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRuleRepository(mongodb *database.MongodbDB) RuleRepository {
	return &RuleRepositoryImpl{
		Collection: mongodb.DB.Collection("case_rules"),
	}
}

func (r *RuleRepositoryImpl) Create(ctx context.Context, rule *Rule) error {
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if rule.ID.IsZero() {
		rule.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, rule)
	return err
}

func (r *RuleRepositoryImpl) FindByID(ctx context.Context, orgID, id primitive.ObjectID) (*Rule, error) {
	var rule Rule
	err := r.Collection.FindOne(ctx, bson.M{"_id": id, "tenant_id": orgID}).Decode(&rule)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepositoryImpl) List(ctx context.Context, orgID primitive.ObjectID) ([]Rule, error) {
	opts := options.Find().SetSort(bson.M{"name": 1})
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	var rules []Rule
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleRepositoryImpl) Update(ctx context.Context, rule *Rule) error {
	rule.UpdatedAt = time.Now()
	filter := bson.M{"_id": rule.ID, "tenant_id": rule.TenantID}
	_, err := r.Collection.UpdateOne(ctx, filter, bson.M{"$set": rule})
	return err
}

func (r *RuleRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
