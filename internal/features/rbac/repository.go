package rbac

import (
	"context"
	"errors"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrRoleNotFound = errors.New("role not found")

type PermissionRepository interface {
	Upsert(ctx context.Context, def PermissionDefinition) error
	List(ctx context.Context) ([]Permission, error)
}

type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	FindByID(ctx context.Context, orgID, id primitive.ObjectID) (*Role, error)
	FindByName(ctx context.Context, orgID primitive.ObjectID, name string) (*Role, error)
	FindByIDs(ctx context.Context, orgID primitive.ObjectID, ids []primitive.ObjectID) ([]Role, error)
	List(ctx context.Context, orgID primitive.ObjectID) ([]Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
	// ReplaceSystem upserts the system role for the organization and replaces
	// its permission set wholesale with the canonical codes.
	ReplaceSystem(ctx context.Context, orgID primitive.ObjectID, name string, codes []string) error
}

type UserRoleRepository interface {
	Grant(ctx context.Context, orgID, userID, roleID primitive.ObjectID) error
	Revoke(ctx context.Context, userID, roleID primitive.ObjectID) error
	RoleIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	UserIDsForRole(ctx context.Context, roleID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByRole(ctx context.Context, roleID primitive.ObjectID) error
}

// RoleSource is what the evaluator needs: the resolved roles a user holds.
type RoleSource interface {
	RolesForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]Role, error)
}

type PermissionRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewPermissionRepository(mongodb *database.MongodbDB) PermissionRepository {
	return &PermissionRepositoryImpl{Collection: mongodb.DB.Collection("permissions")}
}

func (r *PermissionRepositoryImpl) Upsert(ctx context.Context, def PermissionDefinition) error {
	update := bson.M{
		"$set": bson.M{
			"label":       def.Label,
			"description": def.Description,
			"updated_at":  time.Now(),
		},
		"$setOnInsert": bson.M{"codename": def.Codename},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.Collection.UpdateOne(ctx, bson.M{"codename": def.Codename}, update, opts)
	return err
}

func (r *PermissionRepositoryImpl) List(ctx context.Context) ([]Permission, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"codename": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var permissions []Permission
	if err = cursor.All(ctx, &permissions); err != nil {
		return nil, err
	}
	return permissions, nil
}

type RoleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRoleRepository(mongodb *database.MongodbDB) RoleRepository {
	return &RoleRepositoryImpl{Collection: mongodb.DB.Collection("roles")}
}

func (r *RoleRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *RoleRepositoryImpl) Create(ctx context.Context, role *Role) error {
	if role.ID.IsZero() {
		role.ID = primitive.NewObjectID()
	}
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, role)
	return err
}

func (r *RoleRepositoryImpl) FindByID(ctx context.Context, orgID, id primitive.ObjectID) (*Role, error) {
	var role Role
	err := r.Collection.FindOne(ctx, bson.M{"_id": id, "tenant_id": orgID}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepositoryImpl) FindByName(ctx context.Context, orgID primitive.ObjectID, name string) (*Role, error) {
	var role Role
	err := r.Collection.FindOne(ctx, bson.M{"tenant_id": orgID, "name": name}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepositoryImpl) FindByIDs(ctx context.Context, orgID primitive.ObjectID, ids []primitive.ObjectID) ([]Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "tenant_id": orgID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var roles []Role
	if err = cursor.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *RoleRepositoryImpl) List(ctx context.Context, orgID primitive.ObjectID) ([]Role, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": orgID}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var roles []Role
	if err = cursor.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *RoleRepositoryImpl) Update(ctx context.Context, role *Role) error {
	role.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":             role.Name,
		"is_custom":        role.IsCustom,
		"permission_codes": role.PermissionCodes,
		"updated_at":       role.UpdatedAt,
	}}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": role.ID, "tenant_id": role.TenantID}, update)
	return err
}

func (r *RoleRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	return err
}

func (r *RoleRepositoryImpl) ReplaceSystem(ctx context.Context, orgID primitive.ObjectID, name string, codes []string) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"is_custom":        false,
			"permission_codes": codes,
			"updated_at":       now,
		},
		"$setOnInsert": bson.M{
			"tenant_id":  orgID,
			"name":       name,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.Collection.UpdateOne(ctx, bson.M{"tenant_id": orgID, "name": name}, update, opts)
	return err
}

type UserRoleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRoleRepository(mongodb *database.MongodbDB) UserRoleRepository {
	return &UserRoleRepositoryImpl{Collection: mongodb.DB.Collection("user_roles")}
}

func (r *UserRoleRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRoleRepositoryImpl) Grant(ctx context.Context, orgID, userID, roleID primitive.ObjectID) error {
	update := bson.M{"$setOnInsert": bson.M{
		"tenant_id":  orgID,
		"user_id":    userID,
		"role_id":    roleID,
		"created_at": time.Now(),
	}}
	opts := options.Update().SetUpsert(true)
	_, err := r.Collection.UpdateOne(ctx, bson.M{"user_id": userID, "role_id": roleID}, update, opts)
	return err
}

func (r *UserRoleRepositoryImpl) Revoke(ctx context.Context, userID, roleID primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"user_id": userID, "role_id": roleID})
	return err
}

func (r *UserRoleRepositoryImpl) RoleIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []UserRole
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.RoleID)
	}
	return ids, nil
}

func (r *UserRoleRepositoryImpl) UserIDsForRole(ctx context.Context, roleID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"role_id": roleID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []UserRole
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return ids, nil
}

func (r *UserRoleRepositoryImpl) DeleteByRole(ctx context.Context, roleID primitive.ObjectID) error {
	_, err := r.Collection.DeleteMany(ctx, bson.M{"role_id": roleID})
	return err
}

// roleSource joins user_roles to roles for the evaluator.
type roleSource struct {
	userRoles UserRoleRepository
	roles     RoleRepository
}

func NewRoleSource(userRoles UserRoleRepository, roles RoleRepository) RoleSource {
	return &roleSource{userRoles: userRoles, roles: roles}
}

func (s *roleSource) RolesForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]Role, error) {
	ids, err := s.userRoles.RoleIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.roles.FindByIDs(ctx, orgID, ids)
}
