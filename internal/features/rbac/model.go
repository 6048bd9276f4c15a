package rbac

import (
	"time"

	common_models "go-lpm/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Permission is a global catalog row. Never organization-scoped; only the
// synchronizer mutates this collection.
type Permission struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Codename    string             `bson:"codename" json:"codename"` // dotted resource.verb, unique
	Label       string             `bson:"label" json:"label"`
	Description string             `bson:"description" json:"description"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Role is unique per (organization, name). System roles have their permission
// codes replaced wholesale on every sync; custom roles are never touched by it.
type Role struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID        primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Name            string             `bson:"name" json:"name"`
	IsCustom        bool               `bson:"is_custom" json:"is_custom"`
	PermissionCodes []string           `bson:"permission_codes" json:"permission_codes"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserRole joins a user to a role, unique per pair. A user may hold multiple
// roles; effective permissions are the union across all of them.
type UserRole struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	RoleID    primitive.ObjectID `bson:"role_id" json:"role_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Principal is the request-time identity the evaluator and scoper operate on.
// The definition lives in common/models so the auth middleware can construct
// one without importing this package.
type Principal = common_models.Principal
