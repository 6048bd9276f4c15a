package caserules

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rule is a tenant-owned deadline calculation script, typically one per
// jurisdiction and procedural event.
type Rule struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID     primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Name         string             `bson:"name" json:"name"`
	Jurisdiction string             `bson:"jurisdiction,omitempty" json:"jurisdiction,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Script       string             `bson:"script" json:"script"`
	Enabled      bool               `bson:"enabled" json:"enabled"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
