package client

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client is a firm's client (person or company). PortalUserID links the user
// account that authenticates as this client in the portal; at most one user
// per client.
type Client struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TenantID     primitive.ObjectID  `bson:"tenant_id" json:"tenant_id"`
	Name         string              `bson:"name" json:"name"`
	Type         string              `bson:"type" json:"type"` // person, company
	Email        string              `bson:"email,omitempty" json:"email,omitempty"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string              `bson:"address,omitempty" json:"address,omitempty"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	PortalUserID *primitive.ObjectID `bson:"portal_user_id,omitempty" json:"portal_user_id,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}
