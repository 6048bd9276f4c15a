package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation is a single-use, expiring token that lets an invitee join the
// organization with a predetermined role. Client invitations additionally
// carry the client record the new user will be linked to as portal user.
type Invitation struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID  `bson:"tenant_id" json:"tenant_id"`
	Email      string              `bson:"email" json:"email"`
	RoleName   string              `bson:"role_name" json:"role_name"`
	ClientID   *primitive.ObjectID `bson:"client_id,omitempty" json:"client_id,omitempty"`
	Token      string              `bson:"token" json:"-"`
	ExpiresAt  time.Time           `bson:"expires_at" json:"expires_at"`
	AcceptedAt *time.Time          `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	CreatedBy  primitive.ObjectID  `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

func (i *Invitation) Accepted() bool {
	return i.AcceptedAt != nil
}
