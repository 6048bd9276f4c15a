package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	KindDeadlineReminder = "deadline_reminder"
	KindMatterAccess     = "matter_access"
	KindDocumentShared   = "document_shared"
	KindMessage          = "message"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Kind      string             `bson:"kind" json:"kind"`
	Title     string             `bson:"title" json:"title"`
	RefType   string             `bson:"ref_type,omitempty" json:"ref_type,omitempty"`
	RefID     string             `bson:"ref_id,omitempty" json:"ref_id,omitempty"`
	ReadAt    *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
