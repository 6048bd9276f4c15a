package messaging

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageThread is a secure conversation attached to a matter. Staff on the
// matter and the matter's portal client share the same thread.
type MessageThread struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID      primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	MatterID      primitive.ObjectID `bson:"matter_id" json:"matter_id"`
	Subject       string             `bson:"subject" json:"subject"`
	CreatedBy     primitive.ObjectID `bson:"created_by" json:"created_by"`
	LastMessageAt *time.Time         `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// Message carries the matter id alongside the thread id so row scoping stays a
// single-collection filter.
type Message struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	ThreadID primitive.ObjectID `bson:"thread_id" json:"thread_id"`
	MatterID primitive.ObjectID `bson:"matter_id" json:"matter_id"`
	SenderID primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Body     string             `bson:"body" json:"body"`
	SentAt   time.Time          `bson:"sent_at" json:"sent_at"`
}
