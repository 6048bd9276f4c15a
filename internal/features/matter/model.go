package matter

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Matter statuses.
const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusArchived = "archived"
)

// Matter is a legal case or engagement. Row visibility follows the lead
// lawyer, the denormalized access grant list, and the owning client.
type Matter struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TenantID      primitive.ObjectID   `bson:"tenant_id" json:"tenant_id"`
	Reference     string               `bson:"reference" json:"reference"` // e.g. MAT-00042
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description,omitempty" json:"description,omitempty"`
	Status        string               `bson:"status" json:"status"`
	PracticeArea  string               `bson:"practice_area,omitempty" json:"practice_area,omitempty"`
	ClientID      primitive.ObjectID   `bson:"client_id" json:"client_id"`
	LeadLawyerID  primitive.ObjectID   `bson:"lead_lawyer_id" json:"lead_lawyer_id"`
	AccessUserIDs []primitive.ObjectID `bson:"access_user_ids" json:"access_user_ids"`
	OpenedAt      time.Time            `bson:"opened_at" json:"opened_at"`
	ClosedAt      *time.Time           `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// Deadline is a dated obligation on a matter: hearings, filing deadlines,
// limitation dates.
type Deadline struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TenantID       primitive.ObjectID  `bson:"tenant_id" json:"tenant_id"`
	MatterID       primitive.ObjectID  `bson:"matter_id" json:"matter_id"`
	Title          string              `bson:"title" json:"title"`
	Kind           string              `bson:"kind,omitempty" json:"kind,omitempty"` // hearing, filing, limitation
	DueDate        time.Time           `bson:"due_date" json:"due_date"`
	Completed      bool                `bson:"completed" json:"completed"`
	CompletedAt    *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CompletedBy    *primitive.ObjectID `bson:"completed_by,omitempty" json:"completed_by,omitempty"`
	ReminderSentAt *time.Time          `bson:"reminder_sent_at,omitempty" json:"reminder_sent_at,omitempty"`
	CreatedBy      primitive.ObjectID  `bson:"created_by" json:"created_by"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

// DeadlineSummary is the dashboard rollup of a user's visible deadlines.
type DeadlineSummary struct {
	Overdue   int64 `json:"overdue"`
	DueToday  int64 `json:"due_today"`
	DueIn7    int64 `json:"due_in_7_days"`
	Completed int64 `json:"completed"`
}
