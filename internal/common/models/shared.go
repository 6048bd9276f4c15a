package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier delivers an in-app notification to one user. Satisfied by the
// notification feature's service; declared here so producing features don't
// depend on it.
type Notifier interface {
	Notify(ctx context.Context, orgID, userID primitive.ObjectID, kind, title, refType, refID string) error
}

type ContextKey string

const (
	TenantIDKey  ContextKey = "tenant_id"
	PrincipalKey ContextKey = "principal"
	PermCacheKey ContextKey = "perm_cache"
)

type AuditAction string

const (
	AuditActionCreate       AuditAction = "CREATE"
	AuditActionUpdate       AuditAction = "UPDATE"
	AuditActionDelete       AuditAction = "DELETE"
	AuditActionLogin        AuditAction = "LOGIN"
	AuditActionInvite       AuditAction = "INVITE"
	AuditActionRoleSync     AuditAction = "ROLE_SYNC"
	AuditActionRoleGrant    AuditAction = "ROLE_GRANT"
	AuditActionRoleRevoke   AuditAction = "ROLE_REVOKE"
	AuditActionDownload     AuditAction = "DOWNLOAD"
	AuditActionVisibility   AuditAction = "VISIBILITY"
	AuditActionPayment      AuditAction = "PAYMENT"
	AuditActionExport       AuditAction = "EXPORT"
	AuditActionNotification AuditAction = "NOTIFICATION"
)

// Principal is the request-time identity extracted from a validated token.
// ClientID is non-zero only for client-portal identities (a user linked as a
// client's portal user).
type Principal struct {
	UserID         primitive.ObjectID
	OrganizationID primitive.ObjectID
	Authenticated  bool
	ClientID       primitive.ObjectID
}

// IsClient reports whether the principal is a client-portal identity. A
// principal holding both a client link and staff roles is scoped as a client:
// the portal link wins.
func (p Principal) IsClient() bool {
	return !p.ClientID.IsZero()
}

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`         // The feature/collection name
	RecordID  string             `bson:"record_id" json:"record_id"`   // The ID of the record being modified
	ActorID   string             `bson:"actor_id" json:"actor_id"`     // User ID who performed the action
	ActorName string             `bson:"-" json:"actor_name,omitempty"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Organization is the tenant boundary. Every scoped entity carries exactly one
// organization id; cross-organization references are rejected at the
// repository layer.
type Organization struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Slug         string             `bson:"slug" json:"slug"`
	Region       string             `bson:"region" json:"region"`
	MatterPrefix string             `bson:"matter_prefix" json:"matter_prefix"` // e.g. "MAT"
	MatterSeq    int64              `bson:"matter_seq" json:"matter_seq"`       // next sequence number
	InvoiceSeq   int64              `bson:"invoice_seq" json:"invoice_seq"`
	RBACSyncedAt *time.Time         `bson:"rbac_synced_at,omitempty" json:"rbac_synced_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	FirstName  string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName   string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Status     string             `bson:"status" json:"status"` // active, inactive, suspended
	MFAEnabled bool               `bson:"mfa_enabled" json:"mfa_enabled"`
	LastLogin  *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

type Log struct {
	Message        string    `bson:"message" json:"message"`
	IpAddress      string    `bson:"ip_address" json:"ip_address"`
	OrganizationID string    `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	LogLevelId     int       `bson:"log_level_id" json:"log_level_id"`
	Caller         string    `bson:"caller,omitempty" json:"caller,omitempty"`
	CreatedOnUtc   time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
