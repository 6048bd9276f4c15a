package document

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a versioned file attached to a matter. ClientVisible controls
// whether the matter's portal user can see it; staff visibility follows the
// matter.
type Document struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID       primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	MatterID       primitive.ObjectID `bson:"matter_id" json:"matter_id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	ClientVisible  bool               `bson:"client_visible" json:"client_visible"`
	CurrentVersion int                `bson:"current_version" json:"current_version"`
	Versions       []Version          `bson:"versions" json:"versions"`
	CreatedBy      primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// ScanStatus tracks malware screening of an uploaded file.
type ScanStatus string

const (
	ScanStatusPending ScanStatus = "pending"
	ScanStatusClean   ScanStatus = "clean"
)

// Version is one stored revision of a document. Files are immutable once
// written; a new upload always appends a version.
type Version struct {
	Number     int                `bson:"number" json:"number"`
	Filename   string             `bson:"filename" json:"filename"`
	Path       string             `bson:"path" json:"-"`
	Size       int64              `bson:"size" json:"size"`
	MimeType   string             `bson:"mime_type" json:"mime_type"`
	ScanStatus ScanStatus         `bson:"scan_status" json:"scan_status"`
	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// ShareLink grants time-limited, unauthenticated download access to a single
// document through an unguessable token.
type ShareLink struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	DocumentID primitive.ObjectID `bson:"document_id" json:"document_id"`
	Token      string             `bson:"token" json:"token"`
	ExpiresAt  time.Time          `bson:"expires_at" json:"expires_at"`
	RevokedAt  *time.Time         `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	CreatedBy  primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

func (l *ShareLink) Usable(now time.Time) bool {
	return l.RevokedAt == nil && now.Before(l.ExpiresAt)
}

// URL is the public download path for the link, relative to the API host.
func (l *ShareLink) URL() string {
	return "/api/shared/" + l.Token
}
