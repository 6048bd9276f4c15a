package matter

import (
	"context"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Matters are visible to their lead lawyer, explicitly granted users, and the
// owning client's portal user. matter.view_all lifts the narrowing.
var matterRowPolicy = rbac.RowPolicy{
	Resource:         "matter",
	OwnerField:       "lead_lawyer_id",
	AccessField:      "access_user_ids",
	ClientField:      "client_id",
	BypassPermission: "matter.view_all",
}

// ReferenceSource hands out the next matter reference for an organization.
// Satisfied by the organization service.
type ReferenceSource interface {
	NextMatterReference(ctx context.Context, orgID primitive.ObjectID) (string, error)
}

type MatterService interface {
	CreateMatter(ctx context.Context, m *Matter) error
	GetMatter(ctx context.Context, id primitive.ObjectID) (*Matter, error)
	ListMatters(ctx context.Context, status string, page, limit int64) ([]Matter, error)
	UpdateMatter(ctx context.Context, m *Matter) error
	DeleteMatter(ctx context.Context, id primitive.ObjectID) error
	GrantAccess(ctx context.Context, matterID, userID primitive.ObjectID) error
	RevokeAccess(ctx context.Context, matterID, userID primitive.ObjectID) error
}

type MatterServiceImpl struct {
	Repo         MatterRepository
	Scoper       *rbac.Scoper
	References   ReferenceSource
	Notifier     models.Notifier
	AuditService rbac.AuditLogger
}

func NewMatterService(
	repo MatterRepository,
	scoper *rbac.Scoper,
	references ReferenceSource,
	notifier models.Notifier,
	auditService rbac.AuditLogger,
) MatterService {
	return &MatterServiceImpl{
		Repo:         repo,
		Scoper:       scoper,
		References:   references,
		Notifier:     notifier,
		AuditService: auditService,
	}
}

func (s *MatterServiceImpl) CreateMatter(ctx context.Context, m *Matter) error {
	principal := rbac.PrincipalFrom(ctx)
	m.TenantID = principal.OrganizationID
	if m.LeadLawyerID.IsZero() {
		m.LeadLawyerID = principal.UserID
	}

	reference, err := s.References.NextMatterReference(ctx, principal.OrganizationID)
	if err != nil {
		return err
	}
	m.Reference = reference

	if err := s.Repo.Create(ctx, m); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "matter", m.ID.Hex(), map[string]models.Change{
		"reference": {New: m.Reference},
		"title":     {New: m.Title},
	})
	return nil
}

func (s *MatterServiceImpl) GetMatter(ctx context.Context, id primitive.ObjectID) (*Matter, error) {
	filter, err := s.scopedFilter(ctx)
	if err != nil {
		return nil, err
	}
	filter["_id"] = id
	return s.Repo.FindOne(ctx, filter)
}

func (s *MatterServiceImpl) ListMatters(ctx context.Context, status string, page, limit int64) ([]Matter, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	filter, err := s.scopedFilter(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" {
		filter["status"] = status
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *MatterServiceImpl) UpdateMatter(ctx context.Context, m *Matter) error {
	existing, err := s.GetMatter(ctx, m.ID)
	if err != nil {
		return err
	}

	// Reference, tenancy and access grants are never updated through here.
	m.TenantID = existing.TenantID
	m.Reference = existing.Reference
	m.AccessUserIDs = existing.AccessUserIDs
	m.CreatedAt = existing.CreatedAt
	m.OpenedAt = existing.OpenedAt
	if m.Status == StatusClosed && existing.Status != StatusClosed {
		now := time.Now()
		m.ClosedAt = &now
	}

	if err := s.Repo.Update(ctx, m); err != nil {
		return err
	}

	changes := map[string]models.Change{}
	if existing.Title != m.Title {
		changes["title"] = models.Change{Old: existing.Title, New: m.Title}
	}
	if existing.Status != m.Status {
		changes["status"] = models.Change{Old: existing.Status, New: m.Status}
	}
	if existing.LeadLawyerID != m.LeadLawyerID {
		changes["lead_lawyer_id"] = models.Change{Old: existing.LeadLawyerID.Hex(), New: m.LeadLawyerID.Hex()}
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "matter", m.ID.Hex(), changes)
	return nil
}

func (s *MatterServiceImpl) DeleteMatter(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetMatter(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "matter", id.Hex(), nil)
	return nil
}

func (s *MatterServiceImpl) GrantAccess(ctx context.Context, matterID, userID primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	m, err := s.GetMatter(ctx, matterID)
	if err != nil {
		return err
	}
	if err := s.Repo.GrantAccess(ctx, principal.OrganizationID, matterID, userID); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "matter", matterID.Hex(), map[string]models.Change{
		"access_granted": {New: userID.Hex()},
	})
	_ = s.Notifier.Notify(ctx, principal.OrganizationID, userID,
		"matter_access", "You were granted access to "+m.Reference, "matter", matterID.Hex())
	return nil
}

func (s *MatterServiceImpl) RevokeAccess(ctx context.Context, matterID, userID primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetMatter(ctx, matterID); err != nil {
		return err
	}
	if err := s.Repo.RevokeAccess(ctx, principal.OrganizationID, matterID, userID); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "matter", matterID.Hex(), map[string]models.Change{
		"access_revoked": {Old: userID.Hex()},
	})
	return nil
}

func (s *MatterServiceImpl) scopedFilter(ctx context.Context) (bson.M, error) {
	principal := rbac.PrincipalFrom(ctx)
	return s.Scoper.Scope(ctx, principal, matterRowPolicy)
}
