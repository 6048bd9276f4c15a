package organization

import (
	"context"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/rbac"
	"go-lpm/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrganizationService interface {
	CreateOrganization(ctx context.Context, name, region, matterPrefix string) (*models.Organization, error)
	GetOrganization(ctx context.Context, id primitive.ObjectID) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, id primitive.ObjectID, name, region, matterPrefix string) (*models.Organization, error)
	SyncRoles(ctx context.Context, id primitive.ObjectID) error
	NextMatterReference(ctx context.Context, orgID primitive.ObjectID) (string, error)
	NextInvoiceNumber(ctx context.Context, orgID primitive.ObjectID) (string, error)
}

type OrganizationServiceImpl struct {
	Repo         OrganizationRepository
	Synchronizer *rbac.Synchronizer
	AuditService rbac.AuditLogger
}

func NewOrganizationService(repo OrganizationRepository, synchronizer *rbac.Synchronizer, auditService rbac.AuditLogger) OrganizationService {
	return &OrganizationServiceImpl{
		Repo:         repo,
		Synchronizer: synchronizer,
		AuditService: auditService,
	}
}

// CreateOrganization provisions the tenant and immediately materializes its
// system roles so the first user can be granted Owner.
func (s *OrganizationServiceImpl) CreateOrganization(ctx context.Context, name, region, matterPrefix string) (*models.Organization, error) {
	if matterPrefix == "" {
		matterPrefix = "MAT"
	}
	org := &models.Organization{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Slug:         utils.Slugify(name) + "-" + primitive.NewObjectID().Hex()[:4],
		Region:       region,
		MatterPrefix: matterPrefix,
	}
	if err := s.Repo.Create(ctx, org); err != nil {
		return nil, err
	}

	if err := s.Synchronizer.SyncOrganization(ctx, org.ID); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "organization", org.ID.Hex(), map[string]models.Change{
		"name":   {New: name},
		"region": {New: region},
	})

	return org, nil
}

func (s *OrganizationServiceImpl) GetOrganization(ctx context.Context, id primitive.ObjectID) (*models.Organization, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *OrganizationServiceImpl) UpdateOrganization(ctx context.Context, id primitive.ObjectID, name, region, matterPrefix string) (*models.Organization, error) {
	org, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]models.Change{}
	if name != "" && name != org.Name {
		changes["name"] = models.Change{Old: org.Name, New: name}
		org.Name = name
	}
	if region != "" && region != org.Region {
		changes["region"] = models.Change{Old: org.Region, New: region}
		org.Region = region
	}
	if matterPrefix != "" && matterPrefix != org.MatterPrefix {
		changes["matter_prefix"] = models.Change{Old: org.MatterPrefix, New: matterPrefix}
		org.MatterPrefix = matterPrefix
	}
	if len(changes) == 0 {
		return org, nil
	}

	org.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, org); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "organization", id.Hex(), changes)

	return org, nil
}

// SyncRoles re-runs the role synchronizer on demand, typically after a deploy
// that changed the permission catalog.
func (s *OrganizationServiceImpl) SyncRoles(ctx context.Context, id primitive.ObjectID) error {
	if err := s.Synchronizer.SyncOrganization(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionRoleSync, "organization", id.Hex(), nil)
	return nil
}

func (s *OrganizationServiceImpl) NextMatterReference(ctx context.Context, orgID primitive.ObjectID) (string, error) {
	return s.Repo.NextMatterReference(ctx, orgID)
}

func (s *OrganizationServiceImpl) NextInvoiceNumber(ctx context.Context, orgID primitive.ObjectID) (string, error) {
	return s.Repo.NextInvoiceNumber(ctx, orgID)
}
