package client

import (
	"context"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// rowPolicy: staff with client.view see every client in the tenant; portal
// identities see only their own record.
var rowPolicy = rbac.RowPolicy{
	Resource:         "client",
	ClientField:      "_id",
	BypassPermission: "client.view",
}

type ClientService interface {
	CreateClient(ctx context.Context, client *Client) error
	GetClient(ctx context.Context, id primitive.ObjectID) (*Client, error)
	ListClients(ctx context.Context, page, limit int64) ([]Client, error)
	UpdateClient(ctx context.Context, client *Client) error
	DeleteClient(ctx context.Context, id primitive.ObjectID) error
}

type ClientServiceImpl struct {
	Repo         ClientRepository
	Scoper       *rbac.Scoper
	AuditService rbac.AuditLogger
}

func NewClientService(repo ClientRepository, scoper *rbac.Scoper, auditService rbac.AuditLogger) ClientService {
	return &ClientServiceImpl{
		Repo:         repo,
		Scoper:       scoper,
		AuditService: auditService,
	}
}

func (s *ClientServiceImpl) CreateClient(ctx context.Context, client *Client) error {
	principal := rbac.PrincipalFrom(ctx)
	client.TenantID = principal.OrganizationID
	if err := s.Repo.Create(ctx, client); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "client", client.ID.Hex(), map[string]models.Change{
		"name": {New: client.Name},
	})
	return nil
}

func (s *ClientServiceImpl) GetClient(ctx context.Context, id primitive.ObjectID) (*Client, error) {
	principal := rbac.PrincipalFrom(ctx)
	filter, err := s.Scoper.Scope(ctx, principal, rowPolicy)
	if err != nil {
		return nil, err
	}
	filter["_id"] = id
	return s.Repo.FindOne(ctx, filter)
}

func (s *ClientServiceImpl) ListClients(ctx context.Context, page, limit int64) ([]Client, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	principal := rbac.PrincipalFrom(ctx)
	filter, err := s.Scoper.Scope(ctx, principal, rowPolicy)
	if err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *ClientServiceImpl) UpdateClient(ctx context.Context, client *Client) error {
	principal := rbac.PrincipalFrom(ctx)
	existing, err := s.GetClient(ctx, client.ID)
	if err != nil {
		return err
	}

	client.TenantID = principal.OrganizationID
	client.PortalUserID = existing.PortalUserID
	client.CreatedAt = existing.CreatedAt
	if err := s.Repo.Update(ctx, client); err != nil {
		return err
	}

	changes := map[string]models.Change{}
	if existing.Name != client.Name {
		changes["name"] = models.Change{Old: existing.Name, New: client.Name}
	}
	if existing.Email != client.Email {
		changes["email"] = models.Change{Old: existing.Email, New: client.Email}
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "client", client.ID.Hex(), changes)
	return nil
}

func (s *ClientServiceImpl) DeleteClient(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetClient(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "client", id.Hex(), nil)
	return nil
}
