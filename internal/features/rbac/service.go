package rbac

import (
	"context"
	"errors"
	"fmt"

	common_models "go-lpm/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrSystemRoleImmutable = errors.New("system roles cannot be modified or deleted")
	ErrUnknownPermission   = errors.New("unknown permission code")
)

// AuditLogger records role and assignment changes. Satisfied by the audit
// feature's service; declared here so this package has no dependency on it.
type AuditLogger interface {
	LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error
}

type RBACService interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	ListRoles(ctx context.Context, orgID primitive.ObjectID) ([]Role, error)
	GetRole(ctx context.Context, orgID, id primitive.ObjectID) (*Role, error)
	CreateCustomRole(ctx context.Context, orgID primitive.ObjectID, name string, codes []string) (*Role, error)
	UpdateCustomRole(ctx context.Context, orgID, id primitive.ObjectID, name string, codes []string) error
	DeleteRole(ctx context.Context, orgID, id primitive.ObjectID) error
	GrantRole(ctx context.Context, orgID, userID, roleID primitive.ObjectID) error
	RevokeRole(ctx context.Context, orgID, userID, roleID primitive.ObjectID) error
	GrantRoleByName(ctx context.Context, orgID, userID primitive.ObjectID, roleName string) error
	RoleNamesForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]string, error)
}

type RBACServiceImpl struct {
	PermissionRepo PermissionRepository
	RoleRepo       RoleRepository
	UserRoleRepo   UserRoleRepository
	AuditService   AuditLogger
}

func NewRBACService(
	permissionRepo PermissionRepository,
	roleRepo RoleRepository,
	userRoleRepo UserRoleRepository,
	auditService AuditLogger,
) RBACService {
	return &RBACServiceImpl{
		PermissionRepo: permissionRepo,
		RoleRepo:       roleRepo,
		UserRoleRepo:   userRoleRepo,
		AuditService:   auditService,
	}
}

func (s *RBACServiceImpl) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.PermissionRepo.List(ctx)
}

func (s *RBACServiceImpl) ListRoles(ctx context.Context, orgID primitive.ObjectID) ([]Role, error) {
	return s.RoleRepo.List(ctx, orgID)
}

func (s *RBACServiceImpl) GetRole(ctx context.Context, orgID, id primitive.ObjectID) (*Role, error) {
	return s.RoleRepo.FindByID(ctx, orgID, id)
}

func (s *RBACServiceImpl) CreateCustomRole(ctx context.Context, orgID primitive.ObjectID, name string, codes []string) (*Role, error) {
	if err := s.validateCodes(codes); err != nil {
		return nil, err
	}
	role := &Role{
		TenantID:        orgID,
		Name:            name,
		IsCustom:        true,
		PermissionCodes: codes,
	}
	if err := s.RoleRepo.Create(ctx, role); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "role", role.ID.Hex(), map[string]common_models.Change{
		"name":        {New: role.Name},
		"permissions": {New: role.PermissionCodes},
	})

	return role, nil
}

func (s *RBACServiceImpl) UpdateCustomRole(ctx context.Context, orgID, id primitive.ObjectID, name string, codes []string) error {
	role, err := s.RoleRepo.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !role.IsCustom {
		return ErrSystemRoleImmutable
	}
	if err := s.validateCodes(codes); err != nil {
		return err
	}

	old := role.PermissionCodes
	role.Name = name
	role.PermissionCodes = codes
	if err := s.RoleRepo.Update(ctx, role); err != nil {
		return err
	}

	// Every member holding this role gets a fresh permission set on next read.
	s.invalidateRoleMembers(ctx, role.ID)

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "role", role.ID.Hex(), map[string]common_models.Change{
		"permissions": {Old: old, New: codes},
	})

	return nil
}

func (s *RBACServiceImpl) DeleteRole(ctx context.Context, orgID, id primitive.ObjectID) error {
	role, err := s.RoleRepo.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !role.IsCustom {
		return ErrSystemRoleImmutable
	}

	s.invalidateRoleMembers(ctx, role.ID)

	if err := s.UserRoleRepo.DeleteByRole(ctx, role.ID); err != nil {
		return err
	}
	if err := s.RoleRepo.Delete(ctx, orgID, id); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "role", id.Hex(), map[string]common_models.Change{
		"name": {Old: role.Name},
	})

	return nil
}

func (s *RBACServiceImpl) GrantRole(ctx context.Context, orgID, userID, roleID primitive.ObjectID) error {
	role, err := s.RoleRepo.FindByID(ctx, orgID, roleID)
	if err != nil {
		return err
	}
	if err := s.UserRoleRepo.Grant(ctx, orgID, userID, role.ID); err != nil {
		return err
	}

	CacheFrom(ctx).Invalidate(userID)

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRoleGrant, "user_role", userID.Hex(), map[string]common_models.Change{
		"role": {New: role.Name},
	})

	return nil
}

func (s *RBACServiceImpl) RevokeRole(ctx context.Context, orgID, userID, roleID primitive.ObjectID) error {
	role, err := s.RoleRepo.FindByID(ctx, orgID, roleID)
	if err != nil {
		return err
	}
	if err := s.UserRoleRepo.Revoke(ctx, userID, role.ID); err != nil {
		return err
	}

	CacheFrom(ctx).Invalidate(userID)

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRoleRevoke, "user_role", userID.Hex(), map[string]common_models.Change{
		"role": {Old: role.Name},
	})

	return nil
}

func (s *RBACServiceImpl) GrantRoleByName(ctx context.Context, orgID, userID primitive.ObjectID, roleName string) error {
	role, err := s.RoleRepo.FindByName(ctx, orgID, roleName)
	if err != nil {
		return err
	}
	return s.GrantRole(ctx, orgID, userID, role.ID)
}

func (s *RBACServiceImpl) RoleNamesForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]string, error) {
	ids, err := s.UserRoleRepo.RoleIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.RoleRepo.FindByIDs(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names, nil
}

func (s *RBACServiceImpl) validateCodes(codes []string) error {
	known := make(map[string]struct{}, len(PermissionDefinitions))
	for _, def := range PermissionDefinitions {
		known[def.Codename] = struct{}{}
	}
	for _, code := range codes {
		if _, ok := known[code]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, code)
		}
	}
	return nil
}

func (s *RBACServiceImpl) invalidateRoleMembers(ctx context.Context, roleID primitive.ObjectID) {
	cache := CacheFrom(ctx)
	if cache == nil {
		return
	}
	userIDs, err := s.UserRoleRepo.UserIDsForRole(ctx, roleID)
	if err != nil {
		return
	}
	for _, id := range userIDs {
		cache.Invalidate(id)
	}
}
