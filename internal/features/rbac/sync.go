package rbac

import (
	"context"
	"fmt"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OrgLocker marks the organization document inside the sync transaction.
// The write serializes concurrent syncs for the same organization: a second
// transaction conflicts on the document and aborts, so partial permission-set
// replacements never interleave.
type OrgLocker interface {
	TouchRBACSync(ctx context.Context, orgID primitive.ObjectID) error
}

// Synchronizer ensures all catalog permissions exist globally and all system
// roles exist per organization with their canonical permission sets. It is the
// only code path that mutates the permissions collection or system roles.
type Synchronizer struct {
	permissions PermissionRepository
	roles       RoleRepository
	orgs        OrgLocker
	txn         database.TxnRunner
	logger      *zap.Logger
}

func NewSynchronizer(
	permissions PermissionRepository,
	roles RoleRepository,
	orgs OrgLocker,
	txn database.TxnRunner,
	logger *zap.Logger,
) *Synchronizer {
	return &Synchronizer{
		permissions: permissions,
		roles:       roles,
		orgs:        orgs,
		txn:         txn,
		logger:      logger,
	}
}

// SyncOrganization is idempotent: running it N times produces the same state
// as running it once. Catalog permissions are upserted in place, system roles
// are fetched-or-created and their permission sets replaced wholesale (never
// merged), and custom roles are left untouched. The whole run is one
// transaction; a partial failure rolls back wholesale and is safe to retry.
func (s *Synchronizer) SyncOrganization(ctx context.Context, orgID primitive.ObjectID) error {
	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.orgs.TouchRBACSync(ctx, orgID); err != nil {
			return fmt.Errorf("lock organization %s: %w", orgID.Hex(), err)
		}
		for _, def := range PermissionDefinitions {
			if err := s.permissions.Upsert(ctx, def); err != nil {
				return fmt.Errorf("upsert permission %s: %w", def.Codename, err)
			}
		}
		for _, def := range RoleDefinitions {
			if err := s.roles.ReplaceSystem(ctx, orgID, def.Name, def.Permissions); err != nil {
				return fmt.Errorf("sync role %q: %w", def.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("organization roles synchronized",
		zap.String("organizationId", orgID.Hex()),
		zap.Int("permissions", len(PermissionDefinitions)),
		zap.Int("roles", len(RoleDefinitions)),
	)
	return nil
}
