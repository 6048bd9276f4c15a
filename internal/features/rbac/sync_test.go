package rbac

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakePermissionRepo struct {
	defs    map[string]PermissionDefinition
	upserts int
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{defs: make(map[string]PermissionDefinition)}
}

func (r *fakePermissionRepo) Upsert(ctx context.Context, def PermissionDefinition) error {
	r.defs[def.Codename] = def
	r.upserts++
	return nil
}

func (r *fakePermissionRepo) List(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, Permission{Codename: def.Codename, Label: def.Label})
	}
	return out, nil
}

type roleKey struct {
	org  primitive.ObjectID
	name string
}

type fakeRoleRepo struct {
	roles   map[roleKey]*Role
	failOn  string
	replace int
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[roleKey]*Role)}
}

func (r *fakeRoleRepo) Create(ctx context.Context, role *Role) error {
	if role.ID.IsZero() {
		role.ID = primitive.NewObjectID()
	}
	r.roles[roleKey{role.TenantID, role.Name}] = role
	return nil
}

func (r *fakeRoleRepo) FindByID(ctx context.Context, orgID, id primitive.ObjectID) (*Role, error) {
	for _, role := range r.roles {
		if role.TenantID == orgID && role.ID == id {
			return role, nil
		}
	}
	return nil, ErrRoleNotFound
}

func (r *fakeRoleRepo) FindByName(ctx context.Context, orgID primitive.ObjectID, name string) (*Role, error) {
	if role, ok := r.roles[roleKey{orgID, name}]; ok {
		return role, nil
	}
	return nil, ErrRoleNotFound
}

func (r *fakeRoleRepo) FindByIDs(ctx context.Context, orgID primitive.ObjectID, ids []primitive.ObjectID) ([]Role, error) {
	var out []Role
	for _, id := range ids {
		if role, err := r.FindByID(ctx, orgID, id); err == nil {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (r *fakeRoleRepo) List(ctx context.Context, orgID primitive.ObjectID) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		if role.TenantID == orgID {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (r *fakeRoleRepo) Update(ctx context.Context, role *Role) error {
	r.roles[roleKey{role.TenantID, role.Name}] = role
	return nil
}

func (r *fakeRoleRepo) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	for key, role := range r.roles {
		if role.TenantID == orgID && role.ID == id {
			delete(r.roles, key)
		}
	}
	return nil
}

func (r *fakeRoleRepo) ReplaceSystem(ctx context.Context, orgID primitive.ObjectID, name string, codes []string) error {
	if name == r.failOn {
		return errors.New("replace failed")
	}
	r.replace++
	key := roleKey{orgID, name}
	if role, ok := r.roles[key]; ok {
		role.IsCustom = false
		role.PermissionCodes = codes
		return nil
	}
	r.roles[key] = &Role{
		ID:              primitive.NewObjectID(),
		TenantID:        orgID,
		Name:            name,
		IsCustom:        false,
		PermissionCodes: codes,
	}
	return nil
}

type fakeOrgLocker struct {
	touched int
	err     error
}

func (l *fakeOrgLocker) TouchRBACSync(ctx context.Context, orgID primitive.ObjectID) error {
	if l.err != nil {
		return l.err
	}
	l.touched++
	return nil
}

// passTxn runs the function directly; transactional semantics are the
// driver's concern, not the synchronizer's.
type passTxn struct{}

func (passTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestSynchronizer(perms *fakePermissionRepo, roles *fakeRoleRepo, locker *fakeOrgLocker) *Synchronizer {
	return NewSynchronizer(perms, roles, locker, passTxn{}, zap.NewNop())
}

func snapshotRoles(r *fakeRoleRepo) map[roleKey]Role {
	out := make(map[roleKey]Role, len(r.roles))
	for key, role := range r.roles {
		copied := *role
		copied.PermissionCodes = append([]string(nil), role.PermissionCodes...)
		out[key] = copied
	}
	return out
}

func TestSyncOrganizationCreatesCatalogAndRoles(t *testing.T) {
	perms := newFakePermissionRepo()
	roles := newFakeRoleRepo()
	locker := &fakeOrgLocker{}
	s := newTestSynchronizer(perms, roles, locker)
	orgID := primitive.NewObjectID()

	if err := s.SyncOrganization(context.Background(), orgID); err != nil {
		t.Fatalf("SyncOrganization() error = %v", err)
	}

	if len(perms.defs) != len(PermissionDefinitions) {
		t.Errorf("got %d catalog permissions, want %d", len(perms.defs), len(PermissionDefinitions))
	}
	if locker.touched != 1 {
		t.Errorf("organization locked %d times, want 1", locker.touched)
	}
	for _, def := range RoleDefinitions {
		role, err := roles.FindByName(context.Background(), orgID, def.Name)
		if err != nil {
			t.Errorf("role %q missing after sync", def.Name)
			continue
		}
		if role.IsCustom {
			t.Errorf("role %q marked custom after sync", def.Name)
		}
		if !reflect.DeepEqual(role.PermissionCodes, def.Permissions) {
			t.Errorf("role %q codes = %v, want %v", def.Name, role.PermissionCodes, def.Permissions)
		}
	}
}

func TestSyncOrganizationIsIdempotent(t *testing.T) {
	perms := newFakePermissionRepo()
	roles := newFakeRoleRepo()
	s := newTestSynchronizer(perms, roles, &fakeOrgLocker{})
	orgID := primitive.NewObjectID()

	if err := s.SyncOrganization(context.Background(), orgID); err != nil {
		t.Fatalf("first sync error = %v", err)
	}
	first := snapshotRoles(roles)

	if err := s.SyncOrganization(context.Background(), orgID); err != nil {
		t.Fatalf("second sync error = %v", err)
	}
	second := snapshotRoles(roles)

	if len(first) != len(second) {
		t.Fatalf("role count changed across syncs: %d vs %d", len(first), len(second))
	}
	for key, before := range first {
		after, ok := second[key]
		if !ok {
			t.Errorf("role %q vanished on resync", key.name)
			continue
		}
		if before.ID != after.ID {
			t.Errorf("role %q recreated instead of updated", key.name)
		}
		if !reflect.DeepEqual(before.PermissionCodes, after.PermissionCodes) {
			t.Errorf("role %q codes drifted on resync", key.name)
		}
	}
}

func TestSyncReplacesDriftedSystemRoleWholesale(t *testing.T) {
	roles := newFakeRoleRepo()
	orgID := primitive.NewObjectID()
	roles.roles[roleKey{orgID, "Assistant"}] = &Role{
		ID:              primitive.NewObjectID(),
		TenantID:        orgID,
		Name:            "Assistant",
		PermissionCodes: []string{"org.manage", "matter.view"}, // drifted grant
	}
	s := newTestSynchronizer(newFakePermissionRepo(), roles, &fakeOrgLocker{})

	if err := s.SyncOrganization(context.Background(), orgID); err != nil {
		t.Fatalf("SyncOrganization() error = %v", err)
	}

	var want []string
	for _, def := range RoleDefinitions {
		if def.Name == "Assistant" {
			want = def.Permissions
		}
	}
	got, _ := roles.FindByName(context.Background(), orgID, "Assistant")
	if !reflect.DeepEqual(got.PermissionCodes, want) {
		t.Errorf("drifted role not replaced: got %v, want %v", got.PermissionCodes, want)
	}
}

func TestSyncLeavesCustomRolesUntouched(t *testing.T) {
	roles := newFakeRoleRepo()
	orgID := primitive.NewObjectID()
	custom := &Role{
		ID:              primitive.NewObjectID(),
		TenantID:        orgID,
		Name:            "Conflicts Analyst",
		IsCustom:        true,
		PermissionCodes: []string{"client.view", "matter.view"},
	}
	roles.roles[roleKey{orgID, custom.Name}] = custom
	s := newTestSynchronizer(newFakePermissionRepo(), roles, &fakeOrgLocker{})

	if err := s.SyncOrganization(context.Background(), orgID); err != nil {
		t.Fatalf("SyncOrganization() error = %v", err)
	}

	got, err := roles.FindByName(context.Background(), orgID, custom.Name)
	if err != nil {
		t.Fatal("custom role deleted by sync")
	}
	if !got.IsCustom || !reflect.DeepEqual(got.PermissionCodes, []string{"client.view", "matter.view"}) {
		t.Errorf("custom role modified by sync: %+v", got)
	}
}

func TestSyncScopesRolesToOneOrganization(t *testing.T) {
	roles := newFakeRoleRepo()
	s := newTestSynchronizer(newFakePermissionRepo(), roles, &fakeOrgLocker{})
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()

	if err := s.SyncOrganization(context.Background(), orgA); err != nil {
		t.Fatalf("SyncOrganization() error = %v", err)
	}
	if list, _ := roles.List(context.Background(), orgB); len(list) != 0 {
		t.Errorf("sync of %s leaked %d roles into %s", orgA.Hex(), len(list), orgB.Hex())
	}
}

func TestSyncAbortsWhenLockFails(t *testing.T) {
	perms := newFakePermissionRepo()
	roles := newFakeRoleRepo()
	s := newTestSynchronizer(perms, roles, &fakeOrgLocker{err: errors.New("write conflict")})

	if err := s.SyncOrganization(context.Background(), primitive.NewObjectID()); err == nil {
		t.Fatal("expected error when the organization lock fails")
	}
	if perms.upserts != 0 || roles.replace != 0 {
		t.Error("no writes should happen after a failed lock")
	}
}

func TestSyncPropagatesRoleWriteErrors(t *testing.T) {
	roles := newFakeRoleRepo()
	roles.failOn = "Lawyer"
	s := newTestSynchronizer(newFakePermissionRepo(), roles, &fakeOrgLocker{})

	if err := s.SyncOrganization(context.Background(), primitive.NewObjectID()); err == nil {
		t.Fatal("expected error when a role write fails")
	}
}
