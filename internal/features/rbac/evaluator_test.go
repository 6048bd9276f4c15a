package rbac

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeRoleSource serves roles from memory and counts lookups so cache
// behavior can be asserted.
type fakeRoleSource struct {
	roles map[primitive.ObjectID][]Role
	calls int
}

func (f *fakeRoleSource) RolesForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]Role, error) {
	f.calls++
	return f.roles[userID], nil
}

func staffPrincipal(orgID, userID primitive.ObjectID) Principal {
	return Principal{UserID: userID, OrganizationID: orgID, Authenticated: true}
}

func TestPermissionCodesUnionAcrossRoles(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	src := &fakeRoleSource{roles: map[primitive.ObjectID][]Role{
		userID: {
			{Name: "Lawyer", PermissionCodes: []string{"matter.view", "matter.manage"}},
			{Name: "Accounting / Finance", PermissionCodes: []string{"invoice.view", "matter.view"}},
		},
	}}
	e := NewEvaluator(src)

	codes, err := e.PermissionCodes(context.Background(), staffPrincipal(orgID, userID))
	if err != nil {
		t.Fatalf("PermissionCodes() error = %v", err)
	}
	want := []string{"matter.view", "matter.manage", "invoice.view"}
	if len(codes) != len(want) {
		t.Errorf("got %d codes, want %d: %v", len(codes), len(want), codes)
	}
	for _, code := range want {
		if _, ok := codes[code]; !ok {
			t.Errorf("missing code %q", code)
		}
	}
}

func TestUnauthenticatedPrincipalHasNothing(t *testing.T) {
	src := &fakeRoleSource{roles: map[primitive.ObjectID][]Role{}}
	e := NewEvaluator(src)
	ctx := context.Background()
	principal := Principal{} // zero value, not authenticated

	codes, err := e.PermissionCodes(ctx, principal)
	if err != nil {
		t.Fatalf("PermissionCodes() error = %v", err)
	}
	if len(codes) != 0 {
		t.Errorf("expected empty code set, got %v", codes)
	}
	if ok, _ := e.HasPermission(ctx, principal, "matter.view"); ok {
		t.Error("unauthenticated principal should not hold matter.view")
	}
	if src.calls != 0 {
		t.Errorf("role source consulted %d times for an unauthenticated principal", src.calls)
	}
}

func TestHasAllHasAnySemantics(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	src := &fakeRoleSource{roles: map[primitive.ObjectID][]Role{
		userID: {{Name: "Lawyer", PermissionCodes: []string{"matter.view", "document.view"}}},
	}}
	e := NewEvaluator(src)
	principal := staffPrincipal(orgID, userID)
	ctx := context.Background()

	tests := []struct {
		name  string
		check func() (bool, error)
		want  bool
	}{
		{"all holds when every code held", func() (bool, error) {
			return e.HasAll(ctx, principal, []string{"matter.view", "document.view"})
		}, true},
		{"all fails on one missing code", func() (bool, error) {
			return e.HasAll(ctx, principal, []string{"matter.view", "invoice.view"})
		}, false},
		{"all is vacuously true when empty", func() (bool, error) {
			return e.HasAll(ctx, principal, nil)
		}, true},
		{"all ignores blank codes", func() (bool, error) {
			return e.HasAll(ctx, principal, []string{"", ""})
		}, true},
		{"any holds on one match", func() (bool, error) {
			return e.HasAny(ctx, principal, []string{"invoice.view", "matter.view"})
		}, true},
		{"any fails when none held", func() (bool, error) {
			return e.HasAny(ctx, principal, []string{"invoice.view", "org.manage"})
		}, false},
		{"any is vacuously true when empty", func() (bool, error) {
			return e.HasAny(ctx, principal, nil)
		}, true},
		{"empty single code is vacuously true", func() (bool, error) {
			return e.HasPermission(ctx, principal, "")
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.check()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestCacheMemoizesRoleLookups(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	src := &fakeRoleSource{roles: map[primitive.ObjectID][]Role{
		userID: {{Name: "Lawyer", PermissionCodes: []string{"matter.view"}}},
	}}
	e := NewEvaluator(src)
	principal := staffPrincipal(orgID, userID)
	ctx := ContextWithCache(context.Background(), NewCache())

	for i := 0; i < 5; i++ {
		if ok, err := e.HasPermission(ctx, principal, "matter.view"); err != nil || !ok {
			t.Fatalf("HasPermission() = %v, %v", ok, err)
		}
	}
	if _, err := e.RoleNames(ctx, principal); err != nil {
		t.Fatalf("RoleNames() error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("role source consulted %d times, want 1 with a warm cache", src.calls)
	}
}

func TestUncachedLookupFetchesRolesOnce(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	src := &fakeRoleSource{roles: map[primitive.ObjectID][]Role{
		userID: {{Name: "Lawyer", PermissionCodes: []string{"matter.view"}}},
	}}
	e := NewEvaluator(src)
	principal := staffPrincipal(orgID, userID)

	// No cache in the context: each call hits the source, but only once.
	if _, err := e.PermissionCodes(context.Background(), principal); err != nil {
		t.Fatalf("PermissionCodes() error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("role source consulted %d times for one uncached lookup, want 1", src.calls)
	}
}

func TestCacheInvalidateExposesNewGrants(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	src := &fakeRoleSource{roles: map[primitive.ObjectID][]Role{
		userID: {{Name: "Assistant", PermissionCodes: []string{"matter.view"}}},
	}}
	e := NewEvaluator(src)
	principal := staffPrincipal(orgID, userID)
	cache := NewCache()
	ctx := ContextWithCache(context.Background(), cache)

	if ok, _ := e.HasPermission(ctx, principal, "matter.manage"); ok {
		t.Fatal("principal should not hold matter.manage yet")
	}

	// Grant a new role behind the cache's back.
	src.roles[userID] = append(src.roles[userID],
		Role{Name: "Lawyer", PermissionCodes: []string{"matter.manage"}})

	if ok, _ := e.HasPermission(ctx, principal, "matter.manage"); ok {
		t.Fatal("stale cache should still answer from the memoized set")
	}

	cache.Invalidate(userID)
	if ok, _ := e.HasPermission(ctx, principal, "matter.manage"); !ok {
		t.Fatal("invalidated cache should see the new grant")
	}
}

func TestIsClientUser(t *testing.T) {
	orgID := primitive.NewObjectID()
	portalUser := primitive.NewObjectID()
	staffUser := primitive.NewObjectID()
	src := &fakeRoleSource{roles: map[primitive.ObjectID][]Role{
		portalUser: {{Name: RoleClient, PermissionCodes: []string{"portal.client_access"}}},
		staffUser:  {{Name: "Lawyer", PermissionCodes: []string{"matter.view"}}},
	}}
	e := NewEvaluator(src)
	ctx := context.Background()

	if ok, _ := e.IsClientUser(ctx, staffPrincipal(orgID, portalUser)); !ok {
		t.Error("holder of the Client role should be a client user")
	}
	if ok, _ := e.IsClientUser(ctx, staffPrincipal(orgID, staffUser)); ok {
		t.Error("staff user should not be a client user")
	}
	if ok, _ := e.IsClientUser(ctx, Principal{}); ok {
		t.Error("unauthenticated principal should not be a client user")
	}
}
