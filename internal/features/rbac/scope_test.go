package rbac

import (
	"context"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMatterResolver struct {
	visible       []primitive.ObjectID
	clientMatters []primitive.ObjectID
}

func (f *fakeMatterResolver) VisibleMatterIDs(ctx context.Context, orgID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.visible, nil
}

func (f *fakeMatterResolver) ClientMatterIDs(ctx context.Context, orgID, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.clientMatters, nil
}

func newTestScoper(codesByUser map[primitive.ObjectID][]string, resolver *fakeMatterResolver) *Scoper {
	roles := make(map[primitive.ObjectID][]Role, len(codesByUser))
	for userID, codes := range codesByUser {
		roles[userID] = []Role{{Name: "test", PermissionCodes: codes}}
	}
	if resolver == nil {
		resolver = &fakeMatterResolver{}
	}
	return NewScoper(NewEvaluator(&fakeRoleSource{roles: roles}), resolver)
}

var matterPolicy = RowPolicy{
	Resource:         "matter",
	OwnerField:       "lead_lawyer_id",
	AccessField:      "access_user_ids",
	ClientField:      "client_id",
	BypassPermission: "matter.view_all",
}

func TestScopeDeniesWithoutIdentity(t *testing.T) {
	s := newTestScoper(nil, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		principal Principal
	}{
		{"unauthenticated", Principal{}},
		{"authenticated but no organization", Principal{UserID: primitive.NewObjectID(), Authenticated: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := s.Scope(ctx, tt.principal, matterPolicy)
			if err != nil {
				t.Fatalf("Scope() error = %v", err)
			}
			if !reflect.DeepEqual(filter, DenyFilter()) {
				t.Errorf("Scope() = %v, want deny filter", filter)
			}
		})
	}
}

func TestScopeBypassStaysInsideTenant(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{
		userID: {"matter.view", "matter.view_all"},
	}, nil)

	filter, err := s.Scope(context.Background(), staffPrincipal(orgID, userID), matterPolicy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	want := bson.M{"tenant_id": orgID}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Scope() = %v, want tenant-only filter %v", filter, want)
	}
}

func TestScopeStaffOwnerOrGrant(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{
		userID: {"matter.view"},
	}, nil)

	filter, err := s.Scope(context.Background(), staffPrincipal(orgID, userID), matterPolicy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	if filter["tenant_id"] != orgID {
		t.Fatalf("tenant filter missing: %v", filter)
	}
	conditions, ok := filter["$or"].([]bson.M)
	if !ok {
		t.Fatalf("expected an $or of ownership conditions, got %v", filter)
	}
	want := []bson.M{
		{"lead_lawyer_id": userID},
		{"access_user_ids": userID},
	}
	if !reflect.DeepEqual(conditions, want) {
		t.Errorf("$or = %v, want %v", conditions, want)
	}
}

func TestScopeSingleConditionIsFlattened(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{userID: {"matter.view"}}, nil)
	policy := RowPolicy{Resource: "matter", OwnerField: "lead_lawyer_id"}

	filter, err := s.Scope(context.Background(), staffPrincipal(orgID, userID), policy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	want := bson.M{"tenant_id": orgID, "lead_lawyer_id": userID}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Scope() = %v, want %v", filter, want)
	}
}

func TestScopeChildRowsNarrowThroughMatters(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	visible := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	s := newTestScoper(map[primitive.ObjectID][]string{userID: {"matter.view"}},
		&fakeMatterResolver{visible: visible})
	policy := RowPolicy{Resource: "deadline", MatterField: "matter_id", BypassPermission: "matter.view_all"}

	filter, err := s.Scope(context.Background(), staffPrincipal(orgID, userID), policy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	want := bson.M{"tenant_id": orgID, "matter_id": bson.M{"$in": visible}}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Scope() = %v, want %v", filter, want)
	}
}

func TestScopeNoVisibleMattersYieldsEmptyInList(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{userID: {"matter.view"}},
		&fakeMatterResolver{visible: nil})
	policy := RowPolicy{Resource: "deadline", MatterField: "matter_id"}

	filter, err := s.Scope(context.Background(), staffPrincipal(orgID, userID), policy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	in, ok := filter["matter_id"].(bson.M)
	if !ok {
		t.Fatalf("expected matter_id condition, got %v", filter)
	}
	ids, ok := in["$in"].([]primitive.ObjectID)
	if !ok || ids == nil {
		t.Errorf("$in must be a non-nil empty slice so the filter matches nothing, got %v", in["$in"])
	}
}

func TestScopeNoLinkageDenies(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{userID: {"matter.view"}}, nil)
	policy := RowPolicy{Resource: "widget"}

	filter, err := s.Scope(context.Background(), staffPrincipal(orgID, userID), policy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	if !reflect.DeepEqual(filter, DenyFilter()) {
		t.Errorf("Scope() = %v, want deny filter for a resource with no linkage", filter)
	}
}

func TestScopeClientDirectLink(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{
		userID: {"portal.client_access"},
	}, nil)
	principal := Principal{UserID: userID, OrganizationID: orgID, Authenticated: true, ClientID: clientID}

	filter, err := s.Scope(context.Background(), principal, matterPolicy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	want := bson.M{"tenant_id": orgID, "client_id": clientID}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Scope() = %v, want %v", filter, want)
	}
}

func TestScopeClientThroughMattersWithVisibilityFlag(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	clientMatters := []primitive.ObjectID{primitive.NewObjectID()}
	s := newTestScoper(map[primitive.ObjectID][]string{
		userID: {"portal.client_access"},
	}, &fakeMatterResolver{clientMatters: clientMatters})
	principal := Principal{UserID: userID, OrganizationID: orgID, Authenticated: true, ClientID: clientID}
	policy := RowPolicy{
		Resource:           "document",
		MatterField:        "matter_id",
		ClientVisibleField: "client_visible",
		BypassPermission:   "document.view_all",
	}

	filter, err := s.Scope(context.Background(), principal, policy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	want := bson.M{
		"tenant_id":      orgID,
		"matter_id":      bson.M{"$in": clientMatters},
		"client_visible": true,
	}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("Scope() = %v, want %v", filter, want)
	}
}

// A principal linked to a client is scoped as that client even when it also
// holds staff roles; the portal link wins.
func TestScopeClientLinkTakesPrecedenceOverStaffRoles(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{
		userID: {"matter.view", "matter.manage"},
	}, nil)
	principal := Principal{UserID: userID, OrganizationID: orgID, Authenticated: true, ClientID: clientID}

	filter, err := s.Scope(context.Background(), principal, matterPolicy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	if _, hasOr := filter["$or"]; hasOr {
		t.Fatalf("client-linked principal must not get staff ownership scoping: %v", filter)
	}
	if filter["client_id"] != clientID {
		t.Errorf("expected client_id narrowing, got %v", filter)
	}
}

func TestScopeClientWithoutLinkageDenies(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{
		userID: {"portal.client_access"},
	}, nil)
	principal := Principal{UserID: userID, OrganizationID: orgID, Authenticated: true, ClientID: primitive.NewObjectID()}
	policy := RowPolicy{Resource: "audit", OwnerField: "actor_id"}

	filter, err := s.Scope(context.Background(), principal, policy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	if !reflect.DeepEqual(filter, DenyFilter()) {
		t.Errorf("Scope() = %v, want deny filter", filter)
	}
}

func TestScopeIsDeterministic(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	s := newTestScoper(map[primitive.ObjectID][]string{userID: {"matter.view"}},
		&fakeMatterResolver{visible: []primitive.ObjectID{primitive.NewObjectID()}})
	principal := staffPrincipal(orgID, userID)

	first, err := s.Scope(context.Background(), principal, matterPolicy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	second, err := s.Scope(context.Background(), principal, matterPolicy)
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Scope() calls differ: %v vs %v", first, second)
	}
}
