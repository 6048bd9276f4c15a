package rbac

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRequirementIsSatisfied(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	src := &fakeRoleSource{roles: map[primitive.ObjectID][]Role{
		userID: {{Name: "Paralegal", PermissionCodes: []string{"matter.view", "document.view"}}},
	}}
	e := NewEvaluator(src)
	principal := staffPrincipal(orgID, userID)

	tests := []struct {
		name      string
		req       Requirement
		principal Principal
		want      bool
	}{
		{"empty requirement admits any authenticated member", Requirement{}, principal, true},
		{"empty requirement still rejects the unauthenticated", Requirement{}, Principal{}, false},
		{"all satisfied", RequireAll("matter.view", "document.view"), principal, true},
		{"all fails on one missing", RequireAll("matter.view", "matter.manage"), principal, false},
		{"any satisfied by one match", RequireAny("matter.manage", "document.view"), principal, true},
		{"any fails with no match", RequireAny("matter.manage", "invoice.view"), principal, false},
		{"both clauses must hold", Requirement{All: []string{"matter.view"}, Any: []string{"invoice.view"}}, principal, false},
		{"both clauses holding passes", Requirement{All: []string{"matter.view"}, Any: []string{"document.view", "invoice.view"}}, principal, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.IsSatisfied(context.Background(), e, tt.principal)
			if err != nil {
				t.Fatalf("IsSatisfied() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsSatisfied() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequirementIsEmpty(t *testing.T) {
	if !(Requirement{}).IsEmpty() {
		t.Error("zero requirement should be empty")
	}
	if !(Requirement{All: []string{""}, Any: []string{""}}).IsEmpty() {
		t.Error("blank codes should count as empty")
	}
	if (RequireAll("matter.view")).IsEmpty() {
		t.Error("requirement with a code is not empty")
	}
}
