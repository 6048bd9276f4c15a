package rbac

import (
	"reflect"
	"testing"
)

func TestPolicyMapResolve(t *testing.T) {
	m := NewPolicyMap()
	m.Require("matter", "grant_access", RequireAll("matter.manage"))
	m.Require("invoice", ActionList, RequireAny("invoice.view", "portal.client_access"))
	m.Unrestricted("notification", ActionList)
	m.Expose("client", ActionRetrieve)

	tests := []struct {
		name       string
		resource   string
		action     Action
		want       Requirement
		restricted bool
	}{
		{"explicit requirement wins", "matter", "grant_access", RequireAll("matter.manage"), true},
		{"explicit any requirement", "invoice", ActionList, RequireAny("invoice.view", "portal.client_access"), true},
		{"unrestricted marker disables the layer", "notification", ActionList, Requirement{}, false},
		{"exposed standard action falls back to convention", "client", ActionRetrieve, RequireAll("client.view"), true},
		{"unregistered list resolves by convention", "widget", ActionList, RequireAll("widget.view"), true},
		{"unregistered destroy resolves to manage", "widget", ActionDestroy, RequireAll("widget.manage"), true},
		{"custom action with no entry is unrestricted here", "widget", "frobnicate", Requirement{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, restricted := m.Resolve(tt.resource, tt.action)
			if restricted != tt.restricted {
				t.Fatalf("Resolve() restricted = %v, want %v", restricted, tt.restricted)
			}
			if tt.restricted && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDefaultPolicyMapValidates(t *testing.T) {
	if err := DefaultPolicyMap().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsUnknownPermission(t *testing.T) {
	m := NewPolicyMap()
	m.Require("widget", ActionList, RequireAll("widget.bogus"))
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for an unknown permission code")
	}
}

func TestValidateRejectsDanglingCustomAction(t *testing.T) {
	m := NewPolicyMap()
	m.Expose("widget", "frobnicate")
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for an exposed action with no requirement")
	}

	m.Unrestricted("widget", "frobnicate")
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error after marking unrestricted = %v", err)
	}
}

// Every permission a system role grants must exist in the catalog, or sync
// would grant codes the evaluator can never match against policy entries.
func TestRoleDefinitionsReferenceCatalogCodes(t *testing.T) {
	known := make(map[string]struct{}, len(PermissionDefinitions))
	for _, def := range PermissionDefinitions {
		known[def.Codename] = struct{}{}
	}
	for _, role := range RoleDefinitions {
		for _, code := range role.Permissions {
			if _, ok := known[code]; !ok {
				t.Errorf("role %q grants unknown permission %q", role.Name, code)
			}
		}
	}
}
