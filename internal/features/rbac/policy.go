package rbac

import (
	"fmt"
	"sort"
)

// Action names follow the REST handler vocabulary; custom actions are plain
// strings registered alongside the standard ones.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// conventionVerb maps standard actions to the permission verb used when no
// explicit requirement is registered: <resource>.view or <resource>.manage.
var conventionVerb = map[Action]string{
	ActionList:          "view",
	ActionRetrieve:      "view",
	ActionCreate:        "manage",
	ActionUpdate:        "manage",
	ActionPartialUpdate: "manage",
	ActionDestroy:       "manage",
}

type policyKey struct {
	Resource string
	Action   Action
}

// PolicyMap is the declarative table auditors read to determine
// who-can-do-what. Every exposed (resource, action) pair must resolve to a
// requirement or be explicitly marked unrestricted; Validate enforces that at
// startup so nothing fails silently at request time.
type PolicyMap struct {
	entries      map[policyKey]Requirement
	unrestricted map[policyKey]struct{}
	exposed      map[policyKey]struct{}
}

func NewPolicyMap() *PolicyMap {
	return &PolicyMap{
		entries:      make(map[policyKey]Requirement),
		unrestricted: make(map[policyKey]struct{}),
		exposed:      make(map[policyKey]struct{}),
	}
}

// Require registers an explicit requirement for a resource action.
func (m *PolicyMap) Require(resource string, action Action, req Requirement) *PolicyMap {
	key := policyKey{resource, action}
	m.entries[key] = req
	m.exposed[key] = struct{}{}
	return m
}

// Unrestricted marks an action as intentionally open to any authenticated
// organization member (coarser checks still apply at the middleware layer).
func (m *PolicyMap) Unrestricted(resource string, action Action) *PolicyMap {
	key := policyKey{resource, action}
	m.unrestricted[key] = struct{}{}
	m.exposed[key] = struct{}{}
	return m
}

// Expose declares an action without an explicit entry, relying on convention
// defaults; Validate rejects exposures that resolve to nothing.
func (m *PolicyMap) Expose(resource string, action Action) *PolicyMap {
	m.exposed[policyKey{resource, action}] = struct{}{}
	return m
}

// Resolve returns the requirement for a resource action. The second return is
// false when the action is unrestricted by this layer (explicit marker, or no
// entry and no convention default).
func (m *PolicyMap) Resolve(resource string, action Action) (Requirement, bool) {
	key := policyKey{resource, action}
	if req, ok := m.entries[key]; ok {
		return req, true
	}
	if _, ok := m.unrestricted[key]; ok {
		return Requirement{}, false
	}
	if verb, ok := conventionVerb[action]; ok {
		return RequireAll(fmt.Sprintf("%s.%s", resource, verb)), true
	}
	return Requirement{}, false
}

// Validate checks that every exposed action resolves to a requirement or an
// explicit unrestricted marker, and that explicit requirements only reference
// catalog permission codes.
func (m *PolicyMap) Validate() error {
	known := make(map[string]struct{}, len(PermissionDefinitions))
	for _, def := range PermissionDefinitions {
		known[def.Codename] = struct{}{}
	}

	var problems []string
	for key := range m.exposed {
		if _, ok := m.entries[key]; ok {
			continue
		}
		if _, ok := m.unrestricted[key]; ok {
			continue
		}
		if _, ok := conventionVerb[key.Action]; !ok {
			problems = append(problems, fmt.Sprintf("%s/%s has no requirement and no convention default", key.Resource, key.Action))
		}
	}
	for key, req := range m.entries {
		for _, code := range append(append([]string{}, req.All...), req.Any...) {
			if code == "" {
				continue
			}
			if _, ok := known[code]; !ok {
				problems = append(problems, fmt.Sprintf("%s/%s references unknown permission %q", key.Resource, key.Action, code))
			}
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("policy map validation failed: %v", problems)
	}
	return nil
}

// DefaultPolicyMap wires the full resource/action table for the API surface.
// Resources not listed here are unrestricted by this layer and rely on
// organization-membership checks only.
func DefaultPolicyMap() *PolicyMap {
	m := NewPolicyMap()

	// Portal identities read through the same routes; the row scoper narrows
	// them to their own client's rows.
	for _, action := range []Action{ActionList, ActionRetrieve} {
		m.Require("client", action, RequireAny("client.view", "portal.client_access"))
		m.Require("matter", action, RequireAny("matter.view", "portal.client_access"))
		m.Require("deadline", action, RequireAll("matter.view"))
		m.Require("document", action, RequireAny("document.view", "portal.client_access"))
		m.Require("invoice", action, RequireAny("invoice.view", "portal.client_access"))
	}
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionPartialUpdate, ActionDestroy} {
		m.Require("client", action, RequireAll("client.manage"))
		m.Require("matter", action, RequireAll("matter.manage"))
		m.Require("deadline", action, RequireAll("matter.manage"))
		m.Require("document", action, RequireAll("document.manage"))
		m.Require("invoice", action, RequireAll("invoice.manage"))
	}

	// Custom matter/deadline actions mirror the view/manage split.
	m.Require("deadline", "summary", RequireAll("matter.view"))
	m.Require("deadline", "calendar", RequireAll("matter.view"))
	m.Require("deadline", "mark_completed", RequireAll("matter.manage"))
	m.Require("matter", "grant_access", RequireAll("matter.manage"))
	m.Require("matter", "revoke_access", RequireAll("matter.manage"))

	// Documents: downloads follow view; visibility has its own permission.
	m.Require("document", "download", RequireAll("document.view"))
	m.Require("document", "versions", RequireAll("document.view"))
	m.Require("document", "upload_version", RequireAll("document.manage"))
	m.Require("document", "set_visibility", RequireAll("document.manage_visibility"))

	// Billing.
	m.Expose("timeentry", ActionList).
		Require("timeentry", ActionCreate, RequireAll("billing.record_time")).
		Require("timeentry", ActionUpdate, RequireAll("billing.record_time")).
		Require("timeentry", ActionDestroy, RequireAll("billing.record_time")).
		Unrestricted("timeentry", ActionRetrieve).
		Unrestricted("timeentry", ActionList)
	m.Require("expense", ActionCreate, RequireAll("billing.record_expense")).
		Require("expense", ActionUpdate, RequireAll("billing.record_expense")).
		Require("expense", ActionDestroy, RequireAll("billing.record_expense")).
		Unrestricted("expense", ActionList).
		Unrestricted("expense", ActionRetrieve)
	m.Require("invoice", "mark_paid", RequireAll("invoice.mark_paid"))
	m.Require("payment", ActionCreate, RequireAll("invoice.mark_paid")).
		Unrestricted("payment", ActionList).
		Unrestricted("payment", ActionRetrieve)
	m.Require("billing", "export", RequireAll("billing.export"))

	// Messaging is open to staff and portal users alike.
	m.Require("thread", ActionList, RequireAll("messaging.use")).
		Require("thread", ActionRetrieve, RequireAll("messaging.use")).
		Require("thread", ActionCreate, RequireAll("messaging.use"))
	m.Require("message", ActionList, RequireAll("messaging.use")).
		Require("message", ActionCreate, RequireAll("messaging.use"))

	// Share links ride document management.
	m.Require("sharelink", ActionList, RequireAll("document.view")).
		Require("sharelink", ActionCreate, RequireAll("document.manage")).
		Require("sharelink", ActionDestroy, RequireAll("document.manage"))

	// Notifications are personal; no permission gating beyond auth.
	m.Unrestricted("notification", ActionList).
		Unrestricted("notification", "unread_count").
		Unrestricted("notification", "mark_read").
		Unrestricted("notification", "mark_all_read")

	// Administration.
	m.Require("role", ActionList, RequireAll("org.manage_roles")).
		Require("role", ActionRetrieve, RequireAll("org.manage_roles")).
		Require("role", ActionCreate, RequireAll("org.manage_roles")).
		Require("role", ActionUpdate, RequireAll("org.manage_roles")).
		Require("role", ActionDestroy, RequireAll("org.manage_roles")).
		Require("role", "grant", RequireAll("org.manage_roles")).
		Require("role", "revoke", RequireAll("org.manage_roles"))
	m.Require("permission", ActionList, RequireAll("org.manage_roles"))
	m.Require("user", ActionList, RequireAll("org.manage_users")).
		Require("user", ActionRetrieve, RequireAll("org.manage_users")).
		Require("user", ActionCreate, RequireAll("org.manage_users")).
		Require("user", ActionUpdate, RequireAll("org.manage_users")).
		Require("user", ActionDestroy, RequireAll("org.manage_users"))
	m.Require("invitation", ActionCreate, RequireAny("org.manage_users", "org.invite_clients")).
		Require("invitation", ActionList, RequireAll("org.manage_users"))
	m.Require("organization", ActionUpdate, RequireAll("org.manage")).
		Unrestricted("organization", ActionRetrieve)
	m.Require("audit", ActionList, RequireAll("org.view_audit_logs"))

	// Deadline calculator: any authenticated member may run and browse rules;
	// editing the rule library is an organization-management concern.
	m.Unrestricted("caserules", "calculate").
		Unrestricted("caserules", ActionList).
		Unrestricted("caserules", ActionRetrieve)
	m.Require("caserules", ActionCreate, RequireAll("org.manage")).
		Require("caserules", ActionUpdate, RequireAll("org.manage")).
		Require("caserules", ActionDestroy, RequireAll("org.manage"))

	return m
}
