package rbac

// PermissionDefinition is a canonical catalog entry. The catalog is the source
// of truth for what can be granted; the synchronizer upserts it into the
// global permissions collection.
type PermissionDefinition struct {
	Codename    string
	Label       string
	Description string
}

var PermissionDefinitions = []PermissionDefinition{
	{"org.manage", "Manage organization settings", "Update organization profile and configuration."},
	{"org.manage_users", "Manage staff users", "Invite and manage internal team members."},
	{"org.invite_clients", "Invite clients", "Invite clients to the portal."},
	{"org.manage_roles", "Manage roles & permissions", "Create roles and assign permissions."},
	{"org.view_audit_logs", "View audit logs", "View compliance and audit trail reports."},
	{"security.manage", "Manage security settings", "Configure MFA, SSO, and security controls."},
	{"ai.use", "Use AI assistant", "Access AI drafting and analysis tools."},
	{"client.view", "View clients", "View clients within the organization."},
	{"client.manage", "Manage clients", "Create or update client profiles."},
	{"matter.view", "View matters", "View matters assigned to the user."},
	{"matter.manage", "Manage matters", "Create and update matters assigned to the user."},
	{"matter.view_all", "View all matters", "View all matters in the organization."},
	{"document.view", "View documents", "View documents for assigned matters."},
	{"document.manage", "Manage documents", "Upload and edit documents for assigned matters."},
	{"document.manage_visibility", "Toggle document visibility", "Control client visibility for documents."},
	{"document.view_all", "View all documents", "View all documents in the organization."},
	{"invoice.view", "View invoices", "View invoices for assigned matters."},
	{"invoice.manage", "Manage invoices", "Create or edit invoices for assigned matters."},
	{"invoice.mark_paid", "Record payments", "Mark invoices as paid and manage payments."},
	{"invoice.view_all", "View all invoices", "View all invoices in the organization."},
	{"billing.record_time", "Record time entries", "Create and update time entries."},
	{"billing.record_expense", "Record expenses", "Create and update expenses."},
	{"billing.export", "Export billing reports", "Export or download billing and compliance reports."},
	{"messaging.use", "Secure messaging", "Participate in secure client messaging."},
	{"portal.client_access", "Client portal access", "Access client portal resources."},
}

// RoleDefinition describes a canonical system role. The synchronizer replaces
// a system role's permission set with the canonical one on every run; merging
// instead of replacing would silently reintroduce drift, so don't.
type RoleDefinition struct {
	Name        string
	Permissions []string
}

func allPermissionsExcept(excluded ...string) []string {
	skip := make(map[string]struct{}, len(excluded))
	for _, code := range excluded {
		skip[code] = struct{}{}
	}
	codes := make([]string, 0, len(PermissionDefinitions))
	for _, def := range PermissionDefinitions {
		if _, ok := skip[def.Codename]; ok {
			continue
		}
		codes = append(codes, def.Codename)
	}
	return codes
}

// RoleClient is the canonical portal role; its presence marks a principal as
// a client-portal identity.
const RoleClient = "Client"

var RoleDefinitions = []RoleDefinition{
	{Name: "Owner", Permissions: allPermissionsExcept("portal.client_access")},
	{Name: "Admin", Permissions: allPermissionsExcept("portal.client_access")},
	{Name: "Lawyer", Permissions: []string{
		"client.view",
		"matter.view",
		"matter.manage",
		"document.view",
		"document.manage",
		"document.manage_visibility",
		"invoice.view",
		"invoice.manage",
		"billing.record_time",
		"billing.record_expense",
		"messaging.use",
		"ai.use",
	}},
	{Name: "Paralegal", Permissions: []string{
		"client.view",
		"matter.view",
		"document.view",
		"document.manage",
		"invoice.view",
		"billing.record_time",
		"billing.record_expense",
		"messaging.use",
	}},
	{Name: "Assistant", Permissions: []string{
		"client.view",
		"matter.view",
		"document.view",
		"messaging.use",
	}},
	{Name: RoleClient, Permissions: []string{
		"portal.client_access",
		"messaging.use",
	}},
	{Name: "Operations Admin", Permissions: []string{
		"org.manage",
		"org.invite_clients",
		"client.view",
		"client.manage",
		"invoice.view",
		"invoice.mark_paid",
		"invoice.view_all",
		"billing.export",
	}},
	{Name: "IT / Security", Permissions: []string{
		"security.manage",
		"org.manage_roles",
		"org.view_audit_logs",
	}},
	{Name: "Accounting / Finance", Permissions: []string{
		"invoice.view",
		"invoice.manage",
		"invoice.mark_paid",
		"invoice.view_all",
		"billing.export",
	}},
}

// SystemRoleNames returns the canonical role names in catalog order.
func SystemRoleNames() []string {
	names := make([]string, 0, len(RoleDefinitions))
	for _, def := range RoleDefinitions {
		names = append(names, def.Name)
	}
	return names
}
