package constants

// Principal roles
const (
	RoleViewer         = "viewer"
	RolePayrollManager = "payroll_manager"
	RoleCompanyAdmin   = "company_admin"
	RoleAdmin          = "admin"
)

// WriteRoles are the roles allowed to modify payroll rows.
var WriteRoles = []string{RolePayrollManager, RoleCompanyAdmin, RoleAdmin}

// ReadRoles are the roles allowed on read-only payroll endpoints.
var ReadRoles = []string{RoleViewer, RolePayrollManager, RoleCompanyAdmin, RoleAdmin}

// ClosingRoles are the roles allowed to close or reopen a month.
var ClosingRoles = []string{RoleCompanyAdmin, RoleAdmin}
