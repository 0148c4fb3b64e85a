package tracker

// =============================================================================
// IDENTITY - Explicit authenticated caller, passed into every action
// =============================================================================

// Role is the caller's role as asserted by the identity provider.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Identity is the authenticated caller for one request. Actions take it
// as an explicit argument; there is no ambient "current user" state.
type Identity struct {
	UserID    string
	Role      Role
	ManagerID string // empty = no manager assigned
}

// IsManager reports whether the caller can act on approval workflows.
func (i Identity) IsManager() bool {
	return i.Role == RoleManager || i.Role == RoleAdmin
}
