package rbac

// Role names. Keep these stable; they are part of auth contracts and
// persisted on user rows.
const (
	RoleCitizen   = "citizen"
	RoleAuthority = "authority"
	RoleAdmin     = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleCitizen, RoleAuthority, RoleAdmin:
		return true
	default:
		return false
	}
}

func IsAdmin(role string) bool { return role == RoleAdmin }

// CanManageComplaints reports whether the role may triage complaints:
// change status and assign handling authorities.
func CanManageComplaints(role string) bool {
	return role == RoleAuthority || role == RoleAdmin
}

// IsAssignable reports whether a user with this role can be the handling
// authority of a complaint. Admins triage but do not handle.
func IsAssignable(role string) bool { return role == RoleAuthority }
