package models

// UserRole represents the portal roles, ordered by authoring power.
type UserRole string

const (
	RoleSystemAdmin   UserRole = "SYSTEM_ADMIN"
	RoleDivisionAdmin UserRole = "DIVISION_ADMIN"
	RoleStaff         UserRole = "STAFF"
	RoleFaculty       UserRole = "FACULTY"
)

// AllRoles lists every role, most privileged first.
var AllRoles = []UserRole{RoleSystemAdmin, RoleDivisionAdmin, RoleStaff, RoleFaculty}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleDivisionAdmin, RoleStaff, RoleFaculty:
		return true
	default:
		return false
	}
}

// Label returns the human readable role name used by the portal.
func (r UserRole) Label() string {
	switch r {
	case RoleSystemAdmin:
		return "Super Admin"
	case RoleDivisionAdmin:
		return "Division Admin"
	case RoleStaff:
		return "Staff"
	case RoleFaculty:
		return "Faculty"
	default:
		return string(r)
	}
}

// Viewer is the session-scoped identity looking at the board.
type Viewer struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// RoleFromLabel maps a portal role label such as "Division Admin" back to its role.
func RoleFromLabel(label string) (UserRole, bool) {
	for _, r := range AllRoles {
		if r.Label() == label || string(r) == label {
			return r, true
		}
	}
	return "", false
}
