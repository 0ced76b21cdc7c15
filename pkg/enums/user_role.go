package enums

import "fmt"

// UserRole represents the permission role carried by a user account.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRolePharmacist UserRole = "pharmacist"
	UserRoleDoctor     UserRole = "doctor"
	UserRoleTechnician UserRole = "technician"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRolePharmacist,
	UserRoleDoctor,
	UserRoleTechnician,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// CanApproveJobcards reports whether the role may drive jobcard approval,
// rejection, and execution.
func (u UserRole) CanApproveJobcards() bool {
	return u == UserRoleAdmin || u == UserRolePharmacist
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
