package domain

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Roles lists every role a user can hold.
var Roles = []string{RoleAdmin, RoleUser}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
