package auth

import "strings"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleVolunteer Role = "volunteer"
)

// NormalizeRole maps a claim value onto a known role. Unknown values get
// the least privileged role.
func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleVolunteer
	}
}

func RoleFor(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleVolunteer
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}
