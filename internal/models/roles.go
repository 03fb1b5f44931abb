package models

const (
	RoleStandard = "standard"
	RoleAdmin    = "admin"
)

// RoleOf maps the stored admin flag to a role name.
func RoleOf(isAdmin bool) string {
	if isAdmin {
		return RoleAdmin
	}
	return RoleStandard
}
