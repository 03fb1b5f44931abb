package models

import "time"

// Employee is a staff account allowed to use the scoring service.
type Employee struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role reports the RBAC role name for the account.
func (e Employee) Role() string {
	return RoleOf(e.IsAdmin)
}
