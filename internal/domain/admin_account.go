package domain

import "time"

// AdminRole enumerates staff roles on the service.
type AdminRole string

const (
	AdminRoleAdmin   AdminRole = "ADMIN"
	AdminRoleManager AdminRole = "MANAGER"
	AdminRoleAgent   AdminRole = "AGENT"
)

// AdminAccount is a staff account. Accounts whose role is in the configured
// admin role list receive escalation emails; any active account may log in to
// the case API.
type AdminAccount struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AdminRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
