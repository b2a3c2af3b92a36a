package domain

import "time"

// Role is the access level carried by an API token.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleViewer || r == RoleAdmin
}

// Token represents issued API token metadata.
type Token struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}
