package domain

import "time"

// Role differentiates marketplace participants: agencies list inventory,
// affiliates search and book it, masters moderate listings and accounts.
type Role string

const (
	RoleAgency    Role = "agency"
	RoleAffiliate Role = "affiliate"
	RoleMaster    Role = "master"
)

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	return r == RoleAgency || r == RoleAffiliate || r == RoleMaster
}

// UserStatus represents account moderation states. Agencies register as
// pending_approval and only act on the market once a master approves them.
type UserStatus string

const (
	UserStatusPendingApproval UserStatus = "pending_approval"
	UserStatusActive          UserStatus = "active"
	UserStatusBlocked         UserStatus = "blocked"
)

// User is an account of any role.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
