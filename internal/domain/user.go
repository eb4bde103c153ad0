package domain

import "time"

// UserRole enumerates supported roles. Values match the persisted "Role" enum.
type UserRole string

const (
	UserRoleCampaignCreator UserRole = "CampaignCreator"
	UserRoleDonor           UserRole = "Donor"
	UserRoleAdmin           UserRole = "Admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleCampaignCreator, UserRoleDonor, UserRoleAdmin:
		return true
	}
	return false
}

// User represents an account within the platform.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the Admin role.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CanCreateCampaigns reports whether the user may own campaigns.
func (u User) CanCreateCampaigns() bool {
	return u.Role == UserRoleCampaignCreator || u.Role == UserRoleAdmin
}
