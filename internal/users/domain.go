// Package users manages portal accounts: company teams, permission-level
// grading and the invite flow.
package users

import (
	"time"

	"github.com/aurora-grants/aurora-grants/internal/authz"
)

// User represents a portal account.
type User struct {
	ID              string                `json:"id"`
	Email           string                `json:"email"`
	Name            string                `json:"name"`
	Role            authz.Role            `json:"role"`
	PermissionLevel authz.PermissionLevel `json:"permission_level,omitempty"`
	CompanyID       string                `json:"company_id,omitempty"`
	IsActive        bool                  `json:"is_active"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Actor converts the account to the resolver's view of it.
func (u User) Actor() *authz.Actor {
	return &authz.Actor{
		ID:              u.ID,
		Role:            u.Role,
		PermissionLevel: u.PermissionLevel,
		CompanyID:       u.CompanyID,
	}
}

// Invite is a pending team-member invitation. Tokens are single use and
// expire; an accepted invite becomes a user account.
type Invite struct {
	ID              string
	Email           string
	Role            authz.Role
	PermissionLevel authz.PermissionLevel
	CompanyID       string
	Token           string
	InvitedBy       string
	ExpiresAt       time.Time
	AcceptedAt      *time.Time
	CreatedAt       time.Time
}

// Expired reports whether the invite can no longer be accepted.
func (i Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
