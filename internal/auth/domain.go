// Package auth implements session login for the portal API.
package auth

import (
	"time"

	"github.com/aurora-grants/aurora-grants/internal/authz"
)

// User represents an authenticated user account as needed for login.
type User struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    string
	Role            authz.Role
	PermissionLevel authz.PermissionLevel
	CompanyID       string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
