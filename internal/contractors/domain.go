// Package contractors manages contractor organizations and their member
// accounts, the installer side of the portal.
package contractors

import (
	"time"

	"github.com/aurora-grants/aurora-grants/internal/authz"
)

// Organization is a contractor firm registered with the program.
type Organization struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	ServiceSectors []string  `json:"service_sectors"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Member is an account within a contractor organization. Members live in
// the shared users table; the organization ID is carried in the account's
// company column.
type Member struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"org_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      authz.Role `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// Solo reports whether the account operates without an organization team.
func (m Member) Solo() bool {
	return m.Role == authz.RoleContractorIndividual
}
