// Package authz implements the portal's access-control resolver: a static
// role-to-permission table for company-side actors plus a context-sensitive
// rule set for contractor-side actors whose rights depend on per-application
// assignments. Every operation is total and side-effect free; unknown or
// missing input always resolves to deny.
//
// The resolver is a convenience layer for route guards and handlers. It is
// enforced on every mutating endpoint here, but checks against stale actor
// snapshots are possible; repositories remain the source of truth for
// ownership scoping.
package authz

// Role classifies an authenticated actor. Exactly one role per actor.
type Role string

// Recognized roles.
const (
	RoleSystemAdmin  Role = "system_admin"
	RoleCompanyAdmin Role = "company_admin"
	RoleTeamMember   Role = "team_member"

	RoleContractorIndividual   Role = "contractor_individual"
	RoleContractorAccountOwner Role = "contractor_account_owner"
	RoleContractorManager      Role = "contractor_manager"
	RoleContractorTeamMember   Role = "contractor_team_member"
)

// AllRoles lists every recognized role.
func AllRoles() []Role {
	return []Role{
		RoleSystemAdmin,
		RoleCompanyAdmin,
		RoleTeamMember,
		RoleContractorIndividual,
		RoleContractorAccountOwner,
		RoleContractorManager,
		RoleContractorTeamMember,
	}
}

// ParseRole maps a raw role string to a recognized Role. Unrecognized
// values return ok=false; callers must treat them as deny-all.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleSystemAdmin, RoleCompanyAdmin, RoleTeamMember,
		RoleContractorIndividual, RoleContractorAccountOwner,
		RoleContractorManager, RoleContractorTeamMember:
		return Role(raw), true
	}
	return "", false
}

// Known reports whether the role is part of the recognized set.
func (r Role) Known() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// IsContractor reports whether the role belongs to the contractor side of
// the portal. Deliberately an exhaustive switch rather than a name-prefix
// test so that renaming a role cannot silently change its classification.
func (r Role) IsContractor() bool {
	switch r {
	case RoleContractorIndividual, RoleContractorAccountOwner,
		RoleContractorManager, RoleContractorTeamMember:
		return true
	}
	return false
}

// PermissionLevel is the ordinal sub-grade applied to team_member actors:
// viewer < editor < manager. It is ignored for every other role.
type PermissionLevel string

// Permission levels in ascending order.
const (
	LevelViewer  PermissionLevel = "viewer"
	LevelEditor  PermissionLevel = "editor"
	LevelManager PermissionLevel = "manager"
)

// rank returns the ordinal position of a level. Unknown levels rank zero,
// below viewer, so they neither satisfy nor are satisfied by anything.
func (l PermissionLevel) rank() int {
	switch l {
	case LevelViewer:
		return 1
	case LevelEditor:
		return 2
	case LevelManager:
		return 3
	}
	return 0
}

// Known reports whether the level is one of the three recognized grades.
func (l PermissionLevel) Known() bool {
	return l.rank() > 0
}

// Permission is an atomic, system-wide capability tag. Permissions have no
// sub-structure: a role either grants one or it does not.
//
// This is a distinct vocabulary from Capability, the per-application
// assignment tags used on the contractor side. The two must never be
// compared against each other.
type Permission string

// Global permissions.
const (
	PermManageCompany      Permission = "manage_company"
	PermInviteUsers        Permission = "invite_users"
	PermCreateApplications Permission = "create_applications"
	PermEditApplications   Permission = "edit_applications"
	PermSubmitApplications Permission = "submit_applications"
	PermDeleteApplications Permission = "delete_applications"
	PermUploadDocuments    Permission = "upload_documents"
	PermManageContractors  Permission = "manage_contractors"
	PermViewReports        Permission = "view_reports"
	PermManageTemplates    Permission = "manage_activity_templates"
	PermSystemAdmin        Permission = "system_admin"
)

// AllPermissions lists the full permission universe.
func AllPermissions() []Permission {
	return []Permission{
		PermManageCompany,
		PermInviteUsers,
		PermCreateApplications,
		PermEditApplications,
		PermSubmitApplications,
		PermDeleteApplications,
		PermUploadDocuments,
		PermManageContractors,
		PermViewReports,
		PermManageTemplates,
		PermSystemAdmin,
	}
}

// Capability is a per-application assignment tag granted to a contractor
// team member via an application's assignment list. Capabilities are scoped
// to that application only and carry no implication between each other:
// edit does not imply view.
type Capability string

// Assignment capabilities.
const (
	CapabilityView   Capability = "view"
	CapabilityEdit   Capability = "edit"
	CapabilitySubmit Capability = "submit"
)

// Actor is the authenticated caller as seen by the resolver. A nil *Actor
// denies everywhere.
type Actor struct {
	ID              string
	Role            Role
	PermissionLevel PermissionLevel
	CompanyID       string
}

// Assignment grants a contractor user an explicit capability set on one
// application. The grant is exactly the listed capabilities, nothing more.
type Assignment struct {
	UserID       string
	Capabilities []Capability
}

// HasCapability reports whether the assignment lists the capability.
func (a Assignment) HasCapability(c Capability) bool {
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// ApplicationContext is the resource context for contractor-scoped checks:
// the application and its assignment list.
type ApplicationContext struct {
	ApplicationID string
	AssignedUsers []Assignment
}

// AssignmentFor returns the assignment entry for the given user, if any.
func (c *ApplicationContext) AssignmentFor(userID string) (Assignment, bool) {
	if c == nil {
		return Assignment{}, false
	}
	for _, a := range c.AssignedUsers {
		if a.UserID == userID {
			return a, true
		}
	}
	return Assignment{}, false
}
