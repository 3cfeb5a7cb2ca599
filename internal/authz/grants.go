package authz

// Grants is the immutable role-to-permission-set table. It is built once at
// startup and injected into the Resolver; nothing mutates it afterwards.
// The table is total over recognized roles: every role has an entry, even
// if empty. Roles outside the table resolve to the empty set.
type Grants struct {
	table map[Role]map[Permission]struct{}
}

// NewGrants builds a Grants table from role-to-permission lists. The input
// is copied; later mutation of the argument does not affect the table.
func NewGrants(sets map[Role][]Permission) Grants {
	table := make(map[Role]map[Permission]struct{}, len(sets))
	for role, perms := range sets {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		table[role] = set
	}
	return Grants{table: table}
}

// DefaultGrants returns the portal's production permission table.
//
// system_admin holds the full permission universe, a strict superset of
// every other role. Contractor roles hold almost nothing here: their
// rights flow through the context-sensitive contractor checks, not the
// static table. team_member's effective rights are further graded by
// PermissionLevel in the level-based predicates.
func DefaultGrants() Grants {
	return NewGrants(map[Role][]Permission{
		RoleSystemAdmin: AllPermissions(),
		RoleCompanyAdmin: {
			PermManageCompany,
			PermInviteUsers,
			PermCreateApplications,
			PermEditApplications,
			PermSubmitApplications,
			PermDeleteApplications,
			PermUploadDocuments,
			PermManageContractors,
			PermViewReports,
		},
		RoleTeamMember: {
			PermCreateApplications,
			PermEditApplications,
			PermSubmitApplications,
			PermUploadDocuments,
		},
		RoleContractorIndividual:   {PermUploadDocuments},
		RoleContractorAccountOwner: {PermUploadDocuments},
		RoleContractorManager:      {PermUploadDocuments},
		RoleContractorTeamMember:   {},
	})
}

// Has reports whether the role's set contains the permission. Unknown
// roles have the empty set.
func (g Grants) Has(role Role, perm Permission) bool {
	set, ok := g.table[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Permissions returns the role's permission list. The result is a copy.
func (g Grants) Permissions(role Role) []Permission {
	set, ok := g.table[role]
	if !ok {
		return nil
	}
	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	return perms
}
