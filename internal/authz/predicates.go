package authz

// Derived predicates gating specific portal actions. All of them reduce to
// role identity or permission-level checks; none hold state of their own.

// CanManageContractorTeam reports whether the actor may add or remove
// members of a contractor organization.
func (r *Resolver) CanManageContractorTeam(actor *Actor) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case RoleContractorAccountOwner, RoleContractorIndividual, RoleContractorManager:
		return true
	}
	return false
}

// CanEditApplicationPermissions reports whether the actor may edit other
// users' per-application capability grants. Currently the same role set as
// CanManageContractorTeam, but the two gate distinct actions and are kept
// separate so they can diverge without touching call sites.
func (r *Resolver) CanEditApplicationPermissions(actor *Actor) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case RoleContractorAccountOwner, RoleContractorIndividual, RoleContractorManager:
		return true
	}
	return false
}

// CanInviteUsers reports whether the actor may invite company team members.
func (r *Resolver) CanInviteUsers(actor *Actor) bool {
	if actor == nil {
		return false
	}
	return actor.Role == RoleCompanyAdmin || r.HasPermissionLevel(actor, LevelManager)
}

// CanEditPermissions reports whether the actor may change team members'
// permission levels. Same rule as CanInviteUsers.
func (r *Resolver) CanEditPermissions(actor *Actor) bool {
	if actor == nil {
		return false
	}
	return actor.Role == RoleCompanyAdmin || r.HasPermissionLevel(actor, LevelManager)
}

// CanCreateEdit reports whether the actor may create or edit applications
// on the company side.
func (r *Resolver) CanCreateEdit(actor *Actor) bool {
	if actor == nil {
		return false
	}
	return actor.Role == RoleCompanyAdmin || r.HasPermissionLevel(actor, LevelEditor)
}

// CanViewOnly reports whether the actor has at least viewer rights. By the
// level ordering this is any company-side actor, editors and managers
// included.
func (r *Resolver) CanViewOnly(actor *Actor) bool {
	return r.HasPermissionLevel(actor, LevelViewer)
}
