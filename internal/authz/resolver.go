package authz

// Resolver answers "may this actor perform this capability, optionally
// against this resource context?" synchronously and without side effects.
// Every method is a total function: unrecognized or missing input maps to
// false, never to an error or panic.
type Resolver struct {
	grants Grants
}

// NewResolver constructs a Resolver over the given grants table.
func NewResolver(grants Grants) *Resolver {
	return &Resolver{grants: grants}
}

// HasPermission reports whether the role's static permission set contains
// the permission. Unknown roles hold the empty set.
func (r *Resolver) HasPermission(role Role, perm Permission) bool {
	return r.grants.Has(role, perm)
}

// HasAnyPermission reports whether the role holds at least one of the
// listed permissions. An empty list is false.
func (r *Resolver) HasAnyPermission(role Role, perms []Permission) bool {
	for _, p := range perms {
		if r.grants.Has(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role holds every listed
// permission. An empty list is vacuously true; call sites build permission
// lists dynamically and rely on the zero-requirement case passing.
func (r *Resolver) HasAllPermissions(role Role, perms []Permission) bool {
	for _, p := range perms {
		if !r.grants.Has(role, p) {
			return false
		}
	}
	return true
}

// HasPermissionLevel reports whether the actor satisfies the required
// permission level on the viewer < editor < manager scale.
//
// company_admin and system_admin satisfy every level unconditionally,
// bypassing the static table. team_member actors compare their own level
// (defaulting to viewer when unset) against the requirement. All other
// roles fail, contractors included: contractor rights flow through
// HasContractorPermission, not levels.
func (r *Resolver) HasPermissionLevel(actor *Actor, required PermissionLevel) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case RoleCompanyAdmin, RoleSystemAdmin:
		return true
	case RoleTeamMember:
		need := required.rank()
		if need == 0 {
			return false
		}
		have := actor.PermissionLevel.rank()
		if have == 0 {
			have = LevelViewer.rank()
		}
		return have >= need
	}
	return false
}

// HasContractorPermission evaluates a per-application capability for a
// contractor-side actor against the application's assignment list.
//
// system_admin is granted unconditionally, with or without context. The
// privileged contractor roles (account owner, individual, manager) are
// granted view and edit on any application in context but never submit;
// submission authority is not delegated through this path. Contractor team
// members are granted exactly what their assignment entry lists, and the
// entry carries no implications: edit does not imply view.
//
// Without an application context, or for any non-contractor role, the
// answer is false. This function defines no general-purpose fallback;
// company-side checks belong to HasPermission and HasPermissionLevel.
func (r *Resolver) HasContractorPermission(actor *Actor, cap Capability, app *ApplicationContext) bool {
	if actor == nil {
		return false
	}
	if actor.Role == RoleSystemAdmin {
		return true
	}
	if app == nil || !actor.Role.IsContractor() {
		return false
	}
	switch actor.Role {
	case RoleContractorAccountOwner, RoleContractorIndividual, RoleContractorManager:
		return cap == CapabilityView || cap == CapabilityEdit
	case RoleContractorTeamMember:
		entry, ok := app.AssignmentFor(actor.ID)
		if !ok {
			return false
		}
		return entry.HasCapability(cap)
	}
	return false
}
