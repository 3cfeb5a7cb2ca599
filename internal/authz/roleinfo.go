package authz

// RoleInfo carries display metadata for a role.
type RoleInfo struct {
	Role        Role
	Label       string
	Description string
}

var roleInfos = map[Role]RoleInfo{
	RoleSystemAdmin:  {Role: RoleSystemAdmin, Label: "System Administrator", Description: "Program staff with full access to every company and application."},
	RoleCompanyAdmin: {Role: RoleCompanyAdmin, Label: "Company Administrator", Description: "Owns the company account, its team and its applications."},
	RoleTeamMember:   {Role: RoleTeamMember, Label: "Team Member", Description: "Company staff graded viewer, editor or manager."},

	RoleContractorIndividual:   {Role: RoleContractorIndividual, Label: "Independent Contractor", Description: "Sole-operator contractor account."},
	RoleContractorAccountOwner: {Role: RoleContractorAccountOwner, Label: "Contractor Account Owner", Description: "Owns the contractor organization account."},
	RoleContractorManager:      {Role: RoleContractorManager, Label: "Contractor Manager", Description: "Manages the contractor team and assignments."},
	RoleContractorTeamMember:   {Role: RoleContractorTeamMember, Label: "Contractor Team Member", Description: "Works only on explicitly assigned applications."},
}

// Info returns display metadata for a role. Unknown roles return ok=false
// rather than any fallback; display code must not dress up a role the
// resolver would deny.
func Info(role Role) (RoleInfo, bool) {
	info, ok := roleInfos[role]
	return info, ok
}
