package authz

import "testing"

func TestCanManageContractorTeam(t *testing.T) {
	r := newResolver()
	granted := map[Role]bool{
		RoleContractorAccountOwner: true,
		RoleContractorIndividual:   true,
		RoleContractorManager:      true,
		RoleContractorTeamMember:   false,
		RoleCompanyAdmin:           false,
		RoleSystemAdmin:            false,
		Role("intern"):             false,
	}
	for role, want := range granted {
		if got := r.CanManageContractorTeam(&Actor{Role: role}); got != want {
			t.Fatalf("CanManageContractorTeam(%q) = %v, want %v", role, got, want)
		}
	}
	if r.CanManageContractorTeam(nil) {
		t.Fatal("nil actor must be denied")
	}
}

func TestCanEditApplicationPermissionsMatchesTeamManagement(t *testing.T) {
	r := newResolver()
	for _, role := range AllRoles() {
		actor := &Actor{Role: role}
		if r.CanEditApplicationPermissions(actor) != r.CanManageContractorTeam(actor) {
			t.Fatalf("predicates diverged for %q", role)
		}
	}
}

func TestCanInviteUsers(t *testing.T) {
	r := newResolver()
	tests := []struct {
		name  string
		actor *Actor
		want  bool
	}{
		{"nil actor", nil, false},
		{"company_admin", &Actor{Role: RoleCompanyAdmin}, true},
		{"system_admin via level bypass", &Actor{Role: RoleSystemAdmin}, true},
		{"team_member manager", &Actor{Role: RoleTeamMember, PermissionLevel: LevelManager}, true},
		{"team_member editor", &Actor{Role: RoleTeamMember, PermissionLevel: LevelEditor}, false},
		{"team_member default viewer", &Actor{Role: RoleTeamMember}, false},
		{"contractor account owner", &Actor{Role: RoleContractorAccountOwner}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.CanInviteUsers(tt.actor); got != tt.want {
				t.Fatalf("CanInviteUsers(%+v) = %v, want %v", tt.actor, got, tt.want)
			}
		})
	}
}

func TestCanEditPermissionsMatchesCanInviteUsers(t *testing.T) {
	r := newResolver()
	actors := []*Actor{
		nil,
		{Role: RoleCompanyAdmin},
		{Role: RoleSystemAdmin},
		{Role: RoleTeamMember, PermissionLevel: LevelManager},
		{Role: RoleTeamMember, PermissionLevel: LevelEditor},
		{Role: RoleContractorManager},
	}
	for _, actor := range actors {
		if r.CanEditPermissions(actor) != r.CanInviteUsers(actor) {
			t.Fatalf("predicates diverged for %+v", actor)
		}
	}
}

func TestCanCreateEdit(t *testing.T) {
	r := newResolver()
	tests := []struct {
		name  string
		actor *Actor
		want  bool
	}{
		{"company_admin", &Actor{Role: RoleCompanyAdmin}, true},
		{"editor", &Actor{Role: RoleTeamMember, PermissionLevel: LevelEditor}, true},
		{"manager", &Actor{Role: RoleTeamMember, PermissionLevel: LevelManager}, true},
		{"viewer", &Actor{Role: RoleTeamMember, PermissionLevel: LevelViewer}, false},
		{"default viewer", &Actor{Role: RoleTeamMember}, false},
		{"nil actor", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.CanCreateEdit(tt.actor); got != tt.want {
				t.Fatalf("CanCreateEdit(%+v) = %v, want %v", tt.actor, got, tt.want)
			}
		})
	}
}

func TestCanViewOnly(t *testing.T) {
	r := newResolver()
	for _, actor := range []*Actor{
		{Role: RoleTeamMember},
		{Role: RoleTeamMember, PermissionLevel: LevelEditor},
		{Role: RoleTeamMember, PermissionLevel: LevelManager},
		{Role: RoleCompanyAdmin},
		{Role: RoleSystemAdmin},
	} {
		if !r.CanViewOnly(actor) {
			t.Fatalf("CanViewOnly(%+v) = false, want true", actor)
		}
	}
	for _, actor := range []*Actor{nil, {Role: RoleContractorTeamMember}, {Role: Role("intern")}} {
		if r.CanViewOnly(actor) {
			t.Fatalf("CanViewOnly(%+v) = true, want false", actor)
		}
	}
}

// Scenario from the portal's permission matrix: an editor-grade team member
// can create and edit but cannot invite or reach manager-gated actions.
func TestEditorTeamMemberScenario(t *testing.T) {
	r := newResolver()
	actor := &Actor{ID: "u1", Role: RoleTeamMember, PermissionLevel: LevelEditor}
	if !r.CanCreateEdit(actor) {
		t.Fatal("editor must be able to create and edit")
	}
	if r.CanInviteUsers(actor) {
		t.Fatal("editor must not invite users")
	}
	if r.HasPermissionLevel(actor, LevelManager) {
		t.Fatal("editor must not satisfy manager level")
	}
}
