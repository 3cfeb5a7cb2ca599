package contractors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

type memoryRepo struct {
	orgs    map[string]Organization
	members map[string]Member
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orgs: map[string]Organization{}, members: map[string]Member{}}
}

func (m *memoryRepo) CreateOrg(ctx context.Context, org Organization) error {
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	m.orgs[org.ID] = org
	return nil
}

func (m *memoryRepo) RegisterOrg(ctx context.Context, org Organization, owner Member, passwordHash string) error {
	if err := m.CreateOrg(ctx, org); err != nil {
		return err
	}
	if err := m.CreateMember(ctx, owner, passwordHash); err != nil {
		delete(m.orgs, org.ID)
		return err
	}
	return nil
}

func (m *memoryRepo) GetOrg(ctx context.Context, id string) (Organization, error) {
	org, ok := m.orgs[id]
	if !ok {
		return Organization{}, shared.ErrNotFound
	}
	return org, nil
}

func (m *memoryRepo) ListOrgs(ctx context.Context, filter OrgFilter) ([]Organization, int, error) {
	var out []Organization
	for _, org := range m.orgs {
		if filter.Sector != "" && len(org.ServiceSectors) > 0 {
			covered := false
			for _, s := range org.ServiceSectors {
				if s == filter.Sector {
					covered = true
				}
			}
			if !covered {
				continue
			}
		}
		out = append(out, org)
	}
	return out, len(out), nil
}

func (m *memoryRepo) UpdateOrg(ctx context.Context, org Organization) (Organization, error) {
	stored, ok := m.orgs[org.ID]
	if !ok {
		return Organization{}, shared.ErrNotFound
	}
	org.CreatedAt = stored.CreatedAt
	org.UpdatedAt = time.Now()
	m.orgs[org.ID] = org
	return org, nil
}

func (m *memoryRepo) CreateMember(ctx context.Context, member Member, passwordHash string) error {
	for _, existing := range m.members {
		if existing.Email == member.Email {
			return httpx.ErrDuplicate
		}
	}
	member.CreatedAt = time.Now()
	m.members[member.ID] = member
	return nil
}

func (m *memoryRepo) GetMember(ctx context.Context, id string) (Member, error) {
	member, ok := m.members[id]
	if !ok {
		return Member{}, shared.ErrNotFound
	}
	return member, nil
}

func (m *memoryRepo) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	var out []Member
	for _, member := range m.members {
		if member.OrgID == orgID {
			out = append(out, member)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateMemberRole(ctx context.Context, id string, role authz.Role) (Member, error) {
	member, ok := m.members[id]
	if !ok {
		return Member{}, shared.ErrNotFound
	}
	member.Role = role
	m.members[id] = member
	return member, nil
}

func (m *memoryRepo) SetMemberActive(ctx context.Context, id string, active bool) error {
	member, ok := m.members[id]
	if !ok {
		return shared.ErrNotFound
	}
	member.IsActive = active
	m.members[id] = member
	return nil
}

func newService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, authz.NewResolver(authz.DefaultGrants()), nil, nil), repo
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		Name:           "Northlight Installations",
		Email:          "office@northlight.example",
		ServiceSectors: []string{"23", "31-33"},
		OwnerName:      "Dana Reyes",
		OwnerEmail:     "dana@northlight.example",
		Password:       "correct-horse-battery",
	}
}

func TestRegisterCreatesOwner(t *testing.T) {
	service, _ := newService()
	org, owner, err := service.Register(context.Background(), validRegister())
	require.NoError(t, err)

	assert.Equal(t, "Northlight Installations", org.Name)
	assert.Equal(t, authz.RoleContractorAccountOwner, owner.Role)
	assert.Equal(t, org.ID, owner.OrgID)
	assert.True(t, owner.IsActive)
}

func TestRegisterSolo(t *testing.T) {
	service, _ := newService()
	req := validRegister()
	req.Solo = true
	_, owner, err := service.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleContractorIndividual, owner.Role)
	assert.True(t, owner.Solo())
}

func TestRegisterRejectsUnknownSector(t *testing.T) {
	service, _ := newService()
	req := validRegister()
	req.ServiceSectors = []string{"99"}
	_, _, err := service.Register(context.Background(), req)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAddMemberGuards(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	org, owner, err := service.Register(ctx, validRegister())
	require.NoError(t, err)

	ownerActor := &authz.Actor{ID: owner.ID, Role: owner.Role, CompanyID: org.ID}
	add := AddMemberRequest{Name: "Kim Osei", Email: "kim@northlight.example", Password: "p4ssw0rd-here", Role: "contractor_team_member"}

	member, err := service.AddMember(ctx, ownerActor, org.ID, add)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleContractorTeamMember, member.Role)

	// Team members cannot grow the team.
	memberActor := &authz.Actor{ID: member.ID, Role: member.Role, CompanyID: org.ID}
	_, err = service.AddMember(ctx, memberActor, org.ID, AddMemberRequest{Name: "X Y", Email: "x@northlight.example", Password: "p4ssw0rd-here", Role: "contractor_team_member"})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	// Leads of another organization cannot reach in.
	stranger := &authz.Actor{ID: "o2", Role: authz.RoleContractorAccountOwner, CompanyID: "other-org"}
	_, err = service.AddMember(ctx, stranger, org.ID, add)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUpdateMemberRoleProtectsOwner(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	org, owner, err := service.Register(ctx, validRegister())
	require.NoError(t, err)
	ownerActor := &authz.Actor{ID: owner.ID, Role: owner.Role, CompanyID: org.ID}

	member, err := service.AddMember(ctx, ownerActor, org.ID, AddMemberRequest{
		Name: "Kim Osei", Email: "kim@northlight.example", Password: "p4ssw0rd-here", Role: "contractor_team_member",
	})
	require.NoError(t, err)

	promoted, err := service.UpdateMemberRole(ctx, ownerActor, org.ID, member.ID, UpdateMemberRequest{Role: "contractor_manager"})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleContractorManager, promoted.Role)

	_, err = service.UpdateMemberRole(ctx, ownerActor, org.ID, owner.ID, UpdateMemberRequest{Role: "contractor_team_member"})
	assert.ErrorIs(t, err, ErrOwnerImmutable)
}

func TestRemoveMemberDeactivates(t *testing.T) {
	service, repo := newService()
	ctx := context.Background()
	org, owner, err := service.Register(ctx, validRegister())
	require.NoError(t, err)
	ownerActor := &authz.Actor{ID: owner.ID, Role: owner.Role, CompanyID: org.ID}

	member, err := service.AddMember(ctx, ownerActor, org.ID, AddMemberRequest{
		Name: "Kim Osei", Email: "kim@northlight.example", Password: "p4ssw0rd-here", Role: "contractor_team_member",
	})
	require.NoError(t, err)

	require.NoError(t, service.RemoveMember(ctx, ownerActor, org.ID, member.ID))
	assert.False(t, repo.members[member.ID].IsActive)

	assert.ErrorIs(t, service.RemoveMember(ctx, ownerActor, org.ID, owner.ID), ErrOwnerImmutable)
}

func TestIsContractorUser(t *testing.T) {
	service, repo := newService()
	ctx := context.Background()
	_, owner, err := service.Register(ctx, validRegister())
	require.NoError(t, err)

	ok, err := service.IsContractorUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.IsContractorUser(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetMemberActive(ctx, owner.ID, false))
	ok, err = service.IsContractorUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListOrgsVisibility(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	_, _, err := service.Register(ctx, validRegister())
	require.NoError(t, err)

	admin := &authz.Actor{ID: "root", Role: authz.RoleSystemAdmin}
	orgs, total, err := service.ListOrgs(ctx, admin, OrgFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orgs, 1)

	companyAdmin := &authz.Actor{ID: "ca", Role: authz.RoleCompanyAdmin, CompanyID: "co-1"}
	_, _, err = service.ListOrgs(ctx, companyAdmin, OrgFilter{Sector: "23"})
	assert.NoError(t, err)

	member := &authz.Actor{ID: "tm", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelViewer, CompanyID: "co-1"}
	_, _, err = service.ListOrgs(ctx, member, OrgFilter{})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}
