package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

type memoryRepo struct {
	users   map[string]User
	hashes  map[string]string
	invites map[string]Invite
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:   map[string]User{},
		hashes:  map[string]string{},
		invites: map[string]Invite{},
	}
}

func (m *memoryRepo) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return user, nil
}

func (m *memoryRepo) ListUsers(ctx context.Context, filter ListFilter) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		if filter.CompanyID != "" && u.CompanyID != filter.CompanyID {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *memoryRepo) CreateUser(ctx context.Context, user User, passwordHash string) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return httpx.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	m.hashes[user.ID] = passwordHash
	return nil
}

func (m *memoryRepo) UpdateMember(ctx context.Context, id string, role authz.Role, level authz.PermissionLevel) (User, error) {
	user, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	user.Role = role
	user.PermissionLevel = level
	m.users[id] = user
	return user, nil
}

func (m *memoryRepo) SetActive(ctx context.Context, id string, active bool) error {
	user, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	user.IsActive = active
	m.users[id] = user
	return nil
}

func (m *memoryRepo) CreateInvite(ctx context.Context, invite Invite) error {
	m.invites[invite.Token] = invite
	return nil
}

func (m *memoryRepo) GetInviteByToken(ctx context.Context, token string) (Invite, error) {
	invite, ok := m.invites[token]
	if !ok {
		return Invite{}, shared.ErrNotFound
	}
	return invite, nil
}

func (m *memoryRepo) MarkInviteAccepted(ctx context.Context, id string, at time.Time) error {
	for token, invite := range m.invites {
		if invite.ID == id {
			invite.AcceptedAt = &at
			m.invites[token] = invite
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memoryRepo) DeleteExpiredInvites(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for token, invite := range m.invites {
		if invite.AcceptedAt == nil && invite.ExpiresAt.Before(before) {
			delete(m.invites, token)
			n++
		}
	}
	return n, nil
}

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) SendInvite(ctx context.Context, email, token string) error {
	m.sent = append(m.sent, email)
	return nil
}

func newTestService(repo Repository, mailer Mailer) *Service {
	return NewService(repo, authz.NewResolver(authz.DefaultGrants()), mailer, nil, nil)
}

func TestInviteMemberGuards(t *testing.T) {
	repo := newMemoryRepo()
	mailer := &recordingMailer{}
	svc := newTestService(repo, mailer)
	req := InviteMemberRequest{Email: "new@acme.test", PermissionLevel: "editor"}

	_, err := svc.InviteMember(context.Background(), &authz.Actor{ID: "u1", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelEditor}, req)
	assert.ErrorIs(t, err, httpx.ErrForbidden, "editor must not invite")

	_, err = svc.InviteMember(context.Background(), &authz.Actor{ID: "u2", Role: authz.RoleContractorAccountOwner}, req)
	assert.ErrorIs(t, err, httpx.ErrForbidden, "contractor roles must not invite company members")

	invite, err := svc.InviteMember(context.Background(), &authz.Actor{ID: "u3", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelManager, CompanyID: "c1"}, req)
	require.NoError(t, err, "manager-level team member may invite")
	assert.Equal(t, authz.RoleTeamMember, invite.Role)
	assert.Equal(t, "c1", invite.CompanyID)
	assert.Equal(t, []string{"new@acme.test"}, mailer.sent)
}

func TestInviteMemberRejectsUnknownLevel(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	_, err := svc.InviteMember(context.Background(), &authz.Actor{ID: "a", Role: authz.RoleCompanyAdmin}, InviteMemberRequest{Email: "x@acme.test", PermissionLevel: "owner"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAcceptInvite(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)

	admin := &authz.Actor{ID: "a", Role: authz.RoleCompanyAdmin, CompanyID: "c1"}
	invite, err := svc.InviteMember(context.Background(), admin, InviteMemberRequest{Email: "new@acme.test", PermissionLevel: "viewer"})
	require.NoError(t, err)

	user, err := svc.AcceptInvite(context.Background(), AcceptInviteRequest{Token: invite.Token, Name: "New Member", Password: "longenoughpw"})
	require.NoError(t, err)
	assert.Equal(t, "new@acme.test", user.Email)
	assert.Equal(t, authz.RoleTeamMember, user.Role)
	assert.Equal(t, authz.LevelViewer, user.PermissionLevel)
	assert.Equal(t, "c1", user.CompanyID)
	assert.True(t, user.IsActive)

	_, err = svc.AcceptInvite(context.Background(), AcceptInviteRequest{Token: invite.Token, Name: "Again", Password: "longenoughpw"})
	assert.ErrorIs(t, err, ErrInviteUsed)
}

func TestAcceptInviteExpired(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	repo.invites["tok"] = Invite{
		ID:        "i1",
		Email:     "late@acme.test",
		Role:      authz.RoleTeamMember,
		Token:     "tok",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	_, err := svc.AcceptInvite(context.Background(), AcceptInviteRequest{Token: "tok", Name: "Late", Password: "longenoughpw"})
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func TestUpdateMemberScoping(t *testing.T) {
	repo := newMemoryRepo()
	repo.users["t1"] = User{ID: "t1", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelViewer, CompanyID: "c1", IsActive: true}
	repo.users["t2"] = User{ID: "t2", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelViewer, CompanyID: "c2", IsActive: true}
	repo.users["ca"] = User{ID: "ca", Role: authz.RoleCompanyAdmin, CompanyID: "c1", IsActive: true}
	svc := newTestService(repo, nil)

	admin := &authz.Actor{ID: "a", Role: authz.RoleCompanyAdmin, CompanyID: "c1"}

	updated, err := svc.UpdateMember(context.Background(), admin, "t1", UpdateMemberRequest{PermissionLevel: "manager"})
	require.NoError(t, err)
	assert.Equal(t, authz.LevelManager, updated.PermissionLevel)

	_, err = svc.UpdateMember(context.Background(), admin, "t2", UpdateMemberRequest{PermissionLevel: "editor"})
	assert.ErrorIs(t, err, httpx.ErrForbidden, "cross-company edit must be denied")

	_, err = svc.UpdateMember(context.Background(), admin, "ca", UpdateMemberRequest{PermissionLevel: "editor"})
	assert.ErrorIs(t, err, httpx.ErrValidation, "only team members carry a level")

	sysadmin := &authz.Actor{ID: "s", Role: authz.RoleSystemAdmin}
	_, err = svc.UpdateMember(context.Background(), sysadmin, "t2", UpdateMemberRequest{PermissionLevel: "editor"})
	assert.NoError(t, err, "system admin may edit any company")
}

func TestActorByIDInactive(t *testing.T) {
	repo := newMemoryRepo()
	repo.users["u1"] = User{ID: "u1", Role: authz.RoleTeamMember, IsActive: false}
	svc := newTestService(repo, nil)

	actor, err := svc.ActorByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, actor, "inactive accounts resolve to no actor")

	_, err = svc.ActorByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestDeactivateScoping(t *testing.T) {
	repo := newMemoryRepo()
	repo.users["t1"] = User{ID: "t1", Role: authz.RoleTeamMember, CompanyID: "c1", IsActive: true}
	repo.users["t2"] = User{ID: "t2", Role: authz.RoleTeamMember, CompanyID: "c2", IsActive: true}
	svc := newTestService(repo, nil)

	admin := &authz.Actor{ID: "a", Role: authz.RoleCompanyAdmin, CompanyID: "c1"}
	require.NoError(t, svc.Deactivate(context.Background(), admin, "t1"))
	assert.False(t, repo.users["t1"].IsActive)

	err := svc.Deactivate(context.Background(), admin, "t2")
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	manager := &authz.Actor{ID: "m", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelManager, CompanyID: "c2"}
	err = svc.Deactivate(context.Background(), manager, "t2")
	assert.ErrorIs(t, err, httpx.ErrForbidden, "managers do not deactivate accounts")
}
