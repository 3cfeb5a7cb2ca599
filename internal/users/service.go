package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// Invite lifecycle errors.
var (
	ErrInviteExpired = errors.New("users: invite expired")
	ErrInviteUsed    = errors.New("users: invite already accepted")
)

const inviteTTL = 7 * 24 * time.Hour

// Mailer dispatches invitation emails, typically via the job queue.
type Mailer interface {
	SendInvite(ctx context.Context, email, token string) error
}

// Service orchestrates account operations.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	mailer   Mailer
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *authz.Resolver, mailer Mailer, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, mailer: mailer, audit: audit, logger: logger}
}

// ActorByID resolves a user into the resolver's actor view. Inactive
// accounts resolve to no actor so a disabled user loses access on the next
// request, not the next login.
func (s *Service) ActorByID(ctx context.Context, id string) (*authz.Actor, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return user.Actor(), nil
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListTeam lists accounts visible to the actor: system admins see every
// account, company actors see their own company only.
func (s *Service) ListTeam(ctx context.Context, actor *authz.Actor, filter ListFilter) ([]User, int, error) {
	if actor == nil {
		return nil, 0, httpx.ErrForbidden
	}
	if actor.Role != authz.RoleSystemAdmin {
		if !s.resolver.CanViewOnly(actor) {
			return nil, 0, httpx.ErrForbidden
		}
		filter.CompanyID = actor.CompanyID
	}
	return s.repo.ListUsers(ctx, filter)
}

// InviteMemberRequest describes a pending team-member invitation.
type InviteMemberRequest struct {
	Email           string `json:"email" validate:"required,email"`
	PermissionLevel string `json:"permission_level" validate:"required,oneof=viewer editor manager"`
}

// InviteMember creates an invitation for a new company team member and
// dispatches the invite email.
func (s *Service) InviteMember(ctx context.Context, actor *authz.Actor, req InviteMemberRequest) (Invite, error) {
	if !s.resolver.CanInviteUsers(actor) {
		return Invite{}, httpx.ErrForbidden
	}
	level := authz.PermissionLevel(req.PermissionLevel)
	if !level.Known() {
		return Invite{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, req.PermissionLevel)
	}

	invite := Invite{
		ID:              uuid.NewString(),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Role:            authz.RoleTeamMember,
		PermissionLevel: level,
		CompanyID:       actor.CompanyID,
		Token:           uuid.NewString(),
		InvitedBy:       actor.ID,
		ExpiresAt:       time.Now().Add(inviteTTL),
	}
	if err := s.repo.CreateInvite(ctx, invite); err != nil {
		return Invite{}, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendInvite(ctx, invite.Email, invite.Token); err != nil {
			// The invite row exists; the email can be re-sent manually.
			s.logError("enqueue invite email", err)
		}
	}
	s.recordAudit(ctx, actor.ID, "user.invite", "invite", invite.ID, map[string]any{"email": invite.Email})
	return invite, nil
}

// AcceptInviteRequest completes an invitation into an account.
type AcceptInviteRequest struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=8"`
}

// AcceptInvite redeems a token and creates the invited account.
func (s *Service) AcceptInvite(ctx context.Context, req AcceptInviteRequest) (User, error) {
	invite, err := s.repo.GetInviteByToken(ctx, req.Token)
	if err != nil {
		return User{}, err
	}
	if invite.AcceptedAt != nil {
		return User{}, ErrInviteUsed
	}
	if invite.Expired(time.Now()) {
		return User{}, ErrInviteExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:              uuid.NewString(),
		Email:           invite.Email,
		Name:            strings.TrimSpace(req.Name),
		Role:            invite.Role,
		PermissionLevel: invite.PermissionLevel,
		CompanyID:       invite.CompanyID,
		IsActive:        true,
	}
	if err := s.repo.CreateUser(ctx, user, string(hash)); err != nil {
		return User{}, err
	}
	if err := s.repo.MarkInviteAccepted(ctx, invite.ID, time.Now()); err != nil {
		s.logError("mark invite accepted", err)
	}
	return user, nil
}

// UpdateMemberRequest changes a team member's grading.
type UpdateMemberRequest struct {
	PermissionLevel string `json:"permission_level" validate:"required,oneof=viewer editor manager"`
}

// UpdateMember changes a company team member's permission level.
func (s *Service) UpdateMember(ctx context.Context, actor *authz.Actor, userID string, req UpdateMemberRequest) (User, error) {
	if !s.resolver.CanEditPermissions(actor) {
		return User{}, httpx.ErrForbidden
	}
	target, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if actor.Role != authz.RoleSystemAdmin && target.CompanyID != actor.CompanyID {
		return User{}, httpx.ErrForbidden
	}
	if target.Role != authz.RoleTeamMember {
		return User{}, fmt.Errorf("%w: only team members carry a permission level", httpx.ErrValidation)
	}
	level := authz.PermissionLevel(req.PermissionLevel)
	if !level.Known() {
		return User{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, req.PermissionLevel)
	}

	updated, err := s.repo.UpdateMember(ctx, userID, target.Role, level)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actor.ID, "user.update_level", "user", userID, map[string]any{"permission_level": req.PermissionLevel})
	return updated, nil
}

// Deactivate disables an account.
func (s *Service) Deactivate(ctx context.Context, actor *authz.Actor, userID string) error {
	if actor == nil {
		return httpx.ErrForbidden
	}
	if actor.Role != authz.RoleSystemAdmin && actor.Role != authz.RoleCompanyAdmin {
		return httpx.ErrForbidden
	}
	target, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if actor.Role == authz.RoleCompanyAdmin && target.CompanyID != actor.CompanyID {
		return httpx.ErrForbidden
	}
	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, "user.deactivate", "user", userID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: entity, EntityID: entityID, Meta: meta}); err != nil {
		s.logError("audit record", err)
	}
}

func (s *Service) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, slog.Any("error", err))
	}
}

var _ authz.ActorSource = (*Service)(nil)
