package contractors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/naics"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// ErrOwnerImmutable rejects role changes on the account owner slot.
var ErrOwnerImmutable = errors.New("contractors: account owner role cannot be reassigned")

// Service orchestrates contractor organization operations.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *authz.Resolver, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, logger: logger}
}

// RegisterRequest onboards a contractor firm with its first account.
type RegisterRequest struct {
	Name           string   `json:"name" validate:"required,min=2"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          string   `json:"phone"`
	ServiceSectors []string `json:"service_sectors"`
	OwnerName      string   `json:"owner_name" validate:"required,min=2"`
	OwnerEmail     string   `json:"owner_email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=8"`
	Solo           bool     `json:"solo"`
}

// Register creates a contractor organization and its owning account. A solo
// registration gets the individual role and works without a team.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Organization, Member, error) {
	if err := validateSectors(req.ServiceSectors); err != nil {
		return Organization{}, Member{}, err
	}

	org := Organization{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          strings.TrimSpace(req.Phone),
		ServiceSectors: req.ServiceSectors,
	}
	if org.ServiceSectors == nil {
		org.ServiceSectors = []string{}
	}
	role := authz.RoleContractorAccountOwner
	if req.Solo {
		role = authz.RoleContractorIndividual
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Organization{}, Member{}, err
	}
	owner := Member{
		ID:       uuid.NewString(),
		OrgID:    org.ID,
		Name:     strings.TrimSpace(req.OwnerName),
		Email:    strings.ToLower(strings.TrimSpace(req.OwnerEmail)),
		Role:     role,
		IsActive: true,
	}
	if err := s.repo.RegisterOrg(ctx, org, owner, string(hash)); err != nil {
		return Organization{}, Member{}, err
	}
	s.recordAudit(ctx, owner.ID, "contractor.register", "contractor_org", org.ID, map[string]any{"name": org.Name})
	return org, owner, nil
}

// GetOrg returns an organization visible to the actor: its own members,
// system admins, and company actors choosing a contractor.
func (s *Service) GetOrg(ctx context.Context, actor *authz.Actor, id string) (Organization, error) {
	if !s.canSeeOrg(actor, id) {
		return Organization{}, httpx.ErrForbidden
	}
	return s.repo.GetOrg(ctx, id)
}

// ListOrgs returns registered contractor firms. Open to system admins and
// company actors holding manage_contractors, who use it to pick installers.
func (s *Service) ListOrgs(ctx context.Context, actor *authz.Actor, filter OrgFilter) ([]Organization, int, error) {
	if actor == nil {
		return nil, 0, httpx.ErrForbidden
	}
	if actor.Role != authz.RoleSystemAdmin && !s.resolver.HasPermission(actor.Role, authz.PermManageContractors) {
		return nil, 0, httpx.ErrForbidden
	}
	if filter.Sector != "" {
		if err := validateSectors([]string{filter.Sector}); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.ListOrgs(ctx, filter)
}

// UpdateOrgRequest carries the editable organization profile fields.
type UpdateOrgRequest struct {
	Name           string   `json:"name" validate:"required,min=2"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          string   `json:"phone"`
	ServiceSectors []string `json:"service_sectors"`
}

// UpdateOrg saves profile changes. Restricted to the organization's own
// leads and system admins.
func (s *Service) UpdateOrg(ctx context.Context, actor *authz.Actor, id string, req UpdateOrgRequest) (Organization, error) {
	if !s.canManageOrg(actor, id) {
		return Organization{}, httpx.ErrForbidden
	}
	if err := validateSectors(req.ServiceSectors); err != nil {
		return Organization{}, err
	}
	org := Organization{
		ID:             id,
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          strings.TrimSpace(req.Phone),
		ServiceSectors: req.ServiceSectors,
	}
	if org.ServiceSectors == nil {
		org.ServiceSectors = []string{}
	}
	updated, err := s.repo.UpdateOrg(ctx, org)
	if err != nil {
		return Organization{}, err
	}
	s.recordAudit(ctx, actor.ID, "contractor.update_org", "contractor_org", id, nil)
	return updated, nil
}

// ListMembers returns the organization's accounts, for team management and
// for companies picking assignees.
func (s *Service) ListMembers(ctx context.Context, actor *authz.Actor, orgID string) ([]Member, error) {
	if !s.canSeeOrg(actor, orgID) {
		return nil, httpx.ErrForbidden
	}
	return s.repo.ListMembers(ctx, orgID)
}

// AddMemberRequest enrolls a new account into a contractor organization.
type AddMemberRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=contractor_manager contractor_team_member"`
}

// AddMember registers a new account in the actor's organization. Only the
// organization's leads may grow the team, and new accounts start as
// managers or team members, never as owners.
func (s *Service) AddMember(ctx context.Context, actor *authz.Actor, orgID string, req AddMemberRequest) (Member, error) {
	if !s.canManageOrg(actor, orgID) {
		return Member{}, httpx.ErrForbidden
	}
	role := authz.Role(req.Role)
	if role != authz.RoleContractorManager && role != authz.RoleContractorTeamMember {
		return Member{}, fmt.Errorf("%w: role %q cannot be assigned", httpx.ErrValidation, req.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Member{}, err
	}
	member := Member{
		ID:       uuid.NewString(),
		OrgID:    orgID,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     role,
		IsActive: true,
	}
	if err := s.repo.CreateMember(ctx, member, string(hash)); err != nil {
		return Member{}, err
	}
	s.recordAudit(ctx, actor.ID, "contractor.add_member", "user", member.ID, map[string]any{"role": req.Role})
	return member, nil
}

// UpdateMemberRequest changes a member's role within the organization.
type UpdateMemberRequest struct {
	Role string `json:"role" validate:"required,oneof=contractor_manager contractor_team_member"`
}

// UpdateMemberRole promotes or demotes a member between manager and team
// member. The account owner slot itself is immutable.
func (s *Service) UpdateMemberRole(ctx context.Context, actor *authz.Actor, orgID, memberID string, req UpdateMemberRequest) (Member, error) {
	if !s.canManageOrg(actor, orgID) {
		return Member{}, httpx.ErrForbidden
	}
	target, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return Member{}, err
	}
	if target.OrgID != orgID {
		return Member{}, shared.ErrNotFound
	}
	if target.Role == authz.RoleContractorAccountOwner || target.Role == authz.RoleContractorIndividual {
		return Member{}, ErrOwnerImmutable
	}
	role := authz.Role(req.Role)
	if role != authz.RoleContractorManager && role != authz.RoleContractorTeamMember {
		return Member{}, fmt.Errorf("%w: role %q cannot be assigned", httpx.ErrValidation, req.Role)
	}
	updated, err := s.repo.UpdateMemberRole(ctx, memberID, role)
	if err != nil {
		return Member{}, err
	}
	s.recordAudit(ctx, actor.ID, "contractor.update_member", "user", memberID, map[string]any{"role": req.Role})
	return updated, nil
}

// RemoveMember deactivates a member's account.
func (s *Service) RemoveMember(ctx context.Context, actor *authz.Actor, orgID, memberID string) error {
	if !s.canManageOrg(actor, orgID) {
		return httpx.ErrForbidden
	}
	target, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return err
	}
	if target.OrgID != orgID {
		return shared.ErrNotFound
	}
	if target.Role == authz.RoleContractorAccountOwner {
		return ErrOwnerImmutable
	}
	if err := s.repo.SetMemberActive(ctx, memberID, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, "contractor.remove_member", "user", memberID, nil)
	return nil
}

// IsContractorUser reports whether the account is an active contractor
// member. The applications module consults this before accepting an
// assignment target.
func (s *Service) IsContractorUser(ctx context.Context, userID string) (bool, error) {
	member, err := s.repo.GetMember(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.IsActive, nil
}

func (s *Service) canManageOrg(actor *authz.Actor, orgID string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == authz.RoleSystemAdmin {
		return true
	}
	return actor.CompanyID == orgID && s.resolver.CanManageContractorTeam(actor)
}

func (s *Service) canSeeOrg(actor *authz.Actor, orgID string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == authz.RoleSystemAdmin {
		return true
	}
	if actor.Role.IsContractor() {
		return actor.CompanyID == orgID
	}
	return s.resolver.HasPermission(actor.Role, authz.PermManageContractors)
}

func validateSectors(sectors []string) error {
	for _, sector := range sectors {
		known := false
		for _, s := range naics.Sectors() {
			if s.Code == sector {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("%w: unknown sector %q", httpx.ErrValidation, sector)
		}
	}
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
