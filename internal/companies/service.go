package companies

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
)

// Service orchestrates company operations.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *authz.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// List returns companies visible to the actor. Only system admins browse
// the full directory.
func (s *Service) List(ctx context.Context, actor *authz.Actor, filter ListFilter) ([]Company, int, error) {
	if actor == nil || actor.Role != authz.RoleSystemAdmin {
		return nil, 0, httpx.ErrForbidden
	}
	return s.repo.List(ctx, filter)
}

// Get fetches one company: system admins see any, company actors their own.
func (s *Service) Get(ctx context.Context, actor *authz.Actor, id string) (Company, error) {
	if actor == nil {
		return Company{}, httpx.ErrForbidden
	}
	if actor.Role != authz.RoleSystemAdmin && actor.CompanyID != id {
		return Company{}, httpx.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

// UpsertRequest carries company profile fields.
type UpsertRequest struct {
	Name         string `json:"name" validate:"required,min=2"`
	LegalName    string `json:"legal_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone"`
}

// Create registers a new applicant company (system admin only).
func (s *Service) Create(ctx context.Context, actor *authz.Actor, req UpsertRequest) (Company, error) {
	if actor == nil || actor.Role != authz.RoleSystemAdmin {
		return Company{}, httpx.ErrForbidden
	}
	company := companyFromRequest(req)
	company.ID = uuid.NewString()
	if err := s.repo.Create(ctx, company); err != nil {
		return Company{}, err
	}
	return s.repo.Get(ctx, company.ID)
}

// Update edits a company profile. Company-side actors need the
// manage_company permission and may only touch their own organization.
func (s *Service) Update(ctx context.Context, actor *authz.Actor, id string, req UpsertRequest) (Company, error) {
	if actor == nil {
		return Company{}, httpx.ErrForbidden
	}
	if actor.Role != authz.RoleSystemAdmin {
		if !s.resolver.HasPermission(actor.Role, authz.PermManageCompany) || actor.CompanyID != id {
			return Company{}, httpx.ErrForbidden
		}
	}
	company := companyFromRequest(req)
	company.ID = id
	return s.repo.Update(ctx, company)
}

// ContactEmail resolves a company's notification address. Used by background
// jobs, so it skips actor checks.
func (s *Service) ContactEmail(ctx context.Context, companyID string) (string, error) {
	company, err := s.repo.Get(ctx, companyID)
	if err != nil {
		return "", err
	}
	return company.ContactEmail, nil
}

func companyFromRequest(req UpsertRequest) Company {
	return Company{
		Name:         strings.TrimSpace(req.Name),
		LegalName:    strings.TrimSpace(req.LegalName),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		Province:     strings.TrimSpace(req.Province),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
	}
}
