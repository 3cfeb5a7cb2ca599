package activities

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/naics"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// Service orchestrates activity template configuration.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *authz.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// List returns templates. Non-admin actors only see active templates.
func (s *Service) List(ctx context.Context, actor *authz.Actor) ([]Template, error) {
	if actor == nil {
		return nil, httpx.ErrForbidden
	}
	activeOnly := actor.Role != authz.RoleSystemAdmin
	return s.repo.List(ctx, activeOnly)
}

// Get fetches a template by ID.
func (s *Service) Get(ctx context.Context, actor *authz.Actor, id string) (Template, error) {
	if actor == nil {
		return Template{}, httpx.ErrForbidden
	}
	template, err := s.repo.Get(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if actor.Role != authz.RoleSystemAdmin && !template.IsActive {
		return Template{}, shared.ErrNotFound
	}
	return template, nil
}

// UpsertRequest carries template configuration fields.
type UpsertRequest struct {
	Name            string   `json:"name" validate:"required,min=2"`
	Description     string   `json:"description"`
	EligibleSectors []string `json:"eligible_sectors"`
	IncentiveRate   float64  `json:"incentive_rate" validate:"gt=0,lte=1"`
	MaxIncentive    float64  `json:"max_incentive" validate:"gte=0"`
	IsActive        bool     `json:"is_active"`
}

// Create adds a template. System admin only; configuring the program's
// incentive terms requires the manage_activity_templates permission.
func (s *Service) Create(ctx context.Context, actor *authz.Actor, req UpsertRequest) (Template, error) {
	if actor == nil || !s.resolver.HasPermission(actor.Role, authz.PermManageTemplates) {
		return Template{}, httpx.ErrForbidden
	}
	if err := validateSectors(req.EligibleSectors); err != nil {
		return Template{}, err
	}
	template := templateFromRequest(req)
	template.ID = uuid.NewString()
	if err := s.repo.Create(ctx, template); err != nil {
		return Template{}, err
	}
	return s.repo.Get(ctx, template.ID)
}

// Update edits a template.
func (s *Service) Update(ctx context.Context, actor *authz.Actor, id string, req UpsertRequest) (Template, error) {
	if actor == nil || !s.resolver.HasPermission(actor.Role, authz.PermManageTemplates) {
		return Template{}, httpx.ErrForbidden
	}
	if err := validateSectors(req.EligibleSectors); err != nil {
		return Template{}, err
	}
	template := templateFromRequest(req)
	template.ID = id
	return s.repo.Update(ctx, template)
}

// Delete removes a template.
func (s *Service) Delete(ctx context.Context, actor *authz.Actor, id string) error {
	if actor == nil || !s.resolver.HasPermission(actor.Role, authz.PermManageTemplates) {
		return httpx.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func validateSectors(sectorCodes []string) error {
	for _, code := range sectorCodes {
		entry, ok := naics.Lookup(code)
		if !ok || entry.Level != 2 {
			return fmt.Errorf("%w: unknown NAICS sector %q", httpx.ErrValidation, code)
		}
	}
	return nil
}

func templateFromRequest(req UpsertRequest) Template {
	return Template{
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		EligibleSectors: req.EligibleSectors,
		IncentiveRate:   req.IncentiveRate,
		MaxIncentive:    req.MaxIncentive,
		IsActive:        req.IsActive,
	}
}
