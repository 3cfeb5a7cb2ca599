package applications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aurora-grants/aurora-grants/internal/activities"
	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/naics"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// Phase transition errors.
var (
	ErrNotDraft        = errors.New("applications: application is no longer a draft")
	ErrWrongPhase      = errors.New("applications: transition not allowed from current phase")
	ErrAlreadyDecided  = errors.New("applications: application already decided")
	ErrTemplateRetired = errors.New("applications: activity template is not active")
)

// TemplateSource resolves activity templates for incentive estimation.
// Satisfied by the activities repository.
type TemplateSource interface {
	Get(ctx context.Context, id string) (activities.Template, error)
}

// MemberDirectory answers whether an account belongs to the contractor
// side of the portal. Satisfied by the contractors service.
type MemberDirectory interface {
	IsContractorUser(ctx context.Context, userID string) (bool, error)
}

// Notifier pushes phase-change emails onto the job queue.
type Notifier interface {
	NotifyPhaseChange(ctx context.Context, app Application) error
}

// IdempotencyChecker absorbs replayed submits. Satisfied by
// shared.IdempotencyStore.
type IdempotencyChecker interface {
	CheckAndInsert(ctx context.Context, key, module string) error
}

// Service orchestrates the application lifecycle and enforces who may act
// on an application at each phase.
type Service struct {
	repo      Repository
	resolver  *authz.Resolver
	templates TemplateSource
	directory MemberDirectory
	notifier  Notifier
	idem      IdempotencyChecker
	audit     *shared.AuditLogger
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *authz.Resolver, templates TemplateSource, directory MemberDirectory, notifier Notifier, idem IdempotencyChecker, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		templates: templates,
		directory: directory,
		notifier:  notifier,
		idem:      idem,
		audit:     audit,
		logger:    logger,
	}
}

// DraftRequest carries the editable fields of an application.
type DraftRequest struct {
	Title            string  `json:"title" validate:"required,min=3"`
	FacilitySector   string  `json:"facility_sector" validate:"required"`
	FacilityCategory string  `json:"facility_category" validate:"required"`
	FacilityType     string  `json:"facility_type" validate:"required"`
	TemplateID       string  `json:"template_id" validate:"required,uuid"`
	ProjectCost      float64 `json:"project_cost" validate:"gt=0"`
}

// Create opens a new draft application for the actor's company.
func (s *Service) Create(ctx context.Context, actor *authz.Actor, req DraftRequest) (Application, error) {
	if !s.resolver.CanCreateEdit(actor) || !s.resolver.HasPermission(actor.Role, authz.PermCreateApplications) {
		return Application{}, httpx.ErrForbidden
	}
	template, err := s.validateDraft(ctx, req)
	if err != nil {
		return Application{}, err
	}

	app := Application{
		ID:                 uuid.NewString(),
		CompanyID:          actor.CompanyID,
		Title:              req.Title,
		FacilitySector:     req.FacilitySector,
		FacilityCategory:   req.FacilityCategory,
		FacilityType:       req.FacilityType,
		TemplateID:         req.TemplateID,
		ProjectCost:        req.ProjectCost,
		EstimatedIncentive: template.EstimateIncentive(req.ProjectCost),
		Phase:              PhaseDraft,
		CreatedBy:          actor.ID,
		AssignedUsers:      []ContractorAssignment{},
	}
	created, err := s.repo.Create(ctx, app)
	if err != nil {
		return Application{}, err
	}
	s.recordAudit(ctx, actor.ID, "application.create", created.ID, map[string]any{"company_id": created.CompanyID})
	return created, nil
}

// Get returns one application if the actor may view it: system admins see
// everything, company actors see their own company, contractor actors need
// the view capability on this application.
func (s *Service) Get(ctx context.Context, actor *authz.Actor, id string) (Application, error) {
	if actor == nil {
		return Application{}, httpx.ErrForbidden
	}
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := s.requireView(actor, app); err != nil {
		return Application{}, err
	}
	return app, nil
}

// List returns the applications visible to the actor, scoped by role:
// admins see all, company actors their company, contractors only the
// applications they are assigned to.
func (s *Service) List(ctx context.Context, actor *authz.Actor, filter ListFilter) ([]Application, int, error) {
	if actor == nil {
		return nil, 0, httpx.ErrForbidden
	}
	switch {
	case actor.Role == authz.RoleSystemAdmin:
		// unrestricted
	case actor.Role.IsContractor():
		filter.CompanyID = ""
		filter.AssignedUserID = actor.ID
	default:
		if !s.resolver.CanViewOnly(actor) {
			return nil, 0, httpx.ErrForbidden
		}
		filter.CompanyID = actor.CompanyID
	}
	if filter.Phase != "" {
		known := false
		for _, p := range AllPhases() {
			if p == filter.Phase {
				known = true
			}
		}
		if !known {
			return nil, 0, fmt.Errorf("%w: unknown phase %q", httpx.ErrValidation, filter.Phase)
		}
	}
	return s.repo.List(ctx, filter)
}

// UpdateDraft edits a draft application. Company actors need edit rights
// in their own company; contractor actors need the edit capability on this
// application.
func (s *Service) UpdateDraft(ctx context.Context, actor *authz.Actor, id string, req DraftRequest) (Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := s.requireEdit(actor, app); err != nil {
		return Application{}, err
	}
	if !app.Phase.Editable() {
		return Application{}, ErrNotDraft
	}
	template, err := s.validateDraft(ctx, req)
	if err != nil {
		return Application{}, err
	}

	app.Title = req.Title
	app.FacilitySector = req.FacilitySector
	app.FacilityCategory = req.FacilityCategory
	app.FacilityType = req.FacilityType
	app.TemplateID = req.TemplateID
	app.ProjectCost = req.ProjectCost
	app.EstimatedIncentive = template.EstimateIncentive(req.ProjectCost)

	updated, err := s.repo.UpdateDraft(ctx, app)
	if err != nil {
		return Application{}, err
	}
	s.recordAudit(ctx, actor.ID, "application.update", id, nil)
	return updated, nil
}

// Submit moves a draft into the submitted phase. The incentive estimate is
// recomputed against the template at submission time so a stale draft
// cannot lock in retired terms. The idempotency key absorbs double submits.
func (s *Service) Submit(ctx context.Context, actor *authz.Actor, id, idempotencyKey string) (Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := s.requireSubmit(actor, app); err != nil {
		return Application{}, err
	}
	if s.idem != nil && idempotencyKey != "" {
		if err := s.idem.CheckAndInsert(ctx, idempotencyKey, "applications.submit"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				// Replay of a processed submit. Re-fetch so a concurrent
				// first submit is reflected in the response.
				return s.repo.Get(ctx, id)
			}
			return Application{}, err
		}
	}
	if app.Phase != PhaseDraft {
		return Application{}, ErrNotDraft
	}
	template, err := s.templates.Get(ctx, app.TemplateID)
	if err != nil {
		return Application{}, err
	}
	if !template.IsActive {
		return Application{}, ErrTemplateRetired
	}

	submitted, err := s.repo.MarkSubmitted(ctx, id, time.Now(), template.EstimateIncentive(app.ProjectCost))
	if err != nil {
		return Application{}, err
	}
	s.notifyPhase(ctx, submitted)
	s.recordAudit(ctx, actor.ID, "application.submit", id, map[string]any{"estimated_incentive": submitted.EstimatedIncentive})
	return submitted, nil
}

// StartReview moves a submitted application under review. Administrators only.
func (s *Service) StartReview(ctx context.Context, actor *authz.Actor, id string) (Application, error) {
	return s.adminTransition(ctx, actor, id, PhaseSubmitted, PhaseUnderReview, "application.review", "", nil)
}

// DecisionRequest records an administrator's approve or reject outcome.
type DecisionRequest struct {
	Approve           bool     `json:"approve"`
	Note              string   `json:"note" validate:"max=2000"`
	ApprovedIncentive *float64 `json:"approved_incentive" validate:"omitempty,gte=0"`
}

// Decide approves or rejects an application under review. An approval may
// override the estimated incentive; absent an override the estimate stands.
func (s *Service) Decide(ctx context.Context, actor *authz.Actor, id string, req DecisionRequest) (Application, error) {
	if actor == nil || actor.Role != authz.RoleSystemAdmin {
		return Application{}, httpx.ErrForbidden
	}
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.Phase != PhaseUnderReview {
		if app.DecidedAt != nil {
			return Application{}, ErrAlreadyDecided
		}
		return Application{}, ErrWrongPhase
	}

	phase := PhaseRejected
	approved := req.ApprovedIncentive
	if req.Approve {
		phase = PhaseApproved
		if approved == nil {
			approved = &app.EstimatedIncentive
		}
	}
	now := time.Now()
	decided, err := s.repo.SetPhase(ctx, id, phase, req.Note, approved, &now)
	if err != nil {
		return Application{}, err
	}
	s.notifyPhase(ctx, decided)
	s.recordAudit(ctx, actor.ID, "application.decide", id, map[string]any{"phase": string(phase)})
	return decided, nil
}

// StartInstallation moves an approved application into installation once
// contractors are assigned. Administrators only.
func (s *Service) StartInstallation(ctx context.Context, actor *authz.Actor, id string) (Application, error) {
	return s.adminTransition(ctx, actor, id, PhaseApproved, PhaseInstallation, "application.install", "", nil)
}

// Complete closes out an application after installation. Administrators only.
func (s *Service) Complete(ctx context.Context, actor *authz.Actor, id string) (Application, error) {
	return s.adminTransition(ctx, actor, id, PhaseInstallation, PhaseCompleted, "application.complete", "", nil)
}

func (s *Service) adminTransition(ctx context.Context, actor *authz.Actor, id string, from, to Phase, action, note string, approved *float64) (Application, error) {
	if actor == nil || actor.Role != authz.RoleSystemAdmin {
		return Application{}, httpx.ErrForbidden
	}
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.Phase != from {
		return Application{}, ErrWrongPhase
	}
	updated, err := s.repo.SetPhase(ctx, id, to, note, approved, nil)
	if err != nil {
		return Application{}, err
	}
	s.notifyPhase(ctx, updated)
	s.recordAudit(ctx, actor.ID, action, id, map[string]any{"phase": string(to)})
	return updated, nil
}

// Delete removes a draft application. Company admins may delete within
// their own company; system admins anywhere. Submitted applications are
// part of the program record and cannot be deleted by companies.
func (s *Service) Delete(ctx context.Context, actor *authz.Actor, id string) error {
	if actor == nil || !s.resolver.HasPermission(actor.Role, authz.PermDeleteApplications) {
		return httpx.ErrForbidden
	}
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != authz.RoleSystemAdmin {
		if app.CompanyID != actor.CompanyID {
			return httpx.ErrForbidden
		}
		if app.Phase != PhaseDraft {
			return ErrNotDraft
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, "application.delete", id, nil)
	return nil
}

// BulkDelete removes a batch of applications. System admin only.
func (s *Service) BulkDelete(ctx context.Context, actor *authz.Actor, ids []string) (int64, error) {
	if actor == nil || actor.Role != authz.RoleSystemAdmin {
		return 0, httpx.ErrForbidden
	}
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := s.repo.BulkDelete(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, actor.ID, "application.bulk_delete", "", map[string]any{"count": deleted})
	return deleted, nil
}

// AssignRequest grants a contractor user capabilities on one application.
type AssignRequest struct {
	UserID       string   `json:"user_id" validate:"required,uuid"`
	Capabilities []string `json:"capabilities" validate:"required,min=1,dive,oneof=view edit submit"`
}

// AssignContractor grants or replaces a contractor user's capabilities on
// an application. Allowed for system admins, company actors with the
// manage_contractors permission on their own application, and contractor
// leads who may edit application permissions.
func (s *Service) AssignContractor(ctx context.Context, actor *authz.Actor, id string, req AssignRequest) (Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := s.requireAssign(actor, app); err != nil {
		return Application{}, err
	}
	caps := make([]authz.Capability, 0, len(req.Capabilities))
	for _, c := range req.Capabilities {
		caps = append(caps, authz.Capability(c))
	}
	if s.directory != nil {
		isContractor, err := s.directory.IsContractorUser(ctx, req.UserID)
		if err != nil {
			return Application{}, err
		}
		if !isContractor {
			return Application{}, fmt.Errorf("%w: user %s is not a contractor account", httpx.ErrValidation, req.UserID)
		}
	}

	assignments := make([]ContractorAssignment, 0, len(app.AssignedUsers)+1)
	for _, entry := range app.AssignedUsers {
		if entry.UserID != req.UserID {
			assignments = append(assignments, entry)
		}
	}
	assignments = append(assignments, ContractorAssignment{UserID: req.UserID, Capabilities: caps})

	updated, err := s.repo.ReplaceAssignments(ctx, id, assignments)
	if err != nil {
		return Application{}, err
	}
	s.recordAudit(ctx, actor.ID, "application.assign", id, map[string]any{"user_id": req.UserID, "capabilities": req.Capabilities})
	return updated, nil
}

// UnassignContractor removes a contractor user's assignment from an
// application. Removing a user who is not assigned is a no-op.
func (s *Service) UnassignContractor(ctx context.Context, actor *authz.Actor, id, userID string) (Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := s.requireAssign(actor, app); err != nil {
		return Application{}, err
	}

	assignments := make([]ContractorAssignment, 0, len(app.AssignedUsers))
	for _, entry := range app.AssignedUsers {
		if entry.UserID != userID {
			assignments = append(assignments, entry)
		}
	}
	updated, err := s.repo.ReplaceAssignments(ctx, id, assignments)
	if err != nil {
		return Application{}, err
	}
	s.recordAudit(ctx, actor.ID, "application.unassign", id, map[string]any{"user_id": userID})
	return updated, nil
}

// ExpireStaleDrafts deletes drafts untouched past the cutoff. Called from
// the scheduled sweep, not from a request path.
func (s *Service) ExpireStaleDrafts(ctx context.Context, olderThan time.Time) (int64, error) {
	ids, err := s.repo.StaleDraftIDs(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.BulkDelete(ctx, ids)
}

func (s *Service) validateDraft(ctx context.Context, req DraftRequest) (activities.Template, error) {
	if err := naics.ValidateSelection(req.FacilitySector, req.FacilityCategory, req.FacilityType); err != nil {
		return activities.Template{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	template, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return activities.Template{}, err
	}
	if !template.IsActive {
		return activities.Template{}, ErrTemplateRetired
	}
	if !template.AppliesToSector(req.FacilitySector) {
		return activities.Template{}, fmt.Errorf("%w: template %q does not cover sector %s", httpx.ErrValidation, template.Name, req.FacilitySector)
	}
	return template, nil
}

func (s *Service) requireView(actor *authz.Actor, app Application) error {
	if actor == nil {
		return httpx.ErrForbidden
	}
	if actor.Role.IsContractor() || actor.Role == authz.RoleSystemAdmin {
		if s.resolver.HasContractorPermission(actor, authz.CapabilityView, app.AuthzContext()) {
			return nil
		}
		return httpx.ErrForbidden
	}
	if app.CompanyID == actor.CompanyID && s.resolver.CanViewOnly(actor) {
		return nil
	}
	return httpx.ErrForbidden
}

func (s *Service) requireEdit(actor *authz.Actor, app Application) error {
	if actor == nil {
		return httpx.ErrForbidden
	}
	if actor.Role.IsContractor() || actor.Role == authz.RoleSystemAdmin {
		if s.resolver.HasContractorPermission(actor, authz.CapabilityEdit, app.AuthzContext()) {
			return nil
		}
		return httpx.ErrForbidden
	}
	if app.CompanyID == actor.CompanyID && s.resolver.CanCreateEdit(actor) &&
		s.resolver.HasPermission(actor.Role, authz.PermEditApplications) {
		return nil
	}
	return httpx.ErrForbidden
}

// requireSubmit: contractor leads never submit on a company's behalf, so
// the contractor path goes through the per-application submit capability,
// which only an explicit team-member assignment can carry.
func (s *Service) requireSubmit(actor *authz.Actor, app Application) error {
	if actor == nil {
		return httpx.ErrForbidden
	}
	if actor.Role.IsContractor() || actor.Role == authz.RoleSystemAdmin {
		if s.resolver.HasContractorPermission(actor, authz.CapabilitySubmit, app.AuthzContext()) {
			return nil
		}
		return httpx.ErrForbidden
	}
	if app.CompanyID == actor.CompanyID && s.resolver.CanCreateEdit(actor) &&
		s.resolver.HasPermission(actor.Role, authz.PermSubmitApplications) {
		return nil
	}
	return httpx.ErrForbidden
}

func (s *Service) requireAssign(actor *authz.Actor, app Application) error {
	if actor == nil {
		return httpx.ErrForbidden
	}
	if actor.Role == authz.RoleSystemAdmin {
		return nil
	}
	if actor.Role.IsContractor() {
		if s.resolver.CanEditApplicationPermissions(actor) &&
			s.resolver.HasContractorPermission(actor, authz.CapabilityEdit, app.AuthzContext()) {
			return nil
		}
		return httpx.ErrForbidden
	}
	if app.CompanyID == actor.CompanyID && s.resolver.HasPermission(actor.Role, authz.PermManageContractors) {
		return nil
	}
	return httpx.ErrForbidden
}

func (s *Service) notifyPhase(ctx context.Context, app Application) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPhaseChange(ctx, app); err != nil {
		s.logError("enqueue phase notification", err)
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "application", EntityID: entityID, Meta: meta}); err != nil {
		s.logError("audit record", err)
	}
}

func (s *Service) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, slog.Any("error", err))
	}
}
