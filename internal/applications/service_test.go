package applications

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-grants/aurora-grants/internal/activities"
	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

type memoryRepo struct {
	apps map[string]Application
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{apps: map[string]Application{}}
}

func (m *memoryRepo) Get(ctx context.Context, id string) (Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return Application{}, httpx.ErrNotFound
	}
	return app, nil
}

func (m *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Application, int, error) {
	var out []Application
	for _, app := range m.apps {
		if filter.CompanyID != "" && app.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Phase != "" && app.Phase != filter.Phase {
			continue
		}
		if filter.AssignedUserID != "" {
			assigned := false
			for _, entry := range app.AssignedUsers {
				if entry.UserID == filter.AssignedUserID {
					assigned = true
				}
			}
			if !assigned {
				continue
			}
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) Create(ctx context.Context, app Application) (Application, error) {
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	m.apps[app.ID] = app
	return app, nil
}

func (m *memoryRepo) UpdateDraft(ctx context.Context, app Application) (Application, error) {
	stored, ok := m.apps[app.ID]
	if !ok || stored.Phase != PhaseDraft {
		return Application{}, httpx.ErrNotFound
	}
	app.Phase = stored.Phase
	app.AssignedUsers = stored.AssignedUsers
	app.UpdatedAt = time.Now()
	m.apps[app.ID] = app
	return app, nil
}

func (m *memoryRepo) MarkSubmitted(ctx context.Context, id string, at time.Time, estimate float64) (Application, error) {
	app, ok := m.apps[id]
	if !ok || app.Phase != PhaseDraft {
		return Application{}, httpx.ErrNotFound
	}
	app.Phase = PhaseSubmitted
	app.SubmittedAt = &at
	app.EstimatedIncentive = estimate
	m.apps[id] = app
	return app, nil
}

func (m *memoryRepo) SetPhase(ctx context.Context, id string, phase Phase, note string, approved *float64, decidedAt *time.Time) (Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return Application{}, httpx.ErrNotFound
	}
	app.Phase = phase
	if note != "" {
		app.DecisionNote = note
	}
	if approved != nil {
		app.ApprovedIncentive = approved
	}
	if decidedAt != nil {
		app.DecidedAt = decidedAt
	}
	m.apps[id] = app
	return app, nil
}

func (m *memoryRepo) ReplaceAssignments(ctx context.Context, id string, assignments []ContractorAssignment) (Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return Application{}, httpx.ErrNotFound
	}
	app.AssignedUsers = assignments
	m.apps[id] = app
	return app, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.apps[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.apps, id)
	return nil
}

func (m *memoryRepo) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := m.apps[id]; ok {
			delete(m.apps, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) StaleDraftIDs(ctx context.Context, olderThan time.Time) ([]string, error) {
	var ids []string
	for id, app := range m.apps {
		if app.Phase == PhaseDraft && app.UpdatedAt.Before(olderThan) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeTemplates struct {
	templates map[string]activities.Template
}

func (f *fakeTemplates) Get(ctx context.Context, id string) (activities.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return activities.Template{}, httpx.ErrNotFound
	}
	return t, nil
}

type fakeDirectory struct {
	contractors map[string]bool
}

func (f *fakeDirectory) IsContractorUser(ctx context.Context, userID string) (bool, error) {
	return f.contractors[userID], nil
}

type recordingNotifier struct {
	phases []Phase
}

func (n *recordingNotifier) NotifyPhaseChange(ctx context.Context, app Application) error {
	n.phases = append(n.phases, app.Phase)
	return nil
}

type memIdem struct {
	seen map[string]bool
}

func (m *memIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	full := module + ":" + key
	if m.seen[full] {
		return shared.ErrIdempotencyConflict
	}
	m.seen[full] = true
	return nil
}

const (
	templateLED     = "9df8f61e-0000-4000-8000-000000000001"
	templateRetired = "9df8f61e-0000-4000-8000-000000000002"
)

type fixture struct {
	repo     *memoryRepo
	service  *Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	templates := &fakeTemplates{templates: map[string]activities.Template{
		templateLED: {
			ID: templateLED, Name: "LED retrofit",
			IncentiveRate: 0.5, MaxIncentive: 50000, IsActive: true,
		},
		templateRetired: {
			ID: templateRetired, Name: "Legacy boiler swap",
			IncentiveRate: 0.3, IsActive: false,
		},
	}}
	directory := &fakeDirectory{contractors: map[string]bool{"ctr-1": true, "ctr-2": true}}
	service := NewService(repo, authz.NewResolver(authz.DefaultGrants()), templates, directory, notifier, &memIdem{}, nil, nil)
	return &fixture{repo: repo, service: service, notifier: notifier}
}

func companyAdmin(company string) *authz.Actor {
	return &authz.Actor{ID: "admin-" + company, Role: authz.RoleCompanyAdmin, CompanyID: company}
}

func teamMember(company string, level authz.PermissionLevel) *authz.Actor {
	return &authz.Actor{ID: "member-" + company, Role: authz.RoleTeamMember, PermissionLevel: level, CompanyID: company}
}

func sysAdmin() *authz.Actor {
	return &authz.Actor{ID: "root", Role: authz.RoleSystemAdmin}
}

func validDraft() DraftRequest {
	return DraftRequest{
		Title:            "Warehouse lighting retrofit",
		FacilitySector:   "31-33",
		FacilityCategory: "311",
		FacilityType:     "311611",
		TemplateID:       templateLED,
		ProjectCost:      40000,
	}
}

func (f *fixture) mustCreate(t *testing.T, actor *authz.Actor) Application {
	t.Helper()
	app, err := f.service.Create(context.Background(), actor, validDraft())
	require.NoError(t, err)
	return app
}

func TestCreateComputesEstimate(t *testing.T) {
	f := newFixture(t)
	app := f.mustCreate(t, companyAdmin("co-1"))

	assert.Equal(t, PhaseDraft, app.Phase)
	assert.Equal(t, "co-1", app.CompanyID)
	assert.InDelta(t, 20000, app.EstimatedIncentive, 0.001)
}

func TestCreateGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, teamMember("co-1", authz.LevelViewer), validDraft())
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = f.service.Create(ctx, &authz.Actor{ID: "c", Role: authz.RoleContractorAccountOwner}, validDraft())
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = f.service.Create(ctx, nil, validDraft())
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = f.service.Create(ctx, teamMember("co-1", authz.LevelEditor), validDraft())
	assert.NoError(t, err)
}

func TestCreateRejectsBadSelections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := companyAdmin("co-1")

	req := validDraft()
	req.FacilityCategory = "322"
	req.FacilityType = "311611" // belongs under 311, not 322
	_, err := f.service.Create(ctx, actor, req)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	req = validDraft()
	req.TemplateID = templateRetired
	_, err = f.service.Create(ctx, actor, req)
	assert.ErrorIs(t, err, ErrTemplateRetired)
}

func TestCreateRejectsSectorOutsideTemplate(t *testing.T) {
	f := newFixture(t)
	scoped := activities.Template{
		ID: "9df8f61e-0000-4000-8000-000000000003", Name: "Irrigation pumps",
		EligibleSectors: []string{"11"}, IncentiveRate: 0.4, IsActive: true,
	}
	f.service.templates.(*fakeTemplates).templates[scoped.ID] = scoped

	req := validDraft()
	req.TemplateID = scoped.ID
	_, err := f.service.Create(context.Background(), companyAdmin("co-1"), req)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.mustCreate(t, companyAdmin("co-1"))

	_, err := f.service.Get(ctx, companyAdmin("co-1"), app.ID)
	assert.NoError(t, err)

	_, err = f.service.Get(ctx, companyAdmin("co-2"), app.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = f.service.Get(ctx, sysAdmin(), app.ID)
	assert.NoError(t, err)

	// Unassigned contractor team member cannot view.
	_, err = f.service.Get(ctx, &authz.Actor{ID: "ctr-1", Role: authz.RoleContractorTeamMember}, app.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestContractorAssignmentGrantsView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.mustCreate(t, companyAdmin("co-1"))

	_, err := f.service.AssignContractor(ctx, companyAdmin("co-1"), app.ID, AssignRequest{
		UserID: "ctr-1", Capabilities: []string{"view"},
	})
	require.NoError(t, err)

	viewer := &authz.Actor{ID: "ctr-1", Role: authz.RoleContractorTeamMember}
	_, err = f.service.Get(ctx, viewer, app.ID)
	assert.NoError(t, err)

	// View alone does not allow editing the draft.
	_, err = f.service.UpdateDraft(ctx, viewer, app.ID, validDraft())
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestContractorLeadNeverSubmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.mustCreate(t, companyAdmin("co-1"))

	_, err := f.service.AssignContractor(ctx, sysAdmin(), app.ID, AssignRequest{
		UserID: "ctr-1", Capabilities: []string{"view", "edit", "submit"},
	})
	require.NoError(t, err)

	// Leads get blanket view and edit but submission stays with the company
	// even when an assignment row lists submit.
	lead := &authz.Actor{ID: "ctr-1", Role: authz.RoleContractorAccountOwner}
	_, err = f.service.UpdateDraft(ctx, lead, app.ID, validDraft())
	assert.NoError(t, err)
	_, err = f.service.Submit(ctx, lead, app.ID, "")
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	// A team member carrying the explicit submit capability may submit.
	member := &authz.Actor{ID: "ctr-1", Role: authz.RoleContractorTeamMember}
	_, err = f.service.Submit(ctx, member, app.ID, "")
	assert.NoError(t, err)
}

func TestAssignRejectsNonContractorUser(t *testing.T) {
	f := newFixture(t)
	app := f.mustCreate(t, companyAdmin("co-1"))

	_, err := f.service.AssignContractor(context.Background(), companyAdmin("co-1"), app.ID, AssignRequest{
		UserID: "office-user", Capabilities: []string{"view"},
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAssignReplacesExistingEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.mustCreate(t, companyAdmin("co-1"))

	_, err := f.service.AssignContractor(ctx, sysAdmin(), app.ID, AssignRequest{UserID: "ctr-1", Capabilities: []string{"view", "edit"}})
	require.NoError(t, err)
	updated, err := f.service.AssignContractor(ctx, sysAdmin(), app.ID, AssignRequest{UserID: "ctr-1", Capabilities: []string{"view"}})
	require.NoError(t, err)

	require.Len(t, updated.AssignedUsers, 1)
	assert.Equal(t, []authz.Capability{authz.CapabilityView}, updated.AssignedUsers[0].Capabilities)

	updated, err = f.service.UnassignContractor(ctx, sysAdmin(), app.ID, "ctr-1")
	require.NoError(t, err)
	assert.Empty(t, updated.AssignedUsers)
}

func TestSubmitLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := companyAdmin("co-1")
	app := f.mustCreate(t, actor)

	submitted, err := f.service.Submit(ctx, actor, app.ID, "key-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitted, submitted.Phase)
	require.NotNil(t, submitted.SubmittedAt)

	// Replaying the key bypasses the draft-phase guard and returns the
	// stored application as it now stands, not the pre-submit snapshot.
	again, err := f.service.Submit(ctx, actor, app.ID, "key-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitted, again.Phase)
	require.NotNil(t, again.SubmittedAt)
	assert.Equal(t, submitted.EstimatedIncentive, again.EstimatedIncentive)

	// A second submit with a fresh key fails: no longer a draft.
	_, err = f.service.Submit(ctx, actor, app.ID, "key-2")
	assert.ErrorIs(t, err, ErrNotDraft)

	assert.Equal(t, []Phase{PhaseSubmitted}, f.notifier.phases)
}

func TestSubmitRequiresActiveTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := companyAdmin("co-1")
	app := f.mustCreate(t, actor)

	// Template retired between draft and submit.
	templates := f.service.templates.(*fakeTemplates)
	retired := templates.templates[templateLED]
	retired.IsActive = false
	templates.templates[templateLED] = retired

	_, err := f.service.Submit(ctx, actor, app.ID, "")
	assert.ErrorIs(t, err, ErrTemplateRetired)
}

func TestReviewAndDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := companyAdmin("co-1")
	app := f.mustCreate(t, actor)
	_, err := f.service.Submit(ctx, actor, app.ID, "")
	require.NoError(t, err)

	// Companies cannot run the review.
	_, err = f.service.StartReview(ctx, actor, app.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = f.service.StartReview(ctx, sysAdmin(), app.ID)
	require.NoError(t, err)

	decided, err := f.service.Decide(ctx, sysAdmin(), app.ID, DecisionRequest{Approve: true, Note: "meets program criteria"})
	require.NoError(t, err)
	assert.Equal(t, PhaseApproved, decided.Phase)
	require.NotNil(t, decided.ApprovedIncentive)
	assert.InDelta(t, decided.EstimatedIncentive, *decided.ApprovedIncentive, 0.001)
	require.NotNil(t, decided.DecidedAt)

	// Deciding twice conflicts.
	_, err = f.service.Decide(ctx, sysAdmin(), app.ID, DecisionRequest{Approve: false})
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	installed, err := f.service.StartInstallation(ctx, sysAdmin(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseInstallation, installed.Phase)

	completed, err := f.service.Complete(ctx, sysAdmin(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, completed.Phase)
}

func TestDecisionOverridesIncentive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := companyAdmin("co-1")
	app := f.mustCreate(t, actor)
	_, err := f.service.Submit(ctx, actor, app.ID, "")
	require.NoError(t, err)
	_, err = f.service.StartReview(ctx, sysAdmin(), app.ID)
	require.NoError(t, err)

	override := 12500.0
	decided, err := f.service.Decide(ctx, sysAdmin(), app.ID, DecisionRequest{Approve: true, ApprovedIncentive: &override})
	require.NoError(t, err)
	assert.InDelta(t, override, *decided.ApprovedIncentive, 0.001)
}

func TestRejectSkipsInstallation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := companyAdmin("co-1")
	app := f.mustCreate(t, actor)
	_, err := f.service.Submit(ctx, actor, app.ID, "")
	require.NoError(t, err)
	_, err = f.service.StartReview(ctx, sysAdmin(), app.ID)
	require.NoError(t, err)

	rejected, err := f.service.Decide(ctx, sysAdmin(), app.ID, DecisionRequest{Approve: false, Note: "outside program scope"})
	require.NoError(t, err)
	assert.Equal(t, PhaseRejected, rejected.Phase)
	assert.Nil(t, rejected.ApprovedIncentive)

	_, err = f.service.StartInstallation(ctx, sysAdmin(), app.ID)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestListScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app1 := f.mustCreate(t, companyAdmin("co-1"))
	f.mustCreate(t, companyAdmin("co-2"))

	_, err := f.service.AssignContractor(ctx, sysAdmin(), app1.ID, AssignRequest{UserID: "ctr-2", Capabilities: []string{"view"}})
	require.NoError(t, err)

	all, total, err := f.service.List(ctx, sysAdmin(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	own, total, err := f.service.List(ctx, companyAdmin("co-1"), ListFilter{CompanyID: "co-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "co-1", own[0].CompanyID, "company filter is forced to the actor's company")

	assigned, total, err := f.service.List(ctx, &authz.Actor{ID: "ctr-2", Role: authz.RoleContractorTeamMember}, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, app1.ID, assigned[0].ID)

	_, _, err = f.service.List(ctx, sysAdmin(), ListFilter{Phase: "archived"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := companyAdmin("co-1")
	draft := f.mustCreate(t, actor)
	submitted := f.mustCreate(t, actor)
	_, err := f.service.Submit(ctx, actor, submitted.ID, "")
	require.NoError(t, err)

	// Companies may drop their own drafts but not submitted applications.
	assert.NoError(t, f.service.Delete(ctx, actor, draft.ID))
	assert.ErrorIs(t, f.service.Delete(ctx, actor, submitted.ID), ErrNotDraft)
	assert.ErrorIs(t, f.service.Delete(ctx, companyAdmin("co-2"), submitted.ID), httpx.ErrForbidden)

	// System admins may remove anything.
	assert.NoError(t, f.service.Delete(ctx, sysAdmin(), submitted.ID))
}

func TestBulkDeleteAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.mustCreate(t, companyAdmin("co-1"))
	b := f.mustCreate(t, companyAdmin("co-2"))

	_, err := f.service.BulkDelete(ctx, companyAdmin("co-1"), []string{a.ID, b.ID})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	deleted, err := f.service.BulkDelete(ctx, sysAdmin(), []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func TestExpireStaleDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.mustCreate(t, companyAdmin("co-1"))
	fresh := f.mustCreate(t, companyAdmin("co-1"))

	old := f.repo.apps[stale.ID]
	old.UpdatedAt = time.Now().Add(-120 * 24 * time.Hour)
	f.repo.apps[stale.ID] = old

	deleted, err := f.service.ExpireStaleDrafts(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = f.service.Get(ctx, sysAdmin(), fresh.ID)
	assert.NoError(t, err)
}
