// Package applications implements the multi-phase grant application
// lifecycle: drafting, submission, administrator review, installation and
// completion, plus contractor assignment with per-application capabilities.
package applications

import (
	"time"

	"github.com/aurora-grants/aurora-grants/internal/authz"
)

// Phase is the lifecycle stage of an application.
type Phase string

// Application phases in lifecycle order.
const (
	PhaseDraft        Phase = "draft"
	PhaseSubmitted    Phase = "submitted"
	PhaseUnderReview  Phase = "under_review"
	PhaseApproved     Phase = "approved"
	PhaseRejected     Phase = "rejected"
	PhaseInstallation Phase = "installation"
	PhaseCompleted    Phase = "completed"
)

// AllPhases lists every phase, for filter validation.
func AllPhases() []Phase {
	return []Phase{
		PhaseDraft, PhaseSubmitted, PhaseUnderReview,
		PhaseApproved, PhaseRejected, PhaseInstallation, PhaseCompleted,
	}
}

// Editable reports whether company-side edits are still allowed.
func (p Phase) Editable() bool {
	return p == PhaseDraft
}

// Terminal reports whether the application has reached a final phase.
func (p Phase) Terminal() bool {
	return p == PhaseRejected || p == PhaseCompleted
}

// ContractorAssignment grants a contractor user capabilities on one
// application. Stored as jsonb alongside the application row.
type ContractorAssignment struct {
	UserID       string             `json:"user_id"`
	Capabilities []authz.Capability `json:"capabilities"`
}

// Application is a grant application for energy-efficiency incentive
// funding at one facility.
type Application struct {
	ID                 string                 `json:"id"`
	CompanyID          string                 `json:"company_id"`
	Title              string                 `json:"title"`
	FacilitySector     string                 `json:"facility_sector"`
	FacilityCategory   string                 `json:"facility_category"`
	FacilityType       string                 `json:"facility_type"`
	TemplateID         string                 `json:"template_id"`
	ProjectCost        float64                `json:"project_cost"`
	EstimatedIncentive float64                `json:"estimated_incentive"`
	ApprovedIncentive  *float64               `json:"approved_incentive,omitempty"`
	Phase              Phase                  `json:"phase"`
	DecisionNote       string                 `json:"decision_note,omitempty"`
	CreatedBy          string                 `json:"created_by"`
	SubmittedAt        *time.Time             `json:"submitted_at,omitempty"`
	DecidedAt          *time.Time             `json:"decided_at,omitempty"`
	AssignedUsers      []ContractorAssignment `json:"assigned_to_users"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// AuthzContext converts the application into the resolver's resource
// context for contractor capability checks.
func (a Application) AuthzContext() *authz.ApplicationContext {
	assignments := make([]authz.Assignment, 0, len(a.AssignedUsers))
	for _, entry := range a.AssignedUsers {
		assignments = append(assignments, authz.Assignment{
			UserID:       entry.UserID,
			Capabilities: entry.Capabilities,
		})
	}
	return &authz.ApplicationContext{ApplicationID: a.ID, AssignedUsers: assignments}
}
