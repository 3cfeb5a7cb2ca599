// Package stats serves program-wide dashboard figures: applications per
// phase, incentive totals and participation counts. Figures are cached in
// Redis and recomputed behind a singleflight guard.
package stats

import "time"

// Summary is the program dashboard payload.
type Summary struct {
	ApplicationsByPhase map[string]int `json:"applications_by_phase"`
	TotalApplications   int            `json:"total_applications"`
	EstimatedIncentives float64        `json:"estimated_incentives"`
	ApprovedIncentives  float64        `json:"approved_incentives"`
	Companies           int            `json:"companies"`
	ContractorOrgs      int            `json:"contractor_orgs"`
	GeneratedAt         time.Time      `json:"generated_at"`
}
