// Package activities manages the admin-configured templates of eligible
// retrofit activities that applications draw their incentive terms from.
package activities

import "time"

// Template describes one eligible retrofit activity.
type Template struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	EligibleSectors []string  `json:"eligible_sectors"`
	IncentiveRate   float64   `json:"incentive_rate"`
	MaxIncentive    float64   `json:"max_incentive"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AppliesToSector reports whether the template covers the NAICS sector.
// An empty eligibility list covers every sector.
func (t Template) AppliesToSector(sector string) bool {
	if len(t.EligibleSectors) == 0 {
		return true
	}
	for _, s := range t.EligibleSectors {
		if s == sector {
			return true
		}
	}
	return false
}

// EstimateIncentive computes the incentive for a project cost: rate times
// cost, capped at the template maximum. Non-positive cost yields zero.
func (t Template) EstimateIncentive(projectCost float64) float64 {
	if projectCost <= 0 {
		return 0
	}
	incentive := projectCost * t.IncentiveRate
	if t.MaxIncentive > 0 && incentive > t.MaxIncentive {
		return t.MaxIncentive
	}
	return incentive
}
