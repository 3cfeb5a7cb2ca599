package stats

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates program figures straight from the database.
type Repository interface {
	Summarize(ctx context.Context) (Summary, error)
}

// PGRepository computes the summary with aggregate queries.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Summarize runs the aggregate queries and assembles the dashboard payload.
func (r *PGRepository) Summarize(ctx context.Context) (Summary, error) {
	summary := Summary{
		ApplicationsByPhase: map[string]int{},
		GeneratedAt:         time.Now().UTC(),
	}

	rows, err := r.pool.Query(ctx, `SELECT phase, COUNT(*) FROM applications GROUP BY phase`)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var phase string
		var n int
		if err := rows.Scan(&phase, &n); err != nil {
			return Summary{}, err
		}
		summary.ApplicationsByPhase[phase] = n
		summary.TotalApplications += n
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(estimated_incentive), 0), COALESCE(SUM(approved_incentive), 0)
		FROM applications`).Scan(&summary.EstimatedIncentives, &summary.ApprovedIncentives)
	if err != nil {
		return Summary{}, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&summary.Companies); err != nil {
		return Summary{}, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contractor_orgs`).Scan(&summary.ContractorOrgs); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

var _ Repository = (*PGRepository)(nil)
