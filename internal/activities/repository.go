package activities

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// Repository defines persistence operations for activity templates.
type Repository interface {
	Get(ctx context.Context, id string) (Template, error)
	List(ctx context.Context, activeOnly bool) ([]Template, error)
	Create(ctx context.Context, template Template) error
	Update(ctx context.Context, template Template) (Template, error)
	Delete(ctx context.Context, id string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const templateColumns = `id, name, COALESCE(description,''), eligible_sectors, incentive_rate, max_incentive, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.EligibleSectors, &t.IncentiveRate, &t.MaxIncentive, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Get fetches a template by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM activity_templates WHERE id=$1`, id)
	template, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, shared.ErrNotFound
		}
		return Template{}, err
	}
	return template, nil
}

// List returns templates, optionally active ones only, ordered by name.
func (r *PGRepository) List(ctx context.Context, activeOnly bool) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM activity_templates`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, template)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new template.
func (r *PGRepository) Create(ctx context.Context, template Template) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_templates (id, name, description, eligible_sectors, incentive_rate, max_incentive, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, $7, NOW(), NOW())`,
		template.ID, template.Name, template.Description, template.EligibleSectors, template.IncentiveRate, template.MaxIncentive, template.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// Update replaces template fields.
func (r *PGRepository) Update(ctx context.Context, template Template) (Template, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE activity_templates SET name=$2, description=NULLIF($3,''), eligible_sectors=$4, incentive_rate=$5, max_incentive=$6, is_active=$7, updated_at=NOW()
		WHERE id=$1
		RETURNING `+templateColumns,
		template.ID, template.Name, template.Description, template.EligibleSectors, template.IncentiveRate, template.MaxIncentive, template.IsActive)
	updated, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, shared.ErrNotFound
		}
		return Template{}, err
	}
	return updated, nil
}

// Delete removes a template.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
