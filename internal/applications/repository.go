package applications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// ListFilter narrows and orders application listings.
type ListFilter struct {
	CompanyID      string
	Phase          Phase
	Sector         string
	Search         string
	AssignedUserID string
	SortBy         string
	SortDesc       bool
	Page           shared.PageRequest
}

// Repository is the persistence boundary for applications.
type Repository interface {
	Get(ctx context.Context, id string) (Application, error)
	List(ctx context.Context, filter ListFilter) ([]Application, int, error)
	Create(ctx context.Context, app Application) (Application, error)
	UpdateDraft(ctx context.Context, app Application) (Application, error)
	MarkSubmitted(ctx context.Context, id string, at time.Time, estimate float64) (Application, error)
	SetPhase(ctx context.Context, id string, phase Phase, note string, approved *float64, decidedAt *time.Time) (Application, error)
	ReplaceAssignments(ctx context.Context, id string, assignments []ContractorAssignment) (Application, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int64, error)
	StaleDraftIDs(ctx context.Context, olderThan time.Time) ([]string, error)
}

// PGRepository stores applications in PostgreSQL. Contractor assignments
// live in a jsonb column on the row so capability checks need no join.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const applicationColumns = `id, company_id, title, facility_sector, facility_category, facility_type,
	template_id, project_cost, estimated_incentive, approved_incentive, phase,
	COALESCE(decision_note, ''), created_by, submitted_at, decided_at,
	COALESCE(assigned_users, '[]'::jsonb), created_at, updated_at`

func scanApplication(row pgx.Row) (Application, error) {
	var app Application
	var assigned []byte
	err := row.Scan(
		&app.ID, &app.CompanyID, &app.Title,
		&app.FacilitySector, &app.FacilityCategory, &app.FacilityType,
		&app.TemplateID, &app.ProjectCost, &app.EstimatedIncentive, &app.ApprovedIncentive,
		&app.Phase, &app.DecisionNote, &app.CreatedBy,
		&app.SubmittedAt, &app.DecidedAt, &assigned,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return Application{}, err
	}
	if err := json.Unmarshal(assigned, &app.AssignedUsers); err != nil {
		return Application{}, fmt.Errorf("decode assignments: %w", err)
	}
	return app, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Application, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err == pgx.ErrNoRows {
		return Application{}, httpx.ErrNotFound
	}
	return app, err
}

var sortColumns = map[string]string{
	"title":        "title",
	"phase":        "phase",
	"project_cost": "project_cost",
	"submitted_at": "submitted_at",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Application, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.CompanyID != "" {
		where = append(where, "company_id = "+arg(filter.CompanyID))
	}
	if filter.Phase != "" {
		where = append(where, "phase = "+arg(string(filter.Phase)))
	}
	if filter.Sector != "" {
		where = append(where, "facility_sector = "+arg(filter.Sector))
	}
	if filter.Search != "" {
		where = append(where, "title ILIKE "+arg("%"+filter.Search+"%"))
	}
	if filter.AssignedUserID != "" {
		where = append(where, `assigned_users @> `+arg(fmt.Sprintf(`[{"user_id":%q}]`, filter.AssignedUserID)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if col, ok := sortColumns[filter.SortBy]; ok {
		order = col
	}
	dir := "ASC"
	if filter.SortDesc {
		dir = "DESC"
	}
	query := fmt.Sprintf(
		`SELECT %s FROM applications WHERE %s ORDER BY %s %s, id LIMIT %s OFFSET %s`,
		applicationColumns, cond, order, dir,
		arg(filter.Page.Limit()), arg(filter.Page.Offset()))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, app)
	}
	return apps, total, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, app Application) (Application, error) {
	assigned, err := json.Marshal(app.AssignedUsers)
	if err != nil {
		return Application{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO applications
			(id, company_id, title, facility_sector, facility_category, facility_type,
			 template_id, project_cost, estimated_incentive, phase, created_by, assigned_users)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+applicationColumns,
		app.ID, app.CompanyID, app.Title,
		app.FacilitySector, app.FacilityCategory, app.FacilityType,
		app.TemplateID, app.ProjectCost, app.EstimatedIncentive,
		string(app.Phase), app.CreatedBy, assigned)
	created, err := scanApplication(row)
	if pgErr, ok := errAs(err); ok && pgErr.Code == "23505" {
		return Application{}, httpx.ErrDuplicate
	}
	return created, err
}

func (r *PGRepository) UpdateDraft(ctx context.Context, app Application) (Application, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE applications SET
			title = $2, facility_sector = $3, facility_category = $4, facility_type = $5,
			template_id = $6, project_cost = $7, estimated_incentive = $8, updated_at = now()
		WHERE id = $1 AND phase = 'draft'
		RETURNING `+applicationColumns,
		app.ID, app.Title,
		app.FacilitySector, app.FacilityCategory, app.FacilityType,
		app.TemplateID, app.ProjectCost, app.EstimatedIncentive)
	updated, err := scanApplication(row)
	if err == pgx.ErrNoRows {
		return Application{}, httpx.ErrNotFound
	}
	return updated, err
}

func (r *PGRepository) MarkSubmitted(ctx context.Context, id string, at time.Time, estimate float64) (Application, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE applications
		SET phase = 'submitted', submitted_at = $2, estimated_incentive = $3, updated_at = now()
		WHERE id = $1 AND phase = 'draft'
		RETURNING `+applicationColumns, id, at, estimate)
	app, err := scanApplication(row)
	if err == pgx.ErrNoRows {
		return Application{}, httpx.ErrNotFound
	}
	return app, err
}

func (r *PGRepository) SetPhase(ctx context.Context, id string, phase Phase, note string, approved *float64, decidedAt *time.Time) (Application, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE applications
		SET phase = $2,
			decision_note = NULLIF($3, ''),
			approved_incentive = COALESCE($4, approved_incentive),
			decided_at = COALESCE($5, decided_at),
			updated_at = now()
		WHERE id = $1
		RETURNING `+applicationColumns,
		id, string(phase), note, approved, decidedAt)
	app, err := scanApplication(row)
	if err == pgx.ErrNoRows {
		return Application{}, httpx.ErrNotFound
	}
	return app, err
}

func (r *PGRepository) ReplaceAssignments(ctx context.Context, id string, assignments []ContractorAssignment) (Application, error) {
	encoded, err := json.Marshal(assignments)
	if err != nil {
		return Application{}, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE applications SET assigned_users = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+applicationColumns, id, encoded)
	app, err := scanApplication(row)
	if err == pgx.ErrNoRows {
		return Application{}, httpx.ErrNotFound
	}
	return app, err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM applications WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) StaleDraftIDs(ctx context.Context, olderThan time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM applications WHERE phase = 'draft' AND updated_at < $1`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func errAs(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	ok := errors.As(err, &pgErr)
	return pgErr, ok
}
