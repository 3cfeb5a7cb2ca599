package companies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// ListFilter narrows a company listing.
type ListFilter struct {
	Search string
	Page   shared.PageRequest
}

// Repository defines persistence operations for companies.
type Repository interface {
	Get(ctx context.Context, id string) (Company, error)
	List(ctx context.Context, filter ListFilter) ([]Company, int, error)
	Create(ctx context.Context, company Company) error
	Update(ctx context.Context, company Company) (Company, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const companyColumns = `id, name, COALESCE(legal_name,''), COALESCE(address,''), COALESCE(city,''), COALESCE(province,''), COALESCE(postal_code,''), COALESCE(contact_email,''), COALESCE(contact_phone,''), created_at, updated_at`

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.LegalName, &c.Address, &c.City, &c.Province, &c.PostalCode, &c.ContactEmail, &c.ContactPhone, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Get fetches a company by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, id)
	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.ErrNotFound
		}
		return Company{}, err
	}
	return company, nil
}

// List returns companies matching the filter with a total count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Company, int, error) {
	where := "1=1"
	args := []any{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		where = fmt.Sprintf("(lower(name) LIKE $%d OR lower(legal_name) LIKE $%d)", len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.PerPage, filter.Page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`, companyColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, company)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create inserts a new company.
func (r *PGRepository) Create(ctx context.Context, company Company) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO companies (id, name, legal_name, address, city, province, postal_code, contact_email, contact_phone, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), NOW(), NOW())`,
		company.ID, company.Name, company.LegalName, company.Address, company.City, company.Province, company.PostalCode, company.ContactEmail, company.ContactPhone)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// Update replaces a company's profile fields.
func (r *PGRepository) Update(ctx context.Context, company Company) (Company, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE companies SET name=$2, legal_name=NULLIF($3,''), address=NULLIF($4,''), city=NULLIF($5,''), province=NULLIF($6,''), postal_code=NULLIF($7,''), contact_email=NULLIF($8,''), contact_phone=NULLIF($9,''), updated_at=NOW()
		WHERE id=$1
		RETURNING `+companyColumns,
		company.ID, company.Name, company.LegalName, company.Address, company.City, company.Province, company.PostalCode, company.ContactEmail, company.ContactPhone)
	updated, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.ErrNotFound
		}
		return Company{}, err
	}
	return updated, nil
}

var _ Repository = (*PGRepository)(nil)
