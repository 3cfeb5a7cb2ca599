package contractors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/db"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// OrgFilter narrows an organization listing.
type OrgFilter struct {
	Sector string
	Search string
	Page   shared.PageRequest
}

// Repository defines persistence for contractor organizations and members.
// Member accounts live in the shared users table.
type Repository interface {
	RegisterOrg(ctx context.Context, org Organization, owner Member, passwordHash string) error
	GetOrg(ctx context.Context, id string) (Organization, error)
	ListOrgs(ctx context.Context, filter OrgFilter) ([]Organization, int, error)
	UpdateOrg(ctx context.Context, org Organization) (Organization, error)

	CreateMember(ctx context.Context, member Member, passwordHash string) error
	GetMember(ctx context.Context, id string) (Member, error)
	ListMembers(ctx context.Context, orgID string) ([]Member, error)
	UpdateMemberRole(ctx context.Context, id string, role authz.Role) (Member, error)
	SetMemberActive(ctx context.Context, id string, active bool) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orgColumns = `id, name, email, COALESCE(phone, ''), COALESCE(service_sectors, '{}'), created_at, updated_at`

func scanOrg(row pgx.Row) (Organization, error) {
	var org Organization
	err := row.Scan(&org.ID, &org.Name, &org.Email, &org.Phone, &org.ServiceSectors, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}

// RegisterOrg inserts an organization and its owning account atomically, so
// a duplicate owner email never leaves an orphaned organization behind.
func (r *PGRepository) RegisterOrg(ctx context.Context, org Organization, owner Member, passwordHash string) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO contractor_orgs (id, name, email, phone, service_sectors, created_at, updated_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW(), NOW())`,
			org.ID, org.Name, org.Email, org.Phone, org.ServiceSectors); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, name, password_hash, role, company_id, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, NOW(), NOW())`,
			owner.ID, owner.Email, owner.Name, passwordHash, string(owner.Role), owner.OrgID, owner.IsActive)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetOrg fetches an organization by ID.
func (r *PGRepository) GetOrg(ctx context.Context, id string) (Organization, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM contractor_orgs WHERE id=$1`, id)
	org, err := scanOrg(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, shared.ErrNotFound
		}
		return Organization{}, err
	}
	return org, nil
}

// ListOrgs returns organizations matching the filter with a total count.
func (r *PGRepository) ListOrgs(ctx context.Context, filter OrgFilter) ([]Organization, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Sector != "" {
		args = append(args, filter.Sector)
		where = append(where, fmt.Sprintf("(service_sectors = '{}' OR $%d = ANY(service_sectors))", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		where = append(where, fmt.Sprintf("lower(name) LIKE $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contractor_orgs WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.PerPage, filter.Page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM contractor_orgs WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		orgColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}

// UpdateOrg saves organization profile changes.
func (r *PGRepository) UpdateOrg(ctx context.Context, org Organization) (Organization, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE contractor_orgs
		SET name=$2, email=$3, phone=NULLIF($4, ''), service_sectors=$5, updated_at=NOW()
		WHERE id=$1
		RETURNING `+orgColumns,
		org.ID, org.Name, org.Email, org.Phone, org.ServiceSectors)
	updated, err := scanOrg(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, shared.ErrNotFound
		}
		return Organization{}, err
	}
	return updated, nil
}

const memberColumns = `id, COALESCE(company_id::text, ''), name, email, role, is_active, created_at`

const contractorRoles = `('contractor_individual', 'contractor_account_owner', 'contractor_manager', 'contractor_team_member')`

func scanMember(row pgx.Row) (Member, error) {
	var member Member
	var role string
	err := row.Scan(&member.ID, &member.OrgID, &member.Name, &member.Email, &role, &member.IsActive, &member.CreatedAt)
	if err != nil {
		return Member{}, err
	}
	member.Role = authz.Role(role)
	return member, nil
}

// CreateMember inserts a contractor account into the users table. The
// organization ID rides in the company column.
func (r *PGRepository) CreateMember(ctx context.Context, member Member, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, company_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, NOW(), NOW())`,
		member.ID, member.Email, member.Name, passwordHash, string(member.Role), member.OrgID, member.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetMember fetches a contractor account. Non-contractor accounts report
// not found.
func (r *PGRepository) GetMember(ctx context.Context, id string) (Member, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+` FROM users
		WHERE id=$1 AND role IN `+contractorRoles, id)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, shared.ErrNotFound
		}
		return Member{}, err
	}
	return member, nil
}

// ListMembers returns the organization's accounts.
func (r *PGRepository) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+` FROM users
		WHERE company_id=$1 AND role IN `+contractorRoles+`
		ORDER BY name, email`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// UpdateMemberRole changes a contractor account's role.
func (r *PGRepository) UpdateMemberRole(ctx context.Context, id string, role authz.Role) (Member, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET role=$2, updated_at=NOW()
		WHERE id=$1 AND role IN `+contractorRoles+`
		RETURNING `+memberColumns, id, string(role))
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, shared.ErrNotFound
		}
		return Member{}, err
	}
	return member, nil
}

// SetMemberActive toggles a contractor account's active flag.
func (r *PGRepository) SetMemberActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET is_active=$2, updated_at=NOW()
		WHERE id=$1 AND role IN `+contractorRoles, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
