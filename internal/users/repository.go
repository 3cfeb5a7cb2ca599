package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// ListFilter narrows a user listing.
type ListFilter struct {
	CompanyID string
	Search    string
	Page      shared.PageRequest
}

// Repository defines persistence operations for the users module.
type Repository interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context, filter ListFilter) ([]User, int, error)
	CreateUser(ctx context.Context, user User, passwordHash string) error
	UpdateMember(ctx context.Context, id string, role authz.Role, level authz.PermissionLevel) (User, error)
	SetActive(ctx context.Context, id string, active bool) error

	CreateInvite(ctx context.Context, invite Invite) error
	GetInviteByToken(ctx context.Context, token string) (Invite, error)
	MarkInviteAccepted(ctx context.Context, id string, at time.Time) error
	DeleteExpiredInvites(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, role, COALESCE(permission_level, ''), COALESCE(company_id::text, ''), is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var (
		user  User
		role  string
		level string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &level, &user.CompanyID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	user.Role = authz.Role(role)
	user.PermissionLevel = authz.PermissionLevel(level)
	return user, nil
}

// GetUser fetches a user by ID.
func (r *PGRepository) GetUser(ctx context.Context, id string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// ListUsers returns users matching the filter with a total count.
func (r *PGRepository) ListUsers(ctx context.Context, filter ListFilter) ([]User, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		where = append(where, fmt.Sprintf("company_id=$%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		where = append(where, fmt.Sprintf("(lower(name) LIKE $%d OR lower(email) LIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.PerPage, filter.Page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY name, email LIMIT $%d OFFSET $%d`,
		userColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CreateUser inserts a new account.
func (r *PGRepository) CreateUser(ctx context.Context, user User, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, permission_level, company_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, '')::uuid, $8, NOW(), NOW())`,
		user.ID, user.Email, user.Name, passwordHash, string(user.Role), string(user.PermissionLevel), user.CompanyID, user.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateMember changes a user's role and permission level.
func (r *PGRepository) UpdateMember(ctx context.Context, id string, role authz.Role, level authz.PermissionLevel) (User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET role=$2, permission_level=NULLIF($3, ''), updated_at=NOW()
		WHERE id=$1
		RETURNING `+userColumns, id, string(role), string(level))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// SetActive toggles an account's active flag.
func (r *PGRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateInvite stores a pending invitation.
func (r *PGRepository) CreateInvite(ctx context.Context, invite Invite) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invites (id, email, role, permission_level, company_id, token, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, '')::uuid, $6, $7, $8, NOW())`,
		invite.ID, invite.Email, string(invite.Role), string(invite.PermissionLevel), invite.CompanyID, invite.Token, invite.InvitedBy, invite.ExpiresAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetInviteByToken fetches a pending invitation by its token.
func (r *PGRepository) GetInviteByToken(ctx context.Context, token string) (Invite, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, role, COALESCE(permission_level, ''), COALESCE(company_id::text, ''), token, invited_by, expires_at, accepted_at, created_at
		FROM invites WHERE token=$1`, token)

	var (
		invite Invite
		role   string
		level  string
	)
	err := row.Scan(&invite.ID, &invite.Email, &role, &level, &invite.CompanyID, &invite.Token, &invite.InvitedBy, &invite.ExpiresAt, &invite.AcceptedAt, &invite.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invite{}, shared.ErrNotFound
		}
		return Invite{}, err
	}
	invite.Role = authz.Role(role)
	invite.PermissionLevel = authz.PermissionLevel(level)
	return invite, nil
}

// MarkInviteAccepted stamps the invite as used.
func (r *PGRepository) MarkInviteAccepted(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invites SET accepted_at=$2 WHERE id=$1 AND accepted_at IS NULL`, id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteExpiredInvites removes unaccepted invites past their expiry.
func (r *PGRepository) DeleteExpiredInvites(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invites WHERE accepted_at IS NULL AND expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
