package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskhub/internal/common"
	"taskhub/internal/database"
	"taskhub/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, is_active, is_staff, is_superuser, is_verified, date_joined, last_login, updated_at`

var orderColumns = map[string]string{
	"first_name":  "first_name",
	"last_name":   "last_name",
	"email":       "email",
	"date_joined": "date_joined",
}

// SQLRepository stores users with queries portable between MySQL and SQLite.
type SQLRepository struct {
	db  database.DBTX
	now func() time.Time
}

func NewSQLRepository(db database.DBTX) *SQLRepository {
	return &SQLRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.IsVerified,
		&u.DateJoined, &lastLogin, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := r.now()
	if user.DateJoined.IsZero() {
		user.DateJoined = now
	}
	user.UpdatedAt = now

	query := `INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsActive, user.IsStaff, user.IsSuperuser, user.IsVerified,
		user.DateJoined, nullTime(user.LastLogin), user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `LOWER(email) = LOWER(?)`, email)
}

func (r *SQLRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER(?) AND id <> ?`

	var n int
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	user.UpdatedAt = r.now()

	query := `UPDATE users SET email = ?, password_hash = ?, first_name = ?, last_name = ?,
		is_active = ?, is_staff = ?, is_superuser = ?, is_verified = ?, last_login = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsActive, user.IsStaff, user.IsSuperuser, user.IsVerified,
		nullTime(user.LastLogin), user.UpdatedAt, user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.ErrNotFound
	}
	return user, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, f Filter, page models.PageRequest) ([]models.User, int, error) {
	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		like := database.ContainsPattern(s)
		conds = append(conds, `(LOWER(first_name) LIKE ?`+database.LikeEscape+
			` OR LOWER(last_name) LIKE ?`+database.LikeEscape+
			` OR LOWER(email) LIKE ?`+database.LikeEscape+`)`)
		args = append(args, like, like, like)
	}
	if f.StartDate != nil {
		conds = append(conds, `date_joined >= ?`)
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		conds = append(conds, `date_joined <= ?`)
		args = append(args, *f.EndDate)
	}

	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY ` + orderClause(f.OrderBy) + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit(), page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return out, total, nil
}

// orderClause maps a user supplied ordering onto a whitelisted column. Unknown
// values fall back to newest first.
func orderClause(orderBy string) string {
	desc := strings.HasPrefix(orderBy, "-")
	col, ok := orderColumns[strings.TrimPrefix(orderBy, "-")]
	if !ok {
		return `date_joined DESC, id`
	}
	if desc {
		return col + ` DESC, id`
	}
	return col + ` ASC, id`
}

// ValidOrderBy reports whether orderBy names a sortable column.
func ValidOrderBy(orderBy string) bool {
	_, ok := orderColumns[strings.TrimPrefix(orderBy, "-")]
	return ok
}
