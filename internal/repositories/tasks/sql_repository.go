package tasks

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

const taskColumns = `id, title, description, due_date, status, owner_id, created_at, updated_at`

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

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var (
		due   sql.NullTime
		owner sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &due, &t.Status, &owner, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		d := models.DateOf(due.Time)
		t.DueDate = &d
	}
	if owner.Valid {
		o := owner.String
		t.OwnerID = &o
	}
	return t, nil
}

func dueArg(d *models.Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time, Valid: true}
}

func ownerArg(o *string) sql.NullString {
	if o == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *o, Valid: true}
}

func (r *SQLRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	now := r.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, dueArg(task.DueDate), task.Status, ownerArg(task.OwnerID),
		task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.UpdatedAt = r.now()

	query := `UPDATE tasks SET title = ?, description = ?, due_date = ?, status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, dueArg(task.DueDate), task.Status, task.UpdatedAt, task.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.ErrNotFound
	}
	return task, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID string, f Filter, page models.PageRequest) ([]models.Task, int, error) {
	conds := []string{`owner_id = ?`}
	args := []any{ownerID}
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(f.Status))
	}
	if s := strings.TrimSpace(f.Title); s != "" {
		conds = append(conds, `LOWER(title) LIKE ?`+database.LikeEscape)
		args = append(args, database.ContainsPattern(s))
	}
	where := ` WHERE ` + strings.Join(conds, ` AND `)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit(), page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return out, total, nil
}

func (r *SQLRepository) CountByStatus(ctx context.Context, ownerID string) ([]models.StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM tasks WHERE owner_id = ? GROUP BY status ORDER BY status`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.StatusCount{}
	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
