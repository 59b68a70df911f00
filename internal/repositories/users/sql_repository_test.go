package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/common"
	"taskhub/internal/models"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func userRow(u models.User) *sqlmock.Rows {
	cols := []string{"id", "email", "password_hash", "first_name", "last_name", "is_active", "is_staff", "is_superuser", "is_verified", "date_joined", "last_login", "updated_at"}
	var lastLogin any
	if u.LastLogin != nil {
		lastLogin = *u.LastLogin
	}
	return sqlmock.NewRows(cols).AddRow(u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.IsActive, u.IsStaff, u.IsSuperuser, u.IsVerified, u.DateJoined, lastLogin, u.UpdatedAt)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT INTO users \(id, email, password_hash`).
		WithArgs("u-1", "ada@example.com", "hash", "Ada", "Lovelace", true, false, false, false, fixedNow, nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := repo.Create(context.Background(), &models.User{
		ID: "u-1", Email: "ada@example.com", PasswordHash: "hash", FirstName: "Ada", LastName: "Lovelace", IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, u.DateJoined)
	assert.Equal(t, fixedNow, u.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "ada@example.com"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT INTO users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	login := fixedNow.Add(-time.Hour)
	want := models.User{ID: "u-1", Email: "ada@example.com", IsActive: true, DateJoined: fixedNow, UpdatedAt: fixedNow, LastLogin: &login}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE LOWER(email) = LOWER(?)`)).
		WithArgs("ADA@example.com").
		WillReturnRows(userRow(want))

	got, err := repo.GetByEmail(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.LastLogin)
	assert.Equal(t, login, *got.LastLogin)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExistsByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER(?) AND id <> ?`)).
		WithArgs("ada@example.com", "u-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.ExistsByEmail(context.Background(), "ada@example.com", "u-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE users SET email = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), &models.User{ID: "ghost"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE users SET email = \?`).
		WithArgs("new@example.com", "hash", "Ada", "L", true, false, false, true, nil, fixedNow, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := repo.Update(context.Background(), &models.User{
		ID: "u-1", Email: "new@example.com", PasswordHash: "hash", FirstName: "Ada", LastName: "L", IsActive: true, IsVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, u.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = ?`)).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = ?`)).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "u-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "ghost"), common.ErrNotFound)
}

func TestList_FiltersAndOrdering(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	start := fixedNow.Add(-48 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users WHERE (LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!') AND date_joined >= ?`)).
		WithArgs("%ada%", "%ada%", "%ada%", start).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY first_name DESC, id LIMIT ? OFFSET ?`)).
		WithArgs("%ada%", "%ada%", "%ada%", start, 10, 10).
		WillReturnRows(userRow(models.User{ID: "u-1", Email: "ada@example.com", DateJoined: fixedNow, UpdatedAt: fixedNow}))

	got, total, err := repo.List(context.Background(),
		Filter{Search: " Ada ", StartDate: &start, OrderBy: "-first_name"},
		models.PageRequest{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, got, 1)
	assert.Equal(t, "u-1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "email ASC, id", orderClause("email"))
	assert.Equal(t, "date_joined DESC, id", orderClause("-date_joined"))
	assert.Equal(t, "date_joined DESC, id", orderClause("password_hash; DROP TABLE users"))
	assert.True(t, ValidOrderBy("-last_name"))
	assert.False(t, ValidOrderBy("is_superuser"))
}
