package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareDSN_MySQLForcesParseTime(t *testing.T) {
	name, dsn, err := prepareDSN("mysql", "root:pw@tcp(localhost:3306)/taskhub")
	require.NoError(t, err)
	assert.Equal(t, "mysql", name)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")
}

func TestPrepareDSN_SQLiteAddsPragmas(t *testing.T) {
	_, dsn, err := prepareDSN("sqlite", "taskhub.db")
	require.NoError(t, err)
	assert.Equal(t, "taskhub.db?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dsn)

	_, dsn, err = prepareDSN("sqlite", "taskhub.db?_txlock=immediate")
	require.NoError(t, err)
	assert.Equal(t, "taskhub.db?_txlock=immediate&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dsn)
}

func TestPrepareDSN_Errors(t *testing.T) {
	_, _, err := prepareDSN("postgres", "x")
	assert.Error(t, err)

	_, _, err = prepareDSN("mysql", "::not a dsn")
	assert.Error(t, err)
}

func TestRunMigrations_SQLiteSchema(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db, "sqlite"))
	// idempotent
	require.NoError(t, RunMigrations(ctx, db, "sqlite"))

	now := time.Now().UTC()
	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, date_joined, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"u1", "a@x.com", "hash", now, now)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, date_joined, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"u2", "A@x.com", "hash", now, now)
	assert.Error(t, err, "email must be unique regardless of case")

	_, err = db.ExecContext(ctx, `INSERT INTO tasks (id, title, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"t1", "T", "u1", now, now)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, "u1")
	require.NoError(t, err)

	var owner *string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT owner_id FROM tasks WHERE id = ?`, "t1").Scan(&owner))
	assert.Nil(t, owner, "owner must be nulled, not cascaded")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("db error: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1451}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))

	ctx := context.Background()
	db, err := Connect(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(ctx, db, "sqlite"))

	now := time.Now().UTC()
	insert := `INSERT INTO users (id, email, password_hash, date_joined, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, insert, "u1", "a@x.com", "hash", now, now)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "u2", "a@x.com", "hash", now, now)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Report", "%report%"},
		{"100%", "%100!%%"},
		{"a_b", "%a!_b%"},
		{"wow!", "%wow!!%"},
		{`c:\tmp`, `%c:\tmp%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsPattern(tt.in))
		})
	}
}
