package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"taskhub/internal/database/migrations"
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Connect opens and pings a connection pool for driver ("mysql" or "sqlite").
func Connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	driverName, dsn, err := prepareDSN(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.WithField("driver", driver).Info("database connected")
	return db, nil
}

func prepareDSN(driver, dsn string) (string, string, error) {
	switch driver {
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		// DATE/DATETIME columns are scanned into time.Time
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		// report matched rows so an UPDATE that changes nothing is not a miss
		cfg.ClientFoundRows = true
		return "mysql", cfg.FormatDSN(), nil
	case "sqlite":
		return "sqlite", withSQLitePragmas(dsn), nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", driver)
	}
}

func withSQLitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
}

// RunMigrations applies the embedded migrations of the driver's dialect.
func RunMigrations(ctx context.Context, db *sql.DB, driver string) error {
	dialect := "mysql"
	if driver == "sqlite" {
		dialect = "sqlite3"
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(log.StandardLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, driver); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}
