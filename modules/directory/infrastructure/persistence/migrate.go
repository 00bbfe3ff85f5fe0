package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func newMigrationProvider(db *sql.DB, dialect Dialect) (*goose.Provider, error) {
	var (
		gd  goose.Dialect
		dir string
	)
	switch dialect {
	case DialectPostgres:
		gd, dir = goose.DialectPostgres, "migrations/postgres"
	case DialectSQLite:
		gd, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return nil, errors.New("migrate: unsupported dialect " + string(dialect))
	}
	sub, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(gd, db, sub)
}

// MigrateUp applies every pending migration and returns the versions applied.
func MigrateUp(ctx context.Context, db *sql.DB, dialect Dialect) ([]int64, error) {
	p, err := newMigrationProvider(db, dialect)
	if err != nil {
		return nil, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return nil, err
	}
	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB, dialect Dialect) error {
	p, err := newMigrationProvider(db, dialect)
	if err != nil {
		return err
	}
	_, err = p.Down(ctx)
	return err
}

// MigrationVersion reports the current schema version.
func MigrationVersion(ctx context.Context, db *sql.DB, dialect Dialect) (int64, error) {
	p, err := newMigrationProvider(db, dialect)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}
