// Package sqlite is the embedded single-file storage backend, selected by a
// sqlite:// or file: DATABASE_URL.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	_ "modernc.org/sqlite"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/store"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite
const DriverName = "sqlite"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a database/sql handle on a SQLite file
type DB struct {
	db     *sql.DB
	logger *logger.Logger
}

var _ store.Store = (*DB)(nil)

// Open opens the database at dsn. Foreign keys must be enabled in the dsn
// for the cascade deletes to apply.
func Open(ctx context.Context, dsn string, log *logger.Logger) (*DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one connection: SQLite admits a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	return &DB{db: db, logger: log}, nil
}

func (s *DB) Close() {
	s.db.Close()
}

func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Queries runs statements directly against the handle
func (s *DB) Queries() store.Queries {
	return &queries{conn: s.db}
}

// WithTx runs fn inside one transaction
func (s *DB) WithTx(ctx context.Context, fn func(q store.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{conn: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RunMigrations applies the embedded schema files not yet recorded
func (s *DB) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createMigrationsTableSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to get migration files: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		var applied bool
		if err := s.db.QueryRowContext(ctx, migrationAppliedSQL, file).Scan(&applied); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", file, err)
		}
		if applied {
			continue
		}

		if err := s.runMigration(ctx, file); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", file, err)
		}
		if s.logger != nil {
			s.logger.Info("migration_applied", fmt.Sprintf("Applied migration: %s", file), "startup", nil)
		}
	}
	return nil
}

func (s *DB) runMigration(ctx context.Context, file string) error {
	content, err := migrationsFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertMigrationSQL, file); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
