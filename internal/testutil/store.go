// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"restaurant-pos/internal/config"
	"restaurant-pos/internal/database/sqlite"
	"restaurant-pos/internal/logger"
)

// NewStore opens a migrated SQLite store in a temp dir, closed on cleanup
func NewStore(t testing.TB) *sqlite.DB {
	t.Helper()

	ctx := context.Background()
	dsn := config.SQLiteDSN("sqlite://" + filepath.Join(t.TempDir(), "pos.db"))

	db, err := sqlite.Open(ctx, dsn, NewLogger())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

// NewLogger returns a logger that discards below error level
func NewLogger() *logger.Logger {
	return logger.NewWithWriter("test", &bytes.Buffer{}, slog.LevelError)
}
