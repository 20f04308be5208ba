// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package history records past backup/restore/clear runs in a local SQLite
// database, so the user can see what was done when and how much of it
// failed. History is advisory: a history failure never fails the run that
// produced it.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/acekeeper/acekeeper/internal/model"
)

//go:embed migrations
var embeddedMigrations embed.FS

// RunModel maps the runs table.
type RunModel struct {
	bun.BaseModel `bun:"table:runs"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Command       string `bun:"command"`
	Target        string `bun:"target"`
	Favorites     int    `bun:"favorites"`
	Credentials   int    `bun:"credentials"`
	Failures      int    `bun:"failures"`
	Details       string `bun:"details"`
}

// Store is the history database handle.
type Store struct {
	db  *sql.DB
	bun *bun.DB
}

// Open opens (creating if necessary) the history database at dbPath and
// applies pending migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// The tool is a sequential single process; one connection avoids the
	// SQLite in-memory per-connection surprise in tests too.
	sqlDB.SetMaxOpenConns(1)

	if err := runMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run history migrations: %w", err)
	}

	return &Store{db: sqlDB, bun: bun.NewDB(sqlDB, sqlitedialect.New())}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one run to the history.
func (s *Store) Record(run model.RunRecord) error {
	if run.Timestamp == "" {
		run.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.bun.NewInsert().Model(&RunModel{
		Timestamp:   run.Timestamp,
		Command:     run.Command,
		Target:      run.Target,
		Favorites:   run.Favorites,
		Credentials: run.Credentials,
		Failures:    run.Failures,
		Details:     run.Details,
	}).Exec(context.Background())
	return err
}

// Recent returns the newest runs, most recent first, up to limit.
func (s *Store) Recent(limit int) ([]model.RunRecord, error) {
	var rows []RunModel
	err := s.bun.NewSelect().Model(&rows).
		OrderExpr("id DESC").
		Limit(limit).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	out := make([]model.RunRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.RunRecord{
			ID: r.ID, Timestamp: r.Timestamp, Command: r.Command,
			Target: r.Target, Favorites: r.Favorites,
			Credentials: r.Credentials, Failures: r.Failures,
			Details: r.Details,
		})
	}
	return out, nil
}

// runMigrations applies embedded .up.sql files in name order, tracking
// applied versions in schema_migrations.
func runMigrations(db *sql.DB) error {
	entries, err := fs.ReadDir(embeddedMigrations, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}

	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, fname := range ups {
		version := strings.TrimSuffix(fname, ".up.sql")

		var exists int
		err := db.QueryRow("SELECT 1 FROM schema_migrations WHERE version = ?", version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %s: %w", version, err)
		}

		data, err := embeddedMigrations.ReadFile(path.Join("migrations/sqlite", fname))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", fname, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %s: %w", version, err)
		}
		if _, err := tx.Exec(string(data)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)", version, time.Now()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("commit migration %s: %w", version, err)
		}
	}
	return nil
}
