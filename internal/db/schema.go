package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates all tables and applies backward-compatible column
// additions. Every statement is guarded by an existence check, so it is safe
// to run on every process start and from multiple call sites.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	boolFalse := "BOOLEAN NOT NULL DEFAULT 0"
	if db.DriverName() == "postgres" {
		serial = "SERIAL PRIMARY KEY"
		boolFalse = "BOOLEAN NOT NULL DEFAULT FALSE"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			email TEXT NOT NULL UNIQUE,
			name TEXT,
			password_hash TEXT NOT NULL,
			has_purchased %s,
			created_at TIMESTAMP NOT NULL
		)`, serial, boolFalse),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sessions (
			id %s,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			title TEXT,
			thumbnail_url TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS modules (
			id %s,
			course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			module_index INTEGER NOT NULL,
			title TEXT,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (course_id, module_index)
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS lessons (
			id %s,
			course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			module_index INTEGER NOT NULL,
			lesson_index INTEGER NOT NULL,
			title TEXT,
			content TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (course_id, module_index, lesson_index)
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS lesson_files (
			id %s,
			lesson_id INTEGER NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			content_type TEXT NOT NULL,
			storage_key TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_lesson_files_lesson_id ON lesson_files(lesson_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	// Columns added after the initial release land here so older database
	// files upgrade in place.
	if err := addColumnIfMissing(ctx, db, "users", "has_purchased", boolFalse); err != nil {
		return err
	}

	return nil
}

func addColumnIfMissing(ctx context.Context, db *sqlx.DB, table, column, definition string) error {
	exists, err := hasColumn(ctx, db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	if err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func hasColumn(ctx context.Context, db *sqlx.DB, table, column string) (bool, error) {
	if db.DriverName() == "postgres" {
		var count int
		err := db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM information_schema.columns WHERE table_name = $1 AND column_name = $2`,
			table, column)
		return count > 0, err
	}

	rows, err := db.QueryxContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultVal, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
