package store

import (
	"context"
	"testing"

	"github.com/coursekit/apiserver/internal/db"
	"github.com/coursekit/apiserver/types"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Open("sqlite3", "file::memory:?_fk=1")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.EnsureSchema(context.Background(), conn); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return conn
}

func createTestUser(t *testing.T, repo *UserRepository, email string) types.User {
	t.Helper()

	user, err := repo.Create(context.Background(), types.User{
		Email:        email,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func countSessions(t *testing.T, conn *sqlx.DB, userID int) int {
	t.Helper()

	var count int
	if err := conn.Get(&count, "SELECT COUNT(*) FROM sessions WHERE user_id = ?", userID); err != nil {
		t.Fatalf("count sessions for user %d: %v", userID, err)
	}
	return count
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	conn := newTestDB(t)

	// A second run must not fail on existing tables or columns.
	if err := db.EnsureSchema(context.Background(), conn); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}
}
