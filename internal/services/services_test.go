package services

import (
	"context"
	"testing"

	"github.com/coursekit/apiserver/internal/db"
	"github.com/coursekit/apiserver/internal/store"
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

func newTestAuthService(t *testing.T) (*AuthService, *sqlx.DB) {
	t.Helper()
	conn := newTestDB(t)
	return NewAuthService(store.NewUserRepository(conn), store.NewSessionRepository(conn)), conn
}

func newTestContentService(t *testing.T) *ContentService {
	t.Helper()
	return newTestContentServiceWithRemover(t, nil)
}

func newTestContentServiceWithRemover(t *testing.T, objects ObjectRemover) *ContentService {
	t.Helper()
	conn := newTestDB(t)
	return NewContentService(store.NewLessonRepository(conn), store.NewCourseRepository(conn), objects)
}
