package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coursekit/apiserver/internal/db"
	"github.com/coursekit/apiserver/internal/services"
	"github.com/coursekit/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// newTestRouter wires the real stores and services over an in-memory
// database, mirroring the server wiring minus object storage and the
// event broker.
func newTestRouter(t *testing.T, adminEmails ...string) *chi.Mux {
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

	authService := services.NewAuthService(store.NewUserRepository(conn), store.NewSessionRepository(conn))
	contentService := services.NewContentService(store.NewLessonRepository(conn), store.NewCourseRepository(conn), nil)
	events := services.NewEventPublisher(nil, nil)

	authHandler := NewAuthHandler(authService, events, adminEmails, false)
	lessonHandler := NewLessonHandler(contentService, events)
	adminHandler := NewAdminHandler(authService)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authHandler)
	})
	router.Route("/courses", func(r chi.Router) {
		LessonRouter(r, lessonHandler, authHandler.RequireSession, authHandler.RequireAdmin)
	})
	router.Route("/admin", func(r chi.Router) {
		AdminRouter(r, adminHandler, authHandler.RequireSession, authHandler.RequireAdmin)
	})
	return router
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

func register(t *testing.T, router *chi.Mux, email, password string) *http.Cookie {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	return sessionCookie(t, rec)
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}
