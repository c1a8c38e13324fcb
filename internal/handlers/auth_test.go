package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name string
		body map[string]string
		want string
	}{
		{"missing email", map[string]string{"password": "secret1"}, "Email and password are required"},
		{"missing password", map[string]string{"email": "a@b.com"}, "Email and password are required"},
		{"short password", map[string]string{"email": "a@b.com", "password": "short"}, "Password must be at least 6 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/auth/register", tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", rec.Code)
			}
			if got := errorMessage(t, rec); got != tc.want {
				t.Fatalf("message %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "secret1",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("session cookie SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Fatalf("session cookie path = %q, want /", cookie.Path)
	}
	if cookie.Value == "" {
		t.Fatal("session cookie must carry the token")
	}
}

func TestRegisterDuplicateEmailMessage(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "foo@bar.com", "secret1")

	rec := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{
		"email":    "FOO@BAR.COM",
		"password": "secret1",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "Email is already registered" {
		t.Fatalf("message %q", got)
	}
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice@example.com", "secret1")

	unknown := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email": "bob@example.com", "password": "secret1",
	}, nil)
	wrong := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email": "alice@example.com", "password": "not-it",
	}, nil)

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("statuses %d/%d, want 401/401", unknown.Code, wrong.Code)
	}
	if unknown.Body.String() != wrong.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", unknown.Body.String(), wrong.Body.String())
	}
	if got := errorMessage(t, unknown); got != "Invalid email or password" {
		t.Fatalf("message %q", got)
	}
}

func TestMeLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// No cookie: null-user 401, never a 500.
	rec := doJSON(t, router, http.MethodGet, "/auth/me", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
	var nullResp struct {
		User *json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &nullResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if nullResp.User != nil {
		t.Fatalf("expected null user, got %s", *nullResp.User)
	}

	cookie := register(t, router, "alice@example.com", "secret1")

	rec = doJSON(t, router, http.MethodGet, "/auth/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var me UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "alice@example.com" {
		t.Fatalf("email %q", me.Email)
	}
	if me.Name != nil {
		t.Fatalf("expected null name, got %v", *me.Name)
	}

	// Logout revokes the session and clears the cookie.
	rec = doJSON(t, router, http.MethodPost, "/auth/logout", nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status %d", rec.Code)
	}
	cleared := sessionCookie(t, rec)
	if cleared.MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, MaxAge %d", cleared.MaxAge)
	}

	// Second logout with the same dead token must not error.
	rec = doJSON(t, router, http.MethodPost, "/auth/logout", nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second logout status %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/auth/me", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: status %d, want 401", rec.Code)
	}
}

func TestAdminUserManagement(t *testing.T) {
	router := newTestRouter(t, "admin@example.com")
	adminCookie := register(t, router, "admin@example.com", "secret1")
	register(t, router, "member@example.com", "secret1")

	// Flip the purchase flag for user id 2.
	rec := doJSON(t, router, http.MethodPut, "/admin/users/2/purchase", map[string]bool{"hasPurchased": true}, adminCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("set purchase: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPut, "/admin/users/2/purchase", `{"hasPurchased": "yes"}`, adminCookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-boolean purchase: status %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPut, "/admin/users/2/purchase", `{"hasPurchased": null}`, adminCookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("null purchase: status %d, want 400", rec.Code)
	}

	// Delete the member; their sessions die with them.
	rec = doJSON(t, router, http.MethodDelete, "/admin/users/2", nil, adminCookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete user: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodDelete, "/admin/users/2", nil, adminCookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d, want 404", rec.Code)
	}

	// Non-admins are rejected.
	memberCookie := register(t, router, "other@example.com", "secret1")
	rec = doJSON(t, router, http.MethodDelete, "/admin/users/1", nil, memberCookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member delete: status %d, want 403", rec.Code)
	}
}
