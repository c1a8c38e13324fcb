package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.Database.Driver != "sqlite3" {
		t.Fatalf("default driver %q, want sqlite3", cfg.Database.Driver)
	}
	if cfg.ServerPort != 8080 {
		t.Fatalf("default port %d, want 8080", cfg.ServerPort)
	}
	if cfg.Storage.Backend != "none" || cfg.MQ.Backend != "none" {
		t.Fatalf("default backends %q/%q, want none/none", cfg.Storage.Backend, cfg.MQ.Backend)
	}
	if cfg.IsProduction() {
		t.Fatal("dev config must not report production")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("ADMIN_EMAILS", " Admin@Example.com , teacher@example.com ,")

	cfg := LoadConfig()

	if !cfg.IsProduction() {
		t.Fatal("expected production env")
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Port != 5433 || !cfg.Database.UseSSL {
		t.Fatalf("database overrides not applied: %+v", cfg.Database)
	}

	want := []string{"admin@example.com", "teacher@example.com"}
	if len(cfg.Auth.AdminEmails) != len(want) {
		t.Fatalf("admin emails %v, want %v", cfg.Auth.AdminEmails, want)
	}
	for i, email := range want {
		if cfg.Auth.AdminEmails[i] != email {
			t.Fatalf("admin email %d = %q, want %q", i, cfg.Auth.AdminEmails[i], email)
		}
	}
}
