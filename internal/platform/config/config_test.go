package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"FIRESTORE_PROJECT_ID": "demo-project",
			"AUTH_SIGNING_SECRET":  "s3cret",
		}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Fatalf("port = %q, want %q", cfg.Server.Port, defaultPort)
	}
	if cfg.Auth.TokenTTL != defaultTokenTTL {
		t.Fatalf("token ttl = %v, want %v", cfg.Auth.TokenTTL, defaultTokenTTL)
	}
	if cfg.Orders.RestockOnCancel {
		t.Fatalf("restock on cancel should default to false")
	}
	if cfg.Events.ProjectID != "demo-project" {
		t.Fatalf("events project should fall back to firestore project, got %q", cfg.Events.ProjectID)
	}
	if cfg.Bootstrap.SeedSampleData {
		t.Fatalf("seed sample data should default to false")
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{}))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	fields := verr.Fields()
	if len(fields) != 2 {
		t.Fatalf("missing fields = %v", fields)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"FIRESTORE_PROJECT_ID":    "demo-project",
			"AUTH_SIGNING_SECRET":     "s3cret",
			"AUTH_TOKEN_TTL":          "30m",
			"PORT":                    "9090",
			"ORDER_RESTOCK_ON_CANCEL": "true",
			"EVENTS_TOPIC":            "order-events",
			"EVENTS_PROJECT_ID":       "events-project",
		}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if !cfg.Orders.RestockOnCancel {
		t.Fatalf("restock on cancel should be enabled")
	}
	if cfg.Events.ProjectID != "events-project" {
		t.Fatalf("events project = %q", cfg.Events.ProjectID)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nFIRESTORE_PROJECT_ID=file-project\nexport AUTH_SIGNING_SECRET=\"file-secret\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Firestore.ProjectID != "file-project" {
		t.Fatalf("project = %q", cfg.Firestore.ProjectID)
	}
	if cfg.Auth.SigningSecret != "file-secret" {
		t.Fatalf("secret = %q", cfg.Auth.SigningSecret)
	}
}
