package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "daybreak.db" {
		t.Errorf("DBPath = %q, want daybreak.db", cfg.DBPath)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d, want 90", cfg.RetentionDays)
	}
}

func TestLoadReadsYAMLAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "port: \"9000\"\nretention_days: 14\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.RetentionDays != 14 {
		t.Errorf("RetentionDays = %d, want 14", cfg.RetentionDays)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info default", cfg.LogLevel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"9000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DAYBREAK_PORT", "7070")
	t.Setenv("DAYBREAK_RETENTION_DAYS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Port = %q, want env override 7070", cfg.Port)
	}
	if cfg.RetentionDays != 7 {
		t.Errorf("RetentionDays = %d, want env override 7", cfg.RetentionDays)
	}
}
