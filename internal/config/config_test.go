package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// LoadConfig resolves the file relative to the working directory, so the
// tests build a scratch tree and chdir into it.
func writeTestConfig(t *testing.T, yaml string) {
	t.Helper()

	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "internal", "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "test.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(dir)
}

func TestLoadConfigEnvOverridesYaml(t *testing.T) {
	writeTestConfig(t, `
postgres:
  dsn: "postgres://file-dsn"
monitor:
  log_interval_seconds: 7
  alert_cooldown_seconds: 120
`)
	t.Setenv("DATABASE_DSN", "postgres://env-dsn")
	t.Setenv("LOG_INTERVAL_SECONDS", "11")

	cfg, err := LoadConfig("test.yaml")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Postgres.DSN != "postgres://env-dsn" {
		t.Fatalf("env must win over yaml for DSN, got %q", cfg.Postgres.DSN)
	}
	if cfg.Monitor.LogIntervalSeconds != 11 {
		t.Fatalf("env must win over yaml for log interval, got %d", cfg.Monitor.LogIntervalSeconds)
	}
	// yaml still wins over the built-in default where no env is set
	if cfg.Monitor.AlertCooldownSeconds != 120 {
		t.Fatalf("yaml must win over defaults for cooldown, got %d", cfg.Monitor.AlertCooldownSeconds)
	}
	if cfg.AlertCooldown() != 120*time.Second {
		t.Fatalf("unexpected cooldown duration %v", cfg.AlertCooldown())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	writeTestConfig(t, `
postgres:
  dsn: "postgres://file-dsn"
`)

	cfg, err := LoadConfig("test.yaml")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Monitor.LogIntervalSeconds != 5 {
		t.Fatalf("expected default log interval 5, got %d", cfg.Monitor.LogIntervalSeconds)
	}
	if cfg.Monitor.SnapshotThreshold != 5 {
		t.Fatalf("expected default snapshot threshold 5, got %d", cfg.Monitor.SnapshotThreshold)
	}
	if cfg.Monitor.AlertCooldownSeconds != 60 {
		t.Fatalf("expected default cooldown 60, got %d", cfg.Monitor.AlertCooldownSeconds)
	}
	if len(cfg.Monitor.WornPPEClasses) != 3 {
		t.Fatalf("expected default worn-PPE set, got %v", cfg.Monitor.WornPPEClasses)
	}
	if len(cfg.Severity) != 1 || cfg.Severity[0].Contains != "helmet" || cfg.Severity[0].Level != 4 {
		t.Fatalf("expected default helmet severity rule, got %v", cfg.Severity)
	}
	if !cfg.Monitor.SaveViolationSnapshot {
		t.Fatal("snapshots should be enabled by default")
	}
	if cfg.LogInterval() != 5*time.Second {
		t.Fatalf("unexpected log interval duration %v", cfg.LogInterval())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := LoadConfig("absent.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
