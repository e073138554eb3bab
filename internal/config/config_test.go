package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  env: dev
http:
  addr: ":9090"
postgres:
  dsn: "postgres://u:p@localhost/db"
redis:
  addr: "localhost:6379"
metrics:
  enabled: true
ledger:
  lock_timeout_ms: 750
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Env != "dev" || cfg.HTTP.Addr != ":9090" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Ledger.LockTimeoutMS != 750 {
		t.Errorf("lock_timeout_ms = %d, want 750", cfg.Ledger.LockTimeoutMS)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics.enabled not read")
	}
}

func TestLoadDefaultLockTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  env: prod\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ledger.LockTimeoutMS != 5000 {
		t.Errorf("default lock_timeout_ms = %d, want 5000", cfg.Ledger.LockTimeoutMS)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
