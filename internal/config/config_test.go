package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
store:
  addrs: ["redis-1:6379", "redis-2:6379"]
  password: secret
  db: 2
schema:
  path: schemas/users.yaml
logging:
  level: debug
metrics:
  addr: ":9100"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Store.Addrs) != 2 || cfg.Store.Addrs[0] != "redis-1:6379" {
		t.Errorf("addrs = %v", cfg.Store.Addrs)
	}
	if cfg.Store.Password != "secret" || cfg.Store.DB != 2 {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Schema.Path != "schemas/users.yaml" {
		t.Errorf("schema path = %q", cfg.Schema.Path)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Store.Addrs) != 1 || cfg.Store.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.Store.Addrs)
	}
	if cfg.Store.ReadinessTimeout != 10 {
		t.Errorf("readiness timeout = %d", cfg.Store.ReadinessTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if cfg.Schema.Path != "schema.yaml" {
		t.Errorf("schema path = %q", cfg.Schema.Path)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("metrics addr = %q, want disabled", cfg.Metrics.Addr)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SEARCHDEX_TEST_PASSWORD", "from-env")

	cfg, err := Load(writeConfig(t, `
store:
  password: ${SEARCHDEX_TEST_PASSWORD}
  username: ${SEARCHDEX_TEST_MISSING:-fallback}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Password != "from-env" {
		t.Errorf("password = %q", cfg.Store.Password)
	}
	if cfg.Store.Username != "fallback" {
		t.Errorf("username = %q", cfg.Store.Username)
	}
}

func TestLoad_InvalidLevel(t *testing.T) {
	_, err := Load(writeConfig(t, "logging:\n  level: loud\n"))
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
