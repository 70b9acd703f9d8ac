package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, configFilename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Platform != "linux" || cfg.Machine != "x86_64" || cfg.Python != "3.12" {
		t.Errorf("default environment = %s/%s/%s", cfg.Platform, cfg.Machine, cfg.Python)
	}
	if cfg.Cache.TTL.Duration != 24*time.Hour {
		t.Errorf("default TTL = %v, want 24h", cfg.Cache.TTL.Duration)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
platform: win32
python: "3.11"
cache:
  ttl: 30m
redis:
  addr: localhost:6379
  db: 2
`)

	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Platform != "win32" {
		t.Errorf("Platform = %q, want win32", cfg.Platform)
	}
	// Unset keys keep their defaults.
	if cfg.Machine != "x86_64" {
		t.Errorf("Machine = %q, want default x86_64", cfg.Machine)
	}
	if cfg.Python != "3.11" {
		t.Errorf("Python = %q, want 3.11", cfg.Python)
	}
	if cfg.Cache.TTL.Duration != 30*time.Minute {
		t.Errorf("TTL = %v, want 30m", cfg.Cache.TTL.Duration)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestLoadConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "platform: darwin\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(nested)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Platform != "darwin" {
		t.Errorf("Platform = %q, want darwin from parent config", cfg.Platform)
	}
}

func TestLoadConfigRelativeLockfile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "lockfile: sub/uv.lock\n")

	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	want := filepath.Join(dir, "sub", "uv.lock")
	if cfg.Lockfile != want {
		t.Errorf("Lockfile = %q, want %q", cfg.Lockfile, want)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "cache:\n  ttl: soon\n")

	if _, err := loadConfig(dir); err == nil {
		t.Fatal("loadConfig() should reject an unparsable duration")
	}
}

func TestConfigContext(t *testing.T) {
	cfg := defaultConfig()
	cfg.Platform = "win32"

	ctx := withConfig(context.Background(), cfg)
	if got := configFromContext(ctx); got.Platform != "win32" {
		t.Errorf("configFromContext().Platform = %q", got.Platform)
	}

	// Without a config in context the defaults apply.
	if got := configFromContext(context.Background()); got.Platform != "linux" {
		t.Errorf("default Platform = %q", got.Platform)
	}
}

func TestEnvFlags(t *testing.T) {
	cfg := defaultConfig()

	var f envFlags
	env := f.environment(cfg)
	if env.SysPlatform != "linux" || env.PythonVersion != "3.12" {
		t.Errorf("config-derived env = %+v", env)
	}
	if f.set() {
		t.Error("set() should be false with no flags given")
	}

	f.platform = "darwin"
	f.python = "3.13"
	env = f.environment(cfg)
	if env.SysPlatform != "darwin" || env.PlatformMachine != "x86_64" || env.PythonVersion != "3.13" {
		t.Errorf("flag-overridden env = %+v", env)
	}
	if !f.set() {
		t.Error("set() should be true once a flag is given")
	}
}
