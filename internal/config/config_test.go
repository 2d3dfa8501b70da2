package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Schema.MaxPasses != 20 {
		t.Errorf("expected default max passes 20, got %d", cfg.Schema.MaxPasses)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Namespace.Endpoint != "http://www.schemaweb.info/webservices/rest/" {
		t.Errorf("unexpected default endpoint %s", cfg.Namespace.Endpoint)
	}
	if cfg.Namespace.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.Namespace.Timeout)
	}
	if cfg.Namespace.Cache.Enabled {
		t.Error("expected namespace cache to be disabled by default")
	}
	if cfg.Namespace.Cache.TTL != 24*time.Hour {
		t.Errorf("expected default ttl 24h, got %s", cfg.Namespace.Cache.TTL)
	}

	if err := cfg.RequireSchema(); err == nil {
		t.Error("expected RequireSchema to fail without a schema path")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	configContent := `
schema:
  path: models/pets.xml
  builtin_xsd: true
  max_passes: 5
log:
  level: debug
namespace:
  resolver: identity
  timeout: 2s
  cache:
    enabled: true
    backend: redis
    addr: redis:6379
    ttl: 1h
`
	if err := os.WriteFile("ontograph.yaml", []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Schema.Path != "models/pets.xml" {
		t.Errorf("expected schema path 'models/pets.xml', got %s", cfg.Schema.Path)
	}
	if !cfg.Schema.BuiltinXSD {
		t.Error("expected builtin_xsd to be true")
	}
	if cfg.Schema.MaxPasses != 5 {
		t.Errorf("expected max passes 5, got %d", cfg.Schema.MaxPasses)
	}
	if cfg.Namespace.Resolver != ResolverIdentity {
		t.Errorf("expected identity resolver, got %s", cfg.Namespace.Resolver)
	}
	if cfg.Namespace.Timeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %s", cfg.Namespace.Timeout)
	}
	if cfg.Namespace.Cache.Backend != BackendRedis || cfg.Namespace.Cache.Addr != "redis:6379" {
		t.Errorf("unexpected cache config %+v", cfg.Namespace.Cache)
	}
	if cfg.Namespace.Cache.Prefix != "ontograph:ns:" {
		t.Errorf("expected default prefix to survive, got %s", cfg.Namespace.Cache.Prefix)
	}

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(dir, "ontograph.yaml")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", cfg.Log.Level)
		}
	})
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestEnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ONTOGRAPH_SCHEMA_PATH", "/etc/ontograph/model.yaml")
	t.Setenv("ONTOGRAPH_NAMESPACE_CACHE_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Schema.Path != "/etc/ontograph/model.yaml" {
		t.Errorf("expected env schema path, got %s", cfg.Schema.Path)
	}
	if !cfg.Namespace.Cache.Enabled {
		t.Error("expected env to enable the cache")
	}
	if err := cfg.RequireSchema(); err != nil {
		t.Errorf("unexpected RequireSchema error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero passes", func(c *Config) { c.Schema.MaxPasses = 0 }, "schema.max_passes"},
		{"unknown resolver", func(c *Config) { c.Namespace.Resolver = "dns" }, "namespace.resolver"},
		{"negative timeout", func(c *Config) { c.Namespace.Timeout = -time.Second }, "namespace.timeout"},
		{"negative ttl", func(c *Config) { c.Namespace.Cache.TTL = -time.Minute }, "namespace.cache.ttl"},
		{"unknown backend", func(c *Config) { c.Namespace.Cache.Backend = "memcached" }, "namespace.cache.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
