package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intel.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	yaml := `api:
  url: https://agent.example.com
  mock: true
  timeout: 5s
  retries: 4
  headers:
    X-Api-Key: key123

dashboard:
  health_interval: 15s
  stats_interval: 2m

storage:
  dataset: intel
  backend: s3
  path: my-bucket/transcripts
  region: us-east-1
  endpoint: https://minio.example.com
  s3_path_style: true

adapter:
  type: webhook
  url: https://hooks.example.com/intel
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "api.url", cfg.API.URL, "https://agent.example.com")
	if !cfg.API.Mock || cfg.API.Timeout.Duration != 5*time.Second || *cfg.API.Retries != 4 {
		t.Errorf("api = %+v", cfg.API)
	}
	assertEqual(t, "api.headers", cfg.API.Headers["X-Api-Key"], "key123")

	if cfg.Dashboard.HealthInterval.Duration != 15*time.Second || cfg.Dashboard.StatsInterval.Duration != 2*time.Minute {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}

	assertEqual(t, "storage.backend", cfg.Storage.Backend, "s3")
	assertEqual(t, "storage.path", cfg.Storage.Path, "my-bucket/transcripts")
	assertEqual(t, "storage.region", cfg.Storage.Region, "us-east-1")
	assertEqual(t, "storage.endpoint", cfg.Storage.Endpoint, "https://minio.example.com")
	if !cfg.Storage.S3PathStyle {
		t.Error("expected storage.s3_path_style=true")
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/intel")
	assertEqual(t, "adapter.headers", cfg.Adapter.Headers["Authorization"], "Bearer token123")
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 3 {
		t.Errorf("adapter.retries = %v", cfg.Adapter.Retries)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_EmptyAndCommentOnly(t *testing.T) {
	for _, content := range []string{"", "   \n  \n", "# comment\n# another\n"} {
		cfg, err := Load(writeTemp(t, content))
		if err != nil {
			t.Fatalf("Load(%q): %v", content, err)
		}
		if cfg.API.URL != "" || cfg.Adapter.Retries != nil {
			t.Errorf("Load(%q) = %+v, want zero config", content, cfg)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"invalid yaml", "{{invalid yaml", "invalid YAML"},
		{"unknown key", "api:\n  uri: http://x\n", "invalid YAML"},
		{"unknown section", "proxies: {}\n", "invalid YAML"},
		{"bad duration", "api:\n  timeout: soon\n", "invalid duration"},
		{"negative duration", "dashboard:\n  health_interval: -5s\n", "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want containing %q", err, tt.wantMsg)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("missing file error = %v", err)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("INTEL_TEST_WEBHOOK", "https://hooks.example.com/x")

	cfg, err := Load(writeTemp(t, "adapter:\n  type: webhook\n  url: ${INTEL_TEST_WEBHOOK}\n  channel: ${INTEL_TEST_UNSET_1:-missions}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/x")
	assertEqual(t, "adapter.channel", cfg.Adapter.Channel, "missions")
}

func TestLoad_RetriesZeroDistinctFromNil(t *testing.T) {
	cfg, err := Load(writeTemp(t, "api:\n  retries: 0\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Retries == nil || *cfg.API.Retries != 0 {
		t.Fatalf("api.retries = %v, want explicit 0", cfg.API.Retries)
	}

	cfg.ApplyDefaults()
	if *cfg.API.Retries != 0 {
		t.Errorf("explicit 0 replaced by default: %d", *cfg.API.Retries)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assertEqual(t, "api.url", cfg.API.URL, "http://localhost:8000")
	assertEqual(t, "storage.dataset", cfg.Storage.Dataset, "intel")
	if cfg.API.Timeout.Duration != 10*time.Second || *cfg.API.Retries != 2 {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Dashboard.HealthInterval.Duration != 30*time.Second || cfg.Dashboard.StatsInterval.Duration != 60*time.Second {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	neg := -1
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad api url", func(c *Config) { c.API.URL = "localhost:8000" }, "api.url"},
		{"negative retries", func(c *Config) { c.API.Retries = &neg }, "api.retries"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "gcs" }, "storage.backend"},
		{"fs without path", func(c *Config) { c.Storage.Backend = "fs" }, "storage.path"},
		{"unknown adapter", func(c *Config) { c.Adapter.Type = "kafka" }, "adapter.type"},
		{"webhook without url", func(c *Config) { c.Adapter.Type = "webhook" }, "adapter.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://env-agent:9000")
	t.Setenv(EnvUseMockAPI, "true")

	cfg := Config{API: APIConfig{URL: "http://file-agent:8000"}}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	assertEqual(t, "api.url", cfg.API.URL, "http://env-agent:9000")
	if !cfg.API.Mock {
		t.Error("expected mock from environment")
	}

	t.Setenv(EnvUseMockAPI, "maybe")
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("expected error for non-boolean mock toggle")
	}
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvUseMockAPI, "")

	path := writeTemp(t, "api:\n  url: http://agent:8000\n  mock: true\n")
	cfg, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertEqual(t, "api.url", cfg.API.URL, "http://agent:8000")
	if !cfg.API.Mock || cfg.API.Timeout.Duration != 10*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}

	if _, err := Resolve(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicit missing path must fail")
	}

	invalid := writeTemp(t, "storage:\n  backend: fs\n")
	if _, err := Resolve(invalid); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		t.Fatalf("missing .env must be ignored: %v", err)
	}

	t.Setenv(EnvAPIURL, "")
	os.Unsetenv(EnvAPIURL)
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(EnvAPIURL+"=http://dotenv-agent:8000\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(EnvAPIURL); got != "http://dotenv-agent:8000" {
		t.Errorf("%s = %q", EnvAPIURL, got)
	}
}
