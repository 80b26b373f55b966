package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pithecene-io/trolley/api"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `api:
  base_url: https://shop.example.com/api
  timeout: 8s
  retries: 4
  base_delay: 500ms

storage:
  backend: s3
  bucket: cart-snapshots
  prefix: prod
  region: us-east-1
  endpoint: https://s3.example.com
  s3_path_style: true

adapter:
  type: webhook
  url: https://hooks.example.com/cart
  secret: hunter2
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// API
	assertEqual(t, "api.base_url", cfg.API.BaseURL, "https://shop.example.com/api")
	if cfg.API.Timeout.Duration != 8*time.Second {
		t.Errorf("expected api.timeout=8s, got %v", cfg.API.Timeout.Duration)
	}
	if cfg.API.Retries == nil || *cfg.API.Retries != 4 {
		t.Error("expected api.retries=4")
	}
	if cfg.API.BaseDelay.Duration != 500*time.Millisecond {
		t.Errorf("expected api.base_delay=500ms, got %v", cfg.API.BaseDelay.Duration)
	}

	// Storage
	assertEqual(t, "storage.backend", cfg.Storage.Backend, "s3")
	assertEqual(t, "storage.bucket", cfg.Storage.Bucket, "cart-snapshots")
	assertEqual(t, "storage.prefix", cfg.Storage.Prefix, "prod")
	assertEqual(t, "storage.region", cfg.Storage.Region, "us-east-1")
	assertEqual(t, "storage.endpoint", cfg.Storage.Endpoint, "https://s3.example.com")
	if !cfg.Storage.S3PathStyle {
		t.Error("expected storage.s3_path_style=true")
	}

	// Adapter
	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/cart")
	assertEqual(t, "adapter.secret", cfg.Adapter.Secret, "hunter2")
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("expected adapter.timeout=10s, got %v", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 3 {
		t.Error("expected adapter.retries=3")
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer token123" {
		t.Error("expected Authorization header")
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "" {
		t.Errorf("expected empty base_url, got %q", cfg.API.BaseURL)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/trolley.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeTemp(t, "api:\n  timeout: not-a-duration\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BASE_URL", "https://staging.example.com/api")

	yaml := "api:\n  base_url: ${TEST_BASE_URL}\n"
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "api.base_url", cfg.API.BaseURL, "https://staging.example.com/api")
}

func TestClientConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	cc := cfg.ClientConfig()

	if cc.Retries != api.DefaultRetries {
		t.Errorf("expected default retries %d, got %d", api.DefaultRetries, cc.Retries)
	}
	if cc.Timeout != 0 {
		t.Errorf("zero timeout should pass through for the client to default, got %v", cc.Timeout)
	}
}

func TestClientConfig_ExplicitZeroRetries(t *testing.T) {
	zero := 0
	cfg := &Config{API: APIConfig{Retries: &zero}}

	if got := cfg.ClientConfig().Retries; got != 0 {
		t.Errorf("explicit retries: 0 must disable retries, got %d", got)
	}
}

func TestStorageBackend_DefaultsToFile(t *testing.T) {
	cfg := &Config{}
	assertEqual(t, "storage backend", cfg.StorageBackend(), "file")

	cfg.Storage.Backend = "redis"
	assertEqual(t, "storage backend", cfg.StorageBackend(), "redis")
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trolley.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
