package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("EXPORT_FETCH_TIMEOUT", "")
	t.Setenv("PUBLIC_BASE_URL", "http://example.test/")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.MaxUploadBytes != 50<<20 {
		t.Fatalf("unexpected max upload bytes: %d", cfg.MaxUploadBytes)
	}
	if cfg.ExportFetchTimeout != 30*time.Second {
		t.Fatalf("unexpected export timeout: %s", cfg.ExportFetchTimeout)
	}
	if cfg.PublicBaseURL != "http://example.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PublicBaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("EXPORT_FETCH_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOW_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3, got %q", cfg.ObjectStoreType)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("expected 1024, got %d", cfg.MaxUploadBytes)
	}
	if cfg.ExportFetchTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.ExportFetchTimeout)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadEnvFilesDoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CFG_TEST_FROM_FILE=file\nCFG_TEST_EXISTING=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFG_TEST_EXISTING", "process")
	t.Setenv("CFG_TEST_FROM_FILE", "")
	os.Unsetenv("CFG_TEST_FROM_FILE")

	loadEnvFiles(path, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("CFG_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("CFG_TEST_EXISTING"); got != "process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
}
