package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:3000" {
		t.Fatalf("unexpected default base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("unexpected default timeout %s", cfg.API.Timeout)
	}
	if cfg.State.Path == "" {
		t.Fatal("expected state path to be resolved")
	}
}

func TestLoadRejectsBadBaseURL(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "ftp://example.com")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-http base url")
	}
}

func TestStorageMarkersTrimmed(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE_BUCKET_MARKERS", " parsifal-files , , twcstorage ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	markers := cfg.Storage.Markers()
	if len(markers) != 2 || markers[0] != "parsifal-files" || markers[1] != "twcstorage" {
		t.Fatalf("unexpected markers %v", markers)
	}
}

func TestStatePathOverride(t *testing.T) {
	t.Setenv("STOREFRONT_STATE_PATH", "/tmp/storefront-state.json")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.State.Path != "/tmp/storefront-state.json" {
		t.Fatalf("expected override path, got %q", cfg.State.Path)
	}
}
