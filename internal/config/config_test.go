package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hubctl.yaml")
	cfg := Default()
	cfg.API.BaseURL = "https://hub.test"
	cfg.Cache.TTL = 90 * time.Second

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.API.BaseURL != "https://hub.test" {
		t.Fatalf("base url lost: %q", got.API.BaseURL)
	}
	if got.Cache.TTL != 90*time.Second {
		t.Fatalf("ttl lost: %v", got.Cache.TTL)
	}
}

func TestResolveEnvFillsToken(t *testing.T) {
	t.Setenv("HUB_ACCESS_TOKEN", "env-token")
	cfg := Default()
	cfg.ResolveEnv()
	if cfg.Credentials.AccessToken != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Credentials.AccessToken)
	}
}

func TestResolveEnvKeepsExplicitToken(t *testing.T) {
	t.Setenv("HUB_ACCESS_TOKEN", "env-token")
	cfg := Default()
	cfg.Credentials.AccessToken = "file-token"
	cfg.ResolveEnv()
	if cfg.Credentials.AccessToken != "file-token" {
		t.Fatalf("env must not override an explicit token, got %q", cfg.Credentials.AccessToken)
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg := Default()
	if cfg.Cache.TTL != 5*time.Minute || cfg.Cache.Debounce != 300*time.Millisecond {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Uploads.ChunkThreshold != 8<<20 || cfg.Uploads.ChunkSize != 4<<20 {
		t.Fatalf("unexpected upload defaults: %+v", cfg.Uploads)
	}
}
