package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(localTZEnv, "")

	cfg := Load()

	if cfg.ChatGPT.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected default model %s", cfg.ChatGPT.Model)
	}
	if cfg.Calendar.DedupeWindowHours != 3 || cfg.Calendar.DurationMinutes != 60 {
		t.Fatalf("unexpected calendar defaults %+v", cfg.Calendar)
	}
	if cfg.Calendar.Location().String() != "America/New_York" {
		t.Fatalf("unexpected location %s", cfg.Calendar.Location())
	}
	if cfg.Server.TTL() != 12*time.Hour {
		t.Fatalf("unexpected ttl %s", cfg.Server.TTL())
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
server:
  addr: ":9090"
calendar:
  dedupeWindowHours: 5
sources:
  disabled: ["news/omb"]
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(openAIKeyEnv, "sk-test")
	t.Setenv(localTZEnv, "UTC")

	cfg := Load()

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("file override missing: %s", cfg.Server.Addr)
	}
	if cfg.Server.CookieName != "pd_session" {
		t.Fatalf("default lost during merge: %s", cfg.Server.CookieName)
	}
	if cfg.Calendar.DedupeWindowHours != 5 {
		t.Fatalf("unexpected window %d", cfg.Calendar.DedupeWindowHours)
	}
	if cfg.ChatGPT.APIKey != "sk-test" {
		t.Fatalf("env override missing")
	}
	if cfg.Calendar.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %s", cfg.Calendar.Location())
	}
	if !cfg.Sources.IsDisabled("news/omb") || cfg.Sources.IsDisabled("news/cms") {
		t.Fatalf("unexpected disabled set %v", cfg.Sources.Disabled)
	}
}
