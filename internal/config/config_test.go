package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, "telegram:\n  token: \"123:abc\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Monitor.CheckEvery != "24h" || cfg.Monitor.FlushEvery != "15m" {
		t.Fatalf("cycle defaults wrong: %+v", cfg.Monitor)
	}
	if cfg.Monitor.PeriodLabel != "Free For The Month" {
		t.Fatalf("period label default wrong: %q", cfg.Monitor.PeriodLabel)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.Path != "./data" {
		t.Fatalf("storage defaults wrong: %+v", cfg.Storage)
	}
	if cfg.Scrape.Attempts != 3 {
		t.Fatalf("scrape attempts default wrong: %d", cfg.Scrape.Attempts)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "telegram:\n  tokenn: \"oops\"\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "monitor:\n  check_every: \"daily\"\n"))
	if err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

func TestLoadRejectsUnknownStorageDriver(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "storage:\n  driver: \"redis\"\n"))
	if err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestDurationHelper(t *testing.T) {
	t.Parallel()
	if got := Duration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("Duration = %v", got)
	}
	if got := Duration("", time.Minute); got != time.Minute {
		t.Fatalf("empty input must fall back: %v", got)
	}
	if got := Duration("-5s", time.Minute); got != time.Minute {
		t.Fatalf("non-positive input must fall back: %v", got)
	}
}
