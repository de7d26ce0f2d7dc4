// Package config loads and watches the bot's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"assetbot/internal/logging"
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  logging.Config `yaml:"logging"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Notify   NotifyConfig   `yaml:"notify"`
	Storage  StorageConfig  `yaml:"storage"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `yaml:"poll_timeout"`
}

// MonitorConfig controls the two repeating cycles.
//
// All durations are Go duration strings (e.g. "15m", "24h").
type MonitorConfig struct {
	// CheckEvery is the period of the full scrape-and-notify cycle.
	CheckEvery string `yaml:"check_every"`
	// FlushEvery is the period of the safety-net persistence flush.
	FlushEvery string `yaml:"flush_every"`
	// PeriodLabel names the promotion window in the notification header.
	PeriodLabel string `yaml:"period_label"`
}

type ScrapeConfig struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent"`
	// Timeout bounds one headless page render (Go duration string).
	Timeout string `yaml:"timeout"`
	// Attempts is the max number of fetch attempts before giving up.
	Attempts int `yaml:"attempts"`
}

type NotifyConfig struct {
	// PaceEvery is the minimum gap between consecutive deliveries.
	PaceEvery string `yaml:"pace_every"`
	// ImageTimeout bounds one image download (Go duration string).
	ImageTimeout string `yaml:"image_timeout"`
}

// StorageConfig selects the persistence backend.
//
// Driver values: "file" (four JSON files under Path) or "sqlite".
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// BusyTimeout applies to the sqlite driver only (Go duration string).
	BusyTimeout string `yaml:"busy_timeout"`
}

// Load reads and strictly decodes the config file, then applies defaults.
// Unknown keys are rejected so typos surface at startup instead of being
// silently ignored.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if strings.TrimSpace(c.Telegram.PollTimeout) == "" {
		c.Telegram.PollTimeout = "10s"
	}
	if strings.TrimSpace(c.Monitor.CheckEvery) == "" {
		c.Monitor.CheckEvery = "24h"
	}
	if strings.TrimSpace(c.Monitor.FlushEvery) == "" {
		c.Monitor.FlushEvery = "15m"
	}
	if strings.TrimSpace(c.Monitor.PeriodLabel) == "" {
		c.Monitor.PeriodLabel = "Free For The Month"
	}
	if strings.TrimSpace(c.Scrape.URL) == "" {
		c.Scrape.URL = "https://www.unrealengine.com/marketplace/en-US/store"
	}
	if c.Scrape.Attempts <= 0 {
		c.Scrape.Attempts = 3
	}
	if strings.TrimSpace(c.Scrape.Timeout) == "" {
		c.Scrape.Timeout = "45s"
	}
	if strings.TrimSpace(c.Notify.PaceEvery) == "" {
		c.Notify.PaceEvery = "1s"
	}
	if strings.TrimSpace(c.Notify.ImageTimeout) == "" {
		c.Notify.ImageTimeout = "8s"
	}
	if strings.TrimSpace(c.Storage.Driver) == "" {
		c.Storage.Driver = "file"
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = "./data"
	}
}

func (c *Config) validate() error {
	for _, d := range []struct{ name, raw string }{
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"monitor.check_every", c.Monitor.CheckEvery},
		{"monitor.flush_every", c.Monitor.FlushEvery},
		{"scrape.timeout", c.Scrape.Timeout},
		{"notify.pace_every", c.Notify.PaceEvery},
		{"notify.image_timeout", c.Notify.ImageTimeout},
	} {
		if _, err := time.ParseDuration(d.raw); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	if c.Storage.BusyTimeout != "" {
		if _, err := time.ParseDuration(c.Storage.BusyTimeout); err != nil {
			return fmt.Errorf("storage.busy_timeout: %w", err)
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "file", "sqlite", "sqlite3":
	default:
		return errors.New("unknown storage driver: " + c.Storage.Driver)
	}
	return nil
}

// Duration parses a Go duration string, returning def on empty or bad input.
// Load validates all duration fields, so def only matters for zero values
// constructed in tests.
func Duration(raw string, def time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
