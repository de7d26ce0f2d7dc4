// Package storage persists the bot's durable state: both subscriber
// collections, the committed item list, and the deadline text.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"assetbot/internal/config"
	"assetbot/internal/monitor"
)

// Store is the persistence API. Load degrades to empty defaults when state
// is missing or unreadable; startup must never fail on a bad snapshot.
// Save must be safe to call concurrently with itself: the periodic flush
// and a commit-triggered flush can overlap, so both drivers serialize
// writes internally.
type Store interface {
	Load(ctx context.Context) (monitor.Snapshot, error)
	Save(ctx context.Context, snap monitor.Snapshot) error
	Close() error
}

// Open initializes the configured driver.
func Open(cfg config.StorageConfig, log zerolog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return openFile(cfg.Path, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg.Path, config.Duration(cfg.BusyTimeout, 5*time.Second), log)
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
