package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"assetbot/internal/monitor"
)

// fileStore keeps the snapshot in four independent JSON files under one
// directory. Each file loads on its own: a missing or malformed one degrades
// to its empty default without touching the other three.
//
// Files:
//   - channels.json  ([]monitor.Subscriber)
//   - users.json     ([]monitor.Subscriber)
//   - items.json     ([]monitor.Item)
//   - deadline.json  ({"deadline": "..."})
type fileStore struct {
	dir string
	log zerolog.Logger

	// mu serializes Save against itself so the periodic flush and a
	// commit-triggered flush cannot interleave partial writes across the
	// four files.
	mu sync.Mutex
}

type deadlineRecord struct {
	Deadline string `json:"deadline"`
}

func openFile(dir string, log zerolog.Logger) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{dir: dir, log: log}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Load(_ context.Context) (monitor.Snapshot, error) {
	var snap monitor.Snapshot
	s.loadJSON("channels.json", &snap.Channels)
	s.loadJSON("users.json", &snap.Users)
	s.loadJSON("items.json", &snap.Items)
	var d deadlineRecord
	s.loadJSON("deadline.json", &d)
	snap.Deadline = d.Deadline
	return snap, nil
}

func (s *fileStore) Save(_ context.Context, snap monitor.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeJSON("channels.json", snap.Channels); err != nil {
		return err
	}
	if err := s.writeJSON("users.json", snap.Users); err != nil {
		return err
	}
	if err := s.writeJSON("items.json", snap.Items); err != nil {
		return err
	}
	return s.writeJSON("deadline.json", deadlineRecord{Deadline: snap.Deadline})
}

// loadJSON fills out from the named file, leaving it untouched when the file
// is absent or unreadable.
func (s *fileStore) loadJSON(name string, out any) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Str("file", path).Err(err).Msg("state file unreadable, using empty default")
		}
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.log.Warn().Str("file", path).Err(err).Msg("state file malformed, using empty default")
	}
}

// writeJSON writes via tmp+rename so a crash mid-write never leaves a
// truncated file behind.
func (s *fileStore) writeJSON(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
