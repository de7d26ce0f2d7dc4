package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"assetbot/internal/monitor"
)

//go:embed schema.sql
var schemaFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log zerolog.Logger

	// mu serializes Save; combined with the single-connection pool this
	// keeps concurrent flushes from interleaving.
	mu sync.Mutex
}

func openSQLite(path string, busyTimeout time.Duration, log zerolog.Logger) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if busyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (monitor.Snapshot, error) {
	var snap monitor.Snapshot

	chans, err := s.loadSubscribers(ctx, string(monitor.KindChannel))
	if err != nil {
		s.log.Warn().Err(err).Msg("channel subscribers unreadable, using empty default")
	} else {
		snap.Channels = chans
	}
	users, err := s.loadSubscribers(ctx, string(monitor.KindUser))
	if err != nil {
		s.log.Warn().Err(err).Msg("user subscribers unreadable, using empty default")
	} else {
		snap.Users = users
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, link, image FROM items ORDER BY pos`)
	if err != nil {
		s.log.Warn().Err(err).Msg("items unreadable, using empty default")
	} else {
		defer rows.Close()
		for rows.Next() {
			var it monitor.Item
			if err := rows.Scan(&it.Name, &it.Link, &it.Image); err != nil {
				return snap, err
			}
			snap.Items = append(snap.Items, it)
		}
		if err := rows.Err(); err != nil {
			return snap, err
		}
	}

	var deadline string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'deadline'`).Scan(&deadline)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.log.Warn().Err(err).Msg("deadline unreadable, using empty default")
	}
	snap.Deadline = deadline

	return snap, nil
}

func (s *sqliteStore) loadSubscribers(ctx context.Context, kind string) ([]monitor.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, shown FROM subscribers WHERE kind = ? ORDER BY pos`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []monitor.Subscriber
	for rows.Next() {
		var sub monitor.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Shown); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *sqliteStore) Save(ctx context.Context, snap monitor.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM subscribers`, `DELETE FROM items`, `DELETE FROM meta`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if err := insertSubscribers(ctx, tx, string(monitor.KindChannel), snap.Channels); err != nil {
		return err
	}
	if err := insertSubscribers(ctx, tx, string(monitor.KindUser), snap.Users); err != nil {
		return err
	}
	for pos, it := range snap.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items(pos, name, link, image) VALUES(?,?,?,?)`,
			pos, it.Name, it.Link, it.Image); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('deadline', ?)`, snap.Deadline); err != nil {
		return err
	}
	return tx.Commit()
}

func insertSubscribers(ctx context.Context, tx *sql.Tx, kind string, subs []monitor.Subscriber) error {
	for pos, sub := range subs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscribers(kind, id, shown, pos) VALUES(?,?,?,?)`,
			kind, sub.ID, sub.Shown, pos); err != nil {
			return err
		}
	}
	return nil
}
