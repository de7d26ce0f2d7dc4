// Package app wires the monitor core to the scheduler and exposes the
// narrow API the command layer is allowed to touch.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"assetbot/internal/config"
	"assetbot/internal/monitor"
	"assetbot/internal/notify"
	"assetbot/internal/scrape"
	"assetbot/internal/storage"
)

var (
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrNotSubscribed     = errors.New("not subscribed")
	ErrNoState           = errors.New("no committed state yet")
	ErrUnknownKind       = errors.New("unknown subscriber kind")
)

// Scraper produces one observation of the storefront, or an error after its
// own retries are exhausted.
type Scraper interface {
	Fetch(ctx context.Context) (*scrape.Result, error)
}

// Service owns all mutable state (committed observation plus both
// subscriber collections) behind one mutex, and drives the two repeating
// cycles. The command layer reaches state only through Subscribe,
// Unsubscribe, ShowCurrent and NextCheck.
type Service struct {
	cfg     config.MonitorConfig
	scraper Scraper
	store   storage.Store
	fan     *notify.Fanout
	log     zerolog.Logger

	cron    *cron.Cron
	checkID cron.EntryID

	// checking keeps at most one check cycle in flight.
	checking atomic.Bool

	mu       sync.Mutex
	items    []monitor.Item
	deadline string
	channels []*monitor.Subscriber
	users    []*monitor.Subscriber
}

func New(cfg config.MonitorConfig, scraper Scraper, store storage.Store, fan *notify.Fanout, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		scraper: scraper,
		store:   store,
		fan:     fan,
		log:     log.With().Str("comp", "monitor").Logger(),
	}
}

// Start loads the last durable snapshot, runs one immediate check, and
// schedules the repeating check and flush cycles. The cycles stop when ctx
// is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		// Load already degrades per-collection; a hard error here still
		// must not abort startup.
		s.log.Warn().Err(err).Msg("state load failed, starting from empty defaults")
		snap = monitor.Snapshot{}
	}

	s.mu.Lock()
	s.items = snap.Items
	s.deadline = snap.Deadline
	s.channels = toPointers(snap.Channels)
	s.users = toPointers(snap.Users)
	s.mu.Unlock()

	s.log.Info().
		Int("items", len(snap.Items)).
		Int("channels", len(snap.Channels)).
		Int("users", len(snap.Users)).
		Str("deadline", snap.Deadline).
		Msg("state loaded")

	checkEvery := config.Duration(s.cfg.CheckEvery, 24*time.Hour)
	flushEvery := config.Duration(s.cfg.FlushEvery, 15*time.Minute)

	s.cron = cron.New()
	s.checkID = s.cron.Schedule(cron.Every(checkEvery), cron.FuncJob(func() {
		s.RunCheck(ctx)
	}))
	s.cron.Schedule(cron.Every(flushEvery), cron.FuncJob(func() {
		s.Flush(ctx)
	}))
	s.cron.Start()

	go s.RunCheck(ctx)

	context.AfterFunc(ctx, func() { s.cron.Stop() })
	return nil
}

// Stop halts the cycles and writes a final snapshot.
func (s *Service) Stop(ctx context.Context) error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.Flush(ctx)
	return nil
}

// RunCheck executes one scrape → normalize → detect → (compose → fanout →
// persist) pass. Only one pass runs at a time; an overlapping trigger is
// dropped, not queued.
func (s *Service) RunCheck(ctx context.Context) {
	if !s.checking.CompareAndSwap(false, true) {
		s.log.Warn().Msg("check cycle already running, skipping")
		return
	}
	defer s.checking.Store(false)

	res, err := s.scraper.Fetch(ctx)
	if err != nil {
		// State stays as-is; the next scheduled cycle will try again.
		s.log.Error().Err(err).Msg("scrape failed, cycle ends with no change")
		return
	}
	items := monitor.Normalize(res.Records)

	s.mu.Lock()
	defer s.mu.Unlock()

	dec := monitor.Detect(monitor.State{Items: s.items, Deadline: s.deadline}, items, res.Deadline)
	if !dec.Commit {
		s.log.Info().Str("reason", dec.Reason).Int("scraped", len(items)).
			Msg("observation suppressed")
		return
	}

	s.items = items
	s.deadline = res.Deadline
	for _, sub := range s.channels {
		sub.Shown = false
	}
	for _, sub := range s.users {
		sub.Shown = false
	}
	s.log.Info().Str("reason", dec.Reason).Int("items", len(items)).
		Str("deadline", res.Deadline).Msg("new state committed")

	n := notify.Compose(s.cfg.PeriodLabel, monitor.State{Items: s.items, Deadline: s.deadline})
	sentC, failC := s.fan.Broadcast(ctx, n, s.channels)
	sentU, failU := s.fan.Broadcast(ctx, n, s.users)
	s.log.Info().Int("sent", sentC+sentU).Int("failed", failC+failU).Msg("fanout finished")

	s.saveLocked(ctx)
}

// Flush writes the current snapshot regardless of whether anything changed.
// Runs on its own timer as a safety net against termination between commits.
func (s *Service) Flush(ctx context.Context) {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.store.Save(ctx, snap); err != nil {
		// In-memory state stays authoritative; the next flush retries.
		s.log.Error().Err(err).Msg("state flush failed")
	}
}

// Subscribe registers a recipient. When committed state exists and the new
// record has not seen it, the current notification is delivered to that one
// recipient immediately rather than waiting for the next cycle.
func (s *Service) Subscribe(ctx context.Context, kind monitor.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection(kind)
	if err != nil {
		return err
	}
	for _, sub := range *col {
		if sub.ID == id {
			return ErrAlreadySubscribed
		}
	}
	rec := &monitor.Subscriber{ID: id}
	*col = append(*col, rec)
	s.log.Info().Str("kind", string(kind)).Int64("chat_id", id).Msg("subscribed")

	if len(s.items) > 0 && !rec.Shown {
		n := notify.Compose(s.cfg.PeriodLabel, monitor.State{Items: s.items, Deadline: s.deadline})
		if err := s.fan.SendTo(ctx, id, n); err != nil {
			s.log.Warn().Int64("chat_id", id).Err(err).Msg("catch-up delivery failed")
		} else {
			rec.Shown = true
		}
	}

	s.saveLocked(ctx)
	return nil
}

// Unsubscribe removes a recipient, keeping registration order of the rest.
func (s *Service) Unsubscribe(ctx context.Context, kind monitor.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection(kind)
	if err != nil {
		return err
	}
	for i, sub := range *col {
		if sub.ID == id {
			*col = append((*col)[:i], (*col)[i+1:]...)
			s.log.Info().Str("kind", string(kind)).Int64("chat_id", id).Msg("unsubscribed")
			s.saveLocked(ctx)
			return nil
		}
	}
	return ErrNotSubscribed
}

// ShowCurrent delivers the committed state to one chat on demand. If the
// chat is a subscriber, its shown flag is set on success, so a recipient
// missed by a fanout can catch up individually.
func (s *Service) ShowCurrent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 && s.deadline == "" {
		return ErrNoState
	}
	n := notify.Compose(s.cfg.PeriodLabel, monitor.State{Items: s.items, Deadline: s.deadline})
	if err := s.fan.SendTo(ctx, id, n); err != nil {
		return err
	}
	for _, col := range [][]*monitor.Subscriber{s.channels, s.users} {
		for _, sub := range col {
			if sub.ID == id {
				sub.Shown = true
			}
		}
	}
	return nil
}

// NextCheck reports when the next scheduled check fires. ok is false before
// Start or after shutdown.
func (s *Service) NextCheck() (time.Time, bool) {
	if s.cron == nil {
		return time.Time{}, false
	}
	next := s.cron.Entry(s.checkID).Next
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func (s *Service) collection(kind monitor.Kind) (*[]*monitor.Subscriber, error) {
	switch kind {
	case monitor.KindChannel:
		return &s.channels, nil
	case monitor.KindUser:
		return &s.users, nil
	default:
		return nil, ErrUnknownKind
	}
}

func (s *Service) snapshotLocked() monitor.Snapshot {
	return monitor.Snapshot{
		Channels: toValues(s.channels),
		Users:    toValues(s.users),
		Items:    append([]monitor.Item(nil), s.items...),
		Deadline: s.deadline,
	}
}

func (s *Service) saveLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.snapshotLocked()); err != nil {
		s.log.Error().Err(err).Msg("state save failed")
	}
}

func toPointers(subs []monitor.Subscriber) []*monitor.Subscriber {
	out := make([]*monitor.Subscriber, 0, len(subs))
	for i := range subs {
		sub := subs[i]
		out = append(out, &sub)
	}
	return out
}

func toValues(subs []*monitor.Subscriber) []monitor.Subscriber {
	out := make([]monitor.Subscriber, 0, len(subs))
	for _, sub := range subs {
		out = append(out, *sub)
	}
	return out
}
