package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"assetbot/internal/monitor"
)

// Photo is a resolved attachment ready for delivery.
type Photo struct {
	Name string
	Data []byte
}

// Deliverer sends one notification to one chat. Implemented by the Telegram
// adapter; tests substitute fakes.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string, photos []Photo) error
}

// Fanout delivers a composed notification to recipient collections with
// per-recipient failure isolation and paced sends.
type Fanout struct {
	deliverer Deliverer
	images    ImageSource
	log       zerolog.Logger

	mu      sync.Mutex
	limiter *rate.Limiter
}

func NewFanout(deliverer Deliverer, images ImageSource, pace time.Duration, log zerolog.Logger) *Fanout {
	return &Fanout{
		deliverer: deliverer,
		images:    images,
		log:       log,
		limiter:   paceLimiter(pace),
	}
}

// SetPace swaps the delivery pacing at runtime (config reload).
func (f *Fanout) SetPace(pace time.Duration) {
	f.mu.Lock()
	f.limiter = paceLimiter(pace)
	f.mu.Unlock()
}

func paceLimiter(pace time.Duration) *rate.Limiter {
	if pace <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(pace), 1)
}

// Broadcast delivers n to every recipient in registration order. A failed
// delivery is logged and skipped; the recipient keeps Shown=false so a later
// on-demand request can retry it individually. Successful recipients get
// Shown=true. Returns delivered and failed counts.
//
// The caller owns the subscriber records and any locking around them;
// Broadcast only flips Shown.
func (f *Fanout) Broadcast(ctx context.Context, n Notification, recips []*monitor.Subscriber) (sent, failed int) {
	if len(recips) == 0 {
		return 0, 0
	}
	photos := fetchAll(ctx, f.images, n.Images, f.log)

	for _, rec := range recips {
		if err := f.wait(ctx); err != nil {
			f.log.Warn().Err(err).Int("remaining", len(recips)-sent-failed).
				Msg("fanout aborted")
			return sent, failed
		}
		if err := f.deliverer.Deliver(ctx, rec.ID, n.Text, photos); err != nil {
			failed++
			f.log.Warn().Int64("chat_id", rec.ID).Err(err).Msg("delivery failed")
			continue
		}
		rec.Shown = true
		sent++
	}
	return sent, failed
}

// SendTo delivers n to a single chat (catch-up and on-demand requests).
func (f *Fanout) SendTo(ctx context.Context, chatID int64, n Notification) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	photos := fetchAll(ctx, f.images, n.Images, f.log)
	return f.deliverer.Deliver(ctx, chatID, n.Text, photos)
}

func (f *Fanout) wait(ctx context.Context) error {
	f.mu.Lock()
	lim := f.limiter
	f.mu.Unlock()
	return lim.Wait(ctx)
}
