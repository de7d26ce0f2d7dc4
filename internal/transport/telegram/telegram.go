// Package telegram adapts the bot to the Telegram API: outbound delivery
// for the fan-out and the inbound command surface.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"assetbot/internal/config"
	"assetbot/internal/notify"
)

type Adapter struct {
	bot *tele.Bot
	log zerolog.Logger

	// base is the process context; telebot handlers don't carry one.
	base context.Context
}

func New(cfg config.TelegramConfig, log zerolog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: config.Duration(cfg.PollTimeout, 10*time.Second)},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{
		bot:  b,
		log:  log.With().Str("comp", "telegram").Logger(),
		base: context.Background(),
	}, nil
}

// Start begins long polling. It returns immediately; polling stops when ctx
// is cancelled.
func (a *Adapter) Start(ctx context.Context) {
	a.base = ctx
	go a.bot.Start()
	context.AfterFunc(ctx, a.bot.Stop)
	a.log.Info().Str("username", a.bot.Me.Username).Msg("telegram polling started")
}

// Deliver implements notify.Deliverer: the text first, then one photo per
// attachment. A failed photo degrades that delivery to text-only instead of
// failing the recipient.
func (a *Adapter) Deliver(ctx context.Context, chatID int64, text string, photos []notify.Photo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := tele.ChatID(chatID)
	if _, err := a.bot.Send(to, text, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
		return err
	}
	for _, p := range photos {
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(p.Data)),
			Caption: p.Name,
		}
		if _, err := a.bot.Send(to, photo); err != nil {
			a.log.Warn().Int64("chat_id", chatID).Str("name", p.Name).Err(err).
				Msg("photo send failed, recipient got text only")
		}
	}
	return nil
}
