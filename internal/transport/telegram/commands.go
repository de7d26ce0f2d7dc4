package telegram

import (
	"errors"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"assetbot/internal/app"
	"assetbot/internal/monitor"
)

// Bind registers the command surface against the monitor service and
// publishes the command menu.
func (a *Adapter) Bind(svc *app.Service) {
	a.bot.Handle("/sub", func(c tele.Context) error {
		chat := c.Chat()
		err := svc.Subscribe(a.base, kindOf(chat), chat.ID)
		switch {
		case errors.Is(err, app.ErrAlreadySubscribed):
			return c.Send("This chat is already subscribed.")
		case err != nil:
			a.log.Error().Int64("chat_id", chat.ID).Err(err).Msg("subscribe failed")
			return c.Send("Could not subscribe, try again later.")
		}
		return c.Send("Subscribed. You'll get a message whenever the free list rotates.")
	})

	a.bot.Handle("/unsub", func(c tele.Context) error {
		chat := c.Chat()
		err := svc.Unsubscribe(a.base, kindOf(chat), chat.ID)
		switch {
		case errors.Is(err, app.ErrNotSubscribed):
			return c.Send("This chat is not subscribed.")
		case err != nil:
			a.log.Error().Int64("chat_id", chat.ID).Err(err).Msg("unsubscribe failed")
			return c.Send("Could not unsubscribe, try again later.")
		}
		return c.Send("Unsubscribed.")
	})

	a.bot.Handle("/assets", func(c tele.Context) error {
		err := svc.ShowCurrent(a.base, c.Chat().ID)
		switch {
		case errors.Is(err, app.ErrNoState):
			return c.Send("Nothing is free right now.")
		case err != nil:
			a.log.Error().Int64("chat_id", c.Chat().ID).Err(err).Msg("show current failed")
			return c.Send("Could not fetch the current list, try again later.")
		}
		return nil
	})

	a.bot.Handle("/next", func(c tele.Context) error {
		next, ok := svc.NextCheck()
		if !ok {
			return c.Send("No check is scheduled.")
		}
		until := time.Until(next).Round(time.Minute)
		if until < 0 {
			until = 0
		}
		return c.Send(fmt.Sprintf("Next check in %s (%s).", until, next.Format("Jan 2 15:04 MST")))
	})

	if err := a.bot.SetCommands([]tele.Command{
		{Text: "sub", Description: "Subscribe this chat to free-asset updates"},
		{Text: "unsub", Description: "Unsubscribe this chat"},
		{Text: "assets", Description: "Show the current free assets"},
		{Text: "next", Description: "Time until the next check"},
	}); err != nil {
		a.log.Warn().Err(err).Msg("setting command menu failed")
	}
}

// kindOf maps a chat to its subscriber namespace: private chats are users,
// everything else (groups, supergroups, channels) is a channel target.
func kindOf(chat *tele.Chat) monitor.Kind {
	if chat.Type == tele.ChatPrivate {
		return monitor.KindUser
	}
	return monitor.KindChannel
}
