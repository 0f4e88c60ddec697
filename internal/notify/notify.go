// Package notify forwards contact applications to the agency's
// operators over Telegram and email.
package notify

import (
	"context"
	"log/slog"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

// Notifier delivers a contact application to one channel.
type Notifier interface {
	SendApplication(ctx context.Context, app model.Application) error
}

// Fanout delivers an application to every configured channel. A failing
// channel is logged and does not block the others; Send returns nil as
// long as at least one channel succeeded.
type Fanout struct {
	channels []Notifier
	logger   *slog.Logger
}

// NewFanout creates a fanout over the given channels. Nil channels are
// skipped so callers can pass optional notifiers unconditionally.
func NewFanout(logger *slog.Logger, channels ...Notifier) *Fanout {
	out := &Fanout{logger: logger}
	for _, ch := range channels {
		if ch != nil {
			out.channels = append(out.channels, ch)
		}
	}
	return out
}

// Send fans the application out to all channels.
func (f *Fanout) Send(ctx context.Context, app model.Application) error {
	if len(f.channels) == 0 {
		f.logger.Info("notify: no channels configured, application logged only",
			"name", app.Name, "phone", app.Phone)
		return nil
	}

	var lastErr error
	delivered := 0
	for _, ch := range f.channels {
		if err := ch.SendApplication(ctx, app); err != nil {
			f.logger.Error("notify: channel delivery failed", "error", err)
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return lastErr
	}
	return nil
}
