package notification

import (
	"context"

	"fixserv/models"

	"go.uber.org/zap"
)

// Notifier delivers a structured message to a party over one channel.
type Notifier interface {
	Notify(ctx context.Context, target models.NotifyTarget, msg models.NotifyMessage) error
}

// Presence reports whether a party currently holds a live connection, so a
// cheap live-channel event can be preferred over a push notification.
type Presence interface {
	IsLive(ctx context.Context, target models.NotifyTarget) bool
}

// Dispatcher picks the channel per target and swallows delivery failures:
// notification problems are logged, never surfaced as booking or wallet
// errors.
type Dispatcher struct {
	Presence Presence
	Live     Notifier
	Push     Notifier
	Logger   *zap.Logger
}

// Notify delivers best-effort over the preferred channel.
func (d *Dispatcher) Notify(ctx context.Context, target models.NotifyTarget, msg models.NotifyMessage) {
	var err error
	if d.Presence != nil && d.Live != nil && d.Presence.IsLive(ctx, target) {
		err = d.Live.Notify(ctx, target, msg)
	} else if d.Push != nil {
		err = d.Push.Notify(ctx, target, msg)
	}
	if err != nil {
		d.Logger.Warn("notification delivery failed",
			zap.String("role", string(target.Role)),
			zap.String("target", target.ID),
			zap.String("type", msg.Type),
			zap.Error(err))
	}
}
