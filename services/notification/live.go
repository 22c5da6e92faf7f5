package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"fixserv/models"

	"github.com/go-redis/redis/v8"
)

// presenceKey and liveChannel share a naming scheme: the realtime gateway
// registers a presence key when a party connects and subscribes to the
// party's channel.
func presenceKey(t models.NotifyTarget) string {
	return fmt.Sprintf("presence:%s:%s", t.Role, t.ID)
}

func liveChannel(t models.NotifyTarget) string {
	return fmt.Sprintf("live:%s:%s", t.Role, t.ID)
}

// RedisPresence looks up live connections in the presence registry.
type RedisPresence struct {
	Client *redis.Client
}

func (p *RedisPresence) IsLive(ctx context.Context, target models.NotifyTarget) bool {
	n, err := p.Client.Exists(ctx, presenceKey(target)).Result()
	return err == nil && n > 0
}

// LiveNotifier publishes events for parties with a live connection, avoiding
// a duplicate push alert.
type LiveNotifier struct {
	Client *redis.Client
}

func (n *LiveNotifier) Notify(ctx context.Context, target models.NotifyTarget, msg models.NotifyMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal live event: %w", err)
	}
	if err := n.Client.Publish(ctx, liveChannel(target), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish live event: %w", err)
	}
	return nil
}
