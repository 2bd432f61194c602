package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Listener holds a dedicated connection on a Postgres notification
// channel. A trigger on the orders table emits the full updated row for
// every status change; the projection layer fans those events out to
// live order-tracking subscribers.
type Listener struct {
	client  *Client
	channel string
}

// NewListener creates a listener for the given notification channel.
func NewListener(client *Client, channel string) *Listener {
	return &Listener{
		client:  client,
		channel: channel,
	}
}

// Listen blocks on the channel and invokes handler with every raw
// notification payload until ctx is done. The acquired connection is
// pinned for the whole call; on connection errors the listener
// re-acquires and resubscribes.
func (l *Listener) Listen(ctx context.Context, handler func(payload []byte)) error {
	for {
		if err := l.listenOnce(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Listener connection lost, reconnecting", "channel", l.channel, "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, handler func(payload []byte)) error {
	conn, err := l.client.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		return fmt.Errorf("failed to listen on channel %s: %w", l.channel, err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed to wait for notification: %w", err)
		}

		handler([]byte(notification.Payload))
	}
}
