package ioutboxrepo

import (
	"context"
	"time"

	"github.com/crustline/order-svc/internal/service/models/outbox"
)

// IOutboxRepository defines the interface for the notification outbox.
type IOutboxRepository interface {
	// Insert parks a notification that could not be published.
	Insert(ctx context.Context, msg outbox.Message) error

	// GetPendingMessages retrieves messages that are ready for retry.
	GetPendingMessages(ctx context.Context, limit int) ([]outbox.Message, error)

	// Delete removes a message after successful delivery.
	Delete(ctx context.Context, id int64) error

	// UpdateRetry updates retry count and error information.
	UpdateRetry(
		ctx context.Context,
		id int64,
		retryCount int,
		lastError string,
		nextRetryAt time.Time,
	) error
}
