package istatuslogrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/statuslog"
)

// IStatusLogRepository is an interface for the status history
// repository.
type IStatusLogRepository interface {
	Insert(ctx context.Context, entry statuslog.Entry) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]statuslog.Entry, error)
}
