package iorderlinerepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/orderline"
)

// IOrderLineRepository is an interface for the order line postgres
// repository. Lines are insert-only; there is no update path.
type IOrderLineRepository interface {
	BulkInsert(ctx context.Context, lines []orderline.OrderLine) ([]orderline.OrderLine, error)
	QueryByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]orderline.OrderLine, error)
}
