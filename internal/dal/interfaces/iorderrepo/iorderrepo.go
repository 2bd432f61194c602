package iorderrepo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/payment"
)

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (*order.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)

	// UpdateStatus is a conditional write: the row is updated only if
	// its status still equals expected. A nil order with a nil error
	// means the condition did not hold.
	UpdateStatus(
		ctx context.Context,
		id uuid.UUID,
		expected order.Status,
		target order.Status,
		updatedAt time.Time,
	) (*order.Order, error)

	UpdatePaymentStatus(
		ctx context.Context,
		id uuid.UUID,
		status payment.Status,
		updatedAt time.Time,
	) (*order.Order, error)
}
