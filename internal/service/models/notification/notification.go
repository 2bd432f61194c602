package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/order"
)

// StatusChange is the message published for every durable status
// change. Delivery is at-least-once; receivers de-duplicate on
// (orderId, previousStatus, newStatus) if they need exactly-once
// behavior.
type StatusChange struct {
	OrderID        uuid.UUID    `json:"orderId"`
	CustomerID     uuid.UUID    `json:"customerId"`
	VendorID       uuid.UUID    `json:"vendorId"`
	PreviousStatus order.Status `json:"previousStatus"`
	NewStatus      order.Status `json:"newStatus"`
	OccurredAt     time.Time    `json:"occurredAt"`
}
