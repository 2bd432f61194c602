package statuslog

import (
	"time"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
)

// Entry is one status-history record, written in the same transaction
// as the status change it records.
type Entry struct {
	ID        int64        `json:"id"`
	OrderID   uuid.UUID    `json:"orderId"`
	Status    order.Status `json:"status"`
	ChangedBy uuid.UUID    `json:"changedBy"`
	Role      actor.Role   `json:"role"`
	ChangedAt time.Time    `json:"changedAt"`
}
