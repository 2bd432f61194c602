package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/payment"
)

// ChangeEvent is one order-change notification emitted by the store's
// change subscription. It carries the whole updated order row so
// consumers apply it as a full-record replace, never a partial merge.
type ChangeEvent struct {
	OrderID       uuid.UUID      `json:"id"`
	CustomerID    uuid.UUID      `json:"customer_id"`
	VendorID      uuid.UUID      `json:"vendor_id"`
	Status        Status         `json:"status"`
	PaymentStatus payment.Status `json:"payment_status"`
	TotalCents    int64          `json:"total_cents"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
