package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/orderline"
	"github.com/crustline/order-svc/internal/service/models/payment"
)

// Order represents one purchase transaction between a customer and a
// vendor. The status and payment status fields are owned by the
// lifecycle service; everything else is immutable after creation.
type Order struct {
	ID                  uuid.UUID             `json:"id"`
	CustomerID          uuid.UUID             `json:"customerId"`
	VendorID            uuid.UUID             `json:"vendorId"`
	Status              Status                `json:"status"`
	PaymentStatus       payment.Status        `json:"paymentStatus"`
	PaymentMethod       string                `json:"paymentMethod"`
	TotalCents          int64                 `json:"totalCents"`
	DeliveryFeeCents    int64                 `json:"deliveryFeeCents"`
	DeliveryAddress     string                `json:"deliveryAddress"`
	DeliveryNotes       string                `json:"deliveryNotes,omitempty"`
	EstimatedDeliveryAt *time.Time            `json:"estimatedDeliveryAt,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
	Lines               []orderline.OrderLine `json:"lines"`
}

// ValidateTotals checks the creation invariant: every line total equals
// quantity times unit price, and the order total equals the sum of line
// totals plus the delivery fee. The fee is immutable post-creation, so
// this holds for the lifetime of the order.
func (o *Order) ValidateTotals() error {
	var sum int64
	for _, line := range o.Lines {
		if err := line.ValidateTotal(); err != nil {
			return err
		}
		sum += line.LineTotalCents
	}

	if sum+o.DeliveryFeeCents != o.TotalCents {
		return ErrTotalMismatch
	}

	return nil
}
