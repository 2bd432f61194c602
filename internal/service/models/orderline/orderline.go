package orderline

import (
	"errors"

	"github.com/google/uuid"
)

var ErrLineTotalMismatch = errors.New("line total does not equal quantity times unit price")

// OrderLine is one pizza line item within an order. The name and
// description are snapshots taken at order time; later edits to the
// pizza definition never change them. Lines are created atomically with
// their parent order and are immutable afterwards.
type OrderLine struct {
	ID                  uuid.UUID `json:"id"`
	OrderID             uuid.UUID `json:"orderId"`
	PizzaID             uuid.UUID `json:"pizzaId"`
	NameSnapshot        string    `json:"nameSnapshot"`
	DescriptionSnapshot string    `json:"descriptionSnapshot,omitempty"`
	Quantity            int       `json:"quantity"`
	UnitPriceCents      int64     `json:"unitPriceCents"`
	LineTotalCents      int64     `json:"lineTotalCents"`
	Size                string    `json:"size,omitempty"`
	Toppings            []string  `json:"toppings,omitempty"`
}

// ValidateTotal checks that the stored line total is exactly quantity
// times unit price.
func (l *OrderLine) ValidateTotal() error {
	if l.LineTotalCents != int64(l.Quantity)*l.UnitPriceCents {
		return ErrLineTotalMismatch
	}

	return nil
}
