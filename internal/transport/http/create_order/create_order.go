package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/orderline"
	"github.com/crustline/order-svc/internal/transport/http/authctx"
	"github.com/crustline/order-svc/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	Checkout(ctx context.Context, o order.Order) (*order.Order, error)
}

// lineInCheckoutRequest represents one pizza line in a checkout request.
type lineInCheckoutRequest struct {
	PizzaID             uuid.UUID `json:"pizzaId"             validate:"required"`
	NameSnapshot        string    `json:"nameSnapshot"        validate:"required"`
	DescriptionSnapshot string    `json:"descriptionSnapshot"`
	Quantity            int       `json:"quantity"            validate:"gt=0"`
	UnitPriceCents      int64     `json:"unitPriceCents"      validate:"gt=0"`
	LineTotalCents      int64     `json:"lineTotalCents"      validate:"gt=0"`
	Size                string    `json:"size"`
	Toppings            []string  `json:"toppings"`
}

func (r *lineInCheckoutRequest) toModel() orderline.OrderLine {
	return orderline.OrderLine{
		PizzaID:             r.PizzaID,
		NameSnapshot:        r.NameSnapshot,
		DescriptionSnapshot: r.DescriptionSnapshot,
		Quantity:            r.Quantity,
		UnitPriceCents:      r.UnitPriceCents,
		LineTotalCents:      r.LineTotalCents,
		Size:                r.Size,
		Toppings:            r.Toppings,
	}
}

// checkoutRequest represents a checkout request.
type checkoutRequest struct {
	VendorID            uuid.UUID               `json:"vendorId"            validate:"required"`
	TotalCents          int64                   `json:"totalCents"          validate:"gt=0"`
	DeliveryFeeCents    int64                   `json:"deliveryFeeCents"    validate:"gte=0"`
	DeliveryAddress     string                  `json:"deliveryAddress"     validate:"required"`
	DeliveryNotes       string                  `json:"deliveryNotes"`
	PaymentMethod       string                  `json:"paymentMethod"       validate:"required"`
	EstimatedDeliveryAt *time.Time              `json:"estimatedDeliveryAt"`
	Lines               []lineInCheckoutRequest `json:"lines"               validate:"required,min=1,dive"`
}

// Validate validates the checkout request.
func (r *checkoutRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *checkoutRequest) toModel(customerID uuid.UUID) order.Order {
	lines := make([]orderline.OrderLine, len(r.Lines))
	for i := range r.Lines {
		lines[i] = r.Lines[i].toModel()
	}

	return order.Order{
		CustomerID:          customerID,
		VendorID:            r.VendorID,
		TotalCents:          r.TotalCents,
		DeliveryFeeCents:    r.DeliveryFeeCents,
		DeliveryAddress:     r.DeliveryAddress,
		DeliveryNotes:       r.DeliveryNotes,
		PaymentMethod:       r.PaymentMethod,
		EstimatedDeliveryAt: r.EstimatedDeliveryAt,
		Lines:               lines,
	}
}

// Checkout handles the checkout request.
func Checkout(w http.ResponseWriter, r *http.Request, service service) {
	act, ok := authctx.FromRequest(w, r)
	if !ok {
		return
	}
	if act.Role != actor.RoleCustomer {
		http.Error(w, "only customers may place orders", http.StatusForbidden)

		return
	}

	req := checkoutRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding checkout request body", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating checkout request body", "error", err)

		return
	}

	created, err := service.Checkout(r.Context(), req.toModel(act.ID))
	if err != nil {
		httperr.Write(w, err)
		slog.Error("Error performing checkout", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		slog.Error("Error sending checkout response", "error", err)
	}
}
