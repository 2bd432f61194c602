package recordpayment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/payment"
	"github.com/crustline/order-svc/internal/transport/http/authctx"
	"github.com/crustline/order-svc/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	RecordPaymentStatus(
		ctx context.Context,
		orderID uuid.UUID,
		status payment.Status,
	) (*order.Order, error)
}

// paymentCallbackRequest is what the external payment collaborator
// posts after processing a charge or refund.
type paymentCallbackRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

// RecordPayment handles the payment collaborator callback. The caller
// is the platform's payment function, which authenticates upstream and
// arrives with the admin role.
func RecordPayment(w http.ResponseWriter, r *http.Request, service service) {
	act, ok := authctx.FromRequest(w, r)
	if !ok {
		return
	}
	if act.Role != actor.RoleAdmin {
		http.Error(w, "only the payment collaborator may record payment status", http.StatusForbidden)

		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	req := paymentCallbackRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding payment callback body", "error", err)

		return
	}

	status, err := payment.ParseStatus(req.PaymentStatus)
	if err != nil {
		httperr.Write(w, err)

		return
	}

	updated, err := service.RecordPaymentStatus(r.Context(), orderID, status)
	if err != nil {
		httperr.Write(w, err)
		slog.Error("Error recording payment status", "order_id", orderID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		slog.Error("Error sending payment callback response", "error", err)
	}
}
