package transitionorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/transport/http/authctx"
	"github.com/crustline/order-svc/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	RequestTransition(
		ctx context.Context,
		orderID uuid.UUID,
		target order.Status,
		act actor.Actor,
	) (*order.Order, error)
}

// transitionRequest represents a status transition request.
type transitionRequest struct {
	Status string `json:"status"`
}

// Transition handles the status transition request.
func Transition(w http.ResponseWriter, r *http.Request, service service) {
	act, ok := authctx.FromRequest(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	req := transitionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding transition request body", "error", err)

		return
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		httperr.Write(w, err)

		return
	}

	updated, err := service.RequestTransition(r.Context(), orderID, target, act)
	if err != nil {
		httperr.Write(w, err)
		slog.Error("Error applying status transition",
			"order_id", orderID,
			"target_status", target,
			"actor_role", act.Role,
			"error", err,
		)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		slog.Error("Error sending transition response", "error", err)
	}
}
