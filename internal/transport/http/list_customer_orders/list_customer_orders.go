package listcustomerorders

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
	CustomerOrders(ctx context.Context, customerID uuid.UUID, act actor.Actor) ([]order.View, error)
	CustomerActiveOrders(ctx context.Context, customerID uuid.UUID, act actor.Actor) ([]order.View, error)
}

// ListOrders handles the customer order history view.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	list(w, r, service, false)
}

// ListActiveOrders handles the customer live-tracking view.
func ListActiveOrders(w http.ResponseWriter, r *http.Request, service service) {
	list(w, r, service, true)
}

func list(w http.ResponseWriter, r *http.Request, service service, activeOnly bool) {
	act, ok := authctx.FromRequest(w, r)
	if !ok {
		return
	}

	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)

		return
	}

	var views []order.View
	if activeOnly {
		views, err = service.CustomerActiveOrders(r.Context(), customerID, act)
	} else {
		views, err = service.CustomerOrders(r.Context(), customerID, act)
	}
	if err != nil {
		httperr.Write(w, err)
		slog.Error("Error listing customer orders", "customer_id", customerID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		slog.Error("Error sending customer orders response", "error", err)
	}
}
