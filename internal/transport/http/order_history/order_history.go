package orderhistory

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/statuslog"
	"github.com/crustline/order-svc/internal/transport/http/authctx"
	"github.com/crustline/order-svc/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	StatusHistory(ctx context.Context, orderID uuid.UUID, act actor.Actor) ([]statuslog.Entry, error)
}

// History handles a status history read.
func History(w http.ResponseWriter, r *http.Request, service service) {
	act, ok := authctx.FromRequest(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	history, err := service.StatusHistory(r.Context(), orderID, act)
	if err != nil {
		httperr.Write(w, err)
		slog.Error("Error getting order history", "order_id", orderID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(history); err != nil {
		slog.Error("Error sending order history response", "error", err)
	}
}
