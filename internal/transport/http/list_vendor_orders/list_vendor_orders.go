package listvendororders

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
	VendorIncomingOrders(ctx context.Context, vendorID uuid.UUID, act actor.Actor) ([]order.View, error)
}

// ListOrders handles the vendor incoming-orders view.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	act, ok := authctx.FromRequest(w, r)
	if !ok {
		return
	}

	vendorID, err := uuid.Parse(chi.URLParam(r, "vendorID"))
	if err != nil {
		http.Error(w, "invalid vendor id", http.StatusBadRequest)

		return
	}

	views, err := service.VendorIncomingOrders(r.Context(), vendorID, act)
	if err != nil {
		httperr.Write(w, err)
		slog.Error("Error listing vendor orders", "vendor_id", vendorID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		slog.Error("Error sending vendor orders response", "error", err)
	}
}
