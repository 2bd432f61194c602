package listadminorders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/transport/http/authctx"
	"github.com/crustline/order-svc/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	AdminOrders(ctx context.Context, filter order.QueryOrdersModel, act actor.Actor) ([]order.View, error)
}

// adminOrdersRequest represents the admin list query string.
type adminOrdersRequest struct {
	Search string `schema:"search,omitempty"`
	Limit  int    `schema:"limit,omitempty"`
	Offset int    `schema:"offset,omitempty"`
}

func (q *adminOrdersRequest) toModel() order.QueryOrdersModel {
	return order.QueryOrdersModel{
		Search: q.Search,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
}

// ListOrders handles the unrestricted admin view.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	act, ok := authctx.FromRequest(w, r)
	if !ok {
		return
	}

	decoder := schema.NewDecoder()
	query := &adminOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding admin orders query", "error", err)

		return
	}

	views, err := service.AdminOrders(r.Context(), query.toModel(), act)
	if err != nil {
		httperr.Write(w, err)
		slog.Error("Error listing admin orders", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		slog.Error("Error sending admin orders response", "error", err)
	}
}
