package watchorders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/transport/http/authctx"
)

// service is an interface for the service layer.
type service interface {
	WatchCustomerOrders(customerID uuid.UUID) (<-chan order.ChangeEvent, func())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are already restricted by the CORS layer in front.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Watch streams order change events for one customer over a websocket.
// Each message is a whole order record; the client replaces its local
// copy instead of merging fields.
func Watch(w http.ResponseWriter, r *http.Request, service service) {
	act, ok := authctx.FromRequest(w, r)
	if !ok {
		return
	}

	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)

		return
	}

	if act.Role != actor.RoleAdmin && (act.Role != actor.RoleCustomer || act.ID != customerID) {
		http.Error(w, "cannot watch another customer's orders", http.StatusForbidden)

		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Error upgrading watch connection", "error", err)

		return
	}
	defer conn.Close()

	events, cancel := service.WatchCustomerOrders(customerID)
	defer cancel()

	// Drain the read side so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				slog.Warn("Error writing watch event, closing", "customer_id", customerID, "error", err)

				return
			}
		}
	}
}
