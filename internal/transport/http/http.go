package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/crustline/order-svc/internal/metrics"
	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/payment"
	"github.com/crustline/order-svc/internal/service/models/statuslog"
	"github.com/crustline/order-svc/internal/transport/http/authctx"
	createorder "github.com/crustline/order-svc/internal/transport/http/create_order"
	getorder "github.com/crustline/order-svc/internal/transport/http/get_order"
	listadminorders "github.com/crustline/order-svc/internal/transport/http/list_admin_orders"
	listcustomerorders "github.com/crustline/order-svc/internal/transport/http/list_customer_orders"
	listvendororders "github.com/crustline/order-svc/internal/transport/http/list_vendor_orders"
	orderhistory "github.com/crustline/order-svc/internal/transport/http/order_history"
	recordpayment "github.com/crustline/order-svc/internal/transport/http/record_payment"
	transitionorder "github.com/crustline/order-svc/internal/transport/http/transition_order"
	watchorders "github.com/crustline/order-svc/internal/transport/http/watch_orders"
	"github.com/crustline/order-svc/pkg/http/middleware/trace"
	"github.com/crustline/order-svc/pkg/logger"
)

// lifecycleService is the mutation surface: every status write in the
// system goes through it.
type lifecycleService interface {
	Checkout(ctx context.Context, o order.Order) (*order.Order, error)
	RequestTransition(
		ctx context.Context,
		orderID uuid.UUID,
		target order.Status,
		act actor.Actor,
	) (*order.Order, error)
	RecordPaymentStatus(
		ctx context.Context,
		orderID uuid.UUID,
		status payment.Status,
	) (*order.Order, error)
	StatusHistory(ctx context.Context, orderID uuid.UUID, act actor.Actor) ([]statuslog.Entry, error)
}

// projectionService is the read surface.
type projectionService interface {
	GetOrder(ctx context.Context, orderID uuid.UUID, act actor.Actor) (*order.View, error)
	CustomerOrders(ctx context.Context, customerID uuid.UUID, act actor.Actor) ([]order.View, error)
	CustomerActiveOrders(ctx context.Context, customerID uuid.UUID, act actor.Actor) ([]order.View, error)
	VendorIncomingOrders(ctx context.Context, vendorID uuid.UUID, act actor.Actor) ([]order.View, error)
	AdminOrders(ctx context.Context, filter order.QueryOrdersModel, act actor.Actor) ([]order.View, error)
	WatchCustomerOrders(customerID uuid.UUID) (<-chan order.ChangeEvent, func())
}

type HTTPTransport struct {
	server      *http.Server
	router      *chi.Mux
	lifecycle   lifecycleService
	projections projectionService
}

func NewHTTPTransport(lifecycle lifecycleService, projections projectionService) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:      server,
		router:      router,
		lifecycle:   lifecycle,
		projections: projections,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.checkout)
		r.Get("/orders/{orderID}", h.getOrder)
		r.Post("/orders/{orderID}/status", h.transition)
		r.Post("/orders/{orderID}/payment", h.recordPayment)
		r.Get("/orders/{orderID}/history", h.orderHistory)

		r.Get("/customers/{customerID}/orders", h.customerOrders)
		r.Get("/customers/{customerID}/orders/active", h.customerActiveOrders)
		r.Get("/customers/{customerID}/orders/watch", h.watchOrders)

		r.Get("/vendors/{vendorID}/orders", h.vendorOrders)

		r.Get("/admin/orders", h.adminOrders)
	})

	h.router.Handle("/metrics", metrics.Handler())
}

func (h *HTTPTransport) checkout(w http.ResponseWriter, r *http.Request) {
	createorder.Checkout(w, r, h.lifecycle)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.projections)
}

func (h *HTTPTransport) transition(w http.ResponseWriter, r *http.Request) {
	transitionorder.Transition(w, r, h.lifecycle)
}

func (h *HTTPTransport) recordPayment(w http.ResponseWriter, r *http.Request) {
	recordpayment.RecordPayment(w, r, h.lifecycle)
}

func (h *HTTPTransport) orderHistory(w http.ResponseWriter, r *http.Request) {
	orderhistory.History(w, r, h.lifecycle)
}

func (h *HTTPTransport) customerOrders(w http.ResponseWriter, r *http.Request) {
	listcustomerorders.ListOrders(w, r, h.projections)
}

func (h *HTTPTransport) customerActiveOrders(w http.ResponseWriter, r *http.Request) {
	listcustomerorders.ListActiveOrders(w, r, h.projections)
}

func (h *HTTPTransport) watchOrders(w http.ResponseWriter, r *http.Request) {
	watchorders.Watch(w, r, h.projections)
}

func (h *HTTPTransport) vendorOrders(w http.ResponseWriter, r *http.Request) {
	listvendororders.ListOrders(w, r, h.projections)
}

func (h *HTTPTransport) adminOrders(w http.ResponseWriter, r *http.Request) {
	listadminorders.ListOrders(w, r, h.projections)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)
	router.Use(authctx.Middleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
