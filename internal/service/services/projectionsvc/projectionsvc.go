package projectionsvc

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/dal/interfaces/iorderlinerepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/iuserrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/ivendorrepo"
	"github.com/crustline/order-svc/internal/dal/postgres"
	orderrepo "github.com/crustline/order-svc/internal/dal/repositories/order/postgres"
	orderlinerepo "github.com/crustline/order-svc/internal/dal/repositories/orderline/postgres"
	userrepo "github.com/crustline/order-svc/internal/dal/repositories/user/postgres"
	vendorrepo "github.com/crustline/order-svc/internal/dal/repositories/vendors/postgres"
	"github.com/crustline/order-svc/internal/service/authz"
	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
)

// listener is the store's change-subscription boundary.
type listener interface {
	Listen(ctx context.Context, handler func(payload []byte)) error
}

// activeStatuses is what the live customer tracking view shows.
var activeStatuses = []order.Status{
	order.StatusPending,
	order.StatusPreparing,
	order.StatusReady,
}

// ProjectionService serves the read-only order views. Every projection
// runs over the same order store with its own scope and sort; none of
// them ever mutate anything.
type ProjectionService struct {
	orderRepo     iorderrepo.IOrderRepository
	orderLineRepo iorderlinerepo.IOrderLineRepository
	userRepo      iuserrepo.IUserRepository
	vendorRepo    ivendorrepo.IVendorRepository
	listener      listener
	hub           *watchHub
}

// option is a function that configures the ProjectionService.
type option func(*ProjectionService)

// MustNewProjectionService creates a new ProjectionService.
func MustNewProjectionService(opts ...option) *ProjectionService {
	s := &ProjectionService{
		hub: newWatchHub(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres-backed repositories.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *ProjectionService) {
		s.orderRepo = orderrepo.NewPostgresOrderRepository(pgClient.Pool())
		s.orderLineRepo = orderlinerepo.NewPostgresOrderLineRepository(pgClient.Pool())
		s.userRepo = userrepo.NewPostgresUserRepository(pgClient.Pool())
		s.vendorRepo = vendorrepo.NewPostgresVendorRepository(pgClient.Pool())
	}
}

// WithListener sets the order change subscription source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithListener(l listener) option {
	return func(s *ProjectionService) {
		s.listener = l
	}
}

// Run consumes the change subscription and fans events out to watch
// subscribers until ctx is done.
func (s *ProjectionService) Run(ctx context.Context) error {
	if s.listener == nil {
		<-ctx.Done()

		return ctx.Err()
	}

	return s.listener.Listen(ctx, func(payload []byte) {
		var event order.ChangeEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			slog.Error("Failed to decode order change event", "error", err)

			return
		}

		s.hub.broadcast(event)
	})
}

// CustomerOrders returns the customer's full order history, newest
// first, unfiltered by status. Only the customer themselves or an
// admin may read it.
func (s *ProjectionService) CustomerOrders(
	ctx context.Context,
	customerID uuid.UUID,
	act actor.Actor,
) ([]order.View, error) {
	if !canReadCustomerScope(customerID, act) {
		return nil, order.ErrUnauthorized
	}

	orders, err := s.orderRepo.Query(ctx, &order.QueryOrdersModel{
		CustomerIDs: []uuid.UUID{customerID},
	})
	if err != nil {
		return nil, err
	}

	return s.decorate(ctx, orders)
}

// CustomerActiveOrders returns the customer's live-tracking view:
// orders still moving through the kitchen.
func (s *ProjectionService) CustomerActiveOrders(
	ctx context.Context,
	customerID uuid.UUID,
	act actor.Actor,
) ([]order.View, error) {
	if !canReadCustomerScope(customerID, act) {
		return nil, order.ErrUnauthorized
	}

	orders, err := s.orderRepo.Query(ctx, &order.QueryOrdersModel{
		CustomerIDs: []uuid.UUID{customerID},
		Statuses:    activeStatuses,
	})
	if err != nil {
		return nil, err
	}

	return s.decorate(ctx, orders)
}

// VendorIncomingOrders returns all orders of one vendor, newest first.
// The projection returns active and historical alike; the caller
// separates them. Only the vendor owner or an admin may read it.
func (s *ProjectionService) VendorIncomingOrders(
	ctx context.Context,
	vendorID uuid.UUID,
	act actor.Actor,
) ([]order.View, error) {
	if act.Role != actor.RoleAdmin {
		if act.Role != actor.RoleVendor {
			return nil, order.ErrUnauthorized
		}

		vendors, err := s.vendorRepo.GetByIDs(ctx, []uuid.UUID{vendorID})
		if err != nil {
			return nil, err
		}
		v, ok := vendors[vendorID]
		if !ok || v.OwnerID != act.ID {
			return nil, order.ErrUnauthorized
		}
	}

	orders, err := s.orderRepo.Query(ctx, &order.QueryOrdersModel{
		VendorIDs: []uuid.UUID{vendorID},
	})
	if err != nil {
		return nil, err
	}

	return s.decorate(ctx, orders)
}

// AdminOrders is the unrestricted view with free-text search across
// order id, customer name, vendor name and status.
func (s *ProjectionService) AdminOrders(
	ctx context.Context,
	filter order.QueryOrdersModel,
	act actor.Actor,
) ([]order.View, error) {
	if act.Role != actor.RoleAdmin {
		return nil, order.ErrUnauthorized
	}

	orders, err := s.orderRepo.Query(ctx, &filter)
	if err != nil {
		return nil, err
	}

	return s.decorate(ctx, orders)
}

func canReadCustomerScope(customerID uuid.UUID, act actor.Actor) bool {
	if act.Role == actor.RoleAdmin {
		return true
	}

	return act.Role == actor.RoleCustomer && act.ID == customerID
}

// GetOrder returns one order if the actor has rights over it.
func (s *ProjectionService) GetOrder(ctx context.Context, orderID uuid.UUID, act actor.Actor) (*order.View, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	vendors, err := s.vendorRepo.GetByIDs(ctx, []uuid.UUID{o.VendorID})
	if err != nil {
		return nil, err
	}

	v, ok := vendors[o.VendorID]
	if !ok {
		if !authz.CanView(o, nil, act) {
			return nil, order.ErrUnauthorized
		}
	} else if !authz.CanView(o, &v, act) {
		return nil, order.ErrUnauthorized
	}

	views, err := s.decorate(ctx, []order.Order{*o})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// WatchCustomerOrders subscribes to change events for one customer's
// orders. The returned cancel function must be called when the
// consumer goes away.
func (s *ProjectionService) WatchCustomerOrders(customerID uuid.UUID) (<-chan order.ChangeEvent, func()) {
	return s.hub.subscribe(customerID)
}

// decorate joins display names and line snapshots into views.
func (s *ProjectionService) decorate(ctx context.Context, orders []order.Order) ([]order.View, error) {
	if len(orders) == 0 {
		return []order.View{}, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	customerIDs := make([]uuid.UUID, 0, len(orders))
	vendorIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		customerIDs = append(customerIDs, o.CustomerID)
		vendorIDs = append(vendorIDs, o.VendorID)
	}

	lines, err := s.orderLineRepo.QueryByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, customerIDs)
	if err != nil {
		return nil, err
	}

	vendors, err := s.vendorRepo.GetByIDs(ctx, vendorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]order.View, len(orders))
	for i, o := range orders {
		for _, line := range lines {
			if line.OrderID == o.ID {
				o.Lines = append(o.Lines, line)
			}
		}

		view := order.View{Order: o}
		if u, ok := users[o.CustomerID]; ok {
			view.CustomerName = u.Name
			view.CustomerContact = u.Contact()
		}
		if v, ok := vendors[o.VendorID]; ok {
			view.VendorName = v.Name
		}
		views[i] = view
	}

	return views, nil
}
