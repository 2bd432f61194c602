package projectionsvc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/orderline"
	"github.com/crustline/order-svc/internal/service/models/payment"
	"github.com/crustline/order-svc/internal/service/models/user"
	"github.com/crustline/order-svc/internal/service/models/vendor"
)

type stubOrderRepository struct {
	orders []order.Order

	lastFilter *order.QueryOrdersModel
}

func (r *stubOrderRepository) Insert(_ context.Context, o order.Order) (*order.Order, error) {
	return &o, nil
}

func (r *stubOrderRepository) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			snapshot := o

			return &snapshot, nil
		}
	}

	return nil, order.ErrOrderNotFound
}

func (r *stubOrderRepository) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	r.lastFilter = filter

	var out []order.Order
	for _, o := range r.orders {
		if !matchIDs(filter.CustomerIDs, o.CustomerID) {
			continue
		}
		if !matchIDs(filter.VendorIDs, o.VendorID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}

	return out, nil
}

func matchIDs(ids []uuid.UUID, id uuid.UUID) bool {
	if len(ids) == 0 {
		return true
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}

	return false
}

func containsStatus(statuses []order.Status, s order.Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}

	return false
}

func (r *stubOrderRepository) UpdateStatus(
	context.Context, uuid.UUID, order.Status, order.Status, time.Time,
) (*order.Order, error) {
	return nil, nil
}

func (r *stubOrderRepository) UpdatePaymentStatus(
	context.Context, uuid.UUID, payment.Status, time.Time,
) (*order.Order, error) {
	return nil, nil
}

type stubOrderLineRepository struct {
	lines []orderline.OrderLine
}

func (r *stubOrderLineRepository) BulkInsert(
	_ context.Context,
	lines []orderline.OrderLine,
) ([]orderline.OrderLine, error) {
	return lines, nil
}

func (r *stubOrderLineRepository) QueryByOrderIDs(
	_ context.Context,
	orderIDs []uuid.UUID,
) ([]orderline.OrderLine, error) {
	var out []orderline.OrderLine
	for _, line := range r.lines {
		for _, id := range orderIDs {
			if line.OrderID == id {
				out = append(out, line)
			}
		}
	}

	return out, nil
}

type stubUserRepository struct {
	users map[uuid.UUID]user.User
}

func (r *stubUserRepository) GetByIDs(
	_ context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]user.User, error) {
	out := make(map[uuid.UUID]user.User)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}

	return out, nil
}

type stubVendorRepository struct {
	vendors map[uuid.UUID]vendor.Vendor
}

func (r *stubVendorRepository) GetByID(_ context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	v, ok := r.vendors[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}

	return &v, nil
}

func (r *stubVendorRepository) GetByIDs(
	_ context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]vendor.Vendor, error) {
	out := make(map[uuid.UUID]vendor.Vendor)
	for _, id := range ids {
		if v, ok := r.vendors[id]; ok {
			out[id] = v
		}
	}

	return out, nil
}

type projectionFixture struct {
	svc        *ProjectionService
	customerID uuid.UUID
	vendorID   uuid.UUID
	ownerID    uuid.UUID
	orders     map[order.Status]uuid.UUID
}

func newProjectionFixture(t *testing.T) *projectionFixture {
	t.Helper()

	customerID := uuid.New()
	vendorID := uuid.New()
	ownerID := uuid.New()

	orderRepo := &stubOrderRepository{}
	orders := make(map[order.Status]uuid.UUID)
	for _, status := range []order.Status{
		order.StatusPending,
		order.StatusPreparing,
		order.StatusReady,
		order.StatusConfirmed,
		order.StatusDelivered,
		order.StatusCancelled,
	} {
		id := uuid.New()
		orders[status] = id
		orderRepo.orders = append(orderRepo.orders, order.Order{
			ID:         id,
			CustomerID: customerID,
			VendorID:   vendorID,
			Status:     status,
			TotalCents: 1500,
		})
	}

	svc := MustNewProjectionService()
	svc.orderRepo = orderRepo
	svc.orderLineRepo = &stubOrderLineRepository{}
	svc.userRepo = &stubUserRepository{
		users: map[uuid.UUID]user.User{
			customerID: {ID: customerID, Name: "Ada", Phone: "+3901234"},
		},
	}
	svc.vendorRepo = &stubVendorRepository{
		vendors: map[uuid.UUID]vendor.Vendor{
			vendorID: {ID: vendorID, OwnerID: ownerID, Name: "Trattoria Uno", Approved: true, Active: true},
		},
	}

	return &projectionFixture{
		svc:        svc,
		customerID: customerID,
		vendorID:   vendorID,
		ownerID:    ownerID,
		orders:     orders,
	}
}

func TestCustomerActiveOrders(t *testing.T) {
	f := newProjectionFixture(t)
	act := actor.Actor{ID: f.customerID, Role: actor.RoleCustomer}

	views, err := f.svc.CustomerActiveOrders(context.Background(), f.customerID, act)
	require.NoError(t, err)

	require.Len(t, views, 3)
	for _, v := range views {
		assert.Contains(t,
			[]order.Status{order.StatusPending, order.StatusPreparing, order.StatusReady},
			v.Status,
		)
	}
}

func TestCustomerOrders(t *testing.T) {
	t.Run("history includes terminal orders", func(t *testing.T) {
		f := newProjectionFixture(t)
		act := actor.Actor{ID: f.customerID, Role: actor.RoleCustomer}

		views, err := f.svc.CustomerOrders(context.Background(), f.customerID, act)
		require.NoError(t, err)
		assert.Len(t, views, 6)
	})

	t.Run("another customer is rejected", func(t *testing.T) {
		f := newProjectionFixture(t)
		act := actor.Actor{ID: uuid.New(), Role: actor.RoleCustomer}

		_, err := f.svc.CustomerOrders(context.Background(), f.customerID, act)
		assert.ErrorIs(t, err, order.ErrUnauthorized)
	})

	t.Run("admin may read any customer", func(t *testing.T) {
		f := newProjectionFixture(t)
		act := actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin}

		views, err := f.svc.CustomerOrders(context.Background(), f.customerID, act)
		require.NoError(t, err)
		assert.Len(t, views, 6)
	})
}

func TestVendorIncomingOrders(t *testing.T) {
	t.Run("owner sees the vendor queue", func(t *testing.T) {
		f := newProjectionFixture(t)
		act := actor.Actor{ID: f.ownerID, Role: actor.RoleVendor}

		views, err := f.svc.VendorIncomingOrders(context.Background(), f.vendorID, act)
		require.NoError(t, err)
		assert.Len(t, views, 6)
		assert.Equal(t, "Trattoria Uno", views[0].VendorName)
	})

	t.Run("vendor that does not own the shop is rejected", func(t *testing.T) {
		f := newProjectionFixture(t)
		act := actor.Actor{ID: uuid.New(), Role: actor.RoleVendor}

		_, err := f.svc.VendorIncomingOrders(context.Background(), f.vendorID, act)
		assert.ErrorIs(t, err, order.ErrUnauthorized)
	})

	t.Run("customer is rejected", func(t *testing.T) {
		f := newProjectionFixture(t)
		act := actor.Actor{ID: f.customerID, Role: actor.RoleCustomer}

		_, err := f.svc.VendorIncomingOrders(context.Background(), f.vendorID, act)
		assert.ErrorIs(t, err, order.ErrUnauthorized)
	})
}

func TestAdminOrders(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		f := newProjectionFixture(t)

		_, err := f.svc.AdminOrders(
			context.Background(),
			order.QueryOrdersModel{},
			actor.Actor{ID: f.customerID, Role: actor.RoleCustomer},
		)
		assert.ErrorIs(t, err, order.ErrUnauthorized)
	})

	t.Run("filter is passed through untouched", func(t *testing.T) {
		f := newProjectionFixture(t)
		repo := f.svc.orderRepo.(*stubOrderRepository)

		_, err := f.svc.AdminOrders(
			context.Background(),
			order.QueryOrdersModel{Search: "trattoria", Limit: 20},
			actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin},
		)
		require.NoError(t, err)
		require.NotNil(t, repo.lastFilter)
		assert.Equal(t, "trattoria", repo.lastFilter.Search)
		assert.Equal(t, 20, repo.lastFilter.Limit)
	})
}

func TestGetOrder(t *testing.T) {
	t.Run("owner customer gets the decorated view", func(t *testing.T) {
		f := newProjectionFixture(t)
		act := actor.Actor{ID: f.customerID, Role: actor.RoleCustomer}

		view, err := f.svc.GetOrder(context.Background(), f.orders[order.StatusPending], act)
		require.NoError(t, err)
		assert.Equal(t, "Ada", view.CustomerName)
		assert.Equal(t, "+3901234", view.CustomerContact)
		assert.Equal(t, "Trattoria Uno", view.VendorName)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		f := newProjectionFixture(t)
		act := actor.Actor{ID: uuid.New(), Role: actor.RoleCustomer}

		_, err := f.svc.GetOrder(context.Background(), f.orders[order.StatusPending], act)
		assert.ErrorIs(t, err, order.ErrUnauthorized)
	})
}

func TestWatchHub(t *testing.T) {
	t.Run("events reach every subscriber of the customer", func(t *testing.T) {
		hub := newWatchHub()
		customerID := uuid.New()

		first, cancelFirst := hub.subscribe(customerID)
		second, cancelSecond := hub.subscribe(customerID)
		other, cancelOther := hub.subscribe(uuid.New())
		defer cancelFirst()
		defer cancelSecond()
		defer cancelOther()

		event := order.ChangeEvent{
			OrderID:    uuid.New(),
			CustomerID: customerID,
			Status:     order.StatusReady,
		}
		hub.broadcast(event)

		assert.Equal(t, event, <-first)
		assert.Equal(t, event, <-second)
		assert.Empty(t, other)
	})

	t.Run("cancel closes the channel and detaches it", func(t *testing.T) {
		hub := newWatchHub()
		customerID := uuid.New()

		events, cancel := hub.subscribe(customerID)
		cancel()

		_, open := <-events
		assert.False(t, open)

		// Double cancel must not panic on the already-closed channel.
		cancel()

		hub.broadcast(order.ChangeEvent{CustomerID: customerID})
	})

	t.Run("slow consumer drops instead of blocking", func(t *testing.T) {
		hub := newWatchHub()
		customerID := uuid.New()

		events, cancel := hub.subscribe(customerID)
		defer cancel()

		for i := 0; i < subscriberBuffer+5; i++ {
			hub.broadcast(order.ChangeEvent{CustomerID: customerID})
		}

		assert.Len(t, events, subscriberBuffer)
	})
}
