package lifecyclesvc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crustline/order-svc/internal/dal/interfaces/iorderlinerepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/istatuslogrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/ivendorrepo"
	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/orderline"
	"github.com/crustline/order-svc/internal/service/models/outbox"
	"github.com/crustline/order-svc/internal/service/models/payment"
	"github.com/crustline/order-svc/internal/service/models/statuslog"
	"github.com/crustline/order-svc/internal/service/models/vendor"
)

type fakeOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]order.Order

	// forceConflict makes the next conditional write miss regardless of
	// the stored status, simulating a concurrent winner.
	forceConflict bool
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[uuid.UUID]order.Order)}
}

func (r *fakeOrderRepository) Insert(_ context.Context, o order.Order) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.orders[o.ID] = o
	snapshot := o

	return &snapshot, nil
}

func (r *fakeOrderRepository) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	snapshot := o

	return &snapshot, nil
}

func (r *fakeOrderRepository) Query(_ context.Context, _ *order.QueryOrdersModel) ([]order.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepository) UpdateStatus(
	_ context.Context,
	id uuid.UUID,
	expected order.Status,
	target order.Status,
	updatedAt time.Time,
) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.forceConflict {
		r.forceConflict = false

		return nil, nil
	}

	o, ok := r.orders[id]
	if !ok || o.Status != expected {
		return nil, nil
	}

	o.Status = target
	o.UpdatedAt = updatedAt
	r.orders[id] = o
	snapshot := o

	return &snapshot, nil
}

func (r *fakeOrderRepository) UpdatePaymentStatus(
	_ context.Context,
	id uuid.UUID,
	status payment.Status,
	updatedAt time.Time,
) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}

	o.PaymentStatus = status
	o.UpdatedAt = updatedAt
	r.orders[id] = o
	snapshot := o

	return &snapshot, nil
}

type fakeOrderLineRepository struct {
	mu    sync.Mutex
	lines []orderline.OrderLine
}

func (r *fakeOrderLineRepository) BulkInsert(
	_ context.Context,
	lines []orderline.OrderLine,
) ([]orderline.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
	}
	r.lines = append(r.lines, lines...)

	return lines, nil
}

func (r *fakeOrderLineRepository) QueryByOrderIDs(
	_ context.Context,
	orderIDs []uuid.UUID,
) ([]orderline.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

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

type fakeStatusLogRepository struct {
	mu      sync.Mutex
	entries []statuslog.Entry
}

func (r *fakeStatusLogRepository) Insert(_ context.Context, entry statuslog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, entry)

	return nil
}

func (r *fakeStatusLogRepository) ListByOrderID(
	_ context.Context,
	orderID uuid.UUID,
) ([]statuslog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []statuslog.Entry
	for _, entry := range r.entries {
		if entry.OrderID == orderID {
			out = append(out, entry)
		}
	}

	return out, nil
}

type fakeVendorRepository struct {
	vendors map[uuid.UUID]vendor.Vendor
}

func (r *fakeVendorRepository) GetByID(_ context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	v, ok := r.vendors[id]
	if !ok {
		return nil, errors.New("vendor not found")
	}

	return &v, nil
}

func (r *fakeVendorRepository) GetByIDs(
	_ context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]vendor.Vendor, error) {
	out := make(map[uuid.UUID]vendor.Vendor, len(ids))
	for _, id := range ids {
		if v, ok := r.vendors[id]; ok {
			out[id] = v
		}
	}

	return out, nil
}

type fakeUnitOfWork struct {
	orderRepo     *fakeOrderRepository
	orderLineRepo *fakeOrderLineRepository
	statusLogRepo *fakeStatusLogRepository
	vendorRepo    *fakeVendorRepository

	mu      sync.Mutex
	commits int
}

func (f *fakeUnitOfWork) Begin(context.Context) error { return nil }

func (f *fakeUnitOfWork) Commit(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++

	return nil
}

func (f *fakeUnitOfWork) Rollback(context.Context) error { return nil }

func (f *fakeUnitOfWork) OrderRepository() iorderrepo.IOrderRepository { return f.orderRepo }

func (f *fakeUnitOfWork) OrderLineRepository() iorderlinerepo.IOrderLineRepository {
	return f.orderLineRepo
}

func (f *fakeUnitOfWork) StatusLogRepository() istatuslogrepo.IStatusLogRepository {
	return f.statusLogRepo
}

func (f *fakeUnitOfWork) VendorRepository() ivendorrepo.IVendorRepository { return f.vendorRepo }

type dispatchCall struct {
	order    order.Order
	previous order.Status
	next     order.Status
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (d *fakeDispatcher) Notify(_ context.Context, o order.Order, previous, next order.Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{order: o, previous: previous, next: next})

	return d.err
}

func (d *fakeDispatcher) Queue() string { return "orders.status.changed" }

func (d *fakeDispatcher) Calls() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]dispatchCall(nil), d.calls...)
}

type fakeOutboxRepository struct {
	mu       sync.Mutex
	inserted []outbox.Message
}

func (r *fakeOutboxRepository) Insert(_ context.Context, msg outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, msg)

	return nil
}

func (r *fakeOutboxRepository) GetPendingMessages(context.Context, int) ([]outbox.Message, error) {
	return nil, nil
}

func (r *fakeOutboxRepository) Delete(context.Context, int64) error { return nil }

func (r *fakeOutboxRepository) UpdateRetry(context.Context, int64, int, string, time.Time) error {
	return nil
}

func (r *fakeOutboxRepository) Inserted() []outbox.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]outbox.Message(nil), r.inserted...)
}

type testHarness struct {
	svc        *OrderLifecycleService
	work       *fakeUnitOfWork
	dispatcher *fakeDispatcher
	outboxRepo *fakeOutboxRepository
	vendorID   uuid.UUID
	ownerID    uuid.UUID
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	ownerID := uuid.New()
	vendorID := uuid.New()

	work := &fakeUnitOfWork{
		orderRepo:     newFakeOrderRepository(),
		orderLineRepo: &fakeOrderLineRepository{},
		statusLogRepo: &fakeStatusLogRepository{},
		vendorRepo: &fakeVendorRepository{
			vendors: map[uuid.UUID]vendor.Vendor{
				vendorID: {
					ID:       vendorID,
					OwnerID:  ownerID,
					Name:     "Trattoria Uno",
					Approved: true,
					Active:   true,
				},
			},
		},
	}

	dispatcher := &fakeDispatcher{}
	outboxRepo := &fakeOutboxRepository{}

	svc := MustNewOrderLifecycleService(
		WithDispatcher(dispatcher),
		WithOutboxRepository(outboxRepo),
	)
	svc.newUOW = func() unitOfWork { return work }

	return &testHarness{
		svc:        svc,
		work:       work,
		dispatcher: dispatcher,
		outboxRepo: outboxRepo,
		vendorID:   vendorID,
		ownerID:    ownerID,
	}
}

func (h *testHarness) seedOrder(t *testing.T, customerID uuid.UUID, status order.Status) *order.Order {
	t.Helper()

	seeded, err := h.work.orderRepo.Insert(context.Background(), order.Order{
		CustomerID:      customerID,
		VendorID:        h.vendorID,
		Status:          status,
		PaymentStatus:   payment.StatusPending,
		TotalCents:      2500,
		DeliveryAddress: "Via Roma 1",
	})
	require.NoError(t, err)

	return seeded
}

func checkoutOrder(customerID, vendorID uuid.UUID) order.Order {
	return order.Order{
		CustomerID:       customerID,
		VendorID:         vendorID,
		PaymentMethod:    "card",
		TotalCents:       2700,
		DeliveryFeeCents: 300,
		DeliveryAddress:  "Via Roma 1",
		Lines: []orderline.OrderLine{
			{
				PizzaID:        uuid.New(),
				NameSnapshot:   "Margherita",
				Quantity:       2,
				UnitPriceCents: 1200,
				LineTotalCents: 2400,
			},
		},
	}
}

func TestCheckout(t *testing.T) {
	t.Run("creates pending order with lines and history", func(t *testing.T) {
		h := newTestHarness(t)
		customerID := uuid.New()

		created, err := h.svc.Checkout(context.Background(), checkoutOrder(customerID, h.vendorID))
		require.NoError(t, err)

		assert.Equal(t, order.StatusPending, created.Status)
		assert.Equal(t, payment.StatusPending, created.PaymentStatus)
		require.Len(t, created.Lines, 1)
		assert.Equal(t, created.ID, created.Lines[0].OrderID)

		require.Len(t, h.work.statusLogRepo.entries, 1)
		assert.Equal(t, order.StatusPending, h.work.statusLogRepo.entries[0].Status)
		assert.Equal(t, customerID, h.work.statusLogRepo.entries[0].ChangedBy)

		h.svc.Drain()
		calls := h.dispatcher.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, order.StatusPending, calls[0].next)
	})

	t.Run("rejects order whose totals do not add up", func(t *testing.T) {
		h := newTestHarness(t)

		o := checkoutOrder(uuid.New(), h.vendorID)
		o.TotalCents = 9999

		_, err := h.svc.Checkout(context.Background(), o)
		assert.ErrorIs(t, err, order.ErrTotalMismatch)
		assert.Zero(t, h.work.commits)
	})

	t.Run("rejects unapproved vendor", func(t *testing.T) {
		h := newTestHarness(t)

		ven := h.work.vendorRepo.vendors[h.vendorID]
		ven.Approved = false
		h.work.vendorRepo.vendors[h.vendorID] = ven

		_, err := h.svc.Checkout(context.Background(), checkoutOrder(uuid.New(), h.vendorID))
		assert.ErrorIs(t, err, order.ErrVendorUnavailable)
	})
}

func TestRequestTransition(t *testing.T) {
	t.Run("customer cancels own pending order", func(t *testing.T) {
		h := newTestHarness(t)
		customerID := uuid.New()
		seeded := h.seedOrder(t, customerID, order.StatusPending)

		updated, err := h.svc.RequestTransition(
			context.Background(),
			seeded.ID,
			order.StatusCancelled,
			actor.Actor{ID: customerID, Role: actor.RoleCustomer},
		)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, updated.Status)

		h.svc.Drain()
		calls := h.dispatcher.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, order.StatusPending, calls[0].previous)
		assert.Equal(t, order.StatusCancelled, calls[0].next)
	})

	t.Run("customer cannot cancel once preparation started", func(t *testing.T) {
		h := newTestHarness(t)
		customerID := uuid.New()
		seeded := h.seedOrder(t, customerID, order.StatusPreparing)

		_, err := h.svc.RequestTransition(
			context.Background(),
			seeded.ID,
			order.StatusCancelled,
			actor.Actor{ID: customerID, Role: actor.RoleCustomer},
		)
		assert.ErrorIs(t, err, order.ErrUnauthorized)

		current, getErr := h.work.orderRepo.GetByID(context.Background(), seeded.ID)
		require.NoError(t, getErr)
		assert.Equal(t, order.StatusPreparing, current.Status)
	})

	t.Run("vendor owner cancels while preparing", func(t *testing.T) {
		h := newTestHarness(t)
		seeded := h.seedOrder(t, uuid.New(), order.StatusPreparing)

		updated, err := h.svc.RequestTransition(
			context.Background(),
			seeded.ID,
			order.StatusCancelled,
			actor.Actor{ID: h.ownerID, Role: actor.RoleVendor},
		)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, updated.Status)
	})

	t.Run("no path leads backwards", func(t *testing.T) {
		h := newTestHarness(t)
		seeded := h.seedOrder(t, uuid.New(), order.StatusReady)

		_, err := h.svc.RequestTransition(
			context.Background(),
			seeded.ID,
			order.StatusPreparing,
			actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin},
		)
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("terminal states absorb even admins", func(t *testing.T) {
		h := newTestHarness(t)
		seeded := h.seedOrder(t, uuid.New(), order.StatusDelivered)

		_, err := h.svc.RequestTransition(
			context.Background(),
			seeded.ID,
			order.StatusPending,
			actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin},
		)
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("same-status transition is rejected and emits nothing", func(t *testing.T) {
		h := newTestHarness(t)
		seeded := h.seedOrder(t, uuid.New(), order.StatusReady)

		_, err := h.svc.RequestTransition(
			context.Background(),
			seeded.ID,
			order.StatusReady,
			actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin},
		)
		assert.ErrorIs(t, err, order.ErrInvalidTransition)

		h.svc.Drain()
		assert.Empty(t, h.dispatcher.Calls())
	})

	t.Run("losing a concurrent write returns conflict", func(t *testing.T) {
		h := newTestHarness(t)
		seeded := h.seedOrder(t, uuid.New(), order.StatusPending)
		h.work.orderRepo.forceConflict = true

		_, err := h.svc.RequestTransition(
			context.Background(),
			seeded.ID,
			order.StatusConfirmed,
			actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin},
		)
		assert.ErrorIs(t, err, order.ErrConflict)

		h.svc.Drain()
		assert.Empty(t, h.dispatcher.Calls())
	})

	t.Run("unknown order", func(t *testing.T) {
		h := newTestHarness(t)

		_, err := h.svc.RequestTransition(
			context.Background(),
			uuid.New(),
			order.StatusConfirmed,
			actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin},
		)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("dispatch failure parks the notification, not the request", func(t *testing.T) {
		h := newTestHarness(t)
		h.dispatcher.err = errors.New("broker unreachable")
		seeded := h.seedOrder(t, uuid.New(), order.StatusPending)

		updated, err := h.svc.RequestTransition(
			context.Background(),
			seeded.ID,
			order.StatusConfirmed,
			actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin},
		)
		require.NoError(t, err)
		assert.Equal(t, order.StatusConfirmed, updated.Status)

		h.svc.Drain()
		parked := h.outboxRepo.Inserted()
		require.Len(t, parked, 1)
		assert.Equal(t, "orders.status.changed", parked[0].RoutingKey)
		assert.Equal(t, "broker unreachable", parked[0].LastError)
		assert.Equal(t, outboxMaxRetries, parked[0].MaxRetries)
	})

	t.Run("status log records every applied change", func(t *testing.T) {
		h := newTestHarness(t)
		seeded := h.seedOrder(t, uuid.New(), order.StatusPending)
		admin := actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin}

		for _, target := range []order.Status{
			order.StatusConfirmed,
			order.StatusPreparing,
			order.StatusReady,
			order.StatusDelivered,
		} {
			_, err := h.svc.RequestTransition(context.Background(), seeded.ID, target, admin)
			require.NoError(t, err)
		}

		entries, err := h.work.statusLogRepo.ListByOrderID(context.Background(), seeded.ID)
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, order.StatusDelivered, entries[3].Status)
	})
}

func TestRecordPaymentStatus(t *testing.T) {
	t.Run("payment outcome never moves order status", func(t *testing.T) {
		h := newTestHarness(t)
		seeded := h.seedOrder(t, uuid.New(), order.StatusPreparing)

		updated, err := h.svc.RecordPaymentStatus(context.Background(), seeded.ID, payment.StatusFailed)
		require.NoError(t, err)

		assert.Equal(t, payment.StatusFailed, updated.PaymentStatus)
		assert.Equal(t, order.StatusPreparing, updated.Status)
	})
}

func TestStatusHistory(t *testing.T) {
	t.Run("strangers may not read another customer's history", func(t *testing.T) {
		h := newTestHarness(t)
		seeded := h.seedOrder(t, uuid.New(), order.StatusPending)

		_, err := h.svc.StatusHistory(
			context.Background(),
			seeded.ID,
			actor.Actor{ID: uuid.New(), Role: actor.RoleCustomer},
		)
		assert.ErrorIs(t, err, order.ErrUnauthorized)
	})
}
