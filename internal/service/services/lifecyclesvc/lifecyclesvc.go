package lifecyclesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/dal/interfaces/iorderlinerepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/ioutboxrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/istatuslogrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/ivendorrepo"
	"github.com/crustline/order-svc/internal/dal/postgres"
	"github.com/crustline/order-svc/internal/dal/uow"
	"github.com/crustline/order-svc/internal/metrics"
	"github.com/crustline/order-svc/internal/service/authz"
	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/notification"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/outbox"
	"github.com/crustline/order-svc/internal/service/models/payment"
	"github.com/crustline/order-svc/internal/service/models/statuslog"
	"github.com/crustline/order-svc/internal/service/models/vendor"
)

const (
	dispatchTimeout    = 30 * time.Second
	outboxMaxRetries   = 5
	outboxInitialDelay = 30 * time.Second
)

// unitOfWork scopes repositories to one transaction.
type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderLineRepository() iorderlinerepo.IOrderLineRepository
	StatusLogRepository() istatuslogrepo.IStatusLogRepository
	VendorRepository() ivendorrepo.IVendorRepository
}

// dispatcher is the notification delivery collaborator plus the queue
// name failed publishes are parked under.
type dispatcher interface {
	Notify(ctx context.Context, o order.Order, previous, next order.Status) error
	Queue() string
}

// OrderLifecycleService owns the order status state machine. It is the
// only writer of status, payment_status and updated_at; transport
// layers and workers are all callers of this one entry point.
type OrderLifecycleService struct {
	pgClient   *postgres.Client
	newUOW     func() unitOfWork
	dispatcher dispatcher
	outboxRepo ioutboxrepo.IOutboxRepository
	metrics    *metrics.Metrics

	// dispatchWG tracks in-flight fire-and-forget notifications so
	// shutdown can drain them.
	dispatchWG sync.WaitGroup
}

// option is a function that configures the OrderLifecycleService.
type option func(*OrderLifecycleService)

// MustNewOrderLifecycleService creates a new OrderLifecycleService.
func MustNewOrderLifecycleService(opts ...option) *OrderLifecycleService {
	s := &OrderLifecycleService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres client for the service.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderLifecycleService) {
		s.pgClient = pgClient
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithDispatcher sets the notification dispatcher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDispatcher(d dispatcher) option {
	return func(s *OrderLifecycleService) {
		s.dispatcher = d
	}
}

// WithOutboxRepository sets the notification outbox.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutboxRepository(repo ioutboxrepo.IOutboxRepository) option {
	return func(s *OrderLifecycleService) {
		s.outboxRepo = repo
	}
}

// WithMetrics sets the service counters.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.Metrics) option {
	return func(s *OrderLifecycleService) {
		s.metrics = m
	}
}

// Checkout creates an order with its lines in one transaction. The
// order starts in pending; lines are snapshots and immutable from here
// on. The vendor must be approved and active to receive the order.
func (s *OrderLifecycleService) Checkout(ctx context.Context, o order.Order) (*order.Order, error) {
	o.Status = order.StatusPending
	if o.PaymentStatus == "" {
		o.PaymentStatus = payment.StatusPending
	}

	if err := o.ValidateTotals(); err != nil {
		return nil, err
	}

	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	work := s.newUOW()

	ven, err := work.VendorRepository().GetByID(ctx, o.VendorID)
	if err != nil {
		return nil, order.ErrVendorUnavailable
	}
	if !ven.AcceptsOrders() {
		return nil, order.ErrVendorUnavailable
	}

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback(context.WithoutCancel(ctx)) }()

	inserted, err := work.OrderRepository().Insert(ctx, o)
	if err != nil {
		return nil, err
	}

	for i := range o.Lines {
		o.Lines[i].OrderID = inserted.ID
	}
	insertedLines, err := work.OrderLineRepository().BulkInsert(ctx, o.Lines)
	if err != nil {
		return nil, err
	}
	inserted.Lines = insertedLines

	err = work.StatusLogRepository().Insert(ctx, statuslog.Entry{
		OrderID:   inserted.ID,
		Status:    inserted.Status,
		ChangedBy: o.CustomerID,
		Role:      actor.RoleCustomer,
		ChangedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}

	s.dispatchAsync(*inserted, "", inserted.Status)

	return inserted, nil
}

// RequestTransition validates and applies one status change. The write
// is a compare-and-swap on the status read at the start of the request:
// of two concurrent conflicting requests exactly one wins and the loser
// gets ErrConflict. The notification is dispatched only after the
// change is durable, and a dispatch failure never fails the request.
func (s *OrderLifecycleService) RequestTransition(
	ctx context.Context,
	orderID uuid.UUID,
	target order.Status,
	act actor.Actor,
) (*order.Order, error) {
	work := s.newUOW()

	current, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransitionTo(target) {
		s.countRejection("invalid_transition")

		return nil, fmt.Errorf(
			"%w: order is %s, cannot move to %s",
			order.ErrInvalidTransition, current.Status, target,
		)
	}

	ven, err := s.lookupVendor(ctx, work, current.VendorID)
	if err != nil {
		return nil, err
	}

	if !authz.CanTransition(current, ven, target, act) {
		s.countRejection("unauthorized")

		return nil, fmt.Errorf(
			"%w: %s may not move order from %s to %s",
			order.ErrUnauthorized, act.Role, current.Status, target,
		)
	}

	// Lines are immutable, so they can be read outside the write
	// transaction and attached to the returned snapshot.
	lines, err := work.OrderLineRepository().QueryByOrderIDs(ctx, []uuid.UUID{orderID})
	if err != nil {
		return nil, err
	}

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback(context.WithoutCancel(ctx)) }()

	now := time.Now()
	updated, err := work.OrderRepository().UpdateStatus(ctx, orderID, current.Status, target, now)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// The conditional write matched nothing: someone else moved the
		// order between our read and our write.
		s.countRejection("conflict")

		return nil, s.classifyLostWrite(ctx, orderID)
	}

	err = work.StatusLogRepository().Insert(ctx, statuslog.Entry{
		OrderID:   orderID,
		Status:    target,
		ChangedBy: act.ID,
		Role:      act.Role,
		ChangedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.
			WithLabelValues(current.Status.String(), target.String()).
			Inc()
	}

	updated.Lines = lines
	s.dispatchAsync(*updated, current.Status, target)

	return updated, nil
}

// RecordPaymentStatus stores the payment collaborator's outcome. Order
// status is never derived from it.
func (s *OrderLifecycleService) RecordPaymentStatus(
	ctx context.Context,
	orderID uuid.UUID,
	status payment.Status,
) (*order.Order, error) {
	work := s.newUOW()

	return work.OrderRepository().UpdatePaymentStatus(ctx, orderID, status, time.Now())
}

// StatusHistory returns the status log of one order, oldest first.
func (s *OrderLifecycleService) StatusHistory(
	ctx context.Context,
	orderID uuid.UUID,
	act actor.Actor,
) ([]statuslog.Entry, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ven, err := s.lookupVendor(ctx, work, o.VendorID)
	if err != nil {
		return nil, err
	}

	if !authz.CanView(o, ven, act) {
		return nil, order.ErrUnauthorized
	}

	return work.StatusLogRepository().ListByOrderID(ctx, orderID)
}

// Drain waits for in-flight notification dispatches, for shutdown.
func (s *OrderLifecycleService) Drain() {
	s.dispatchWG.Wait()
}

func (s *OrderLifecycleService) countRejection(reason string) {
	if s.metrics != nil {
		s.metrics.TransitionsRejected.WithLabelValues(reason).Inc()
	}
}

func (s *OrderLifecycleService) lookupVendor(
	ctx context.Context,
	work unitOfWork,
	vendorID uuid.UUID,
) (*vendor.Vendor, error) {
	ven, err := work.VendorRepository().GetByID(ctx, vendorID)
	if err != nil {
		// A missing vendor record only affects vendor-owner
		// authorization; admins and customers are decided without it.
		slog.Warn("Vendor record not found while authorizing transition", "vendor_id", vendorID, "error", err)

		return nil, nil
	}

	return ven, nil
}

// classifyLostWrite decides what the caller of a failed conditional
// write should see: the order vanished (impossible without deletion,
// but classified anyway) or a concurrent transition won the race.
func (s *OrderLifecycleService) classifyLostWrite(ctx context.Context, orderID uuid.UUID) error {
	work := s.newUOW()

	current, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	return fmt.Errorf("%w: order is now %s", order.ErrConflict, current.Status)
}

// dispatchAsync fires the notification without extending the request's
// latency or failure surface. The status change is already durable; a
// failed publish is parked in the outbox for the retry worker.
func (s *OrderLifecycleService) dispatchAsync(o order.Order, previous, next order.Status) {
	if s.dispatcher == nil {
		return
	}

	s.dispatchWG.Add(1)
	go func() {
		defer s.dispatchWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := s.dispatcher.Notify(ctx, o, previous, next); err != nil {
			slog.Warn("Failed to dispatch status change notification",
				"order_id", o.ID,
				"previous_status", previous,
				"new_status", next,
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.NotificationFailures.Inc()
			}
			s.parkNotification(ctx, o, previous, next, err)
		}
	}()
}

func (s *OrderLifecycleService) parkNotification(
	ctx context.Context,
	o order.Order,
	previous, next order.Status,
	cause error,
) {
	if s.outboxRepo == nil {
		return
	}

	payload, err := json.Marshal(notification.StatusChange{
		OrderID:        o.ID,
		CustomerID:     o.CustomerID,
		VendorID:       o.VendorID,
		PreviousStatus: previous,
		NewStatus:      next,
		OccurredAt:     time.Now(),
	})
	if err != nil {
		slog.Error("Failed to marshal status change for outbox", "order_id", o.ID, "error", err)

		return
	}

	now := time.Now()
	err = s.outboxRepo.Insert(ctx, outbox.Message{
		Exchange:    "",
		RoutingKey:  s.dispatcher.Queue(),
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  outboxMaxRetries,
		LastError:   cause.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now.Add(outboxInitialDelay),
	})
	if err != nil {
		slog.Error("Failed to park notification in outbox", "order_id", o.ID, "error", err)
	}
}
