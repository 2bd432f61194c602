package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/crustline/order-svc/internal/dal/interfaces/iorderlinerepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/istatuslogrepo"
	"github.com/crustline/order-svc/internal/dal/interfaces/ivendorrepo"
	"github.com/crustline/order-svc/internal/dal/postgres"
	orderrepo "github.com/crustline/order-svc/internal/dal/repositories/order/postgres"
	orderlinerepo "github.com/crustline/order-svc/internal/dal/repositories/orderline/postgres"
	statuslogrepo "github.com/crustline/order-svc/internal/dal/repositories/statuslog/postgres"
	vendorrepo "github.com/crustline/order-svc/internal/dal/repositories/vendors/postgres"
)

// UnitOfWork scopes the repositories to one transaction. Before Begin
// the repositories run against the pool directly; after Begin they are
// rebound to the open transaction until Commit or Rollback.
type UnitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx

	orderRepo     iorderrepo.IOrderRepository
	orderLineRepo iorderlinerepo.IOrderLineRepository
	statusLogRepo istatuslogrepo.IStatusLogRepository
	vendorRepo    ivendorrepo.IVendorRepository
}

func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	return &UnitOfWork{
		client:        client,
		orderRepo:     orderrepo.NewPostgresOrderRepository(client.Pool()),
		orderLineRepo: orderlinerepo.NewPostgresOrderLineRepository(client.Pool()),
		statusLogRepo: statuslogrepo.NewPostgresStatusLogRepository(client.Pool()),
		vendorRepo:    vendorrepo.NewPostgresVendorRepository(client.Pool()),
	}
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderLineRepository() iorderlinerepo.IOrderLineRepository {
	return u.orderLineRepo
}

func (u *UnitOfWork) StatusLogRepository() istatuslogrepo.IStatusLogRepository {
	return u.statusLogRepo
}

func (u *UnitOfWork) VendorRepository() ivendorrepo.IVendorRepository {
	return u.vendorRepo
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewPostgresOrderRepository(tx)
	u.orderLineRepo = orderlinerepo.NewPostgresOrderLineRepository(tx)
	u.statusLogRepo = statuslogrepo.NewPostgresStatusLogRepository(tx)
	u.vendorRepo = vendorrepo.NewPostgresVendorRepository(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback(ctx)
}
