package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crustline/order-svc/internal/dal/postgres"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/orderline"
	"github.com/crustline/order-svc/internal/service/models/payment"
)

// OrderDal represents the order data access layer model.
type OrderDal struct {
	ID                  uuid.UUID  `db:"id"`
	CustomerID          uuid.UUID  `db:"customer_id"`
	VendorID            uuid.UUID  `db:"vendor_id"`
	Status              string     `db:"status"`
	PaymentStatus       string     `db:"payment_status"`
	PaymentMethod       string     `db:"payment_method"`
	TotalCents          int64      `db:"total_cents"`
	DeliveryFeeCents    int64      `db:"delivery_fee_cents"`
	DeliveryAddress     string     `db:"delivery_address"`
	DeliveryNotes       *string    `db:"delivery_notes"`
	EstimatedDeliveryAt *time.Time `db:"estimated_delivery_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := payment.ParseStatus(o.PaymentStatus)
	if err != nil {
		return nil, err
	}

	model := &order.Order{
		ID:                  o.ID,
		CustomerID:          o.CustomerID,
		VendorID:            o.VendorID,
		Status:              status,
		PaymentStatus:       paymentStatus,
		PaymentMethod:       o.PaymentMethod,
		TotalCents:          o.TotalCents,
		DeliveryFeeCents:    o.DeliveryFeeCents,
		DeliveryAddress:     o.DeliveryAddress,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		Lines:               []orderline.OrderLine{}, // populated separately
	}
	if o.DeliveryNotes != nil {
		model.DeliveryNotes = *o.DeliveryNotes
	}

	return model, nil
}

var orderColumns = []string{
	"id",
	"customer_id",
	"vendor_id",
	"status",
	"payment_status",
	"payment_method",
	"total_cents",
	"delivery_fee_cents",
	"delivery_address",
	"delivery_notes",
	"estimated_delivery_at",
	"created_at",
	"updated_at",
}

func prefixed(prefix string) []string {
	cols := make([]string, len(orderColumns))
	for i, c := range orderColumns {
		cols[i] = prefix + "." + c
	}

	return cols
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.ID,
		&dal.CustomerID,
		&dal.VendorID,
		&dal.Status,
		&dal.PaymentStatus,
		&dal.PaymentMethod,
		&dal.TotalCents,
		&dal.DeliveryFeeCents,
		&dal.DeliveryAddress,
		&dal.DeliveryNotes,
		&dal.EstimatedDeliveryAt,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return dal.ToModel()
}

// PostgresOrderRepository persists orders. It accepts either a pool or
// a transaction so the unit of work can rebind it.
type PostgresOrderRepository struct {
	conn postgres.DBTX
}

func NewPostgresOrderRepository(conn postgres.DBTX) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// Insert creates a single order row and returns it with the generated id.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (*order.Order, error) {
	var notes *string
	if o.DeliveryNotes != "" {
		notes = &o.DeliveryNotes
	}

	query, args, err := sq.Insert("orders").
		Columns(orderColumns[1:]...).
		Values(
			o.CustomerID,
			o.VendorID,
			o.Status,
			o.PaymentStatus,
			o.PaymentMethod,
			o.TotalCents,
			o.DeliveryFeeCents,
			o.DeliveryAddress,
			notes,
			o.EstimatedDeliveryAt,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING " + joinColumns(orderColumns)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	inserted, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return inserted, nil
}

// GetByID retrieves a single order row without its lines.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	o, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}

// Query retrieves orders based on filter criteria, newest first. The
// free-text search matches order id, customer name, vendor name and
// status.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := sq.Select(prefixed("o")...).
		From("orders o").
		OrderBy("o.created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.IDs) > 0 {
		builder = builder.Where(sq.Eq{"o.id": filter.IDs})
	}
	if len(filter.CustomerIDs) > 0 {
		builder = builder.Where(sq.Eq{"o.customer_id": filter.CustomerIDs})
	}
	if len(filter.VendorIDs) > 0 {
		builder = builder.Where(sq.Eq{"o.vendor_id": filter.VendorIDs})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		builder = builder.Where(sq.Eq{"o.status": statuses})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		builder = builder.
			LeftJoin("users u ON u.id = o.customer_id").
			LeftJoin("vendors v ON v.id = o.vendor_id").
			Where(sq.Or{
				sq.Expr("o.id::text ILIKE ?", like),
				sq.Expr("u.name ILIKE ?", like),
				sq.Expr("v.name ILIKE ?", like),
				sq.Expr("o.status ILIKE ?", like),
			})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		model, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus performs the compare-and-swap status write. When the row
// no longer holds the expected status the update matches nothing and
// (nil, nil) is returned; the caller classifies that as a conflict.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected order.Status,
	target order.Status,
	updatedAt time.Time,
) (*order.Order, error) {
	query, args, err := sq.Update("orders").
		Set("status", target).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id, "status": expected}).
		Suffix("RETURNING " + joinColumns(orderColumns)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	updated, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return updated, nil
}

// UpdatePaymentStatus records the payment collaborator's outcome.
func (r *PostgresOrderRepository) UpdatePaymentStatus(
	ctx context.Context,
	id uuid.UUID,
	status payment.Status,
	updatedAt time.Time,
) (*order.Order, error) {
	query, args, err := sq.Update("orders").
		Set("payment_status", status).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(orderColumns)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	updated, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}

		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	return updated, nil
}

func joinColumns(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}

	return out
}
