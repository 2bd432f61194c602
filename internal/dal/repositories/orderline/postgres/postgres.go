package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crustline/order-svc/internal/dal/postgres"
	"github.com/crustline/order-svc/internal/service/models/orderline"
)

// OrderLineDal represents the order line data access layer model.
type OrderLineDal struct {
	ID                  uuid.UUID `db:"id"`
	OrderID             uuid.UUID `db:"order_id"`
	PizzaID             uuid.UUID `db:"pizza_id"`
	NameSnapshot        string    `db:"name_snapshot"`
	DescriptionSnapshot *string   `db:"description_snapshot"`
	Quantity            int       `db:"quantity"`
	UnitPriceCents      int64     `db:"unit_price_cents"`
	LineTotalCents      int64     `db:"line_total_cents"`
	Size                *string   `db:"size"`
	Toppings            []string  `db:"toppings"`
}

// ToModel converts OrderLineDal to the service layer model.
func (l *OrderLineDal) ToModel() *orderline.OrderLine {
	model := &orderline.OrderLine{
		ID:             l.ID,
		OrderID:        l.OrderID,
		PizzaID:        l.PizzaID,
		NameSnapshot:   l.NameSnapshot,
		Quantity:       l.Quantity,
		UnitPriceCents: l.UnitPriceCents,
		LineTotalCents: l.LineTotalCents,
		Toppings:       l.Toppings,
	}
	if l.DescriptionSnapshot != nil {
		model.DescriptionSnapshot = *l.DescriptionSnapshot
	}
	if l.Size != nil {
		model.Size = *l.Size
	}

	return model
}

var lineColumns = []string{
	"id",
	"order_id",
	"pizza_id",
	"name_snapshot",
	"description_snapshot",
	"quantity",
	"unit_price_cents",
	"line_total_cents",
	"size",
	"toppings",
}

func scanLine(row pgx.Row) (*orderline.OrderLine, error) {
	var dal OrderLineDal
	err := row.Scan(
		&dal.ID,
		&dal.OrderID,
		&dal.PizzaID,
		&dal.NameSnapshot,
		&dal.DescriptionSnapshot,
		&dal.Quantity,
		&dal.UnitPriceCents,
		&dal.LineTotalCents,
		&dal.Size,
		&dal.Toppings,
	)
	if err != nil {
		return nil, err
	}

	return dal.ToModel(), nil
}

// PostgresOrderLineRepository persists order lines. Lines are written
// once, atomically with their order, and never updated.
type PostgresOrderLineRepository struct {
	conn postgres.DBTX
}

func NewPostgresOrderLineRepository(conn postgres.DBTX) *PostgresOrderLineRepository {
	return &PostgresOrderLineRepository{
		conn: conn,
	}
}

// BulkInsert inserts all lines of an order and returns them with ids.
func (r *PostgresOrderLineRepository) BulkInsert(
	ctx context.Context,
	lines []orderline.OrderLine,
) ([]orderline.OrderLine, error) {
	if len(lines) == 0 {
		return []orderline.OrderLine{}, nil
	}

	builder := sq.Insert("order_lines").
		Columns(lineColumns[1:]...).
		PlaceholderFormat(sq.Dollar).
		Suffix("RETURNING " + joinColumns(lineColumns))

	for _, l := range lines {
		var description, size *string
		if l.DescriptionSnapshot != "" {
			description = &l.DescriptionSnapshot
		}
		if l.Size != "" {
			size = &l.Size
		}
		builder = builder.Values(
			l.OrderID,
			l.PizzaID,
			l.NameSnapshot,
			description,
			l.Quantity,
			l.UnitPriceCents,
			l.LineTotalCents,
			size,
			l.Toppings,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order lines: %w", err)
	}
	defer rows.Close()

	var result []orderline.OrderLine
	for rows.Next() {
		model, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// QueryByOrderIDs retrieves all lines belonging to the given orders.
func (r *PostgresOrderLineRepository) QueryByOrderIDs(
	ctx context.Context,
	orderIDs []uuid.UUID,
) ([]orderline.OrderLine, error) {
	if len(orderIDs) == 0 {
		return []orderline.OrderLine{}, nil
	}

	query, args, err := sq.Select(lineColumns...).
		From("order_lines").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("order_id", "id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var result []orderline.OrderLine
	for rows.Next() {
		model, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func joinColumns(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}

	return out
}
