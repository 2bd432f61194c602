package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/dal/postgres"
	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/statuslog"
)

// PostgresStatusLogRepository persists order status history. Entries
// are written in the same transaction as the status change they record.
type PostgresStatusLogRepository struct {
	conn postgres.DBTX
}

func NewPostgresStatusLogRepository(conn postgres.DBTX) *PostgresStatusLogRepository {
	return &PostgresStatusLogRepository{
		conn: conn,
	}
}

// Insert appends one history entry.
func (r *PostgresStatusLogRepository) Insert(ctx context.Context, entry statuslog.Entry) error {
	query, args, err := sq.Insert("order_status_log").
		Columns("order_id", "status", "changed_by", "changed_by_role", "changed_at").
		Values(entry.OrderID, entry.Status, entry.ChangedBy, entry.Role, entry.ChangedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert status log entry: %w", err)
	}

	return nil
}

// ListByOrderID returns the history of one order, oldest first.
func (r *PostgresStatusLogRepository) ListByOrderID(
	ctx context.Context,
	orderID uuid.UUID,
) ([]statuslog.Entry, error) {
	query, args, err := sq.Select("id", "order_id", "status", "changed_by", "changed_by_role", "changed_at").
		From("order_status_log").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("changed_at ASC", "id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status log: %w", err)
	}
	defer rows.Close()

	var result []statuslog.Entry
	for rows.Next() {
		var entry statuslog.Entry
		var status, role string
		if err := rows.Scan(&entry.ID, &entry.OrderID, &status, &entry.ChangedBy, &role, &entry.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log entry: %w", err)
		}

		parsedStatus, err := order.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		parsedRole, err := actor.ParseRole(role)
		if err != nil {
			return nil, err
		}
		entry.Status = parsedStatus
		entry.Role = parsedRole

		result = append(result, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
