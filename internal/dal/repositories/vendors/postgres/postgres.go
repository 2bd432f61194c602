package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crustline/order-svc/internal/dal/postgres"
	"github.com/crustline/order-svc/internal/service/models/vendor"
)

var ErrVendorNotFound = errors.New("vendor not found")

// PostgresVendorRepository reads vendor records. Vendors are owned by
// the moderation side of the platform; this service only consults the
// approval flags and ownership relation.
type PostgresVendorRepository struct {
	conn postgres.DBTX
}

func NewPostgresVendorRepository(conn postgres.DBTX) *PostgresVendorRepository {
	return &PostgresVendorRepository{
		conn: conn,
	}
}

var vendorColumns = []string{"id", "owner_id", "name", "approved", "active"}

// GetByID retrieves one vendor.
func (r *PostgresVendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	query, args, err := sq.Select(vendorColumns...).
		From("vendors").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var v vendor.Vendor
	err = r.conn.QueryRow(ctx, query, args...).
		Scan(&v.ID, &v.OwnerID, &v.Name, &v.Approved, &v.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVendorNotFound
		}

		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}

	return &v, nil
}

// GetByIDs retrieves vendors keyed by id for projection decoration.
func (r *PostgresVendorRepository) GetByIDs(
	ctx context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]vendor.Vendor, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]vendor.Vendor{}, nil
	}

	query, args, err := sq.Select(vendorColumns...).
		From("vendors").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]vendor.Vendor, len(ids))
	for rows.Next() {
		var v vendor.Vendor
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Approved, &v.Active); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		result[v.ID] = v
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
