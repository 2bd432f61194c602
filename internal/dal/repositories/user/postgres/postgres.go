package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/dal/postgres"
	"github.com/crustline/order-svc/internal/service/models/user"
)

// PostgresUserRepository reads user records for projection decoration.
type PostgresUserRepository struct {
	conn postgres.DBTX
}

func NewPostgresUserRepository(conn postgres.DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{
		conn: conn,
	}
}

// GetByIDs retrieves users keyed by id.
func (r *PostgresUserRepository) GetByIDs(
	ctx context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]user.User, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]user.User{}, nil
	}

	query, args, err := sq.Select("id", "name", "email", "phone").
		From("users").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]user.User, len(ids))
	for rows.Next() {
		var u user.User
		var email, phone *string
		if err := rows.Scan(&u.ID, &u.Name, &email, &phone); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if email != nil {
			u.Email = *email
		}
		if phone != nil {
			u.Phone = *phone
		}
		result[u.ID] = u
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
