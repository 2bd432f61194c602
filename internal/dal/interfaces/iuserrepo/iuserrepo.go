package iuserrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/user"
)

// IUserRepository is a read-only interface over user records.
type IUserRepository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.User, error)
}
