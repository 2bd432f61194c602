package ivendorrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/vendor"
)

// IVendorRepository is a read-only interface over vendor records.
type IVendorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]vendor.Vendor, error)
}
