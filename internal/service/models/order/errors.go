package order

import "errors"

var (
	// ErrInvalidStatus means the raw status string is not one of the
	// enumerated lifecycle states.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrOrderNotFound means the order id references no existing order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition means the requested move is not in the
	// allowed-next set for the order's current status, including
	// redundant same-status moves and moves out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized means the actor lacks rights for the requested
	// transition.
	ErrUnauthorized = errors.New("actor is not allowed to perform this transition")

	// ErrConflict means the conditional status write lost a race with a
	// concurrent transition; callers should refetch before retrying.
	ErrConflict = errors.New("order was modified concurrently")

	// ErrVendorUnavailable means the vendor is not approved or not
	// active and may not receive new orders.
	ErrVendorUnavailable = errors.New("vendor cannot receive orders")

	// ErrTotalMismatch means the order total does not equal the sum of
	// line totals plus the delivery fee.
	ErrTotalMismatch = errors.New("order total does not match line totals plus delivery fee")
)
