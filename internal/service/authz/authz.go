package authz

import (
	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/vendor"
)

// CanTransition decides whether the actor may request the given status
// move. It is a pure function over the order, its vendor record and the
// resolved actor; whether the move itself is legal for the current
// status is the transition table's concern, not this one's.
//
// Rules:
//   - admins may request any transition;
//   - the vendor owner may move their own orders forward and cancel
//     them from any non-terminal state;
//   - a customer may only cancel their own order, and only while it is
//     still pending (grace-period cancellation).
func CanTransition(o *order.Order, ven *vendor.Vendor, target order.Status, act actor.Actor) bool {
	switch act.Role {
	case actor.RoleAdmin:
		return true
	case actor.RoleVendor:
		return ven != nil && ven.OwnerID == act.ID && o.VendorID == ven.ID
	case actor.RoleCustomer:
		return o.CustomerID == act.ID &&
			target == order.StatusCancelled &&
			o.Status == order.StatusPending
	default:
		return false
	}
}

// CanView decides whether the actor may read the given order: the
// customer it belongs to, the owner of its vendor, or an admin.
func CanView(o *order.Order, ven *vendor.Vendor, act actor.Actor) bool {
	switch act.Role {
	case actor.RoleAdmin:
		return true
	case actor.RoleVendor:
		return ven != nil && ven.OwnerID == act.ID && o.VendorID == ven.ID
	case actor.RoleCustomer:
		return o.CustomerID == act.ID
	default:
		return false
	}
}
