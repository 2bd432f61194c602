package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/crustline/order-svc/internal/service/models/actor"
	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/vendor"
)

func fixtures() (*order.Order, *vendor.Vendor, actor.Actor, actor.Actor, actor.Actor) {
	customerID := uuid.New()
	ownerID := uuid.New()
	vendorID := uuid.New()

	o := &order.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		VendorID:   vendorID,
		Status:     order.StatusPending,
	}
	ven := &vendor.Vendor{
		ID:       vendorID,
		OwnerID:  ownerID,
		Approved: true,
		Active:   true,
	}

	customer := actor.Actor{ID: customerID, Role: actor.RoleCustomer}
	owner := actor.Actor{ID: ownerID, Role: actor.RoleVendor}
	admin := actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin}

	return o, ven, customer, owner, admin
}

func TestCanTransition_CustomerCancelsPendingOrder(t *testing.T) {
	o, ven, customer, _, _ := fixtures()

	assert.True(t, CanTransition(o, ven, order.StatusCancelled, customer))
}

func TestCanTransition_CustomerCannotCancelAfterGracePeriod(t *testing.T) {
	o, ven, customer, _, _ := fixtures()
	o.Status = order.StatusPreparing

	assert.False(t, CanTransition(o, ven, order.StatusCancelled, customer))
}

func TestCanTransition_CustomerCannotMoveOrderForward(t *testing.T) {
	o, ven, customer, _, _ := fixtures()

	assert.False(t, CanTransition(o, ven, order.StatusConfirmed, customer))
}

func TestCanTransition_CustomerCannotTouchForeignOrder(t *testing.T) {
	o, ven, _, _, _ := fixtures()
	stranger := actor.Actor{ID: uuid.New(), Role: actor.RoleCustomer}

	assert.False(t, CanTransition(o, ven, order.StatusCancelled, stranger))
}

func TestCanTransition_VendorOwnerMovesOwnOrder(t *testing.T) {
	o, ven, _, owner, _ := fixtures()

	assert.True(t, CanTransition(o, ven, order.StatusConfirmed, owner))
	assert.True(t, CanTransition(o, ven, order.StatusCancelled, owner))
}

func TestCanTransition_VendorCannotTouchForeignOrder(t *testing.T) {
	o, ven, _, _, _ := fixtures()
	otherOwner := actor.Actor{ID: uuid.New(), Role: actor.RoleVendor}

	assert.False(t, CanTransition(o, ven, order.StatusConfirmed, otherOwner))
}

func TestCanTransition_AdminAlwaysAllowed(t *testing.T) {
	o, ven, _, _, admin := fixtures()

	for _, target := range []order.Status{
		order.StatusConfirmed,
		order.StatusPreparing,
		order.StatusReady,
		order.StatusDelivered,
		order.StatusCancelled,
	} {
		assert.True(t, CanTransition(o, ven, target, admin), "target %s", target)
	}
}

func TestCanTransition_MissingVendorRecordDeniesOwner(t *testing.T) {
	o, _, _, owner, _ := fixtures()

	assert.False(t, CanTransition(o, nil, order.StatusConfirmed, owner))
}

func TestCanView(t *testing.T) {
	o, ven, customer, owner, admin := fixtures()
	stranger := actor.Actor{ID: uuid.New(), Role: actor.RoleCustomer}

	assert.True(t, CanView(o, ven, customer))
	assert.True(t, CanView(o, ven, owner))
	assert.True(t, CanView(o, ven, admin))
	assert.False(t, CanView(o, ven, stranger))
}
