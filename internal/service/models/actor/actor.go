package actor

import (
	"errors"

	"github.com/google/uuid"
)

// Role is the resolved role of the authenticated party requesting an
// operation. Authentication happens upstream; this service only ever
// sees an already-resolved identity.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

var ErrInvalidRole = errors.New("invalid actor role")

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

// Actor is the party requesting a transition or a read. For customers
// the ID is the user id; for vendor owners it is the owning user id.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}
