package payment

import (
	"database/sql/driver"
	"errors"
)

// Status is the payment state of an order. It is written by the
// external payment collaborator through the lifecycle service and only
// read everywhere else; order status is never derived from it.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var ErrInvalidPaymentStatus = errors.New("invalid payment status")

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return Status(s), nil
	default:
		return "", ErrInvalidPaymentStatus
	}
}
