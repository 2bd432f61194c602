package httperr

import (
	"errors"
	"net/http"

	"github.com/crustline/order-svc/internal/service/models/order"
	"github.com/crustline/order-svc/internal/service/models/orderline"
	"github.com/crustline/order-svc/internal/service/models/payment"
)

// Write maps domain errors to HTTP statuses. Domain rejections keep
// their actionable message; anything unclassified is an infrastructure
// failure and gets a generic retryable response.
func Write(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, order.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, order.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrTotalMismatch),
		errors.Is(err, order.ErrVendorUnavailable),
		errors.Is(err, orderline.ErrLineTotalMismatch),
		errors.Is(err, payment.ErrInvalidPaymentStatus):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "temporary failure, please retry", http.StatusInternalServerError)
	}
}
