package projectionsvc

import (
	"sync"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/order"
)

const subscriberBuffer = 16

// watchHub fans order change events out to per-customer subscribers.
// Consumers apply each event as a whole-record replace, so dropping an
// event for a slow consumer only delays convergence until the next one.
type watchHub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan order.ChangeEvent]struct{}
}

func newWatchHub() *watchHub {
	return &watchHub{
		subs: make(map[uuid.UUID]map[chan order.ChangeEvent]struct{}),
	}
}

func (h *watchHub) subscribe(customerID uuid.UUID) (<-chan order.ChangeEvent, func()) {
	ch := make(chan order.ChangeEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subs[customerID] == nil {
		h.subs[customerID] = make(map[chan order.ChangeEvent]struct{})
	}
	h.subs[customerID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if set, ok := h.subs[customerID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, customerID)
			}
		}
	}

	return ch, cancel
}

func (h *watchHub) broadcast(event order.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[event.CustomerID] {
		select {
		case ch <- event:
		default:
			// Slow consumer; the next event carries the full record.
		}
	}
}
