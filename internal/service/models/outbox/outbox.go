package outbox

import (
	"time"
)

// Message is a notification that could not be published to the broker
// and is parked for retry by the outbox worker.
type Message struct {
	ID          int64
	Exchange    string
	RoutingKey  string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}
