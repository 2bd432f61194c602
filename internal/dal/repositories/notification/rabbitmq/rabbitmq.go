package rabbitmqrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/crustline/order-svc/internal/dal/rabbitmq"
	"github.com/crustline/order-svc/internal/service/models/notification"
	"github.com/crustline/order-svc/internal/service/models/order"
)

// NotificationRabbitMQRepository publishes status-change notifications
// to the broker. The consuming side (email, push, realtime channel) is
// external; delivery is at-least-once.
type NotificationRabbitMQRepository struct {
	client *rabbitmq.Client
	queue  string
}

func NewNotificationRabbitMQRepository(client *rabbitmq.Client) *NotificationRabbitMQRepository {
	queueName := viper.GetString("rabbitmq.notifications.queue")
	if queueName == "" {
		queueName = "orders.status.changed"
	}

	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:       queueName,
		Durable:    true,
		Exclusive:  false,
		AutoDelete: false,
	})
	if err != nil {
		panic(err)
	}

	return &NotificationRabbitMQRepository{
		client: client,
		queue:  queue.Name,
	}
}

// Notify publishes one status-change message.
func (r *NotificationRabbitMQRepository) Notify(
	_ context.Context,
	o order.Order,
	previous, next order.Status,
) error {
	msg := notification.StatusChange{
		OrderID:        o.ID,
		CustomerID:     o.CustomerID,
		VendorID:       o.VendorID,
		PreviousStatus: previous,
		NewStatus:      next,
		OccurredAt:     time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal status change: %w", err)
	}

	if err := r.client.Publish("", r.queue, "application/json", body); err != nil {
		return fmt.Errorf("failed to publish status change: %w", err)
	}

	return nil
}

// Queue returns the declared queue name, used when parking failed
// publishes in the outbox.
func (r *NotificationRabbitMQRepository) Queue() string {
	return r.queue
}
