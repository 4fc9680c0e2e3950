package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	AlertForwardExhausted = "forward_exhausted"
	AlertRunFailed        = "run_failed"
)

// AlertPayload is one operator notification: a lead that burned through all
// its retries, or a sync cycle that failed fatally.
type AlertPayload struct {
	Kind string `json:"kind"`

	LeadID     string `json:"lead_id,omitempty"`
	Email      string `json:"email,omitempty"`
	RetryCount int    `json:"retry_count,omitempty"`

	RunID string `json:"run_id,omitempty"`

	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishAlert(ctx context.Context, payload AlertPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	return nil
}
