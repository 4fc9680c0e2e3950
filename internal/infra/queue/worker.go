package queue

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AlertSender delivers one alert to the operators (email today, anything
// tomorrow).
type AlertSender interface {
	SendAlert(payload AlertPayload) error
}

type Worker struct {
	Channel *amqp.Channel
	Sender  AlertSender
}

func NewWorker(ch *amqp.Channel, sender AlertSender) *Worker {
	return &Worker{
		Channel: ch,
		Sender:  sender,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack (manual is safer)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		log.Fatalf("❌ [WORKER] Failed to register RabbitMQ consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			log.Printf("📥 [WORKER] Alert received")

			var payload AlertPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [WORKER] Invalid JSON: %s", err)
				// Malformed message. Reject without requeue so it goes to
				// the DLQ instead of blocking the queue.
				d.Nack(false, false)
				continue
			}

			if err := w.Sender.SendAlert(payload); err != nil {
				log.Printf("❌ [WORKER] Failed to deliver alert (%s): %s", payload.Kind, err)
				d.Nack(false, false)
			} else {
				log.Printf("✅ [WORKER] Alert delivered: %s", payload.Kind)
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Alert worker waiting on queue '%s'", queueName)
	<-forever
}
