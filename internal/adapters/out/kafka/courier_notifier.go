// Package kafka publishes courier notifications to a Kafka topic with a
// sarama async producer. Delivery is best effort: a full or failing producer
// never blocks dispatch.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/ports"

	"github.com/IBM/sarama"
)

var _ ports.CourierNotifier = (*CourierNotifier)(nil)

// NotificationMessage is the JSON value written to the notifications topic.
// CourierID is empty for broadcasts.
type NotificationMessage struct {
	Kind           string    `json:"kind"`
	TaskID         string    `json:"task_id"`
	CourierID      string    `json:"courier_id,omitempty"`
	DeliveryNumber string    `json:"delivery_number"`
	BusinessName   string    `json:"business_name,omitempty"`
	SentAt         time.Time `json:"sent_at"`
}

// CourierNotifier implements ports.CourierNotifier over an AsyncProducer.
type CourierNotifier struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewCourierNotifier connects a producer to brokers.
func NewCourierNotifier(logger *slog.Logger, brokers []string, topic string) (*CourierNotifier, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.Flush.Frequency = 50 * time.Millisecond

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewCourierNotifierWithProducer(logger, producer, topic), nil
}

// NewCourierNotifierWithProducer wraps an existing producer and starts
// draining its error channel.
func NewCourierNotifierWithProducer(logger *slog.Logger, producer sarama.AsyncProducer, topic string) *CourierNotifier {
	n := &CourierNotifier{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "courier_notifier", "topic", topic),
		now:      time.Now,
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for perr := range producer.Errors() {
			n.logger.Warn("courier notification not delivered", "key", keyOf(perr.Msg), "error", perr.Err)
		}
	}()

	return n
}

// Notify enqueues the notification. Directed offers are keyed by courier so
// that one courier's messages stay ordered; broadcasts are keyed by task.
func (n *CourierNotifier) Notify(ctx context.Context, notification ports.CourierNotification) error {
	msg := NotificationMessage{
		Kind:           string(notification.Kind),
		TaskID:         notification.TaskID.String(),
		DeliveryNumber: notification.DeliveryNumber,
		BusinessName:   notification.BusinessName,
		SentAt:         n.now().UTC(),
	}
	key := msg.TaskID
	if notification.CourierID != nil {
		msg.CourierID = notification.CourierID.String()
		key = msg.CourierID
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case n.producer.Input() <- &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes buffered messages and stops the producer.
func (n *CourierNotifier) Close() error {
	err := n.producer.Close()
	n.wg.Wait()
	return err
}

func keyOf(msg *sarama.ProducerMessage) string {
	if msg == nil || msg.Key == nil {
		return ""
	}
	b, err := msg.Key.Encode()
	if err != nil {
		return ""
	}
	return string(b)
}
