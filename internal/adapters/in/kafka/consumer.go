// Package kafka consumes "task created" events published by upstream systems
// and hands them to the pending task monitor. The monitor de-duplicates
// against its own store subscription, so an event seen through both paths is
// dispatched once.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/IBM/sarama"
)

// TaskObserver is the entry point for a newly created task.
type TaskObserver interface {
	Observe(ctx context.Context, taskID kernel.UUID)
}

// TaskCreatedEvent is the message payload on the task events topic.
type TaskCreatedEvent struct {
	TaskID     string    `json:"task_id"`
	BusinessID string    `json:"business_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

var newConsumerGroup = sarama.NewConsumerGroup

// Consumer wraps a sarama consumer group.
type Consumer struct {
	group    sarama.ConsumerGroup
	topic    string
	observer TaskObserver
	logger   *slog.Logger
}

// NewConsumer returns nil without error when brokers, group or topic are not
// configured, so the service runs on the store subscription alone.
func NewConsumer(logger *slog.Logger, brokers []string, groupID, topic string, observer TaskObserver) (*Consumer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = false

	group, err := newConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:    group,
		topic:    topic,
		observer: observer,
		logger:   logger.With("component", "task_events_consumer", "topic", topic),
	}, nil
}

// Run consumes until ctx is done, rejoining the group after rebalances and errors.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	h := &groupHandler{c: c}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil || errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return ctx.Err()
			}
			c.logger.ErrorContext(ctx, "kafka consume failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks every message, including malformed ones: a task that
// is never observed here is still picked up by the store subscription.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var ev TaskCreatedEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			h.c.logger.Warn("kafka bad json", "offset", msg.Offset, "error", err)
			sess.MarkMessage(msg, "")
			continue
		}

		taskID, err := kernel.UUIDFromString(strings.TrimSpace(ev.TaskID))
		if err != nil {
			h.c.logger.Warn("kafka bad task_id", "task_id", ev.TaskID, "error", err)
			sess.MarkMessage(msg, "")
			continue
		}

		h.c.observer.Observe(sess.Context(), taskID)
		sess.MarkMessage(msg, "")
	}
	return nil
}
