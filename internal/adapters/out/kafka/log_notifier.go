package kafka

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
)

var _ ports.CourierNotifier = LogNotifier{}

// LogNotifier writes notifications to the log. It stands in for the Kafka
// notifier when no brokers are configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, notification ports.CourierNotification) error {
	attrs := []any{
		"kind", notification.Kind,
		"task_id", notification.TaskID,
		"delivery_number", notification.DeliveryNumber,
	}
	if notification.CourierID != nil {
		attrs = append(attrs, "courier_id", notification.CourierID)
	}
	n.Logger.InfoContext(ctx, "courier notification", attrs...)
	return nil
}
