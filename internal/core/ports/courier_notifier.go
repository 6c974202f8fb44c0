package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// NotificationKind distinguishes a directed offer from a broadcast.
type NotificationKind string

const (
	NotificationTaskOffered   NotificationKind = "task_offered"
	NotificationTaskBroadcast NotificationKind = "task_broadcast"
)

// CourierNotification is the message pushed to courier devices.
// CourierID is nil for broadcasts.
type CourierNotification struct {
	Kind           NotificationKind
	TaskID         kernel.UUID
	CourierID      *kernel.UUID
	DeliveryNumber string
	BusinessName   string
}

// CourierNotifier delivers notifications on a best-effort basis. Callers never
// wait for it and never fail a dispatch because of it.
type CourierNotifier interface {
	Notify(ctx context.Context, n CourierNotification) error
}
