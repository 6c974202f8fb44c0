package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/kernel"
)

// BusinessRepository stores merchants and their saved clients.
type BusinessRepository interface {
	Add(ctx context.Context, b *business.Business) error
	Get(ctx context.Context, id kernel.UUID) (*business.Business, error)
	AddClient(ctx context.Context, c *business.Client) error
	GetClient(ctx context.Context, id kernel.UUID) (*business.Client, error)
}

// DeliveryNumberGenerator issues human-readable delivery numbers from a
// persistent counter.
type DeliveryNumberGenerator interface {
	NextDeliveryNumber(ctx context.Context, now time.Time) (string, error)
}
