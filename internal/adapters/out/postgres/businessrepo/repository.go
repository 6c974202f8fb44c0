package businessrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/adapters/out/postgres/dberr"
	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

const deliveryNumberCounter = "delivery_number"

var (
	_ ports.BusinessRepository      = (*GormBusinessRepository)(nil)
	_ ports.DeliveryNumberGenerator = (*GormDeliveryNumberGenerator)(nil)
)

// GormBusinessRepository implements ports.BusinessRepository using GORM.
type GormBusinessRepository struct {
	db *gorm.DB
}

func NewGormBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

func (r *GormBusinessRepository) Add(ctx context.Context, b *business.Business) error {
	if err := b.Validate(); err != nil {
		return err
	}

	dto := businessFromDomain(b)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberr.Wrap("add business", err)
	}
	return nil
}

func (r *GormBusinessRepository) Get(ctx context.Context, id kernel.UUID) (*business.Business, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto BusinessDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("business", id.String())
		}
		return nil, dberr.Wrap("get business", err)
	}

	return businessToDomain(dto)
}

func (r *GormBusinessRepository) AddClient(ctx context.Context, c *business.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}

	dto := clientFromDomain(c)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberr.Wrap("add client", err)
	}
	return nil
}

func (r *GormBusinessRepository) GetClient(ctx context.Context, id kernel.UUID) (*business.Client, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ClientDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("client", id.String())
		}
		return nil, dberr.Wrap("get client", err)
	}

	return clientToDomain(dto)
}

// GormDeliveryNumberGenerator draws delivery numbers from the counters table.
type GormDeliveryNumberGenerator struct {
	db *gorm.DB
}

func NewGormDeliveryNumberGenerator(db *gorm.DB) *GormDeliveryNumberGenerator {
	return &GormDeliveryNumberGenerator{db: db}
}

// NextDeliveryNumber increments the counter in a single upsert, so concurrent
// callers never receive the same sequence value.
func (g *GormDeliveryNumberGenerator) NextDeliveryNumber(ctx context.Context, now time.Time) (string, error) {
	var seq int64
	err := g.db.WithContext(ctx).Raw(`
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`, deliveryNumberCounter).Scan(&seq).Error
	if err != nil {
		return "", dberr.Wrap("next delivery number", err)
	}

	return task.FormatDeliveryNumber(now, seq), nil
}
