package courierrepo

import (
	"context"
	"errors"

	"dispatch/internal/adapters/out/postgres/dberr"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.CourierRepository = (*GormCourierRepository)(nil)

// GormCourierRepository implements CourierRepository using GORM.
type GormCourierRepository struct {
	db *gorm.DB
}

// NewGormCourierRepository creates a new GORM courier repository.
func NewGormCourierRepository(db *gorm.DB) *GormCourierRepository {
	return &GormCourierRepository{db: db}
}

// Add saves a new courier to the database.
func (r *GormCourierRepository) Add(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberr.Wrap("add courier", err)
	}
	return nil
}

// UpdateFields writes only the columns named by the patch.
func (r *GormCourierRepository) UpdateFields(ctx context.Context, id kernel.UUID, patch courier.Patch) error {
	if err := id.Validate(); err != nil {
		return err
	}

	columns := patchColumns(patch)
	if len(columns) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}

	result := r.db.WithContext(ctx).Model(&CourierDTO{}).Where("id = ?", id.Bytes()).Updates(columns)
	if result.Error != nil {
		return dberr.Wrap("update courier", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("courier", id.String())
	}
	return nil
}

// Get retrieves a courier by ID.
func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CourierDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("courier", id.String())
		}
		return nil, dberr.Wrap("get courier", err)
	}

	return toDomain(dto)
}

// FindOnDuty retrieves every courier whose shift flag is set, whatever its
// live status.
//
// Example:
//
//	couriers, err := repo.FindOnDuty(ctx)
//	if err != nil {
//		return fmt.Errorf("failed to get on-duty couriers: %w", err)
//	}
//	for _, c := range couriers {
//		fmt.Printf("On duty: %s (%s)\n", c.Name(), c.LiveStatus())
//	}
func (r *GormCourierRepository) FindOnDuty(ctx context.Context) ([]*courier.Courier, error) {
	var dtos []CourierDTO
	if err := r.db.WithContext(ctx).
		Where("on_duty = ?", true).
		Order("name, id").
		Find(&dtos).Error; err != nil {
		return nil, dberr.Wrap("find on-duty couriers", err)
	}

	couriers := make([]*courier.Courier, 0, len(dtos))
	for _, dto := range dtos {
		c, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		couriers = append(couriers, c)
	}

	return couriers, nil
}
