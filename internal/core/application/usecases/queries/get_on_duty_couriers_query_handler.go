package queries

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOnDutyCouriersQueryHandler reads on-duty couriers with direct SQL,
// sorted by name.
type GetOnDutyCouriersQueryHandler struct {
	db *gorm.DB
}

func NewGetOnDutyCouriersQueryHandler(db *gorm.DB) GetOnDutyCouriersQueryHandler {
	return GetOnDutyCouriersQueryHandler{db: db}
}

func (h GetOnDutyCouriersQueryHandler) Handle(
	ctx context.Context,
	query GetOnDutyCouriersQuery,
) ([]GetOnDutyCouriersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			live_status,
			location_lat,
			location_lon
		FROM couriers
		WHERE on_duty = TRUE
		ORDER BY name, id
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	couriers := make([]GetOnDutyCouriersQueryResponse, 0)
	for rows.Next() {
		var (
			resp     GetOnDutyCouriersQueryResponse
			id       uuid.UUID
			status   string
			lat, lon sql.NullFloat64
		)

		if err = rows.Scan(&id, &resp.Name, &status, &lat, &lon); err != nil {
			return nil, err
		}

		if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		resp.LiveStatus = courier.LiveStatus(status)
		if lat.Valid && lon.Valid {
			location, locErr := kernel.NewLocation(lat.Float64, lon.Float64)
			if locErr != nil {
				return nil, locErr
			}
			resp.Location = &location
		}

		couriers = append(couriers, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return couriers, nil
}

// RepositoryOnDutyCouriersQueryHandler answers GetOnDutyCouriersQuery from
// any ports.CourierRepository.
type RepositoryOnDutyCouriersQueryHandler struct {
	couriers ports.CourierRepository
}

func NewRepositoryOnDutyCouriersQueryHandler(couriers ports.CourierRepository) RepositoryOnDutyCouriersQueryHandler {
	return RepositoryOnDutyCouriersQueryHandler{couriers: couriers}
}

func (h RepositoryOnDutyCouriersQueryHandler) Handle(
	ctx context.Context,
	query GetOnDutyCouriersQuery,
) ([]GetOnDutyCouriersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	found, err := h.couriers.FindOnDuty(ctx)
	if err != nil {
		return nil, err
	}

	couriers := make([]GetOnDutyCouriersQueryResponse, 0, len(found))
	for _, c := range found {
		couriers = append(couriers, GetOnDutyCouriersQueryResponse{
			ID:         c.ID(),
			Name:       c.Name(),
			LiveStatus: c.LiveStatus(),
			Location:   c.Location(),
		})
	}

	slices.SortStableFunc(couriers, func(a, b GetOnDutyCouriersQueryResponse) int {
		return strings.Compare(a.Name, b.Name)
	})
	return couriers, nil
}
