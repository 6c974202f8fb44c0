// Package courierrepo provides data transfer objects and mapping functions for courier persistence.
// This package implements the repository pattern for the courier domain aggregate, handling
// the conversion between domain entities and database representations.
package courierrepo

import (
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO represents the database structure for persisting courier aggregates.
type CourierDTO struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name       string      `gorm:"type:varchar(255);not null"`
	Phone      string      `gorm:"type:varchar(64)"`
	Location   LocationDTO `gorm:"embedded;embeddedPrefix:location_"`
	OnDuty     bool        `gorm:"not null;index"`
	LiveStatus string      `gorm:"type:varchar(32);not null"`
}

// TableName specifies the database table name for courier entities.
// Overrides GORM's default naming convention to use "couriers" instead of "courier_dtos".
func (CourierDTO) TableName() string {
	return "couriers"
}

// LocationDTO holds the last reported position. Both columns are NULL until
// the courier reports one.
type LocationDTO struct {
	Lat *float64 `gorm:"type:double precision"`
	Lon *float64 `gorm:"type:double precision"`
}

// fromDomain converts a courier domain aggregate to its database representation.
func fromDomain(c *courier.Courier) CourierDTO {
	return CourierDTO{
		ID:         c.ID().Bytes(),
		Name:       c.Name(),
		Phone:      c.Phone(),
		Location:   locationFromDomain(c.Location()),
		OnDuty:     c.OnDuty(),
		LiveStatus: string(c.LiveStatus()),
	}
}

// toDomain converts a database DTO to a courier domain aggregate using RestoreCourier.
func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var loc *kernel.Location
	if dto.Location.Lat != nil && dto.Location.Lon != nil {
		l, locErr := kernel.NewLocation(*dto.Location.Lat, *dto.Location.Lon)
		if locErr != nil {
			return nil, locErr
		}
		loc = &l
	}

	return courier.RestoreCourier(courier.Snapshot{
		ID:         id,
		Name:       dto.Name,
		Phone:      dto.Phone,
		Location:   loc,
		OnDuty:     dto.OnDuty,
		LiveStatus: courier.LiveStatus(dto.LiveStatus),
	})
}

// patchColumns lists the courier columns a patch writes.
func patchColumns(p courier.Patch) map[string]any {
	columns := make(map[string]any)
	if p.OnDuty != nil {
		columns["on_duty"] = *p.OnDuty
	}
	if p.LiveStatus != nil {
		columns["live_status"] = string(*p.LiveStatus)
	}
	if p.Location != nil {
		columns["location_lat"] = p.Location.Lat()
		columns["location_lon"] = p.Location.Lon()
	}
	return columns
}

func locationFromDomain(l *kernel.Location) LocationDTO {
	if l == nil {
		return LocationDTO{}
	}
	lat, lon := l.Lat(), l.Lon()
	return LocationDTO{Lat: &lat, Lon: &lon}
}
