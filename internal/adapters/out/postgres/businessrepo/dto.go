// Package businessrepo persists businesses, their saved clients and the
// delivery number counter.
package businessrepo

import (
	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// BusinessDTO represents the database structure for persisting businesses.
type BusinessDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name              string    `gorm:"type:varchar(255);not null"`
	City              string    `gorm:"type:varchar(255)"`
	LocationLat       float64   `gorm:"type:double precision;not null"`
	LocationLon       float64   `gorm:"type:double precision;not null"`
	DeliveryCompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (BusinessDTO) TableName() string {
	return "businesses"
}

// ClientDTO is a customer saved by a business. Coordinates are optional.
type ClientDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(255)"`
	LocationLat *float64  `gorm:"type:double precision"`
	LocationLon *float64  `gorm:"type:double precision"`
}

func (ClientDTO) TableName() string {
	return "business_clients"
}

// CounterDTO is a named monotonically increasing sequence.
type CounterDTO struct {
	Name  string `gorm:"type:varchar(64);primaryKey"`
	Value int64  `gorm:"type:bigint;not null"`
}

func (CounterDTO) TableName() string {
	return "counters"
}

func businessFromDomain(b *business.Business) BusinessDTO {
	return BusinessDTO{
		ID:                b.ID().Bytes(),
		Name:              b.Name(),
		City:              b.City(),
		LocationLat:       b.Location().Lat(),
		LocationLon:       b.Location().Lon(),
		DeliveryCompanyID: b.DeliveryCompanyID().Bytes(),
	}
}

func businessToDomain(dto BusinessDTO) (*business.Business, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	companyID, err := kernel.UUIDFromBytes(dto.DeliveryCompanyID[:])
	if err != nil {
		return nil, err
	}
	loc, err := kernel.NewLocation(dto.LocationLat, dto.LocationLon)
	if err != nil {
		return nil, err
	}

	return business.NewBusiness(id, dto.Name, dto.City, loc, companyID)
}

func clientFromDomain(c *business.Client) ClientDTO {
	dto := ClientDTO{
		ID:         c.ID().Bytes(),
		BusinessID: c.BusinessID().Bytes(),
		Name:       c.Name(),
	}
	if loc := c.Location(); loc != nil {
		lat, lon := loc.Lat(), loc.Lon()
		dto.LocationLat = &lat
		dto.LocationLon = &lon
	}
	return dto
}

func clientToDomain(dto ClientDTO) (*business.Client, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	businessID, err := kernel.UUIDFromBytes(dto.BusinessID[:])
	if err != nil {
		return nil, err
	}

	var loc *kernel.Location
	if dto.LocationLat != nil && dto.LocationLon != nil {
		l, locErr := kernel.NewLocation(*dto.LocationLat, *dto.LocationLon)
		if locErr != nil {
			return nil, locErr
		}
		loc = &l
	}

	return business.NewClient(id, businessID, dto.Name, loc)
}
