package kernel

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
	EarthRadiusKm = 6371.0

	// DefaultGeofenceKm is the radius gating pickup and delivery confirmation (50 m).
	DefaultGeofenceKm = 0.05

	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation constructor")

// DistanceKm returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// IsWithinRange reports whether point a lies no further than maxKm from point b.
func IsWithinRange(aLat, aLon, bLat, bLon, maxKm float64) bool {
	return DistanceKm(aLat, aLon, bLat, bLon) <= maxKm
}

// Location is a validated WGS84 point: a business address, a delivery client
// or the courier's last reported position. The zero value is invalid.
//
// Example:
//
//	business, _ := kernel.NewLocation(32.08, 34.78)
//	courier, _ := kernel.NewLocation(32.0804, 34.78)
//	ok, _ := courier.IsWithin(business, kernel.DefaultGeofenceKm)
type Location struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewLocation validates the latitude and longitude ranges.
func NewLocation(lat, lon float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLat(lat), loc.setLon(lon)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// Validate rejects zero-value locations.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Lat returns the latitude in decimal degrees.
func (l Location) Lat() float64 {
	return l.lat
}

// Lon returns the longitude in decimal degrees.
func (l Location) Lon() float64 {
	return l.lon
}

func (l Location) String() string {
	return fmt.Sprintf("Location(%.6f,%.6f)", l.lat, l.lon)
}

// IsEqual compares coordinates of two constructed locations.
func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l.lat == other.lat && l.lon == other.lon, nil
}

// DistanceTo returns the Haversine distance in kilometres.
func (l Location) DistanceTo(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	return DistanceKm(l.lat, l.lon, other.lat, other.lon), nil
}

// IsWithin reports whether other lies no further than maxKm from l.
func (l Location) IsWithin(other Location, maxKm float64) (bool, error) {
	d, err := l.DistanceTo(other)
	if err != nil {
		return false, err
	}
	return d <= maxKm, nil
}

func (l *Location) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("lat", lat, MinLatitude, MaxLatitude)
	}

	l.lat = lat
	return nil
}

func (l *Location) setLon(lon float64) error {
	if math.IsNaN(lon) || lon < MinLongitude || lon > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("lon", lon, MinLongitude, MaxLongitude)
	}

	l.lon = lon
	return nil
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}
