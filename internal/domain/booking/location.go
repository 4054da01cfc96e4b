package booking

import (
	"context"

	"github.com/agrirent/service-booking/internal/platform/domain"
)

// GeoPoint is a device location stamp captured when a job starts or finishes.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsValid returns true if the coordinates are within range. The (0,0) null
// island pair is treated as a missing reading.
func (p GeoPoint) IsValid() bool {
	if p.Latitude == 0 && p.Longitude == 0 {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// LocationResolver is the external geolocation capability. It is called
// synchronously inside the transition boundary: when it fails, the
// transition is aborted and the booking is left untouched.
type LocationResolver interface {
	// Resolve returns the device's current location or an error if it
	// cannot be determined (permission denied, timeout).
	Resolve(ctx context.Context) (GeoPoint, error)
}

// staticResolver resolves to coordinates already captured by the client.
type staticResolver struct {
	point GeoPoint
}

// ResolverFor wraps client-captured coordinates in a LocationResolver,
// rejecting out-of-range or missing readings.
func ResolverFor(latitude, longitude float64) LocationResolver {
	return staticResolver{point: GeoPoint{Latitude: latitude, Longitude: longitude}}
}

// Resolve returns the captured coordinates after validating them.
func (r staticResolver) Resolve(_ context.Context) (GeoPoint, error) {
	if !r.point.IsValid() {
		return GeoPoint{}, domain.NewUnavailableError("device location could not be resolved")
	}
	return r.point, nil
}
