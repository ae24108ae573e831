package client

import "context"

// Coordinates is a geographic point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// LocationProvider resolves the device's current position. Denial or
// failure is reported as an error; callers degrade to non-geo-bounded
// searches rather than surfacing it.
type LocationProvider interface {
	Resolve(ctx context.Context) (Coordinates, error)
}

// LocationFunc adapts a function to a LocationProvider.
type LocationFunc func(ctx context.Context) (Coordinates, error)

// Resolve calls the underlying function.
func (f LocationFunc) Resolve(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// StaticLocation always resolves to a fixed position.
func StaticLocation(coords Coordinates) LocationProvider {
	return LocationFunc(func(context.Context) (Coordinates, error) {
		return coords, nil
	})
}
