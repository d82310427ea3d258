// Package elevation provides terrain height lookup for mesh building.
package elevation

// Provider returns the terrain elevation at a geographic position.
// Implementations must be safe for concurrent use: tiles are built in
// parallel and share one provider.
type Provider interface {
	Elevation(latitude, longitude float64) float64
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(latitude, longitude float64) float64

// Elevation calls f(latitude, longitude).
func (f ProviderFunc) Elevation(latitude, longitude float64) float64 {
	return f(latitude, longitude)
}

// Flat is a provider returning the same height everywhere.
type Flat float64

// Elevation returns the flat height.
func (f Flat) Elevation(_, _ float64) float64 {
	return float64(f)
}
