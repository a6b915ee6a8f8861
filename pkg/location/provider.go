package location

import "context"

// Provider defines the methods for sources of shared locations
type Provider interface {
	GetLocations(ctx context.Context) ([]Location, error)
}
