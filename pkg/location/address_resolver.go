package location

import (
	"context"
	"errors"
	"time"

	"googlemaps.github.io/maps"
)

// ErrNoAddress is returned when reverse geocoding yields no result.
var ErrNoAddress = errors.New("no address found for coordinates")

// AddressResolver turns coordinates into a human readable address.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, lat, lng float64) (string, error)
}

// reverseGeocoder is the part of *maps.Client used by GoogleAddressResolver.
type reverseGeocoder interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleAddressResolver uses the Google Maps Geocoding API to resolve addresses.
type GoogleAddressResolver struct {
	client  reverseGeocoder // Maps API client for making reverse geocoding requests
	timeout time.Duration
}

// NewGoogleAddressResolver creates a new GoogleAddressResolver instance.
func NewGoogleAddressResolver(apiKey string, timeout time.Duration) (*GoogleAddressResolver, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleAddressResolver{
		client:  c,
		timeout: timeout,
	}, nil
}

// ResolveAddress returns the formatted address of the best reverse geocoding match.
func (g *GoogleAddressResolver) ResolveAddress(ctx context.Context, lat, lng float64) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return "", err
	}
	if len(results) == 0 || results[0].FormattedAddress == "" {
		return "", ErrNoAddress
	}

	return results[0].FormattedAddress, nil
}
