package geocoding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Houeta/address-mapper/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

// GoogleAPIClient is the subset of the Google Maps client used for geocoding.
// It allows substituting a mock client in tests.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider initializes a new GoogleProvider with the given API client
// and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode takes a context and a query string as input, and returns the
// geographical coordinates (longitude and latitude) of the provided location
// using the Google Maps Geocoding API. An empty result list from the API is
// reported as ErrNoResults; any transport or API failure is wrapped and
// returned as-is.
func (gp *GoogleProvider) Geocode(ctx context.Context, query string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "query", query)

	req := maps.GeocodingRequest{Address: query}
	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode query: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrNoResults
	}
	coords := geocodeResponse[0].Geometry.Location

	return &models.Coordinates{Longitude: coords.Lng, Latitude: coords.Lat}, nil
}
