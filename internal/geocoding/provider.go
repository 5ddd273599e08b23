package geocoding

import (
	"context"
	"errors"

	"github.com/Houeta/address-mapper/internal/models"
)

// Provider is an interface that defines a method for geocoding a location query.
// The Geocode method takes a context and a query string as input, and returns
// the corresponding coordinates and an error if any occurs.
type Provider interface {
	Geocode(ctx context.Context, query string) (*models.Coordinates, error)
}

// ErrNoResults is returned when the provider answered normally but found no
// match for the query. Callers use errors.Is to tell a miss apart from a
// provider failure; both leave the row without coordinates.
var ErrNoResults = errors.New("geocoding provider returned no results")
