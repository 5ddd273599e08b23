package models

import "fmt"

// Record is a single input row to be geocoded. Query returns the text sent to
// the geocoding provider; it is a pure function of the record's fields.
type Record interface {
	Query() string
}

// Magnituder is implemented by records that carry a numeric attribute used to
// size and color map markers.
type Magnituder interface {
	Magnitude() float64
}

// AddressRecord is one postal address row: a unique account identifier plus the
// street-level address components.
type AddressRecord struct {
	AccountID string // AccountID is the unique identifier for the row.
	Street    string // Street is the street address.
	City      string // City is the city name.
	State     string // State is the state or province.
	Zip       string // Zip is the ZIP or postal code.
}

// Query builds the full address string sent to the provider.
func (r AddressRecord) Query() string {
	return fmt.Sprintf("%s, %s, %s %s", r.Street, r.City, r.State, r.Zip)
}

// ZipRecord is one ZIP-code row with its household count.
type ZipRecord struct {
	Zip        string // Zip is the ZIP code to be geocoded.
	Households int    // Households is the number of households in the ZIP code.
}

// Query builds the ZIP query string sent to the provider.
func (r ZipRecord) Query() string {
	return fmt.Sprintf("%s, USA", r.Zip)
}

// Magnitude returns the household count as the marker magnitude.
func (r ZipRecord) Magnitude() float64 {
	return float64(r.Households)
}
