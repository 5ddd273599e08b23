// Package marker derives visual marker parameters (radius, color bucket,
// label) from a numeric magnitude across a set of geocoded rows.
package marker

import (
	"errors"
	"fmt"

	"github.com/Houeta/address-mapper/internal/models"
)

const (
	// MinRadius and MaxRadius bound the circle radius for the extremes of the
	// magnitude range.
	MinRadius = 5.0
	MaxRadius = 50.0
	// DefaultRadius is used when every row carries the same magnitude and no
	// meaningful scale exists.
	DefaultRadius = 25.0
	// NumBuckets is the number of discrete color buckets.
	NumBuckets = 5
)

// bucketColors maps bucket 1..5 (lowest to highest) to fill colors.
var bucketColors = [NumBuckets]string{"#ffffb2", "#fecc5c", "#fd8d3c", "#f03b20", "#bd0026"}

// ErrNoMagnitude is returned when a successfully geocoded row does not carry a
// magnitude attribute, i.e. the input was not loaded in magnitude mode.
var ErrNoMagnitude = errors.New("rows carry no magnitude attribute")

// Style holds the derived visual parameters for one marker. It is recomputed
// per render and never persisted.
type Style struct {
	Radius float64 // Radius of the circle marker, in [MinRadius, MaxRadius].
	Bucket int     // Bucket is the color bucket, 1 (lowest) to 5 (highest).
	Color  string  // Color is the fill color for the bucket.
	Label  string  // Label is the short display string for the magnitude.
}

// Scale summarizes the magnitude range used for the legend.
type Scale struct {
	Min float64
	Max float64
}

// Encode computes a marker style for every successfully geocoded row in the
// set, keyed by the row's index in the set. Failed and pending rows get no
// style. The mapping is a pure, deterministic function of the full
// successful-row set and is recomputed from scratch on every call.
//
// Magnitudes are normalized to t = (m - min) / (max - min); radius is
// MinRadius + (MaxRadius-MinRadius)*t and the bucket follows fixed thresholds
// on t (0.2, 0.4, 0.6, 0.8, closed on the lower bound). When all magnitudes
// are equal there is no scale: every row gets DefaultRadius and the lowest
// bucket.
func Encode(set models.ResultSet) (map[int]Style, Scale, error) {
	magnitudes := make(map[int]float64)
	var scale Scale
	first := true
	for i, row := range set {
		if row.Status != models.StatusSuccess {
			continue
		}
		mag, ok := row.Record.(models.Magnituder)
		if !ok {
			return nil, Scale{}, ErrNoMagnitude
		}
		value := mag.Magnitude()
		magnitudes[i] = value
		if first || value < scale.Min {
			scale.Min = value
		}
		if first || value > scale.Max {
			scale.Max = value
		}
		first = false
	}

	styles := make(map[int]Style, len(magnitudes))
	for i, value := range magnitudes {
		style := Style{Label: FormatMagnitude(value)}
		if scale.Max == scale.Min {
			style.Radius = DefaultRadius
			style.Bucket = 1
		} else {
			t := (value - scale.Min) / (scale.Max - scale.Min)
			style.Radius = MinRadius + (MaxRadius-MinRadius)*t
			style.Bucket = bucketFor(t)
		}
		style.Color = BucketColor(style.Bucket)
		styles[i] = style
	}

	return styles, scale, nil
}

// bucketFor maps a normalized magnitude in [0,1] to a bucket 1..5. Each band
// is closed on its lower bound, so t == 1.0 lands in the highest bucket.
func bucketFor(t float64) int {
	switch {
	case t >= 0.8:
		return 5
	case t >= 0.6:
		return 4
	case t >= 0.4:
		return 3
	case t >= 0.2:
		return 2
	default:
		return 1
	}
}

// BucketColor returns the fill color for a bucket 1..5.
func BucketColor(bucket int) string {
	if bucket < 1 || bucket > NumBuckets {
		return bucketColors[0]
	}
	return bucketColors[bucket-1]
}

// FormatMagnitude renders a magnitude for display: plain below 1000,
// thousands with one decimal above.
func FormatMagnitude(value float64) string {
	if value < 1000 {
		return fmt.Sprintf("%.0f", value)
	}
	return fmt.Sprintf("%.1fK", value/1000)
}
