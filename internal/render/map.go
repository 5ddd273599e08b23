// Package render turns a geocoded result set into a standalone interactive
// map document (Leaflet HTML). Failed rows are never rendered but stay in the
// result set for reporting and export.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"

	"github.com/Houeta/address-mapper/internal/marker"
	"github.com/Houeta/address-mapper/internal/models"
)

// ErrNoData is returned when no row geocoded successfully; there is nothing
// meaningful to center or draw, so rendering fails explicitly instead of
// producing an empty artifact.
var ErrNoData = errors.New("no valid coordinates found to display on the map")

// Coordinate display precision per mode.
const (
	simplePrecision    = 6
	magnitudePrecision = 4
)

const defaultZoom = 10

// Renderer builds map documents from geocoded result sets.
type Renderer struct {
	log *slog.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(log *slog.Logger) *Renderer {
	return &Renderer{log: log}
}

// pin is the per-marker payload handed to the page template as JSON.
type pin struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Tooltip string  `json:"tooltip"`
	Popup   string  `json:"popup"` // pre-escaped HTML
	Radius  float64 `json:"radius,omitempty"`
	Color   string  `json:"color,omitempty"`
	Label   string  `json:"label,omitempty"`
}

// legend summarizes the magnitude scale for the fixed map legend.
type legend struct {
	Min    string
	Max    string
	Colors []string
}

// Render writes a simple map: one marker per successfully geocoded row, with
// a hover tooltip and a click popup carrying the row's identifying fields and
// its coordinates at 6 decimal places. The map is centered on the arithmetic
// mean of the successful coordinates.
func (r *Renderer) Render(w io.Writer, set models.ResultSet) error {
	successes := set.Successes()
	if len(successes) == 0 {
		return ErrNoData
	}

	pins := make([]pin, 0, len(successes))
	for _, row := range successes {
		pins = append(pins, pin{
			Lat:     row.Coords.Latitude,
			Lon:     row.Coords.Longitude,
			Tooltip: tooltipFor(row),
			Popup:   popupFor(row, simplePrecision),
		})
	}

	return r.execute(w, "Address Map", pins, nil)
}

// RenderMagnitude writes a magnitude map: one sized and colored circle plus a
// text label per successful row, coordinates shown at 4 decimal places, and a
// fixed legend with the magnitude extremes and the bucket color scale. styles
// and scale come from marker.Encode over the same result set.
func (r *Renderer) RenderMagnitude(
	w io.Writer,
	set models.ResultSet,
	styles map[int]marker.Style,
	scale marker.Scale,
) error {
	pins := make([]pin, 0, len(styles))
	for i, row := range set {
		style, ok := styles[i]
		if !ok || row.Status != models.StatusSuccess {
			continue
		}
		pins = append(pins, pin{
			Lat:     row.Coords.Latitude,
			Lon:     row.Coords.Longitude,
			Tooltip: tooltipFor(row),
			Popup:   popupFor(row, magnitudePrecision),
			Radius:  style.Radius,
			Color:   style.Color,
			Label:   style.Label,
		})
	}
	if len(pins) == 0 {
		return ErrNoData
	}

	colors := make([]string, 0, marker.NumBuckets)
	for b := 1; b <= marker.NumBuckets; b++ {
		colors = append(colors, marker.BucketColor(b))
	}
	lgd := &legend{
		Min:    marker.FormatMagnitude(scale.Min),
		Max:    marker.FormatMagnitude(scale.Max),
		Colors: colors,
	}

	return r.execute(w, "Household Map", pins, lgd)
}

// RenderFile writes the simple map to path.
func (r *Renderer) RenderFile(path string, set models.ResultSet) error {
	return r.toFile(path, func(w io.Writer) error { return r.Render(w, set) })
}

// RenderMagnitudeFile writes the magnitude map to path.
func (r *Renderer) RenderMagnitudeFile(
	path string,
	set models.ResultSet,
	styles map[int]marker.Style,
	scale marker.Scale,
) error {
	return r.toFile(path, func(w io.Writer) error { return r.RenderMagnitude(w, set, styles, scale) })
}

// toFile renders into memory first so a failed render never leaves a partial
// or empty artifact on disk.
func (r *Renderer) toFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write map file: %w", err)
	}
	return nil
}

func (r *Renderer) execute(w io.Writer, title string, pins []pin, lgd *legend) error {
	centerLat, centerLon := center(pins)

	page := pageData{
		Title:     title,
		CenterLat: centerLat,
		CenterLon: centerLon,
		Zoom:      defaultZoom,
		Pins:      pins,
		Legend:    lgd,
	}

	if err := pageTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render map document: %w", err)
	}

	r.log.Debug("Rendered map document", "markers", len(pins), "legend", lgd != nil)
	return nil
}

// center is the arithmetic mean of the marker coordinates. Only successful
// rows reach this point, so absent coordinates never skew the mean.
func center(pins []pin) (lat, lon float64) {
	for _, p := range pins {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(pins))
	return lat / n, lon / n
}

// tooltipFor builds the short hover text for a row.
func tooltipFor(row models.ResultRow) string {
	switch rec := row.Record.(type) {
	case models.AddressRecord:
		return "Account: " + rec.AccountID
	case models.ZipRecord:
		return "ZIP: " + rec.Zip
	default:
		return row.Query
	}
}

// popupFor builds the click popup HTML for a row: its identifying fields plus
// the coordinates at the mode's fixed precision.
func popupFor(row models.ResultRow, precision int) string {
	coords := fmt.Sprintf("%.*f, %.*f", precision, row.Coords.Latitude, precision, row.Coords.Longitude)
	switch rec := row.Record.(type) {
	case models.AddressRecord:
		return fmt.Sprintf("<b>Account ID:</b> %s<br><b>Address:</b> %s<br><b>Coordinates:</b> %s",
			html.EscapeString(rec.AccountID), html.EscapeString(row.Query), coords)
	case models.ZipRecord:
		return fmt.Sprintf("<b>ZIP Code:</b> %s<br><b>Households:</b> %d<br><b>Coordinates:</b> %s",
			html.EscapeString(rec.Zip), rec.Households, coords)
	default:
		return fmt.Sprintf("<b>Query:</b> %s<br><b>Coordinates:</b> %s",
			html.EscapeString(row.Query), coords)
	}
}
