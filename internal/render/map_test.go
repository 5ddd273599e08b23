package render_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/Houeta/address-mapper/internal/marker"
	"github.com/Houeta/address-mapper/internal/models"
	"github.com/Houeta/address-mapper/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressRow(account string, lat, lon float64) models.ResultRow {
	rec := models.AddressRecord{AccountID: account, Street: "1 Main St",
		City: "Springfield", State: "IL", Zip: "62701"}
	return models.ResultRow{
		Record: rec,
		Query:  rec.Query(),
		Coords: &models.Coordinates{Latitude: lat, Longitude: lon},
		Status: models.StatusSuccess,
	}
}

func failedAddressRow(account string) models.ResultRow {
	rec := models.AddressRecord{AccountID: account, Street: "1 Nowhere Rd",
		City: "Atlantis", State: "XX", Zip: "00000"}
	return models.ResultRow{Record: rec, Query: rec.Query(), Status: models.StatusFailed}
}

func zipResultRow(zip string, households int, lat, lon float64) models.ResultRow {
	rec := models.ZipRecord{Zip: zip, Households: households}
	return models.ResultRow{
		Record: rec,
		Query:  rec.Query(),
		Coords: &models.Coordinates{Latitude: lat, Longitude: lon},
		Status: models.StatusSuccess,
	}
}

func TestRenderer_Render(t *testing.T) {
	renderer := render.NewRenderer(slog.Default())

	t.Run("fails explicitly when nothing geocoded", func(t *testing.T) {
		set := models.ResultSet{failedAddressRow("ACC001"), failedAddressRow("ACC002")}

		var buf bytes.Buffer
		err := renderer.Render(&buf, set)

		require.ErrorIs(t, err, render.ErrNoData)
		assert.Zero(t, buf.Len())
	})

	t.Run("centers on the mean of successful rows only", func(t *testing.T) {
		set := models.ResultSet{
			addressRow("ACC001", 40, -74),
			failedAddressRow("ACC002"),
			addressRow("ACC003", 41, -75),
		}

		var buf bytes.Buffer
		require.NoError(t, renderer.Render(&buf, set))

		html := buf.String()
		assert.Contains(t, html, "40.5")
		assert.Contains(t, html, "-74.5")
	})

	t.Run("renders a marker per successful row and skips failed rows", func(t *testing.T) {
		set := models.ResultSet{
			addressRow("ACC001", 40.7128, -74.006),
			failedAddressRow("ACC002"),
		}

		var buf bytes.Buffer
		require.NoError(t, renderer.Render(&buf, set))

		html := buf.String()
		assert.Contains(t, html, "Account: ACC001")
		assert.NotContains(t, html, "ACC002")
		// Simple mode shows coordinates at six decimal places.
		assert.Contains(t, html, "40.712800, -74.006000")
		assert.NotContains(t, html, `<div class="legend">`)
	})
}

func TestRenderer_RenderMagnitude(t *testing.T) {
	renderer := render.NewRenderer(slog.Default())

	set := models.ResultSet{
		zipResultRow("10001", 2500, 40.7506, -73.9972),
		zipResultRow("90210", 1800, 34.0901, -118.4065),
	}
	styles, scale, err := marker.Encode(set)
	require.NoError(t, err)

	t.Run("renders sized circles, labels and a legend", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderer.RenderMagnitude(&buf, set, styles, scale))

		html := buf.String()
		assert.Contains(t, html, "ZIP: 10001")
		assert.Contains(t, html, "ZIP: 90210")
		assert.Contains(t, html, "2.5K")
		assert.Contains(t, html, "1.8K")
		// Magnitude mode shows coordinates at four decimal places.
		assert.Contains(t, html, "40.7506, -73.9972")
		// Legend carries the extremes and the highest bucket color.
		assert.Contains(t, html, "min: 1.8K")
		assert.Contains(t, html, "max: 2.5K")
		assert.Contains(t, html, marker.BucketColor(marker.NumBuckets))
	})

	t.Run("fails explicitly when no styled rows remain", func(t *testing.T) {
		failedOnly := models.ResultSet{{
			Record: models.ZipRecord{Zip: "00000", Households: 1},
			Query:  "00000, USA",
			Status: models.StatusFailed,
		}}

		var buf bytes.Buffer
		err := renderer.RenderMagnitude(&buf, failedOnly, map[int]marker.Style{}, marker.Scale{})

		require.ErrorIs(t, err, render.ErrNoData)
		assert.Zero(t, buf.Len())
	})
}
