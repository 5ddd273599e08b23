package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/Houeta/address-mapper/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func newTestProvider(client geocoding.HTTPClient) *geocoding.NominatimProvider {
	return geocoding.NewNominatimProviderWithClient(client, rate.NewLimiter(rate.Inf, 1), slog.Default())
}

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := context.Background()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, "GET", req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org")
				assert.Equal(t, "1600 Amphitheatre Parkway, Mountain View, CA 94043", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(
					t,
					"Address-Mapper/1.0 (https://github.com/Houeta/address-mapper)",
					req.Header.Get("User-Agent"),
				)

				// Return mock response
				responseBody := `[{"lat":"37.4224764","lon":"-122.0842499"}]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newTestProvider(mockClient)
		coords, err := provider.Geocode(ctx, "1600 Amphitheatre Parkway, Mountain View, CA 94043")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 37.4224764, coords.Latitude, 0.0001)
		assert.InEpsilon(t, -122.0842499, coords.Longitude, 0.0001)
	})

	t.Run("empty response from API", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `[]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newTestProvider(mockClient)
		coords, err := provider.Geocode(ctx, "nowhere at all")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrNoResults)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{"error":"Rate limit exceeded"}`
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newTestProvider(mockClient)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.NotErrorIs(t, err, geocoding.ErrNoResults)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("transport error is not a miss", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := newTestProvider(mockClient)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.NotErrorIs(t, err, geocoding.ErrNoResults)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `invalid json`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newTestProvider(mockClient)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("invalid latitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `[{"lat":"invalid","lon":"-122.0842499"}]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newTestProvider(mockClient)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		assert.Contains(t, err.Error(), "invalid latitude")
	})

	t.Run("invalid longitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `[{"lat":"37.4224764","lon":"invalid"}]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := newTestProvider(mockClient)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		assert.Contains(t, err.Error(), "invalid longitude")
	})

	t.Run("cancelled context interrupts the limiter wait", func(t *testing.T) {
		cancelledCtx, cancel := context.WithCancel(context.Background())
		cancel()

		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("no request should be made with a cancelled context")
				return nil, nil
			},
		}

		provider := newTestProvider(mockClient)
		coords, err := provider.Geocode(cancelledCtx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
	})
}
