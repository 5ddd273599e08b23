package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Houeta/address-mapper/internal/geocoding"
	"github.com/Houeta/address-mapper/internal/metrics"
	"github.com/Houeta/address-mapper/internal/models"
)

// DefaultResolveTimeout bounds a single provider call.
const DefaultResolveTimeout = 10 * time.Second

// ProgressFunc is invoked after every processed row with the running completed
// count, the total row count, and the query that was just resolved.
type ProgressFunc func(completed, total int, query string)

// Pipeline resolves input records to coordinates one at a time, in input
// order, through a rate-limited geocoding provider. Per-row faults never abort
// the run; each row ends up either Success or Failed.
type Pipeline struct {
	log          *slog.Logger       // Logger for logging pipeline activities
	provider     geocoding.Provider // Geocoding provider for external geocoding services
	providerName string             // Name of the provider for metrics labeling
	metrics      *metrics.Metrics   // Metrics for tracking run performance
	throttle     *Throttle          // Minimum-interval gate between provider calls
	timeout      time.Duration      // Per-call timeout for provider requests
}

// NewPipeline creates a new Pipeline. It takes a logger, a geocoding provider,
// the provider name for metrics labeling, metrics for monitoring, a throttle
// gate, and the per-call timeout. A non-positive timeout falls back to
// DefaultResolveTimeout.
func NewPipeline(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	throttle *Throttle,
	timeout time.Duration,
) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &Pipeline{
		log:          log,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		throttle:     throttle,
		timeout:      timeout,
	}
}

// Run geocodes every record and returns one result row per input record, in
// input order. onProgress may be nil; otherwise it is called after each row.
//
// Cancellation is cooperative and checked once per row, never mid-call. On
// cancellation the partially processed set is returned together with the
// context error: processed rows are terminal, the remainder stays Pending.
func (p *Pipeline) Run(
	ctx context.Context,
	records []models.Record,
	onProgress ProgressFunc,
) (models.ResultSet, error) {
	p.metrics.ActiveRuns.Inc()
	defer p.metrics.ActiveRuns.Dec()

	set := make(models.ResultSet, len(records))
	for i, rec := range records {
		set[i] = models.ResultRow{Record: rec, Query: rec.Query(), Status: models.StatusPending}
	}

	total := len(records)
	p.log.InfoContext(ctx, "Starting geocoding run", "rows", total, "provider", p.providerName)

	for i := range set {
		if err := p.throttle.Wait(ctx); err != nil {
			p.log.WarnContext(ctx, "Geocoding run cancelled", "completed", i, "total", total)
			return set, err
		}

		p.resolveRow(ctx, &set[i])

		if onProgress != nil {
			onProgress(i+1, total, set[i].Query)
		}
	}

	success, failed := set.Counts()
	p.log.InfoContext(ctx, "Geocoding run finished", "total", total, "success", success, "failed", failed)

	return set, nil
}

// resolveRow performs the single provider call for one row and transitions it
// to its terminal status. A provider fault is recoverable per row: it is
// logged as a warning with the offending query and the row is marked Failed.
func (p *Pipeline) resolveRow(ctx context.Context, row *models.ResultRow) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	startTime := time.Now()
	coords, err := p.provider.Geocode(callCtx, row.Query)
	p.throttle.Done()
	p.metrics.RequestSeconds.WithLabelValues(p.providerName).Observe(time.Since(startTime).Seconds())

	switch {
	case err == nil:
		row.Coords = coords
		row.Status = models.StatusSuccess
		p.metrics.RowsProcessed.WithLabelValues("success").Inc()
		p.log.DebugContext(ctx, "Geocoded row", "query", row.Query,
			"lat", coords.Latitude, "lon", coords.Longitude)
	case errors.Is(err, geocoding.ErrNoResults):
		row.Status = models.StatusFailed
		p.metrics.RowsProcessed.WithLabelValues("not_found").Inc()
		p.log.WarnContext(ctx, "No match for query", "query", row.Query)
	default:
		row.Status = models.StatusFailed
		p.metrics.RowsProcessed.WithLabelValues("failed").Inc()
		p.metrics.APIErrors.Inc()
		p.log.WarnContext(ctx, "Failed to geocode", "query", row.Query, "error", err)
	}
}
