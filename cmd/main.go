package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/address-mapper/internal/config"
	"github.com/Houeta/address-mapper/internal/dataset"
	"github.com/Houeta/address-mapper/internal/geocoding"
	"github.com/Houeta/address-mapper/internal/marker"
	"github.com/Houeta/address-mapper/internal/metrics"
	"github.com/Houeta/address-mapper/internal/models"
	"github.com/Houeta/address-mapper/internal/pipeline"
	"github.com/Houeta/address-mapper/internal/render"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// failedSummaryLimit caps how many failed queries the post-run summary lists.
const failedSummaryLimit = 10

var (
	inputPath    string
	outputPath   string
	mapPath      string
	providerType string
	apiKey       string
	throttleFlag time.Duration
	timeoutFlag  time.Duration
	metricsPort  int
)

var rootCmd = &cobra.Command{
	Use:   "address-mapper",
	Short: "Geocode tabular address data and render it on an interactive map",
	Long: `address-mapper reads a CSV of postal addresses or ZIP codes, resolves
each row to coordinates through a rate-limited geocoding provider, exports the
status table, and renders the successful rows as markers on a Leaflet map.`,
	SilenceUsage: true,
}

var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "Geocode an address file (account_id, street, city, state, zipcode)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMapper(cmd.Context(), dataset.LoadAddressFile, false)
	},
}

var zipcodesCmd = &cobra.Command{
	Use:   "zipcodes",
	Short: "Geocode a ZIP file (zipcode, no_of_households) with sized markers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMapper(cmd.Context(), dataset.LoadZipFile, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{addressesCmd, zipcodesCmd} {
		cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input CSV file (required)")
		cmd.Flags().StringVarP(&outputPath, "output", "o", "geocoded.csv", "output CSV file")
		cmd.Flags().StringVarP(&mapPath, "map", "m", "map.html", "output map document")
		cmd.Flags().StringVar(&providerType, "provider", "", "geocoding provider (google, nominatim)")
		cmd.Flags().StringVar(&apiKey, "api-key", "", "provider API key (Google)")
		cmd.Flags().DurationVar(&throttleFlag, "throttle", 0, "minimum interval between provider calls")
		cmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "timeout for a single provider call")
		cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "monitoring server port (0 = off)")
		_ = cmd.MarkFlagRequired("input")
		rootCmd.AddCommand(cmd)
	}
}

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows the pipeline to stop cooperatively between rows.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// runMapper is the shared command body: load and validate the input, geocode
// every row, export the status table, and render the map. magnitude selects
// the sized/colored marker encoding for ZIP data.
func runMapper(ctx context.Context, loadFile func(string) (*dataset.Dataset, error), magnitude bool) error {
	cfg := config.MustLoad()
	applyFlagOverrides(cfg)

	logger := setupLogger(cfg.Env)

	// Schema validation happens before any provider call; a bad header fails
	// the whole run with no partial work done.
	data, err := loadFile(inputPath)
	if err != nil {
		var vErr *dataset.ValidationError
		if errors.As(err, &vErr) {
			logger.ErrorContext(ctx, "Input file failed validation", "error", vErr)
			return vErr
		}
		logger.ErrorContext(ctx, "Failed to load input file", "error", err)
		return err
	}
	logger.InfoContext(ctx, "Input file loaded", "rows", len(data.Records))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	if cfg.MetricsPort > 0 {
		go startMonitoringServer(ctx, logger, reg, cfg.MetricsPort)
	}

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.ProviderType),
		APIKey:    cfg.APIKey,
		RateLimit: requestsPerSecond(cfg.Throttle),
		Logger:    logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create geocoding provider", "error", err)
		return err
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	pipe := pipeline.NewPipeline(
		logger,
		provider,
		cfg.ProviderType,
		appMetrics,
		pipeline.NewThrottle(cfg.Throttle),
		cfg.Timeout,
	)

	set, runErr := pipe.Run(ctx, data.Records, progressReporter(ctx, logger, len(data.Records)))

	summarize(ctx, logger, set)

	// The status table is exported even when the run was interrupted or every
	// row failed; only map rendering depends on successful rows.
	if err := data.ExportFile(outputPath, set); err != nil {
		logger.ErrorContext(ctx, "Failed to export status table", "error", err)
		return err
	}
	logger.InfoContext(ctx, "Status table exported", "path", outputPath)

	if runErr != nil {
		return runErr
	}

	if err := renderMap(set, magnitude, logger); err != nil {
		if errors.Is(err, render.ErrNoData) {
			logger.ErrorContext(ctx, "Skipping map rendering", "error", err)
			return nil
		}
		return err
	}
	logger.InfoContext(ctx, "Map rendered", "path", mapPath)

	return nil
}

// applyFlagOverrides lets command-line flags take precedence over the
// environment configuration.
func applyFlagOverrides(cfg *config.Config) {
	if providerType != "" {
		cfg.ProviderType = providerType
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if throttleFlag > 0 {
		cfg.Throttle = throttleFlag
	}
	if timeoutFlag > 0 {
		cfg.Timeout = timeoutFlag
	}
	if metricsPort > 0 {
		cfg.MetricsPort = metricsPort
	}
}

// requestsPerSecond converts the throttle interval into the provider-side
// requests-per-second budget.
func requestsPerSecond(throttle time.Duration) int {
	if throttle <= 0 {
		return 1
	}
	rps := int(time.Second / throttle)
	if rps < 1 {
		rps = 1
	}
	return rps
}

// progressReporter renders run progress on stderr when it is a terminal and
// logs it otherwise.
func progressReporter(ctx context.Context, logger *slog.Logger, total int) pipeline.ProgressFunc {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return func(completed, total int, query string) {
			logger.DebugContext(ctx, "Geocoding progress",
				"completed", completed, "total", total, "query", query)
		}
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Geocoding"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return func(completed, _ int, query string) {
		_ = bar.Set(completed)
		bar.Describe("Geocoding " + query)
	}
}

// summarize logs the outcome counts and the first failed queries.
func summarize(ctx context.Context, logger *slog.Logger, set models.ResultSet) {
	success, failed := set.Counts()
	logger.InfoContext(ctx, "Geocoding summary", "total", len(set), "success", success, "failed", failed)

	if failed > 0 {
		logger.WarnContext(ctx, "Some rows could not be geocoded",
			"failed", failed, "queries", set.FirstFailed(failedSummaryLimit))
	}
}

// renderMap writes the map artifact for the result set.
func renderMap(set models.ResultSet, magnitude bool, logger *slog.Logger) error {
	renderer := render.NewRenderer(logger)
	if !magnitude {
		return renderer.RenderFile(mapPath, set)
	}

	styles, scale, err := marker.Encode(set)
	if err != nil {
		return fmt.Errorf("failed to encode markers: %w", err)
	}
	return renderer.RenderMagnitudeFile(mapPath, set, styles, scale)
}

// startMonitoringServer starts an HTTP server that provides health check and
// metrics endpoints for long batch runs. It listens on the specified port and
// logs the server's status and any errors encountered.
func startMonitoringServer(ctx context.Context, log *slog.Logger, reg *prometheus.Registry, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		if _, err := writer.Write([]byte("OK")); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
