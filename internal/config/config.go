package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the address mapper.
// It includes the environment, the geocoding provider selection, the request
// timeout, the throttle interval between provider calls, and the optional
// monitoring server port.
//
// Fields:
// - Env: The current environment (e.g., local, dev, prod).
// - ProviderType: The type of geocoding provider to use (google, nominatim).
// - APIKey: The API key for accessing external services (required for Google).
// - Timeout: The timeout for a single geocoding request.
// - Throttle: The minimum interval between consecutive provider calls.
// - MetricsPort: The port for the monitoring server; 0 disables it.
type Config struct {
	Env          string        // Env is the current environment: local, dev, prod.
	ProviderType string        // ProviderType specifies which geocoding provider to use.
	APIKey       string        // The API key for accessing external services.
	Timeout      time.Duration // Timeout bounds a single geocoding request.
	Throttle     time.Duration // Throttle is the minimum spacing between provider calls.
	MetricsPort  int           // MetricsPort is the monitoring server port, 0 = off.
}

// MustLoad loads the configuration from environment variables (optionally via
// a .env file) and returns a Config struct. It panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(setDefaultEnv("MAPPER_TIMEOUT", "10s"))
	if err != nil {
		panic("failed to parse request timeout from configuration")
	}

	throttle, err := time.ParseDuration(setDefaultEnv("MAPPER_THROTTLE", "100ms"))
	if err != nil {
		panic("failed to parse throttle interval from configuration")
	}

	metricsPort, err := strconv.Atoi(setDefaultEnv("MAPPER_METRICS_PORT", "0"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	return &Config{
		Env:          setDefaultEnv("MAPPER_ENV", "production"),
		ProviderType: setDefaultEnv("MAPPER_PROVIDER_TYPE", "nominatim"),
		APIKey:       os.Getenv("MAPPER_PROVIDER_KEY"),
		Timeout:      timeout,
		Throttle:     throttle,
		MetricsPort:  metricsPort,
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
