package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration for the matching engine service.
type Config struct {
	Server     ServerConfig
	Engine     EngineConfig
	Redis      RedisConfig
	EventBus   EventBusConfig
	Resilience ResilienceConfig
	Tracing    TracingConfig
}

// ServerConfig holds the admin/health HTTP surface configuration.
type ServerConfig struct {
	Port        string
	Environment string
	ServiceName string
}

// EngineConfig holds the matching engine's own tunables (spec.md §4.3, §5).
type EngineConfig struct {
	// BatchPeriod is the tick interval (spec.md §4.3: "period configurable, e.g. 30s of simulated time").
	BatchPeriod time.Duration
	// GridResolution is the H3 resolution used for candidate narrowing (internal/grid).
	GridResolution int
	// PickupRangeKm is the default radius used to query the grid for a customer's candidates.
	PickupRangeKm float64
	// MaxCandidatesPerCustomer caps the candidate set probed via the KT per customer (spec.md §4.3.2.4).
	MaxCandidatesPerCustomer int
	// PerCustomerTimeout bounds wall-clock spent enumerating candidates for one customer (spec.md §5).
	PerCustomerTimeout time.Duration
	// MaxRetries is the retry bound after which an unmatched customer is refused (spec.md §4.3.3).
	MaxRetries int
	// VehicleSpeedMetersPerSimTime converts oracle distances (meters) into sim-time (spec.md §6).
	VehicleSpeedMetersPerSimTime float64
	// OracleURL is the external road-network shortest-path service (spec.md §1).
	// Empty means no such service is configured; cmd/matchengine falls back to
	// the Haversine approximation for local/dev runs.
	OracleURL string
	// GeocoderURL is the external service resolving NodeIDs to coordinates for
	// internal/grid. Empty falls back to the same Haversine geocoder used by
	// the oracle fallback (both need the same (lat,lng) per node in dev).
	GeocoderURL string
}

// RedisConfig holds Redis configuration for the vehicle-state snapshot mirror.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// EventBusConfig holds NATS JetStream configuration for the customer/vehicle streams.
type EventBusConfig struct {
	URL        string
	StreamName string
	Enabled    bool
}

// ResilienceConfig groups runtime resilience controls around the shortest-path oracle.
type ResilienceConfig struct {
	OracleBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures breaker tuning for an upstream dependency.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold uint32
	SuccessThreshold uint32
	TimeoutSeconds   int
	IntervalSeconds  int
}

// TracingConfig holds OpenTelemetry exporter configuration.
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string
}

// Load loads configuration from environment variables, optionally seeded by a .env file.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			ServiceName: serviceName,
		},
		Engine: EngineConfig{
			BatchPeriod:                  time.Duration(getEnvAsInt("BATCH_PERIOD_SECONDS", 30)) * time.Second,
			GridResolution:               getEnvAsInt("GRID_RESOLUTION", 9),
			PickupRangeKm:                getEnvAsFloat("PICKUP_RANGE_KM", 3.0),
			MaxCandidatesPerCustomer:     getEnvAsInt("MAX_CANDIDATES_PER_CUSTOMER", 50),
			PerCustomerTimeout:           time.Duration(getEnvAsInt("PER_CUSTOMER_TIMEOUT_MS", 200)) * time.Millisecond,
			MaxRetries:                   getEnvAsInt("MAX_RETRIES", 3),
			VehicleSpeedMetersPerSimTime: getEnvAsFloat("VEHICLE_SPEED_MPS", 8.3),
			OracleURL:                    getEnv("ORACLE_URL", ""),
			GeocoderURL:                  getEnv("GEOCODER_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		EventBus: EventBusConfig{
			URL:        getEnv("NATS_URL", "nats://localhost:4222"),
			StreamName: getEnv("NATS_STREAM", "MATCHENGINE"),
			Enabled:    getEnvAsBool("NATS_ENABLED", false),
		},
		Resilience: ResilienceConfig{
			OracleBreaker: CircuitBreakerConfig{
				Enabled:          getEnvAsBool("ORACLE_BREAKER_ENABLED", true),
				FailureThreshold: uint32(getEnvAsInt("ORACLE_BREAKER_FAILURE_THRESHOLD", 5)),
				SuccessThreshold: uint32(getEnvAsInt("ORACLE_BREAKER_SUCCESS_THRESHOLD", 1)),
				TimeoutSeconds:   getEnvAsInt("ORACLE_BREAKER_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("ORACLE_BREAKER_INTERVAL_SECONDS", 60),
			},
		},
		Tracing: TracingConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", serviceName),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
	}

	return cfg, nil
}

// Close releases any resources the configuration may have opened. Kept for
// symmetry with Load and callers that always `defer cfg.Close()`.
func (c *Config) Close() error {
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}
