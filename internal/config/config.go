package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/well-data-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
// Defaults target the standard collection run over the Permian Basin.
type Config struct {
	// Spatial fetch.
	GISBaseURL   string
	BoundingBox  domain.Envelope
	GridLonStep  float64
	GridLatStep  float64
	GISBatchSize int
	GISTimeout   time.Duration

	// Operator resolution.
	EWABaseURL       string
	EWAAPITimeout    time.Duration
	EWACountyTimeout time.Duration
	EWAPageSize      int
	EWASampleCap     int
	EWARequestDelay  time.Duration

	// Output.
	OutputPath string

	// Optional Kafka sink for downstreams that want the dataset as a stream.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Ambient.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment (and a .env file when
// present), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	box, err := parseBoundingBox()
	if err != nil {
		return nil, err
	}

	gisTimeout, err := durationOrDefault("GIS_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	apiTimeout, err := durationOrDefault("EWA_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	countyTimeout, err := durationOrDefault("EWA_COUNTY_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	requestDelay, err := durationOrDefault("EWA_REQUEST_DELAY", 200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := durationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		GISBaseURL:   os.Getenv("GIS_BASE_URL"),
		BoundingBox:  box,
		GridLonStep:  floatOrDefault("GRID_LON_STEP", 0.5),
		GridLatStep:  floatOrDefault("GRID_LAT_STEP", 0.5),
		GISBatchSize: intOrDefault("GIS_BATCH_SIZE", 2000),
		GISTimeout:   gisTimeout,

		EWABaseURL:       os.Getenv("EWA_BASE_URL"),
		EWAAPITimeout:    apiTimeout,
		EWACountyTimeout: countyTimeout,
		EWAPageSize:      intOrDefault("EWA_PAGE_SIZE", 50),
		EWASampleCap:     intOrDefault("EWA_SAMPLE_CAP", 100),
		EWARequestDelay:  requestDelay,

		OutputPath: envOrDefault("OUTPUT_PATH", "wells.json"),

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   brokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "well-records"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.GridLonStep <= 0 || cfg.GridLatStep <= 0 {
		return nil, errors.New("grid steps must be positive")
	}
	if cfg.GISBatchSize <= 0 || cfg.EWAPageSize <= 0 || cfg.EWASampleCap <= 0 {
		return nil, errors.New("batch size, page size, and sample cap must be positive")
	}
	if cfg.EWARequestDelay < 0 {
		return nil, errors.New("EWA_REQUEST_DELAY must not be negative")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// parseBoundingBox reads the query box, defaulting to the Permian Basin.
func parseBoundingBox() (domain.Envelope, error) {
	box := domain.Envelope{
		XMin: floatOrDefault("BBOX_XMIN", -104.5),
		YMin: floatOrDefault("BBOX_YMIN", 30.5),
		XMax: floatOrDefault("BBOX_XMAX", -100.5),
		YMax: floatOrDefault("BBOX_YMAX", 33.5),
	}
	if box.XMin >= box.XMax || box.YMin >= box.YMax {
		return domain.Envelope{}, fmt.Errorf("invalid bounding box: %+v", box)
	}
	return box, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func floatOrDefault(key string, def float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return def
}

func intOrDefault(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
