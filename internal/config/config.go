package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig carries everything the collectors, exporter and ops server need.
// The core never reads the environment itself; it receives these values.
type AppConfig struct {
	// Netatmo OAuth seed credentials. Required: without them the collector
	// cannot start (checked before any scheduler runs).
	NetatmoAccessToken  string `validate:"required"`
	NetatmoRefreshToken string `validate:"required"`
	NetatmoClientID     string `validate:"required"`
	NetatmoClientSecret string `validate:"required"`

	// Geographic inclusion rules shared by both providers.
	CountryCode string `validate:"required,len=2"`
	MinLat      float64
	MaxLat      float64
	MinLon      float64
	MaxLon      float64

	// External gateways. Empty MongoURI selects the in-memory store; empty
	// BlobConnectionString disables the export cycle.
	MongoURI             string
	BlobConnectionString string
	BlobContainer        string

	// PollInterval drives both provider adapters; ExportInterval drives the
	// export-then-purge cycle.
	PollInterval   time.Duration
	ExportInterval time.Duration

	HTTPTimeout time.Duration
	Port        string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.NetatmoAccessToken = os.Getenv("NETATMO_ACCESS_TOKEN")
	cfg.NetatmoRefreshToken = os.Getenv("NETATMO_REFRESH_TOKEN")
	cfg.NetatmoClientID = os.Getenv("NETATMO_CLIENT_ID")
	cfg.NetatmoClientSecret = os.Getenv("NETATMO_CLIENT_SECRET")

	cfg.CountryCode = getenvDefault("SENSOR_COUNTRY_CODE", "DE")

	// Default box covers the Hamburg metropolitan area.
	cfg.MinLat = getenvFloat("SENSOR_BBOX_MIN_LAT", 53.2)
	cfg.MaxLat = getenvFloat("SENSOR_BBOX_MAX_LAT", 53.8)
	cfg.MinLon = getenvFloat("SENSOR_BBOX_MIN_LON", 9.6)
	cfg.MaxLon = getenvFloat("SENSOR_BBOX_MAX_LON", 10.4)

	cfg.MongoURI = os.Getenv("SENSOR_MONGODB_URI")
	cfg.BlobConnectionString = os.Getenv("AZURE_BLOB_CONNECTION_STRING")
	cfg.BlobContainer = getenvDefault("AZURE_BLOB_CONTAINER", "sensor-readings")

	// Providers average their feeds over roughly five minutes; polling
	// faster than that only fetches duplicates.
	pollStr := getenvDefault("POLL_INTERVAL", "5m")
	poll, err := time.ParseDuration(pollStr)
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}
	cfg.PollInterval = poll

	exportStr := getenvDefault("EXPORT_INTERVAL", "24h")
	export, err := time.ParseDuration(exportStr)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_INTERVAL: %w", err)
	}
	cfg.ExportInterval = export

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.MinLat > cfg.MaxLat || cfg.MinLon > cfg.MaxLon {
		return nil, fmt.Errorf("invalid bounding box: min bounds must not exceed max bounds")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
