package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/IanBuck-dev/sensor-data-api-collector/internal/api/http"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/archive"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/config"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/export"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/provider"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/provider/netatmo"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/provider/sensorcommunity"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/scheduler"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/store"
)

func main() {
	// Load configuration. Missing required credentials abort startup before
	// any scheduler runs.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Process-wide cancellation signal: stops all polling loops and aborts
	// in-flight HTTP calls.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Store: MongoDB when configured, in-memory for local runs.
	var readingStore store.Store
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		mongoStore, err := store.NewMongoStore(connectCtx, cfg.MongoURI)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to mongodb: %v", err)
		}
		defer mongoStore.Close(context.Background())
		readingStore = mongoStore
	} else {
		log.Printf("INFO: no mongodb uri configured; using in-memory store")
		readingStore = store.NewMemoryStore()
	}

	// OAuth credential state for netatmo, seeded once from configuration and
	// mutated only by a successful refresh exchange.
	creds := netatmo.NewCredentialStore(netatmo.Credentials{
		AccessToken:  cfg.NetatmoAccessToken,
		RefreshToken: cfg.NetatmoRefreshToken,
		ClientID:     cfg.NetatmoClientID,
		ClientSecret: cfg.NetatmoClientSecret,
		Expiry:       time.Now().UTC(),
	})

	collectors := []provider.Collector{
		sensorcommunity.New(httpClient, readingStore, sensorcommunity.Filter{
			Country: cfg.CountryCode,
			MinLat:  cfg.MinLat,
			MaxLat:  cfg.MaxLat,
			MinLon:  cfg.MinLon,
			MaxLon:  cfg.MaxLon,
		}),
		netatmo.New(httpClient, readingStore, creds, netatmo.BoundingBox{
			LatNE: cfg.MaxLat,
			LonNE: cfg.MaxLon,
			LatSW: cfg.MinLat,
			LonSW: cfg.MinLon,
		}),
	}

	// Exporter, when blob storage is configured.
	var exporter *export.Exporter
	if cfg.BlobConnectionString != "" {
		blobArchive, err := archive.NewBlobArchive(cfg.BlobConnectionString, cfg.BlobContainer)
		if err != nil {
			log.Fatalf("failed to create blob archive: %v", err)
		}
		exporter = export.New(readingStore, blobArchive)
	} else {
		log.Printf("INFO: no blob storage configured; export disabled")
	}

	// Scheduler drives each collector on its own interval plus the export
	// cycle on a longer one.
	entries := make([]scheduler.Entry, 0, len(collectors))
	for _, c := range collectors {
		entries = append(entries, scheduler.Entry{Collector: c, Interval: cfg.PollInterval})
	}

	sched := scheduler.New()
	if err := sched.Start(ctx, entries, exporter, cfg.ExportInterval); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "sensor-data-api-collector",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Operational endpoints.
	httpapi.RegisterRoutes(app, readingStore, collectors)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
