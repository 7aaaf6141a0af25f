package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/provider"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/store"
)

// RegisterRoutes wires the operational endpoints into the Fiber app. This is
// deliberately not a query API: the pipeline's output lives in the archive,
// and these routes only answer "is the collector alive and is data flowing".
func RegisterRoutes(app *fiber.App, st store.Store, collectors []provider.Collector) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "sensor-data-api-collector",
		})
	})

	app.Get("/status", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		readings, err := st.FindAll(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read pending readings")
		}

		names := make([]string, 0, len(collectors))
		for _, col := range collectors {
			names = append(names, col.Name())
		}

		return c.JSON(fiber.Map{
			"providers":       names,
			"pendingReadings": len(readings),
		})
	})
}
