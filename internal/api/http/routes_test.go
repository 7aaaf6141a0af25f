package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/store"
)

func TestHealthEndpoint(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, store.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusEndpointReportsPendingReadings(t *testing.T) {
	memStore := store.NewMemoryStore()
	err := memStore.InsertMany(context.Background(), []reading.CanonicalReading{
		{ID: reading.NewID(), Timestamp: time.Now().UTC(), Provider: reading.ProviderNetatmo},
		{ID: reading.NewID(), Timestamp: time.Now().UTC(), Provider: reading.ProviderSensorCommunity},
	})
	require.NoError(t, err)

	app := fiber.New()
	RegisterRoutes(app, memStore, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		PendingReadings int `json:"pendingReadings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 2, body.PendingReadings)
}
