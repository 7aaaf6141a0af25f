package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	temp := 21.5
	batch := []reading.CanonicalReading{
		{
			ID:          reading.NewID(),
			Timestamp:   time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC),
			Location:    reading.Location{Latitude: 53.5, Longitude: 10.0},
			Temperature: &temp,
			Provider:    reading.ProviderSensorCommunity,
		},
		{
			ID:        reading.NewID(),
			Timestamp: time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC),
			Location:  reading.Location{Latitude: 53.4, Longitude: 9.9},
			Provider:  reading.ProviderNetatmo,
		},
	}

	require.NoError(t, s.InsertMany(ctx, batch))

	got, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, batch[0].ID, got[0].ID)
	require.Equal(t, 21.5, *got[0].Temperature)

	// FindAll hands out a copy; mutating it must not touch the store.
	got[0].ID = "mutated"
	again, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, batch[0].ID, again[0].ID)

	require.NoError(t, s.DeleteAll(ctx))
	empty, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemoryStoreHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	require.Error(t, s.InsertMany(ctx, nil))
	_, err := s.FindAll(ctx)
	require.Error(t, err)
	require.Error(t, s.DeleteAll(ctx))
}
