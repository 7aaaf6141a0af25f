package store

import (
	"context"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
)

// Store is the persistence gateway shared by the adapters and the exporter.
// Readings are immutable once inserted; the only mutation is the exporter's
// bulk delete after a confirmed archive upload.
type Store interface {
	InsertMany(ctx context.Context, readings []reading.CanonicalReading) error
	FindAll(ctx context.Context) ([]reading.CanonicalReading, error)
	DeleteAll(ctx context.Context) error
}
