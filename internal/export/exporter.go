// Package export moves accumulated canonical readings to cold storage: once
// per cycle everything in the store is serialized to one CSV file, uploaded
// to the archive, and purged from the store only after a confirmed upload.
package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/archive"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/store"
)

// Exporter implements the export-then-purge cycle. A failed cycle leaves the
// store untouched so the next cycle re-exports the same (plus newly arrived)
// readings; delivery to the archive is therefore at-least-once.
type Exporter struct {
	store   store.Store
	archive archive.Archive

	// dir holds the intermediate file between serialization and upload.
	dir string
	now func() time.Time
}

// New creates an Exporter writing its intermediate files to the OS temp dir.
func New(st store.Store, ar archive.Archive) *Exporter {
	return &Exporter{
		store:   st,
		archive: ar,
		dir:     os.TempDir(),
		now:     time.Now,
	}
}

// Run executes one export cycle.
func (e *Exporter) Run(ctx context.Context) error {
	readings, err := e.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("export: read store: %w", err)
	}

	if len(readings) == 0 {
		log.Printf("INFO: export: no readings to export")
		return nil
	}

	name := FileName(e.now())
	log.Printf("INFO: export: uploading %d readings to %s", len(readings), name)

	data, err := marshalCSV(readings)
	if err != nil {
		return fmt.Errorf("export: serialize readings: %w", err)
	}

	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write intermediate file: %w", err)
	}

	// Never overwrite an existing archive file for the same day.
	uploadErr := e.archive.Upload(ctx, name, data, false)

	// The intermediate file is cleaned up regardless of the upload outcome.
	if err := os.Remove(path); err != nil {
		log.Printf("ERROR: export: failed to remove intermediate file %s: %v", path, err)
	}

	if uploadErr != nil {
		return fmt.Errorf("export: upload %s: %w", name, uploadErr)
	}

	// Only a confirmed upload purges the exported set.
	if err := e.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("export: purge store after upload: %w", err)
	}

	log.Printf("INFO: export: uploaded %d readings and purged store", len(readings))
	return nil
}

// FileName returns the day-keyed archive name for t, e.g.
// sensor_readings_5_6_2024.csv.
func FileName(t time.Time) string {
	return fmt.Sprintf("sensor_readings_%d_%d_%d.csv", t.Day(), int(t.Month()), t.Year())
}

// exportRow is the flat row-per-reading, column-per-field CSV shape.
type exportRow struct {
	ID               string    `csv:"id"`
	Timestamp        time.Time `csv:"timestamp"`
	Latitude         float64   `csv:"latitude"`
	Longitude        float64   `csv:"longitude"`
	Altitude         float64   `csv:"altitude"`
	Temperature      *float64  `csv:"temperature"`
	Humidity         *float64  `csv:"humidity"`
	Pressure         *float64  `csv:"pressure"`
	Provider         string    `csv:"provider"`
	ProviderSensorID string    `csv:"provider_sensor_id"`
	SensorTypeName   string    `csv:"sensor_type_name"`
}

func marshalCSV(readings []reading.CanonicalReading) ([]byte, error) {
	rows := make([]exportRow, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, exportRow{
			ID:               r.ID,
			Timestamp:        r.Timestamp.UTC(),
			Latitude:         r.Location.Latitude,
			Longitude:        r.Location.Longitude,
			Altitude:         r.Location.Altitude,
			Temperature:      r.Temperature,
			Humidity:         r.Humidity,
			Pressure:         r.Pressure,
			Provider:         string(r.Provider),
			ProviderSensorID: r.ProviderSensorID,
			SensorTypeName:   r.SensorTypeName,
		})
	}
	return csvutil.Marshal(rows)
}
