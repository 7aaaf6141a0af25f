package reading

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies the source adapter that produced a reading.
type Provider string

const (
	ProviderSensorCommunity Provider = "sensor.community"
	ProviderNetatmo         Provider = "netatmo"
)

// Location is the measurement site in decimal degrees and meters.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// CanonicalReading is the unified record every provider maps into:
// temperature in Celsius, humidity in relative percent, pressure in millibar.
// A measurement field is nil when the source payload did not carry that value
// type. Once written to a store a reading is never updated; the exporter only
// reads and bulk-deletes.
type CanonicalReading struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"` // always UTC
	Location  Location  `json:"location"`

	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`

	Provider Provider `json:"provider"`

	// Provenance only, never used for business logic.
	ProviderSensorID string `json:"providerSensorId,omitempty"`
	SensorTypeName   string `json:"sensorTypeName,omitempty"`
}

// NewID returns a fresh unique reading id.
func NewID() string {
	return uuid.NewString()
}
