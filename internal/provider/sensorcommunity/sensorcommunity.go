// Package sensorcommunity polls the Sensor.Community open snapshot feed,
// keeps the outdoor stations inside the configured bounding box, and maps
// each surviving record into one canonical reading.
package sensorcommunity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/decode"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/provider"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/store"
)

const defaultBaseURL = "https://data.sensor.community/static/v2/data.json"

// userAgent identifies this collector to the feed operators, required by the
// provider's usage policy on every request.
const userAgent = "Heat-Islands Detection Uni Hamburg 6buck@informatik.uni-hamburg.de"

// Filter holds the geographic and content inclusion rules for the feed.
// Bounding box bounds are inclusive.
type Filter struct {
	Country string
	MinLat  float64
	MaxLat  float64
	MinLon  float64
	MaxLon  float64
}

// Adapter implements provider.Collector for the Sensor.Community feed.
type Adapter struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	filter  Filter
	store   store.Store
}

// New creates the adapter. The snapshot feed needs no authentication.
func New(client *http.Client, st store.Store, filter Filter) *Adapter {
	return &Adapter{
		name:    string(reading.ProviderSensorCommunity),
		baseURL: defaultBaseURL,
		client:  client,
		circuit: provider.NewBreaker("sensorcommunity"),
		filter:  filter,
		store:   st,
	}
}

func (a *Adapter) Name() string {
	return a.name
}

// Poll fetches the current snapshot, filters and normalizes it, and
// bulk-writes the batch. An empty batch skips the store entirely.
func (a *Adapter) Poll(ctx context.Context) provider.Outcome {
	raws, err := a.fetch(ctx)
	if err != nil {
		return provider.Failed(fmt.Errorf("sensor.community: %w", err))
	}

	readings := a.normalize(raws)
	if len(readings) == 0 {
		return provider.OK(0)
	}

	if err := a.store.InsertMany(ctx, readings); err != nil {
		return provider.Failed(fmt.Errorf("sensor.community: store readings: %w", err))
	}
	return provider.OK(len(readings))
}

func (a *Adapter) fetch(ctx context.Context) ([]rawReading, error) {
	resp, err := provider.DoRequest(ctx, a.client, a.circuit, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, a.baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raws []rawReading
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode snapshot feed: %w", err)
	}
	return raws, nil
}

func (a *Adapter) normalize(raws []rawReading) []reading.CanonicalReading {
	var out []reading.CanonicalReading
	for _, r := range raws {
		if !a.locationFilter(r) || !sensorFilter(r) {
			continue
		}
		out = append(out, mapReading(r))
	}
	return out
}

// locationFilter keeps outdoor stations in the configured country whose
// coordinates fall within the bounding box.
func (a *Adapter) locationFilter(r rawReading) bool {
	if r.Location == nil {
		return false
	}

	lat := r.Location.Latitude.Float64()
	lon := r.Location.Longitude.Float64()

	return r.Location.Country == a.filter.Country &&
		r.Location.Indoor == 0 &&
		lat >= a.filter.MinLat && lat <= a.filter.MaxLat &&
		lon >= a.filter.MinLon && lon <= a.filter.MaxLon
}

// supportedValueTypes are the only measurement kinds mapped into canonical
// readings; everything else the feed carries (particulates etc.) is dropped.
var supportedValueTypes = map[string]bool{
	"temperature": true,
	"humidity":    true,
	"pressure":    true,
}

// excludedSensorTypes lists hardware whose climate readings are not kept.
var excludedSensorTypes = map[string]bool{
	"DHT22": true,
}

func sensorFilter(r rawReading) bool {
	if r.Sensor == nil || r.Sensor.SensorType == nil {
		return false
	}
	if excludedSensorTypes[r.Sensor.SensorType.Name] {
		return false
	}
	for _, v := range r.Values {
		if supportedValueTypes[v.ValueType] {
			return true
		}
	}
	return false
}

func mapReading(r rawReading) reading.CanonicalReading {
	cr := reading.CanonicalReading{
		ID:        reading.NewID(),
		Timestamp: r.Timestamp.Time(),
		Location: reading.Location{
			Latitude:  r.Location.Latitude.Float64(),
			Longitude: r.Location.Longitude.Float64(),
			Altitude:  r.Location.Altitude.Float64(),
		},
		Provider:         reading.ProviderSensorCommunity,
		ProviderSensorID: strconv.FormatInt(r.Sensor.ID, 10),
		SensorTypeName:   r.Sensor.SensorType.Name,
	}

	// First occurrence of a value type wins, matching how the feed reports
	// one value per type per snapshot.
	for _, v := range r.Values {
		val := v.Value.Float64()
		switch v.ValueType {
		case "temperature":
			if cr.Temperature == nil {
				cr.Temperature = &val
			}
		case "humidity":
			if cr.Humidity == nil {
				cr.Humidity = &val
			}
		case "pressure":
			if cr.Pressure == nil {
				// The feed reports Pa; the canonical unit is millibar.
				mbar := val / 100
				cr.Pressure = &mbar
			}
		}
	}

	return cr
}

// Raw feed shapes. The feed is loosely typed: coordinates and measurement
// values arrive as numbers or strings, timestamps as "2006-01-02 15:04:05".
type rawReading struct {
	ID        int64        `json:"id"`
	Timestamp decode.Time  `json:"timestamp"`
	Location  *rawLocation `json:"location"`
	Sensor    *rawSensor   `json:"sensor"`
	Values    []rawValue   `json:"sensordatavalues"`
}

type rawLocation struct {
	ID        int64         `json:"id"`
	Latitude  decode.Number `json:"latitude"`
	Longitude decode.Number `json:"longitude"`
	Altitude  decode.Number `json:"altitude"`
	Country   string        `json:"country"`
	Indoor    int           `json:"indoor"`
}

type rawSensor struct {
	ID         int64          `json:"id"`
	Pin        string         `json:"pin"`
	SensorType *rawSensorType `json:"sensor_type"`
}

type rawSensorType struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
}

type rawValue struct {
	ID        int64         `json:"id"`
	Value     decode.Number `json:"value"`
	ValueType string        `json:"value_type"`
}
