package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
)

const (
	mongoDatabase   = "sensordata"
	mongoCollection = "sensor_readings_timeseries"
)

// MongoStore persists readings in a MongoDB time-series collection keyed on
// the measurement timestamp, with provenance and location in the metadata
// sub-document.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and ensures the time-series collection
// exists.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(mongoDatabase)

	tsOpts := options.CreateCollection().SetTimeSeriesOptions(
		options.TimeSeries().SetTimeField("timestamp").SetMetaField("metadata"),
	)
	if err := db.CreateCollection(ctx, mongoCollection, tsOpts); err != nil {
		// Collection already existing is fine; anything else is not.
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Name != "NamespaceExists" {
			return nil, fmt.Errorf("create time-series collection: %w", err)
		}
	}

	return &MongoStore{
		client: client,
		coll:   db.Collection(mongoCollection),
	}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) {
	if err := s.client.Disconnect(ctx); err != nil {
		log.Printf("ERROR: store: failed to disconnect mongodb client: %v", err)
	}
}

// InsertMany bulk-writes a batch of readings.
func (s *MongoStore) InsertMany(ctx context.Context, readings []reading.CanonicalReading) error {
	docs := make([]interface{}, 0, len(readings))
	for _, r := range readings {
		docs = append(docs, toDocument(r))
	}

	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert sensor readings: %w", err)
	}
	return nil
}

// FindAll returns every stored reading.
func (s *MongoStore) FindAll(ctx context.Context) ([]reading.CanonicalReading, error) {
	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find sensor readings: %w", err)
	}

	var docs []mongoReading
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sensor readings: %w", err)
	}

	readings := make([]reading.CanonicalReading, 0, len(docs))
	for _, d := range docs {
		readings = append(readings, d.toReading())
	}
	return readings, nil
}

// DeleteAll removes every stored reading.
func (s *MongoStore) DeleteAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("delete sensor readings: %w", err)
	}
	return nil
}

// mongoReading is the document shape of one reading. Everything that
// describes the emitting sensor lives in the time-series metadata field.
type mongoReading struct {
	ID          string        `bson:"_id"`
	Timestamp   time.Time     `bson:"timestamp"`
	Temperature *float64      `bson:"temperature,omitempty"`
	Humidity    *float64      `bson:"humidity,omitempty"`
	Pressure    *float64      `bson:"pressure,omitempty"`
	Metadata    mongoMetadata `bson:"metadata"`
}

type mongoMetadata struct {
	Provider         string  `bson:"provider"`
	Latitude         float64 `bson:"latitude"`
	Longitude        float64 `bson:"longitude"`
	Altitude         float64 `bson:"altitude"`
	ProviderSensorID string  `bson:"providerSensorId,omitempty"`
	SensorTypeName   string  `bson:"sensorTypeName,omitempty"`
}

func toDocument(r reading.CanonicalReading) mongoReading {
	return mongoReading{
		ID:          r.ID,
		Timestamp:   r.Timestamp,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Pressure:    r.Pressure,
		Metadata: mongoMetadata{
			Provider:         string(r.Provider),
			Latitude:         r.Location.Latitude,
			Longitude:        r.Location.Longitude,
			Altitude:         r.Location.Altitude,
			ProviderSensorID: r.ProviderSensorID,
			SensorTypeName:   r.SensorTypeName,
		},
	}
}

func (d mongoReading) toReading() reading.CanonicalReading {
	return reading.CanonicalReading{
		ID:        d.ID,
		Timestamp: d.Timestamp.UTC(),
		Location: reading.Location{
			Latitude:  d.Metadata.Latitude,
			Longitude: d.Metadata.Longitude,
			Altitude:  d.Metadata.Altitude,
		},
		Temperature:      d.Temperature,
		Humidity:         d.Humidity,
		Pressure:         d.Pressure,
		Provider:         reading.Provider(d.Metadata.Provider),
		ProviderSensorID: d.Metadata.ProviderSensorID,
		SensorTypeName:   d.Metadata.SensorTypeName,
	}
}
