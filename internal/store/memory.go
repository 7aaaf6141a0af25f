package store

import (
	"context"
	"sync"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
)

// MemoryStore is a concurrency-safe in-memory Store, used for local runs and
// tests when no MongoDB connection is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	readings []reading.CanonicalReading
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertMany appends a batch of readings.
func (s *MemoryStore) InsertMany(ctx context.Context, readings []reading.CanonicalReading) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, readings...)
	return nil
}

// FindAll returns a copy of every stored reading.
func (s *MemoryStore) FindAll(ctx context.Context) ([]reading.CanonicalReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]reading.CanonicalReading, len(s.readings))
	copy(out, s.readings)
	return out, nil
}

// DeleteAll removes every stored reading.
func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = nil
	return nil
}
