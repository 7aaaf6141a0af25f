package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/store"
)

// fakeArchive records uploads and can be told to fail.
type fakeArchive struct {
	uploads   map[string][]byte
	overwrite []bool
	err       error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{uploads: make(map[string][]byte)}
}

func (f *fakeArchive) Upload(ctx context.Context, name string, content []byte, overwrite bool) error {
	if f.err != nil {
		return f.err
	}
	f.uploads[name] = content
	f.overwrite = append(f.overwrite, overwrite)
	return nil
}

func seedStore(t *testing.T, n int) *store.MemoryStore {
	t.Helper()

	st := store.NewMemoryStore()
	batch := make([]reading.CanonicalReading, 0, n)
	for i := 0; i < n; i++ {
		temp := 20.0 + float64(i)
		batch = append(batch, reading.CanonicalReading{
			ID:               fmt.Sprintf("reading-%d", i),
			Timestamp:        time.Date(2024, 6, 5, 10, 0, i, 0, time.UTC),
			Location:         reading.Location{Latitude: 53.5, Longitude: 10.0, Altitude: 12},
			Temperature:      &temp,
			Provider:         reading.ProviderSensorCommunity,
			ProviderSensorID: "101",
			SensorTypeName:   "BME280",
		})
	}
	require.NoError(t, st.InsertMany(context.Background(), batch))
	return st
}

func newTestExporter(t *testing.T, st *store.MemoryStore, ar *fakeArchive) *Exporter {
	t.Helper()

	e := New(st, ar)
	e.dir = t.TempDir()
	e.now = func() time.Time { return time.Date(2024, 6, 5, 23, 59, 0, 0, time.UTC) }
	return e
}

func TestRunExportsAndPurges(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, 6)
	ar := newFakeArchive()
	e := newTestExporter(t, st, ar)

	require.NoError(t, e.Run(ctx))

	content, ok := ar.uploads["sensor_readings_5_6_2024.csv"]
	require.True(t, ok)
	require.Equal(t, []bool{false}, ar.overwrite)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 7) // header plus 6 rows
	require.Contains(t, lines[0], "id")
	require.Contains(t, lines[0], "pressure")
	require.Contains(t, lines[1], "reading-0")
	require.Contains(t, lines[1], "sensor.community")

	// Confirmed upload purges the store.
	left, err := st.FindAll(ctx)
	require.NoError(t, err)
	require.Empty(t, left)

	// The intermediate file is gone.
	_, statErr := os.Stat(filepath.Join(e.dir, "sensor_readings_5_6_2024.csv"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRunIsANoOpOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ar := newFakeArchive()
	e := newTestExporter(t, st, ar)

	require.NoError(t, e.Run(ctx))
	require.Empty(t, ar.uploads)
}

func TestSecondRunAfterSuccessIsANoOp(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, 6)
	ar := newFakeArchive()
	e := newTestExporter(t, st, ar)

	require.NoError(t, e.Run(ctx))
	require.Len(t, ar.uploads, 1)

	// Nothing arrived in between: the second cycle finds an empty store and
	// performs no upload.
	require.NoError(t, e.Run(ctx))
	require.Len(t, ar.uploads, 1)
}

func TestUploadFailureLeavesStoreIntact(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, 4)
	ar := newFakeArchive()
	ar.err = errors.New("container unavailable")
	e := newTestExporter(t, st, ar)

	err := e.Run(ctx)
	require.Error(t, err)

	// Store untouched so the next cycle re-exports the same set.
	left, findErr := st.FindAll(ctx)
	require.NoError(t, findErr)
	require.Len(t, left, 4)

	// The intermediate file is removed even though the upload failed.
	entries, readErr := os.ReadDir(e.dir)
	require.NoError(t, readErr)
	require.Empty(t, entries)

	// Recovery: the archive comes back and the same set is exported.
	ar.err = nil
	require.NoError(t, e.Run(ctx))
	require.Len(t, ar.uploads, 1)
	left, findErr = st.FindAll(ctx)
	require.NoError(t, findErr)
	require.Empty(t, left)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "sensor_readings_5_6_2024.csv", FileName(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "sensor_readings_31_12_2023.csv", FileName(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)))
}
