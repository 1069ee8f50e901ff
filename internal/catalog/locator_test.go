package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// fakeCatalog scripts the three catalog query boundaries
type fakeCatalog struct {
	objectObs  []Observation
	objectErr  error
	regionObs  []Observation
	regionErr  error
	coord      Coord
	resolveErr error

	objectCalls  int
	regionCalls  int
	resolveCalls int
	regionCoord  Coord
}

func (f *fakeCatalog) QueryObject(ctx context.Context, name string, radiusDeg float64) ([]Observation, error) {
	f.objectCalls++
	return f.objectObs, f.objectErr
}

func (f *fakeCatalog) QueryRegion(ctx context.Context, coord Coord, radiusDeg float64) ([]Observation, error) {
	f.regionCalls++
	f.regionCoord = coord
	return f.regionObs, f.regionErr
}

func (f *fakeCatalog) ResolveName(ctx context.Context, name string) (Coord, error) {
	f.resolveCalls++
	return f.coord, f.resolveErr
}

func observations(n int) []Observation {
	obs := make([]Observation, n)
	for i := range obs {
		obs[i] = Observation{ObsID: DatasetID(fmt.Sprintf("obs-%d", i)), Target: "M51"}
	}
	return obs
}

func hasNoteLevel(notes []pipeline.Note, level pipeline.NoteLevel) bool {
	for _, n := range notes {
		if n.Level == level {
			return true
		}
	}
	return false
}

func TestLocateByName(t *testing.T) {
	fake := &fakeCatalog{objectObs: observations(3)}
	loc := NewLocator(fake, fake, fake, zap.NewNop())

	ids, notes := loc.Locate(context.Background(), "M51", 0.1)

	require.Len(t, ids, 3)
	assert.Equal(t, DatasetID("obs-0"), ids[0])
	assert.Equal(t, 0, fake.resolveCalls, "name hit must not fall back to coordinates")
	assert.Equal(t, 0, fake.regionCalls)
	assert.False(t, hasNoteLevel(notes, pipeline.NoteError))
}

func TestLocateTruncatesToMaxDatasets(t *testing.T) {
	fake := &fakeCatalog{objectObs: observations(MaxDatasets + 7)}
	loc := NewLocator(fake, fake, fake, zap.NewNop())

	ids, _ := loc.Locate(context.Background(), "M51", 0.1)
	assert.Len(t, ids, MaxDatasets)
}

func TestLocateCoordinateFallback(t *testing.T) {
	fake := &fakeCatalog{
		coord:     Coord{RA: 202.4696, Dec: 47.1952},
		regionObs: observations(2),
	}
	loc := NewLocator(fake, fake, fake, zap.NewNop())

	ids, notes := loc.Locate(context.Background(), "Whirlpool Galaxy", 0.1)

	require.Len(t, ids, 2)
	assert.Equal(t, 1, fake.resolveCalls)
	assert.Equal(t, 1, fake.regionCalls)
	assert.Equal(t, fake.coord, fake.regionCoord, "region query must use the resolved coordinates")
	assert.True(t, hasNoteLevel(notes, pipeline.NoteWarning), "fallback is surfaced as a warning")
}

func TestLocateTransportFault(t *testing.T) {
	fake := &fakeCatalog{objectErr: errors.New("connection refused")}
	loc := NewLocator(fake, fake, fake, zap.NewNop())

	ids, notes := loc.Locate(context.Background(), "M51", 0.1)

	assert.Empty(t, ids, "transport faults degrade to an empty result")
	assert.True(t, hasNoteLevel(notes, pipeline.NoteError))
}

func TestLocateResolverFault(t *testing.T) {
	fake := &fakeCatalog{resolveErr: errors.New("resolver down")}
	loc := NewLocator(fake, fake, fake, zap.NewNop())

	ids, notes := loc.Locate(context.Background(), "NGC 9999", 0.1)

	assert.Empty(t, ids)
	assert.Equal(t, 0, fake.regionCalls)
	assert.True(t, hasNoteLevel(notes, pipeline.NoteError))
}

func TestLocateNothingFound(t *testing.T) {
	fake := &fakeCatalog{coord: Coord{RA: 1, Dec: 2}}
	loc := NewLocator(fake, fake, fake, zap.NewNop())

	ids, notes := loc.Locate(context.Background(), "Unknown Object", 0.1)

	assert.Empty(t, ids)
	assert.True(t, hasNoteLevel(notes, pipeline.NoteWarning))
	assert.False(t, hasNoteLevel(notes, pipeline.NoteError), "an empty sky is not an error")
}
