package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eleflat/internal/ntuple"
)

func TestSampleEvents_AreConsistent(t *testing.T) {
	for i, ev := range SampleEvents() {
		require.NoError(t, ev.Validate(), "event %d", i)
	}
}

func TestMemorySource_InjectedFailure(t *testing.T) {
	boom := errors.New("boom")
	src := NewMemorySource(SampleEvents()...)
	src.FailAt = 2
	src.Err = boom

	seen := 0
	err := src.Events(context.Background(), func(*ntuple.Event) error {
		seen++
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, seen)
	assert.Equal(t, int64(4), src.Entries())
}

func TestMemorySink_CopiesRows(t *testing.T) {
	sink := &MemorySink{}
	row := ntuple.FlatElectron{Pt: 30}
	require.NoError(t, sink.Append(context.Background(), &row))
	row.Pt = 99

	rows := sink.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, float32(30), rows[0].Pt)

	require.NoError(t, sink.Close())
	assert.True(t, sink.Closed())
}
