package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eleflat/internal/testutil"
)

func createTestStore(t *testing.T) (*Store, *testutil.StepClock) {
	t.Helper()
	clock := testutil.NewStepClock()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"), WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func testConversion(id string) Conversion {
	return Conversion{
		ID:     id,
		Sample: "DY",
		Match:  "true",
		Region: "barrel",
		Input:  "/tuples/DY.root",
		Output: "2019-08-23/DY_flat_ntuple_true_barrel_full.root",
		Format: "root",
	}
}

func TestLedger_RoundTrip(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	begun, err := s.BeginConversion(ctx, testConversion("run-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), begun.Seq)
	assert.Equal(t, StatusRunning, begun.Status)

	out := Outcome{
		Events:     4,
		Electrons:  6,
		Accepted:   2,
		Rejected:   map[string]int64{"pt": 1, "dz": 1, "energy": 2},
		Digest:     "abc123",
		WeightMode: "surface",
	}
	require.NoError(t, s.FinishConversion(ctx, "run-1", out))

	got, err := s.GetConversion(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, got.Status)
	assert.Equal(t, int64(4), got.Events)
	assert.Equal(t, int64(6), got.Electrons)
	assert.Equal(t, int64(2), got.Accepted)
	assert.Equal(t, out.Rejected, got.Rejected)
	assert.Equal(t, "abc123", got.Digest)
	assert.Equal(t, "surface", got.WeightMode)
	assert.Equal(t, testutil.Epoch.Add(1e9), got.StartedAt)
	assert.Equal(t, testutil.Epoch.Add(2e9), got.FinishedAt)
	assert.Equal(t, begun.Output, got.Output)
}

func TestLedger_RejectionsStoredCanonically(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	_, err := s.BeginConversion(ctx, testConversion("run-1"))
	require.NoError(t, err)
	require.NoError(t, s.FinishConversion(ctx, "run-1", Outcome{
		Rejected: map[string]int64{"truth": 3, "dz": 1, "pt": 2},
	}))

	var raw string
	require.NoError(t, s.DB().QueryRow("SELECT rejections FROM conversions WHERE id = ?", "run-1").Scan(&raw))
	assert.Equal(t, `{"dz":1,"pt":2,"truth":3}`, raw)
}

func TestLedger_Fail(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	_, err := s.BeginConversion(ctx, testConversion("run-1"))
	require.NoError(t, err)
	require.NoError(t, s.FailConversion(ctx, "run-1", Outcome{Events: 3}, errors.New("missing kinematic weight surface")))

	got, err := s.GetConversion(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, int64(3), got.Events)
	assert.Equal(t, "missing kinematic weight surface", got.Error)
}

func TestLedger_FinishOnlyOnce(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	_, err := s.BeginConversion(ctx, testConversion("run-1"))
	require.NoError(t, err)
	require.NoError(t, s.FinishConversion(ctx, "run-1", Outcome{}))

	err = s.FailConversion(ctx, "run-1", Outcome{}, errors.New("late"))
	assert.ErrorIs(t, err, ErrNotRunning)

	err = s.FinishConversion(ctx, "run-404", Outcome{})
	assert.ErrorIs(t, err, ErrConversionNotFound)
}

func TestLedger_ListOrderedBySeq(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_, err := s.BeginConversion(ctx, testConversion(id))
		require.NoError(t, err)
	}

	list, err := s.ListConversions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, []int64{1, 2, 3}, []int64{list[0].Seq, list[1].Seq, list[2].Seq})
}

func TestLedger_ListMixedStatuses(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"ok", "failed", "running"} {
		_, err := s.BeginConversion(ctx, testConversion(id))
		require.NoError(t, err)
	}
	require.NoError(t, s.FinishConversion(ctx, "ok", Outcome{Events: 1, Accepted: 1}))
	require.NoError(t, s.FailConversion(ctx, "failed", Outcome{}, errors.New("boom")))

	list, err := s.ListConversions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []Status{StatusOK, StatusFailed, StatusRunning},
		[]Status{list[0].Status, list[1].Status, list[2].Status})
	assert.Equal(t, "boom", list[1].Error)
}

func TestLedger_DuplicateID(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	_, err := s.BeginConversion(ctx, testConversion("run-1"))
	require.NoError(t, err)
	_, err = s.BeginConversion(ctx, testConversion("run-1"))
	assert.Error(t, err)

	_, err = s.BeginConversion(ctx, Conversion{})
	assert.Error(t, err)
}

func TestGetConversion_NotFound(t *testing.T) {
	s, _ := createTestStore(t)
	_, err := s.GetConversion(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrConversionNotFound)
}
