package badger

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxconv/storage/types"
)

// newTestDB opens an in-memory BadgerDB, closed on test cleanup
func newTestDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func entryAt(t time.Time, usd float64) *types.CachedEntry {
	return &types.CachedEntry{
		FetchedAt: t,
		Source:    "exchangerate.host",
		Rates: types.RateSet{
			USD: usd,
			CNY: 14,
			IRR: 0.0024,
		},
	}
}

func TestStorage_Latest(t *testing.T) {
	t.Parallel()

	t.Run("empty storage", func(t *testing.T) {
		t.Parallel()

		s := NewStorage(newTestDB(t))

		latest, err := s.Latest(context.Background())

		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("entry replaced wholesale", func(t *testing.T) {
		t.Parallel()

		var (
			s   = NewStorage(newTestDB(t))
			now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		)

		first := entryAt(now, 90)
		first.Partial = true

		require.NoError(t, s.Save(context.Background(), first))
		require.NoError(t, s.Save(context.Background(), entryAt(now.Add(time.Minute), 95)))

		latest, err := s.Latest(context.Background())
		require.NoError(t, err)
		require.NotNil(t, latest)

		assert.Equal(t, 95.0, latest.Rates.USD)
		assert.False(t, latest.Partial)
		assert.True(t, latest.FetchedAt.Equal(now.Add(time.Minute)))
		assert.Equal(t, types.Source("exchangerate.host"), latest.Source)
	})
}

func TestStorage_History(t *testing.T) {
	t.Parallel()

	t.Run("empty storage", func(t *testing.T) {
		t.Parallel()

		s := NewStorage(newTestDB(t))

		history, err := s.History(context.Background(), 10)
		require.NoError(t, err)

		assert.Empty(t, history)
	})

	t.Run("most recent first", func(t *testing.T) {
		t.Parallel()

		var (
			s   = NewStorage(newTestDB(t))
			now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		)

		for i := 0; i < 5; i++ {
			require.NoError(
				t,
				s.Save(context.Background(), entryAt(now.Add(time.Duration(i)*time.Hour), float64(90+i))),
			)
		}

		history, err := s.History(context.Background(), 3)
		require.NoError(t, err)
		require.Len(t, history, 3)

		assert.Equal(t, 94.0, history[0].Rates.USD)
		assert.Equal(t, 93.0, history[1].Rates.USD)
		assert.Equal(t, 92.0, history[2].Rates.USD)

		all, err := s.History(context.Background(), 0)
		require.NoError(t, err)

		assert.Len(t, all, 5)
	})

	t.Run("same fetch time kept apart", func(t *testing.T) {
		t.Parallel()

		var (
			s   = NewStorage(newTestDB(t), WithRetention(time.Hour))
			now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		)

		require.NoError(t, s.Save(context.Background(), entryAt(now, 90)))
		require.NoError(t, s.Save(context.Background(), entryAt(now, 91)))

		history, err := s.History(context.Background(), 10)
		require.NoError(t, err)

		assert.Len(t, history, 2)
	})
}
