package sql

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxconv/storage/types"
)

type (
	execDelegate     func(context.Context, string, ...any) (pgconn.CommandTag, error)
	queryDelegate    func(context.Context, string, ...any) (pgx.Rows, error)
	queryRowDelegate func(context.Context, string, ...any) pgx.Row
)

type mockDB struct {
	execFn     execDelegate
	queryFn    queryDelegate
	queryRowFn queryRowDelegate
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, args...)
	}

	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}

	return &mockRows{}, nil
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}

	return &mockRow{err: pgx.ErrNoRows}
}

// mockRow is a single snapshot row
type mockRow struct {
	err   error
	entry types.CachedEntry
}

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	if len(dest) != 6 {
		return errors.New("unexpected column count")
	}

	*(dest[0].(*string)) = r.entry.Source.String()
	*(dest[1].(*pgtype.Numeric)) = floatToNumeric(r.entry.Rates.USD)
	*(dest[2].(*pgtype.Numeric)) = floatToNumeric(r.entry.Rates.CNY)
	*(dest[3].(*pgtype.Numeric)) = floatToNumeric(r.entry.Rates.IRR)
	*(dest[4].(*bool)) = r.entry.Partial
	*(dest[5].(*pgtype.Timestamptz)) = timeToTimestampz(r.entry.FetchedAt)

	return nil
}

type mockRows struct {
	rows   []*mockRow
	cursor int
	closed bool
}

func (r *mockRows) Close() {
	r.closed = true
}

func (r *mockRows) Err() error {
	return nil
}

func (r *mockRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag("SELECT")
}

func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}

func (r *mockRows) Next() bool {
	if r.cursor >= len(r.rows) {
		return false
	}

	r.cursor++

	return true
}

func (r *mockRows) Scan(dest ...any) error {
	return r.rows[r.cursor-1].Scan(dest...)
}

func (r *mockRows) Values() ([]any, error) {
	return nil, nil
}

func (r *mockRows) RawValues() [][]byte {
	return nil
}

func (r *mockRows) Conn() *pgx.Conn {
	return nil
}

func TestStorage_Save(t *testing.T) {
	t.Parallel()

	t.Run("saves snapshot", func(t *testing.T) {
		t.Parallel()

		var capturedArgs []any

		db := &mockDB{
			execFn: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
				capturedArgs = args

				return pgconn.NewCommandTag("INSERT 0 1"), nil
			},
		}

		fetchedAt := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

		err := NewStorage(db).Save(context.Background(), &types.CachedEntry{
			FetchedAt: fetchedAt,
			Source:    "exchangerate.host",
			Rates:     types.RateSet{USD: 100, CNY: 14, IRR: 0.0024},
			Partial:   true,
		})

		require.NoError(t, err)
		require.Len(t, capturedArgs, 6)

		assert.Equal(t, "exchangerate.host", capturedArgs[0])
		assert.Equal(t, 0.0024, numericToFloat(capturedArgs[3].(pgtype.Numeric)))
		assert.Equal(t, true, capturedArgs[4])
		assert.Equal(t, fetchedAt, capturedArgs[5].(pgtype.Timestamptz).Time)
	})

	t.Run("exec error", func(t *testing.T) {
		t.Parallel()

		execErr := errors.New("boom")

		db := &mockDB{
			execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, execErr
			},
		}

		err := NewStorage(db).Save(context.Background(), &types.CachedEntry{})

		assert.ErrorIs(t, err, execErr)
	})
}

func TestStorage_Latest(t *testing.T) {
	t.Parallel()

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()

		entry, err := NewStorage(&mockDB{}).Latest(context.Background())

		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{err: errors.New("boom")}
			},
		}

		_, err := NewStorage(db).Latest(context.Background())

		assert.Error(t, err)
	})

	t.Run("latest entry", func(t *testing.T) {
		t.Parallel()

		expected := types.CachedEntry{
			FetchedAt: time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC),
			Source:    "exchangerate-api",
			Rates:     types.RateSet{USD: 92.5, CNY: 12.75, IRR: 0.00219},
		}

		db := &mockDB{
			queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{entry: expected}
			},
		}

		entry, err := NewStorage(db).Latest(context.Background())

		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, expected, *entry)
	})
}

func TestStorage_History(t *testing.T) {
	t.Parallel()

	var (
		capturedLimit any
		rows          = &mockRows{
			rows: []*mockRow{
				{entry: types.CachedEntry{Source: "b", Rates: types.RateSet{USD: 95}}},
				{entry: types.CachedEntry{Source: "a", Rates: types.RateSet{USD: 90}}},
			},
		}

		db = &mockDB{
			queryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
				capturedLimit = args[0]

				return rows, nil
			},
		}
	)

	history, err := NewStorage(db).History(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, 100, capturedLimit)
	assert.Equal(t, types.Source("b"), history[0].Source)
	assert.Equal(t, 90.0, history[1].Rates.USD)
	assert.True(t, rows.closed)
}

func TestNumeric_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, value := range []float64{100, 14, 0.0024, 0.00240384, 123456.12345678} {
		assert.InDelta(t, value, numericToFloat(floatToNumeric(value)), 1e-9)
	}

	assert.Equal(t, 0.0, numericToFloat(pgtype.Numeric{}))
}

func TestNumeric_LargeValues(t *testing.T) {
	t.Parallel()

	for _, value := range []float64{9.3e10, 1e12, 4.2e15} {
		n := floatToNumeric(value)

		require.True(t, n.Valid)
		assert.Equal(t, 1, n.Int.Sign())
		assert.InEpsilon(t, value, numericToFloat(n), 1e-12)
	}

	assert.False(t, floatToNumeric(math.Inf(1)).Valid)
	assert.False(t, floatToNumeric(math.NaN()).Valid)
}
