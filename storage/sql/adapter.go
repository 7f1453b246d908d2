package sql

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sig-0/fxconv/storage/types"
)

// numericScale is the number of decimal places kept for rates.
// IRR rates are fractions of a base unit, so 4dp is not enough
const numericScale = 8

const (
	saveQuery = `INSERT INTO rate_snapshots (source, usd, cny, irr, partial, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	latestQuery = `SELECT source, usd, cny, irr, partial, fetched_at
FROM rate_snapshots
ORDER BY fetched_at DESC, id DESC
LIMIT 1`

	historyQuery = `SELECT source, usd, cny, irr, partial, fetched_at
FROM rate_snapshots
ORDER BY fetched_at DESC, id DESC
LIMIT $1`
)

// DB is the subset of the pgx connection API used by the storage
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	db DB
}

func NewStorage(db DB) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) Save(ctx context.Context, entry *types.CachedEntry) error {
	_, err := s.db.Exec(
		ctx,
		saveQuery,
		entry.Source.String(),
		floatToNumeric(entry.Rates.USD),
		floatToNumeric(entry.Rates.CNY),
		floatToNumeric(entry.Rates.IRR),
		entry.Partial,
		timeToTimestampz(entry.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("unable to save rate snapshot: %w", err)
	}

	return nil
}

func (s *Storage) Latest(ctx context.Context) (*types.CachedEntry, error) {
	entry, err := scanEntry(s.db.QueryRow(ctx, latestQuery))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // valid case
		}

		return nil, fmt.Errorf("unable to fetch latest rate snapshot: %w", err)
	}

	return entry, nil
}

func (s *Storage) History(ctx context.Context, limit int) ([]*types.CachedEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx, historyQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rate snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]*types.CachedEntry, 0, limit)

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan rate snapshot: %w", err)
		}

		out = append(out, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate rate snapshots: %w", err)
	}

	return out, nil
}

// scanEntry scans a single snapshot row into the common Go type
func scanEntry(row pgx.Row) (*types.CachedEntry, error) {
	var (
		source        string
		usd, cny, irr pgtype.Numeric
		partial       bool
		fetchedAt     pgtype.Timestamptz
	)

	if err := row.Scan(&source, &usd, &cny, &irr, &partial, &fetchedAt); err != nil {
		return nil, err
	}

	return &types.CachedEntry{
		FetchedAt: timestampzToTime(fetchedAt),
		Source:    types.Source(source),
		Rates: types.RateSet{
			USD: numericToFloat(usd),
			CNY: numericToFloat(cny),
			IRR: numericToFloat(irr),
		},
		Partial: partial,
	}, nil
}

// floatToNumeric converts the float value to postgres numeric,
// rounded half away from zero at the numeric scale
func floatToNumeric(value float64) pgtype.Numeric {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return pgtype.Numeric{}
	}

	scaled := new(big.Float).SetPrec(256).SetFloat64(value)
	scaled.Mul(scaled, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(numericScale), nil)))

	half := big.NewFloat(0.5)
	if scaled.Sign() < 0 {
		half.Neg(half)
	}

	scaled.Add(scaled, half)

	i, _ := scaled.Int(nil)

	return pgtype.Numeric{
		Int:   i,
		Exp:   -numericScale,
		Valid: true,
	}
}

// numericToFloat converts the postgres value to float
func numericToFloat(value pgtype.Numeric) float64 {
	if !value.Valid || value.Int == nil {
		return 0
	}

	f, _ := new(big.Rat).SetInt(value.Int).Float64()

	if value.Exp > 0 {
		f *= math.Pow10(int(value.Exp))
	} else if value.Exp < 0 {
		f /= math.Pow10(int(-value.Exp))
	}

	return f
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
