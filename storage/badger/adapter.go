package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/xid"

	"github.com/sig-0/fxconv/storage/types"
)

var (
	latestKey     = []byte("rates:latest")
	historyPrefix = []byte("rates:history:")
)

// Storage is a rate cache persisted in an embedded BadgerDB.
// The latest entry lives under a single key, and every saved entry is
// also appended to a history keyspace ordered by fetch time
type Storage struct {
	db        *badger.DB
	retention time.Duration
}

type Option func(s *Storage)

// WithRetention expires history entries older than d.
// The latest entry never expires
func WithRetention(d time.Duration) Option {
	return func(s *Storage) {
		if d > 0 {
			s.retention = d
		}
	}
}

func NewStorage(db *badger.DB, opts ...Option) *Storage {
	s := &Storage{
		db: db,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Storage) Latest(_ context.Context) (*types.CachedEntry, error) {
	var entry types.CachedEntry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(latestKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil //nolint:nilnil // valid case
	}

	if err != nil {
		return nil, fmt.Errorf("unable to read latest entry: %w", err)
	}

	return &entry, nil
}

func (s *Storage) Save(_ context.Context, e *types.CachedEntry) error {
	elem := *e
	elem.FetchedAt = elem.FetchedAt.UTC()

	data, err := json.Marshal(&elem)
	if err != nil {
		return fmt.Errorf("unable to marshal entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(latestKey, data); err != nil {
			return err
		}

		historyEntry := badger.NewEntry(historyKey(elem.FetchedAt), data)
		if s.retention > 0 {
			historyEntry = historyEntry.WithTTL(s.retention)
		}

		return txn.SetEntry(historyEntry)
	})
	if err != nil {
		return fmt.Errorf("unable to save entry: %w", err)
	}

	return nil
}

func (s *Storage) History(_ context.Context, limit int) ([]*types.CachedEntry, error) {
	out := make([]*types.CachedEntry, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = historyPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts from the end of the prefix range
		seek := append(append([]byte{}, historyPrefix...), 0xFF)

		for it.Seek(seek); it.ValidForPrefix(historyPrefix); it.Next() {
			if limit > 0 && len(out) == limit {
				break
			}

			var entry types.CachedEntry

			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}

			out = append(out, &entry)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list history: %w", err)
	}

	return out, nil
}

// historyKey orders entries by fetch time. The xid suffix keeps
// keys unique for entries fetched at the same instant
func historyKey(fetchedAt time.Time) []byte {
	key := make([]byte, 0, len(historyPrefix)+8+len(xid.ID{}))

	key = append(key, historyPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(fetchedAt.UnixNano())) //nolint:gosec // post-epoch times
	key = append(key, xid.New().Bytes()...)

	return key
}
