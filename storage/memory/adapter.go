package memory

import (
	"context"
	"sync"

	"github.com/sig-0/fxconv/storage/types"
)

// DefaultHistorySize is the number of past entries kept in memory
const DefaultHistorySize = 24

// Storage is an in-memory, single-slot rate cache.
// Past entries are kept in a bounded ring, for inspection only
type Storage struct {
	latest  *types.CachedEntry
	history []types.CachedEntry // oldest first

	historySize int

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return NewStorageWithHistory(DefaultHistorySize)
}

// NewStorageWithHistory creates an in-memory storage keeping
// at most size past entries
func NewStorageWithHistory(size int) *Storage {
	if size < 1 {
		size = 1
	}

	return &Storage{
		history:     make([]types.CachedEntry, 0, size),
		historySize: size,
	}
}

func (s *Storage) Latest(_ context.Context) (*types.CachedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, nil //nolint:nilnil // valid case
	}

	cp := *s.latest

	return &cp, nil
}

func (s *Storage) Save(_ context.Context, e *types.CachedEntry) error {
	elem := *e
	elem.FetchedAt = elem.FetchedAt.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &elem

	if len(s.history) == s.historySize {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}

	s.history = append(s.history, elem)

	return nil
}

func (s *Storage) History(_ context.Context, limit int) ([]*types.CachedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	out := make([]*types.CachedEntry, 0, limit)

	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		cp := s.history[i]
		out = append(out, &cp)
	}

	return out, nil
}
