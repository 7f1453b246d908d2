package mock

import (
	"context"

	"github.com/sig-0/fxconv/storage/types"
)

type (
	LatestDelegate  func(context.Context) (*types.CachedEntry, error)
	SaveDelegate    func(context.Context, *types.CachedEntry) error
	HistoryDelegate func(context.Context, int) ([]*types.CachedEntry, error)
)

type Storage struct {
	LatestFn  LatestDelegate
	SaveFn    SaveDelegate
	HistoryFn HistoryDelegate
}

func (m *Storage) Latest(ctx context.Context) (*types.CachedEntry, error) {
	if m.LatestFn != nil {
		return m.LatestFn(ctx)
	}

	return nil, nil
}

func (m *Storage) Save(ctx context.Context, entry *types.CachedEntry) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, entry)
	}

	return nil
}

func (m *Storage) History(ctx context.Context, limit int) ([]*types.CachedEntry, error) {
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx, limit)
	}

	return nil, nil
}
