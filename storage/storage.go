package storage

import (
	"context"

	"github.com/sig-0/fxconv/storage/types"
)

// Storage is the rate cache slot, plus a record of past snapshots
type Storage interface {
	// Latest fetches the most recent cached entry, if any.
	// Returns nil (no error) when nothing has been cached yet
	Latest(context.Context) (*types.CachedEntry, error)

	// Save replaces the cached entry with the given one
	Save(context.Context, *types.CachedEntry) error

	// History lists up to limit past entries, most recent first
	History(context.Context, int) ([]*types.CachedEntry, error)
}
