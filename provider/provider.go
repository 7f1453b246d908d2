package provider

import (
	"context"

	"github.com/sig-0/fxconv/storage/types"
)

// Provider is a single live exchange rate source.
// An ordered list of providers forms the fallback chain
type Provider interface {
	// Name returns the human-readable name of the provider
	Name() string

	// Fetch fetches the current rates against the base currency,
	// in the source orientation (1 base unit = X currency units).
	// Rates for some supported currencies may be missing
	Fetch(context.Context) (types.PartialRateSet, error)
}
