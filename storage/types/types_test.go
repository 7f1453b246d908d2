package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateSet_GetSet(t *testing.T) {
	t.Parallel()

	t.Run("supported currencies", func(t *testing.T) {
		t.Parallel()

		var r RateSet

		r.Set(CurrencyUSD, 100)
		r.Set(CurrencyCNY, 14)
		r.Set(CurrencyIRR, 0.0024)

		for _, c := range Supported {
			v, ok := r.Get(c)

			assert.True(t, ok)
			assert.Positive(t, v)
		}

		assert.Equal(t, RateSet{USD: 100, CNY: 14, IRR: 0.0024}, r)
	})

	t.Run("unsupported currency", func(t *testing.T) {
		t.Parallel()

		r := RateSet{USD: 1, CNY: 2, IRR: 3}
		r.Set(CurrencyRUB, 42)

		_, ok := r.Get(CurrencyRUB)

		assert.False(t, ok)
		assert.Equal(t, RateSet{USD: 1, CNY: 2, IRR: 3}, r)
	})
}

func TestCachedEntry_Age(t *testing.T) {
	t.Parallel()

	fetchedAt := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	entry := &CachedEntry{FetchedAt: fetchedAt}

	assert.Equal(t, 30*time.Minute, entry.Age(fetchedAt.Add(30*time.Minute)))
	assert.Equal(t, fetchedAt.UnixMilli(), entry.FetchedAtMillis())
}
