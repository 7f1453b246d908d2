package types

import "time"

type Currency string

const (
	CurrencyRUB Currency = "RUB" // base
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
	CurrencyIRR Currency = "IRR"
)

// Base is the currency all rates are quoted against
const Base = CurrencyRUB

// Supported lists the target currencies carried by every RateSet
var Supported = []Currency{
	CurrencyUSD,
	CurrencyCNY,
	CurrencyIRR,
}

func (c Currency) String() string {
	return string(c)
}

type Source string

const (
	SourceFallback Source = "fallback"
)

func (s Source) String() string {
	return string(s)
}

// RateSet holds, per supported currency, how many base
// units equal one unit of that currency
type RateSet struct {
	USD float64 `json:"USD"`
	CNY float64 `json:"CNY"`
	IRR float64 `json:"IRR"`
}

// Get returns the rate for the given currency, if the currency is supported
func (r RateSet) Get(c Currency) (float64, bool) {
	switch c {
	case CurrencyUSD:
		return r.USD, true
	case CurrencyCNY:
		return r.CNY, true
	case CurrencyIRR:
		return r.IRR, true
	default:
		return 0, false
	}
}

// Set sets the rate for the given currency. Unsupported currencies are ignored
func (r *RateSet) Set(c Currency, rate float64) {
	switch c {
	case CurrencyUSD:
		r.USD = rate
	case CurrencyCNY:
		r.CNY = rate
	case CurrencyIRR:
		r.IRR = rate
	}
}

// PartialRateSet is a source-reported set of rates, in the source's
// orientation (1 base unit = X currency units). Currencies may be missing
type PartialRateSet map[Currency]float64

// CachedEntry is a single cached rate set snapshot
type CachedEntry struct {
	FetchedAt time.Time `json:"fetched_at"`
	Source    Source    `json:"source"`
	Rates     RateSet   `json:"rates"`
	Partial   bool      `json:"partial"`
}

// Age returns the age of the entry, relative to now
func (e *CachedEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// FetchedAtMillis returns the fetch timestamp in milliseconds since epoch
func (e *CachedEntry) FetchedAtMillis() int64 {
	return e.FetchedAt.UnixMilli()
}
