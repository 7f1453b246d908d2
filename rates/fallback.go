package rates

import "github.com/sig-0/fxconv/storage/types"

// Approximate base-currency rates, used when no live source is usable
const (
	fallbackUSD = 100.0
	fallbackCNY = 14.0
	fallbackIRR = 0.0024
)

// Fallback returns the fallback rate table
func Fallback() types.RateSet {
	return types.RateSet{
		USD: fallbackUSD,
		CNY: fallbackCNY,
		IRR: fallbackIRR,
	}
}

// FallbackRate returns the fallback rate for the given currency,
// or 0 if the currency is not supported
func FallbackRate(c types.Currency) float64 {
	rate, _ := Fallback().Get(c)

	return rate
}
