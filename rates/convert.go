package rates

import (
	"math"

	"github.com/sig-0/fxconv/storage/types"
)

// IsSupported returns true if the currency is carried by every rate set
func IsSupported(c types.Currency) bool {
	_, ok := types.RateSet{}.Get(c)

	return ok
}

// ConvertFromBase converts a base currency amount into the given currency.
// Missing or invalid rates are substituted with the fallback rate
func ConvertFromBase(amount float64, c types.Currency, rates types.RateSet) float64 {
	rate := effectiveRate(c, rates)
	if rate == 0 {
		return 0 // unsupported currency
	}

	return amount / rate
}

// ConvertToBase converts an amount in the given currency into the base currency.
// Missing or invalid rates are substituted with the fallback rate
func ConvertToBase(amount float64, c types.Currency, rates types.RateSet) float64 {
	return amount * effectiveRate(c, rates)
}

// effectiveRate returns the rate for the currency, or its fallback
// if the rate is missing, non-positive or not finite
func effectiveRate(c types.Currency, rates types.RateSet) float64 {
	if rate, ok := rates.Get(c); ok && validRate(rate) {
		return rate
	}

	return FallbackRate(c)
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
