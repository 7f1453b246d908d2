package rates

import "github.com/sig-0/fxconv/storage/types"

// normalize inverts source-reported rates (1 base unit = X currency units)
// into base units per currency unit. Currencies with a missing or invalid
// reported value take their fallback rate, in which case partial is true
func normalize(reported types.PartialRateSet) (out types.RateSet, partial bool) {
	for _, c := range types.Supported {
		v, ok := reported[c]
		if ok && validRate(v) && validRate(1/v) {
			out.Set(c, 1/v)

			continue
		}

		out.Set(c, FallbackRate(c))
		partial = true
	}

	return out, partial
}
