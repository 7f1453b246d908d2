package sources

import (
	"fmt"

	"github.com/sig-0/fxconv/provider"
	"github.com/sig-0/fxconv/provider/exchange"
	"github.com/sig-0/fxconv/server/config"
)

// Providers returns the rate source chain, in priority order
func Providers(cfg *config.Rates) ([]provider.Provider, error) {
	if cfg == nil {
		cfg = config.DefaultRatesConfig()
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("unable to parse source timeout: %w", err)
	}

	return []provider.Provider{
		// Primary
		exchange.NewHostProvider(cfg.PrimaryURL, timeout),

		// Secondary
		exchange.NewAPIProvider(cfg.SecondaryURL, timeout),
	}, nil
}
