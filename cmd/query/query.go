package query

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sig-0/fxconv/cmd/sources"
	"github.com/sig-0/fxconv/rates"
	"github.com/sig-0/fxconv/server/config"
	"github.com/sig-0/fxconv/storage/memory"
)

// queryCfg holds the flags shared by the one-shot commands
type queryCfg struct {
	configPath string
	verbose    bool

	out io.Writer
}

func (c *queryCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the TOML configuration holding the rate sources, if any",
	)

	fs.BoolVar(
		&c.verbose,
		"verbose",
		false,
		"log source failures to stderr",
	)
}

// newService builds a rate service backed by a fresh in-memory cache
func (c *queryCfg) newService() (*rates.Service, error) {
	ratesCfg := config.DefaultRatesConfig()

	if c.configPath != "" {
		cfg, err := config.Read(c.configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}

		if cfg.RatesConfig != nil {
			ratesCfg = cfg.RatesConfig
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if c.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Debug("unable to load .env file")
	}

	providers, err := sources.Providers(ratesCfg)
	if err != nil {
		return nil, err
	}

	return rates.New(
		memory.NewStorage(),
		providers,
		rates.WithLogger(logger),
	), nil
}

func (c *queryCfg) writer() io.Writer {
	if c.out != nil {
		return c.out
	}

	return os.Stdout
}

func (c *queryCfg) print(v any) error {
	enc := json.NewEncoder(c.writer())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
