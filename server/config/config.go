package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/sig-0/fxconv/provider/exchange"
	"github.com/sig-0/fxconv/rates"
)

const DefaultListenAddress = "0.0.0.0:8545"

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrMissingSourceURL     = errors.New("missing rate source URL")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The rate sources and cache configuration
	RatesConfig *Rates `toml:"rates_config"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// CORS defines the server CORS configuration
type CORS struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
}

// Rates defines the rate sources and cache configuration.
// Durations use the Go duration format (ex. "1h", "10s")
type Rates struct {
	PrimaryURL   string `toml:"primary_url"`
	SecondaryURL string `toml:"secondary_url"`
	Freshness    string `toml:"freshness"`
	Timeout      string `toml:"timeout"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		RatesConfig:   DefaultRatesConfig(),
	}
}

// DefaultCORSConfig returns the default CORS configuration
func DefaultCORSConfig() *CORS {
	return &CORS{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}
}

// DefaultRatesConfig returns the default rate sources configuration
func DefaultRatesConfig() *Rates {
	return &Rates{
		PrimaryURL:   exchange.DefaultHostURL,
		SecondaryURL: exchange.DefaultAPIURL,
		Freshness:    rates.DefaultFreshness.String(),
		Timeout:      exchange.DefaultTimeout.String(),
	}
}

// FreshnessDuration returns the parsed cache freshness window
func (r *Rates) FreshnessDuration() (time.Duration, error) {
	return parsePositiveDuration(r.Freshness)
}

// TimeoutDuration returns the parsed source request timeout
func (r *Rates) TimeoutDuration() (time.Duration, error) {
	return parsePositiveDuration(r.Timeout)
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if config.RatesConfig == nil {
		return nil
	}

	if config.RatesConfig.PrimaryURL == "" || config.RatesConfig.SecondaryURL == "" {
		return ErrMissingSourceURL
	}

	if _, err := config.RatesConfig.FreshnessDuration(); err != nil {
		return fmt.Errorf("invalid freshness, %w", err)
	}

	if _, err := config.RatesConfig.TimeoutDuration(); err != nil {
		return fmt.Errorf("invalid timeout, %w", err)
	}

	return nil
}

// Read reads the configuration from the given path.
// Values missing from the file keep their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	cfg := DefaultConfig()

	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parsePositiveDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidDuration, err)
	}

	if d <= 0 {
		return 0, ErrInvalidDuration
	}

	return d, nil
}
