package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxconv/cmd/env"
	"github.com/sig-0/fxconv/cmd/sources"
	"github.com/sig-0/fxconv/ingest"
	"github.com/sig-0/fxconv/metrics"
	"github.com/sig-0/fxconv/rates"
	"github.com/sig-0/fxconv/server"
	"github.com/sig-0/fxconv/server/config"
	"github.com/sig-0/fxconv/storage"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	configPath string
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the fxconv backend",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeSQLCmd(cfg),
		newServeMemoryCmd(cfg),
		newServeBadgerCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.config.ListenAddress,
		"listen",
		config.DefaultListenAddress,
		"the IP:PORT URL for the server",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the server TOML configuration, if any",
	)
}

// loadConfig reads the server TOML configuration, if any.
// The listen flag takes precedence over the file when set
func (c *serveCfg) loadConfig() error {
	if c.configPath == "" {
		return nil
	}

	listen := c.config.ListenAddress

	serverCfg, err := config.Read(c.configPath)
	if err != nil {
		return fmt.Errorf("unable to read server config, %w", err)
	}

	if listen != config.DefaultListenAddress {
		serverCfg.ListenAddress = listen
	}

	c.config = serverCfg

	return nil
}

// run wires the rate service, the cache warmer and the HTTP server
// on top of the given store, and blocks until shutdown
func (c *serveCfg) run(ctx context.Context, logger *slog.Logger, store storage.Storage) error {
	ratesCfg := c.config.RatesConfig
	if ratesCfg == nil {
		ratesCfg = config.DefaultRatesConfig()
	}

	freshness, err := ratesCfg.FreshnessDuration()
	if err != nil {
		return fmt.Errorf("unable to parse freshness: %w", err)
	}

	providers, err := sources.Providers(ratesCfg)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()

	// Create the rate service
	service := rates.New(
		store,
		providers,
		rates.WithLogger(logger),
		rates.WithFreshness(freshness),
		rates.WithMetrics(m),
	)

	// Create the cache warmer
	orchestrator := ingest.New(ingest.WithLogger(logger))
	if err = orchestrator.Register(service.WarmJob()); err != nil {
		return fmt.Errorf("unable to register warm job: %w", err)
	}

	// Create the server instance
	s, err := server.New(
		service,
		store,
		server.WithLogger(logger),
		server.WithConfig(c.config),
		server.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the cache warmer
	group.Go(func() error {
		return orchestrator.Start(gCtx)
	})

	return group.Wait()
}
