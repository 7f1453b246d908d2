package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxconv/cmd/env"
	badgerstore "github.com/sig-0/fxconv/storage/badger"
)

const defaultDataDir = "./data"

type serveBadgerCfg struct {
	rootCfg *serveCfg

	dataDir   string
	retention time.Duration
}

// newServeBadgerCmd creates the serve badger command
func newServeBadgerCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveBadgerCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("badger", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "badger",
		ShortUsage: "serve badger [flags]",
		LongHelp:   "Serves the fxconv backend, persisting rate snapshots in an embedded BadgerDB",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveBadgerCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.dataDir,
		"data-dir",
		defaultDataDir,
		"the BadgerDB data directory",
	)

	fs.DurationVar(
		&c.retention,
		"retention",
		time.Hour*24*30,
		"how long past rate snapshots are kept (0 keeps them forever)",
	)
}

func (c *serveBadgerCfg) exec(ctx context.Context, _ []string) error {
	if err := c.rootCfg.loadConfig(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	opts := badger.DefaultOptions(c.dataDir)
	opts.Logger = nil // slog covers it

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("unable to open BadgerDB: %w", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Error(
				"unable to gracefully close BadgerDB",
				"err", err,
			)
		}
	}()

	store := badgerstore.NewStorage(
		db,
		badgerstore.WithRetention(c.retention),
	)

	return c.rootCfg.run(ctx, logger, store)
}
