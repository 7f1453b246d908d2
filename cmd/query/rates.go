package query

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxconv/cmd/env"
	"github.com/sig-0/fxconv/server"
	"github.com/sig-0/fxconv/storage/types"
)

type ratesCfg struct {
	queryCfg
}

// NewRatesCmd creates the rates command
func NewRatesCmd() *ffcli.Command {
	cfg := &ratesCfg{}

	fs := flag.NewFlagSet("rates", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "rates",
		ShortUsage: "rates [flags]",
		LongHelp:   "Fetches the current rate set once and prints it as JSON",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *ratesCfg) exec(ctx context.Context, _ []string) error {
	service, err := c.newService()
	if err != nil {
		return err
	}

	entry := service.Entry(ctx)

	return c.print(&server.RatesResponse{
		FetchedAt: entry.FetchedAt,
		Base:      types.Base,
		Source:    entry.Source,
		Rates:     entry.Rates,
		Partial:   entry.Partial,
	})
}
