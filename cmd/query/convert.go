package query

import (
	"context"
	"errors"
	"flag"
	"math"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxconv/cmd/env"
	"github.com/sig-0/fxconv/rates"
	"github.com/sig-0/fxconv/server"
	"github.com/sig-0/fxconv/storage/types"
)

var (
	errInvalidAmount    = errors.New("amount must be a non-negative number")
	errInvalidCurrency  = errors.New("unsupported currency")
	errInvalidDirection = errors.New("direction must be from or to")
)

type convertCfg struct {
	queryCfg

	amount    float64
	currency  string
	direction string
}

// NewConvertCmd creates the convert command
func NewConvertCmd() *ffcli.Command {
	cfg := &convertCfg{}

	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "convert",
		ShortUsage: "convert -amount <n> -currency <USD|CNY|IRR> [-direction from|to] [flags]",
		LongHelp:   "Converts an amount between RUB and a supported currency using live rates",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *convertCfg) registerFlags(fs *flag.FlagSet) {
	c.queryCfg.registerFlags(fs)

	fs.Float64Var(
		&c.amount,
		"amount",
		0,
		"the amount to convert",
	)

	fs.StringVar(
		&c.currency,
		"currency",
		types.CurrencyUSD.String(),
		"the foreign currency (USD, CNY, IRR)",
	)

	fs.StringVar(
		&c.direction,
		"direction",
		string(server.DirectionFromBase),
		"from: RUB to the currency, to: the currency to RUB",
	)
}

func (c *convertCfg) validate() (types.Currency, server.Direction, error) {
	if c.amount < 0 || math.IsInf(c.amount, 0) || math.IsNaN(c.amount) {
		return "", "", errInvalidAmount
	}

	currency := types.Currency(strings.ToUpper(c.currency))
	if !rates.IsSupported(currency) {
		return "", "", errInvalidCurrency
	}

	direction := server.Direction(strings.ToLower(c.direction))
	if direction != server.DirectionFromBase && direction != server.DirectionToBase {
		return "", "", errInvalidDirection
	}

	return currency, direction, nil
}

func (c *convertCfg) exec(ctx context.Context, _ []string) error {
	currency, direction, err := c.validate()
	if err != nil {
		return err
	}

	service, err := c.newService()
	if err != nil {
		return err
	}

	set := service.Rates(ctx)

	result := rates.ConvertFromBase(c.amount, currency, set)
	if direction == server.DirectionToBase {
		result = rates.ConvertToBase(c.amount, currency, set)
	}

	rate, _ := set.Get(currency)

	return c.print(&server.ConvertResponse{
		Currency:  currency,
		Direction: direction,
		Amount:    c.amount,
		Rate:      rate,
		Result:    result,
	})
}
