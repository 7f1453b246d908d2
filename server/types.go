package server

import (
	"context"
	"time"

	"github.com/sig-0/fxconv/storage/types"
)

// RateService serves the current cached rate entry
type RateService interface {
	Entry(context.Context) types.CachedEntry
}

type RatesResponse struct {
	FetchedAt time.Time      `json:"fetched_at"`
	Base      types.Currency `json:"base"`
	Source    types.Source   `json:"source"`
	Rates     types.RateSet  `json:"rates"`
	Partial   bool           `json:"partial"`
}

type CurrenciesResponse struct {
	Base    types.Currency   `json:"base"`
	Results []types.Currency `json:"results"`
}

type ConvertResponse struct {
	Currency  types.Currency `json:"currency"`
	Direction Direction      `json:"direction"`
	Amount    float64        `json:"amount"`
	Rate      float64        `json:"rate"`
	Result    float64        `json:"result"`
}

type HistoryResponse struct {
	Results []*types.CachedEntry `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Direction is the conversion direction, relative to the base currency
type Direction string

const (
	DirectionFromBase Direction = "from"
	DirectionToBase   Direction = "to"
)
