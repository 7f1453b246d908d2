package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/sig-0/fxconv/rates"
	"github.com/sig-0/fxconv/storage/types"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

var (
	errUnableToFetchHistory = errors.New("unable to fetch history")

	errInvalidAmount    = errors.New("invalid amount (must be a non-negative number)")
	errInvalidCurrency  = errors.New("invalid currency")
	errInvalidDirection = errors.New("invalid direction (must be from or to)")
	errInvalidLimit     = errors.New("invalid limit")
)

func (s *Server) Rates(w http.ResponseWriter, r *http.Request) {
	entry := s.rates.Entry(r.Context())

	resp := &RatesResponse{
		FetchedAt: entry.FetchedAt,
		Base:      types.Base,
		Source:    entry.Source,
		Rates:     entry.Rates,
		Partial:   entry.Partial,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Currencies(w http.ResponseWriter, _ *http.Request) {
	resp := &CurrenciesResponse{
		Base:    types.Base,
		Results: types.Supported,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	var (
		amountParam    = r.URL.Query().Get("amount")
		currencyParam  = r.URL.Query().Get("currency")
		directionParam = r.URL.Query().Get("direction")
	)

	amount, err := parseAmount(amountParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	currency, err := parseCurrency(currencyParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	direction, err := parseDirection(directionParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	set := s.rates.Entry(r.Context()).Rates

	var result float64

	switch direction {
	case DirectionToBase:
		result = rates.ConvertToBase(amount, currency, set)
	default:
		result = rates.ConvertFromBase(amount, currency, set)
	}

	if s.metrics != nil {
		s.metrics.ConversionsTotal.WithLabelValues(currency.String(), string(direction)).Inc()
	}

	rate, _ := set.Get(currency)

	resp := &ConvertResponse{
		Currency:  currency,
		Direction: direction,
		Amount:    amount,
		Rate:      rate,
		Result:    result,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	items, err := s.storage.History(r.Context(), limit)
	if err != nil {
		s.logger.Debug(
			"unable to fetch history",
			"err", err,
		)

		writeError(
			w,
			http.StatusInternalServerError,
			errUnableToFetchHistory,
		)

		return
	}

	if items == nil {
		items = []*types.CachedEntry{}
	}

	writeJSON(w, http.StatusOK, &HistoryResponse{Results: items})
}

func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errInvalidAmount
	}

	return v, nil
}

func parseCurrency(raw string) (types.Currency, error) {
	c := types.Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if !rates.IsSupported(c) {
		return "", errInvalidCurrency
	}

	return c, nil
}

func parseDirection(raw string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(raw))); d {
	case "", DirectionFromBase:
		return DirectionFromBase, nil
	case DirectionToBase:
		return d, nil
	default:
		return "", errInvalidDirection
	}
}

func parseHistoryLimit(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return defaultHistoryLimit, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errInvalidLimit
	}

	if n == 0 {
		return defaultHistoryLimit, nil
	}

	if n > maxHistoryLimit {
		n = maxHistoryLimit
	}

	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
