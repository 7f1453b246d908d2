package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxconv/storage/types"
)

func newTestServer(t *testing.T, status int, body string, check func(*http.Request)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		_, _ = w.Write([]byte(body))
	}))

	t.Cleanup(srv.Close)

	return srv
}

func TestHostProvider_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var (
			capturedPath  string
			capturedQuery map[string]string
		)

		srv := newTestServer(
			t,
			http.StatusOK,
			`{"success":true,"base":"RUB","rates":{"USD":0.01,"CNY":0.0714,"IRR":416.5,"EUR":0.0095}}`,
			func(r *http.Request) {
				capturedPath = r.URL.Path
				capturedQuery = map[string]string{
					"base":    r.URL.Query().Get("base"),
					"symbols": r.URL.Query().Get("symbols"),
				}
			},
		)

		p := NewHostProvider(srv.URL+"/", time.Second)

		rates, err := p.Fetch(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "/latest", capturedPath)
		assert.Equal(t, "RUB", capturedQuery["base"])
		assert.Equal(t, "USD,CNY,IRR", capturedQuery["symbols"])

		assert.Equal(t, types.PartialRateSet{
			types.CurrencyUSD: 0.01,
			types.CurrencyCNY: 0.0714,
			types.CurrencyIRR: 416.5,
		}, rates)
	})

	t.Run("partial rates", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusOK, `{"success":true,"rates":{"USD":0.01}}`, nil)

		rates, err := NewHostProvider(srv.URL, time.Second).Fetch(context.Background())
		require.NoError(t, err)

		assert.Equal(t, types.PartialRateSet{types.CurrencyUSD: 0.01}, rates)
	})

	t.Run("mistyped rate dropped", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(
			t,
			http.StatusOK,
			`{"success":true,"rates":{"USD":0.01,"CNY":0.07,"IRR":"n/a"}}`,
			nil,
		)

		rates, err := NewHostProvider(srv.URL, time.Second).Fetch(context.Background())
		require.NoError(t, err)

		assert.Equal(t, types.PartialRateSet{
			types.CurrencyUSD: 0.01,
			types.CurrencyCNY: 0.07,
		}, rates)
	})

	t.Run("success flag false", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusOK, `{"success":false,"rates":{"USD":0.01}}`, nil)

		_, err := NewHostProvider(srv.URL, time.Second).Fetch(context.Background())

		assert.ErrorIs(t, err, errUnsuccessful)
	})

	t.Run("missing rates", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusOK, `{"success":true}`, nil)

		_, err := NewHostProvider(srv.URL, time.Second).Fetch(context.Background())

		assert.ErrorIs(t, err, errNoRates)
	})

	t.Run("invalid status", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusBadGateway, `{}`, nil)

		_, err := NewHostProvider(srv.URL, time.Second).Fetch(context.Background())

		assert.ErrorContains(t, err, "invalid status code")
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusOK, `<html>`, nil)

		_, err := NewHostProvider(srv.URL, time.Second).Fetch(context.Background())

		assert.ErrorContains(t, err, "unable to decode response")
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusOK, `{}`, nil)
		srv.Close()

		_, err := NewHostProvider(srv.URL, time.Second).Fetch(context.Background())

		assert.Error(t, err)
	})
}

func TestAPIProvider_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedPath string

		srv := newTestServer(
			t,
			http.StatusOK,
			`{"base":"RUB","rates":{"RUB":1,"USD":0.0108,"CNY":0.077,"IRR":455.2}}`,
			func(r *http.Request) {
				capturedPath = r.URL.Path
			},
		)

		rates, err := NewAPIProvider(srv.URL, time.Second).Fetch(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "/v4/latest/RUB", capturedPath)
		assert.Equal(t, types.PartialRateSet{
			types.CurrencyUSD: 0.0108,
			types.CurrencyCNY: 0.077,
			types.CurrencyIRR: 455.2,
		}, rates)
	})

	t.Run("mistyped rates dropped", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(
			t,
			http.StatusOK,
			`{"rates":{"USD":{"value":0.01},"CNY":0.077,"IRR":[455.2]}}`,
			nil,
		)

		rates, err := NewAPIProvider(srv.URL, time.Second).Fetch(context.Background())
		require.NoError(t, err)

		assert.Equal(t, types.PartialRateSet{types.CurrencyCNY: 0.077}, rates)
	})

	t.Run("missing rates", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusOK, `{"result":"error"}`, nil)

		_, err := NewAPIProvider(srv.URL, time.Second).Fetch(context.Background())

		assert.ErrorIs(t, err, errNoRates)
	})

	t.Run("invalid status", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusNotFound, ``, nil)

		_, err := NewAPIProvider(srv.URL, time.Second).Fetch(context.Background())

		assert.Error(t, err)
	})
}

func TestProviders_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "exchangerate.host", NewHostProvider(DefaultHostURL, DefaultTimeout).Name())
	assert.Equal(t, "exchangerate-api", NewAPIProvider(DefaultAPIURL, DefaultTimeout).Name())
}
