package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sig-0/fxconv/storage/types"
)

const (
	HostSource types.Source = "exchangerate.host"
	APISource  types.Source = "exchangerate-api"
)

const (
	DefaultHostURL = "https://api.exchangerate.host"
	DefaultAPIURL  = "https://api.exchangerate-api.com"

	DefaultTimeout = 10 * time.Second
)

var (
	errUnsuccessful = errors.New("source reported failure")
	errNoRates      = errors.New("no rates in response")
)

// hostResponse is the exchangerate.host latest rates response
type hostResponse struct {
	Rates   map[string]json.RawMessage `json:"rates"`
	Success bool                       `json:"success"`
}

// apiResponse is the exchangerate-api latest rates response
type apiResponse struct {
	Rates map[string]json.RawMessage `json:"rates"`
}

// HostProvider fetches rates from exchangerate.host
type HostProvider struct {
	client  *http.Client
	baseURL string
}

// NewHostProvider creates a new instance of the exchangerate.host provider
func NewHostProvider(baseURL string, timeout time.Duration) *HostProvider {
	return &HostProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *HostProvider) Name() string {
	return HostSource.String()
}

func (p *HostProvider) Fetch(ctx context.Context) (types.PartialRateSet, error) {
	symbols := make([]string, 0, len(types.Supported))
	for _, c := range types.Supported {
		symbols = append(symbols, c.String())
	}

	url := fmt.Sprintf(
		"%s/latest?base=%s&symbols=%s",
		p.baseURL,
		types.Base,
		strings.Join(symbols, ","),
	)

	var resp hostResponse
	if err := getJSON(ctx, p.client, url, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, errUnsuccessful
	}

	return pickSupported(resp.Rates)
}

// APIProvider fetches rates from exchangerate-api
type APIProvider struct {
	client  *http.Client
	baseURL string
}

// NewAPIProvider creates a new instance of the exchangerate-api provider
func NewAPIProvider(baseURL string, timeout time.Duration) *APIProvider {
	return &APIProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *APIProvider) Name() string {
	return APISource.String()
}

func (p *APIProvider) Fetch(ctx context.Context) (types.PartialRateSet, error) {
	url := fmt.Sprintf("%s/v4/latest/%s", p.baseURL, types.Base)

	var resp apiResponse
	if err := getJSON(ctx, p.client, url, &resp); err != nil {
		return nil, err
	}

	return pickSupported(resp.Rates)
}

// getJSON executes a GET request and decodes the JSON body into v
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("unable to create new GET request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}

	return nil
}

// pickSupported extracts the supported currencies from the raw rates.
// Values that are not JSON numbers are left out, so the caller can
// fill them in individually. Range validation is up to the caller
func pickSupported(raw map[string]json.RawMessage) (types.PartialRateSet, error) {
	if len(raw) == 0 {
		return nil, errNoRates
	}

	out := make(types.PartialRateSet, len(types.Supported))

	for _, c := range types.Supported {
		value, ok := raw[c.String()]
		if !ok {
			continue
		}

		var v float64
		if err := json.Unmarshal(value, &v); err != nil {
			continue
		}

		out[c] = v
	}

	return out, nil
}
