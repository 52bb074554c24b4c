package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Provider fetches a USD-based rate table from one source
type Provider interface {
	Name() string
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Provider names as used in configuration
const (
	ProviderExchangeRateAPI   = "exchangerate-api"
	ProviderOpenExchangeRates = "openexchangerates"
	ProviderCurrencyAPI       = "currencyapi"
	ProviderStatic            = "static"
)

// ProviderKeys holds API keys per provider name
type ProviderKeys map[string]string

// BuildProviders returns the configured providers in priority order. Providers
// without a key are skipped. The static provider is appended when useStatic is set.
func BuildProviders(priority []string, keys ProviderKeys, useStatic bool, client *http.Client) []Provider {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	var providers []Provider
	for _, name := range priority {
		key := keys[name]
		if key == "" {
			continue
		}
		switch name {
		case ProviderExchangeRateAPI:
			providers = append(providers, NewExchangeRateAPIProvider(key, client))
		case ProviderOpenExchangeRates:
			providers = append(providers, NewOpenExchangeRatesProvider(key, client))
		case ProviderCurrencyAPI:
			providers = append(providers, NewCurrencyAPIProvider(key, client))
		}
	}
	if useStatic {
		providers = append(providers, NewStaticProvider(nil))
	}
	return providers
}

// httpProvider fetches a JSON document and extracts rates with decode
type httpProvider struct {
	name   string
	url    string
	client *http.Client
	decode func(body []byte) (map[string]decimal.Decimal, error)
}

func (p *httpProvider) Name() string { return p.name }

func (p *httpProvider) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", p.name, resp.StatusCode)
	}

	rates, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", p.name, err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%s: empty rate table", p.name)
	}
	rates[BaseCurrency] = decimal.NewFromInt(1)
	return rates, nil
}

// NewExchangeRateAPIProvider reads v6.exchangerate-api.com
func NewExchangeRateAPIProvider(key string, client *http.Client) Provider {
	return &httpProvider{
		name:   ProviderExchangeRateAPI,
		url:    fmt.Sprintf("https://v6.exchangerate-api.com/v6/%s/latest/%s", url.PathEscape(key), BaseCurrency),
		client: client,
		decode: func(body []byte) (map[string]decimal.Decimal, error) {
			var doc struct {
				Result          string                     `json:"result"`
				ErrorType       string                     `json:"error-type"`
				ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
			}
			if err := json.Unmarshal(body, &doc); err != nil {
				return nil, err
			}
			if doc.Result != "" && doc.Result != "success" {
				return nil, fmt.Errorf("provider error: %s", doc.ErrorType)
			}
			return doc.ConversionRates, nil
		},
	}
}

// NewOpenExchangeRatesProvider reads openexchangerates.org
func NewOpenExchangeRatesProvider(key string, client *http.Client) Provider {
	return &httpProvider{
		name:   ProviderOpenExchangeRates,
		url:    "https://openexchangerates.org/api/latest.json?app_id=" + url.QueryEscape(key),
		client: client,
		decode: func(body []byte) (map[string]decimal.Decimal, error) {
			var doc struct {
				Rates map[string]decimal.Decimal `json:"rates"`
			}
			if err := json.Unmarshal(body, &doc); err != nil {
				return nil, err
			}
			return doc.Rates, nil
		},
	}
}

// NewCurrencyAPIProvider reads api.currencyapi.com
func NewCurrencyAPIProvider(key string, client *http.Client) Provider {
	return &httpProvider{
		name: ProviderCurrencyAPI,
		url: fmt.Sprintf("https://api.currencyapi.com/v3/latest?apikey=%s&base_currency=%s",
			url.QueryEscape(key), BaseCurrency),
		client: client,
		decode: func(body []byte) (map[string]decimal.Decimal, error) {
			var doc struct {
				Data map[string]struct {
					Code  string          `json:"code"`
					Value decimal.Decimal `json:"value"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &doc); err != nil {
				return nil, err
			}
			rates := make(map[string]decimal.Decimal, len(doc.Data))
			for code, entry := range doc.Data {
				rates[code] = entry.Value
			}
			return rates, nil
		},
	}
}

// StaticProvider serves a fixed table, for development and tests
type StaticProvider struct {
	rates map[string]decimal.Decimal
}

// NewStaticProvider uses rates, or a built-in table for the platform's markets when nil
func NewStaticProvider(rates map[string]decimal.Decimal) *StaticProvider {
	if rates == nil {
		rates = map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("0.92"),
			"PEN": decimal.RequireFromString("3.75"),
			"CLP": decimal.RequireFromString("940"),
			"ARS": decimal.RequireFromString("980"),
			"COP": decimal.RequireFromString("4100"),
			"MXN": decimal.RequireFromString("18.2"),
			"BRL": decimal.RequireFromString("5.4"),
		}
	}
	return &StaticProvider{rates: rates}
}

func (p *StaticProvider) Name() string { return ProviderStatic }

func (p *StaticProvider) FetchRates(context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(p.rates))
	for k, v := range p.rates {
		out[k] = v
	}
	return out, nil
}
