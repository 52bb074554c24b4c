// Package currency converts amounts between currencies using USD-based rate tables
// fetched from external providers and cached in Redis.
package currency

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency every rate is expressed against
const BaseCurrency = "USD"

var (
	// ErrRateUnavailable means a rate needed for the conversion is missing or unusable.
	// Callers must show an unavailable state instead of a number.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrRatesUnavailable means no rate table could be fetched and none is cached
	ErrRatesUnavailable = errors.New("exchange rates unavailable")
)

// RateTable maps currency codes to units per one USD
type RateTable struct {
	Base        string                     `json:"base"`
	Rates       map[string]decimal.Decimal `json:"rates"`
	Provider    string                     `json:"provider"`
	LastUpdated time.Time                  `json:"last_updated"`
	// Stale is set when the table could not be refreshed and a cached copy is served
	Stale bool `json:"stale"`
}

// Conversion is the result of converting an amount with a rate table
type Conversion struct {
	Amount      decimal.Decimal `json:"amount"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Result      decimal.Decimal `json:"result"`
	Rate        decimal.Decimal `json:"rate"`
	LastUpdated time.Time       `json:"last_updated"`
	Stale       bool            `json:"stale"`
}

// Convert returns amount * rates[to] / rates[from].
// Same-currency conversion returns amount unchanged without consulting rates.
func Convert(amount decimal.Decimal, from, to string, rates map[string]decimal.Decimal) (decimal.Decimal, error) {
	from, to = Normalize(from), Normalize(to)
	if from == to {
		return amount, nil
	}

	rate, err := CrossRate(from, to, rates)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// CrossRate returns how many units of to one unit of from buys
func CrossRate(from, to string, rates map[string]decimal.Decimal) (decimal.Decimal, error) {
	from, to = Normalize(from), Normalize(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	fromRate, ok := rates[from]
	if !ok || !fromRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, from)
	}
	toRate, ok := rates[to]
	if !ok || !toRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, to)
	}
	return toRate.Div(fromRate), nil
}

// Normalize upper-cases and trims a currency code
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Round2 rounds to two decimal places for display
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
