package service

import (
	"context"
	"testing"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingService_GetPricing_EarlyBird(t *testing.T) {
	svc := NewPricingService(nil, nil)

	resp, err := svc.GetPricing(context.Background(), onSaleEvent(), "")
	require.NoError(t, err)

	require.NotNil(t, resp.Cheapest)
	assert.Equal(t, "ga", resp.Cheapest.ZoneID)
	assert.Equal(t, 30.0, resp.Cheapest.Price)
	assert.False(t, resp.SoldOut)
	assert.True(t, resp.OnSale)
	require.NotNil(t, resp.ActivePhase)
	assert.Equal(t, "early", resp.ActivePhase.ID)
	assert.Len(t, resp.Options, 2)
	assert.Nil(t, resp.Converted)
}

func TestPricingService_GetPricing_UsesLiveAvailability(t *testing.T) {
	avail := NewMockAvailabilityRepository()
	avail.Set("event-1", "early", "ga", 0)
	avail.Set("event-1", "early", "vip", 0)
	svc := NewPricingService(NewAvailabilitySyncer(avail), nil)

	event := onSaleEvent()
	resp, err := svc.GetPricing(context.Background(), event, "")
	require.NoError(t, err)

	assert.True(t, resp.SoldOut)
	assert.False(t, resp.OnSale)
	require.NotNil(t, resp.Cheapest)
	assert.True(t, resp.Cheapest.SoldOut, "the from-price of a sold out event is flagged")
	assert.Equal(t, 10, event.SalesPhases[0].ZonePricing[1].Available, "the document is not mutated")
}

func TestPricingService_GetPricing_Converted(t *testing.T) {
	conv := &staticConverter{rates: map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"PEN": decimal.RequireFromString("3.75"),
	}}
	svc := NewPricingService(nil, conv)

	resp, err := svc.GetPricing(context.Background(), onSaleEvent(), "pen")
	require.NoError(t, err)

	require.NotNil(t, resp.Converted)
	assert.True(t, resp.Converted.Available)
	assert.Equal(t, "PEN", resp.Converted.Currency)
	assert.True(t, decimal.RequireFromString("112.5").Equal(*resp.Converted.Price))
}

func TestPricingService_GetPricing_RateUnavailable(t *testing.T) {
	tests := []struct {
		name string
		conv Converter
	}{
		{"missing rate", &staticConverter{rates: map[string]decimal.Decimal{"USD": decimal.NewFromInt(1)}}},
		{"no rates at all", &staticConverter{err: currency.ErrRatesUnavailable}},
		{"no converter", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPricingService(nil, tt.conv)
			resp, err := svc.GetPricing(context.Background(), onSaleEvent(), "CLP")
			require.NoError(t, err)
			require.NotNil(t, resp.Converted)
			assert.False(t, resp.Converted.Available)
			assert.Nil(t, resp.Converted.Price, "an unavailable rate never yields a number")
		})
	}
}

func TestPricingService_GetPricing_NoPricing(t *testing.T) {
	svc := NewPricingService(nil, nil)

	resp, err := svc.GetPricing(context.Background(), &domain.Event{ID: "e", Status: domain.EventStatusPublished}, "PEN")
	require.NoError(t, err)
	assert.Nil(t, resp.Cheapest)
	assert.False(t, resp.SoldOut)
	assert.NotNil(t, resp.Options)
	assert.Nil(t, resp.Converted)
}

func TestAvailabilitySyncer_Compare(t *testing.T) {
	avail := NewMockAvailabilityRepository()
	avail.Set("event-1", "early", "ga", 7)
	syncer := NewAvailabilitySyncer(avail)

	entries, err := syncer.Compare(context.Background(), onSaleEvent())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "vip", entries[0].ZoneID)
	assert.Nil(t, entries[0].Live)
	assert.Equal(t, 10, entries[1].Persisted)
	require.NotNil(t, entries[1].Live)
	assert.Equal(t, int64(7), *entries[1].Live)
}
