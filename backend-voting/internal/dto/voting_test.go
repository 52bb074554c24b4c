package dto

import (
	"strings"
	"testing"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCreatePeriodRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreatePeriodRequest
		wantErr bool
	}{
		{"valid", CreatePeriodRequest{Country: " PE ", Year: 2026, TopCount: 10}, false},
		{"multi word country", CreatePeriodRequest{Country: "costa-rica", Year: 2026}, false},
		{"missing country", CreatePeriodRequest{Year: 2026}, true},
		{"country with digits", CreatePeriodRequest{Country: "pe1", Year: 2026}, true},
		{"year too old", CreatePeriodRequest{Country: "pe", Year: 1999}, true},
		{"top count too large", CreatePeriodRequest{Country: "pe", Year: 2026, TopCount: 101}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSuggestDJRequest_Normalize(t *testing.T) {
	req := SuggestDJRequest{Name: "  Charlotte   de Witte ", Instagram: "https://instagram.com/charlottedewitte/"}
	req.Normalize()

	assert.Equal(t, "Charlotte de Witte", req.Name)
	assert.Equal(t, "charlottedewitte", req.Instagram)
	assert.NoError(t, req.Validate())
}

func TestSuggestDJRequest_Validate(t *testing.T) {
	assert.Error(t, (&SuggestDJRequest{Name: "X"}).Validate())
	assert.Error(t, (&SuggestDJRequest{Name: strings.Repeat("a", 81)}).Validate())
	assert.Error(t, (&SuggestDJRequest{Name: "Valid", Instagram: "bad handle!"}).Validate())
}

func TestNewPeriodResponse(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	resp := NewPeriodResponse(&domain.VotingPeriod{
		ID: "period-1", Country: "pe", Year: 2026,
		State: domain.StateSuggestionsOpen, CreatedAt: now, UpdatedAt: now,
	})

	assert.True(t, resp.SuggestionsOpen)
	assert.False(t, resp.VotingOpen)
	assert.False(t, resp.ResultsPublished)
	assert.Equal(t, []string{"open_voting", "generate_ranking"}, resp.AvailableActions)
	assert.Nil(t, resp.PublishedAt)
}
