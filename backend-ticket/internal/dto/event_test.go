package dto

import (
	"testing"
	"time"
)

func TestCreateEventRequest_Validate(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(6 * time.Hour)

	phase := SalesPhaseRequest{
		Name:        "Early Bird",
		StartDate:   time.Now(),
		EndDate:     start,
		ZonePricing: []ZonePricingRequest{{ZoneID: "ga", Price: 30, Available: 10}},
	}

	tests := []struct {
		name    string
		req     CreateEventRequest
		want    bool
		wantMsg string
	}{
		{
			name:    "valid request",
			req:     CreateEventRequest{Name: "Ultra Peru", Currency: "PEN", StartDate: start, EndDate: end},
			want:    true,
			wantMsg: "",
		},
		{
			name:    "valid request with phases",
			req:     CreateEventRequest{Name: "Ultra Peru", Currency: "PEN", StartDate: start, SalesPhases: []SalesPhaseRequest{phase}},
			want:    true,
			wantMsg: "",
		},
		{
			name:    "missing name",
			req:     CreateEventRequest{Currency: "PEN", StartDate: start},
			want:    false,
			wantMsg: "Event name is required",
		},
		{
			name:    "bad currency",
			req:     CreateEventRequest{Name: "Ultra Peru", Currency: "SOLES", StartDate: start},
			want:    false,
			wantMsg: "Currency must be a 3-letter code",
		},
		{
			name:    "missing start date",
			req:     CreateEventRequest{Name: "Ultra Peru", Currency: "PEN"},
			want:    false,
			wantMsg: "Start date is required",
		},
		{
			name:    "end before start",
			req:     CreateEventRequest{Name: "Ultra Peru", Currency: "PEN", StartDate: end, EndDate: start},
			want:    false,
			wantMsg: "End date must be after start date",
		},
		{
			name: "negative price",
			req: CreateEventRequest{Name: "Ultra Peru", Currency: "PEN", StartDate: start, SalesPhases: []SalesPhaseRequest{{
				Name: "Early Bird", StartDate: time.Now(), EndDate: start,
				ZonePricing: []ZonePricingRequest{{ZoneID: "ga", Price: -1}},
			}}},
			want:    false,
			wantMsg: "Price cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := tt.req.Validate()
			if got != tt.want {
				t.Errorf("Validate() got = %v, want %v", got, tt.want)
			}
			if msg != tt.wantMsg {
				t.Errorf("Validate() msg = %v, want %v", msg, tt.wantMsg)
			}
		})
	}
}

func TestUpdateEventRequest_Validate(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(6 * time.Hour)
	empty := "  "
	emptyPhase := []SalesPhaseRequest{{Name: "Regular", StartDate: start, EndDate: start}}

	tests := []struct {
		name    string
		req     UpdateEventRequest
		want    bool
		wantMsg string
	}{
		{"empty update", UpdateEventRequest{}, true, ""},
		{"blank name", UpdateEventRequest{Name: &empty}, false, "Event name cannot be empty"},
		{"end before start", UpdateEventRequest{StartDate: &end, EndDate: &start}, false, "End date must be after start date"},
		{"empty phase window", UpdateEventRequest{SalesPhases: &emptyPhase}, false, "Sales phase must end after it starts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := tt.req.Validate()
			if got != tt.want || msg != tt.wantMsg {
				t.Errorf("Validate() = (%v, %q), want (%v, %q)", got, msg, tt.want, tt.wantMsg)
			}
		})
	}
}

func TestPurchaseTicketsRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  PurchaseTicketsRequest
		want bool
	}{
		{"valid", PurchaseTicketsRequest{PhaseID: "early", ZoneID: "ga", Quantity: 2}, true},
		{"missing zone", PurchaseTicketsRequest{PhaseID: "early", Quantity: 2}, false},
		{"zero quantity", PurchaseTicketsRequest{PhaseID: "early", ZoneID: "ga"}, false},
		{"over limit", PurchaseTicketsRequest{PhaseID: "early", ZoneID: "ga", Quantity: 11}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, msg := tt.req.Validate(); got != tt.want {
				t.Errorf("Validate() got = %v (%s), want %v", got, msg, tt.want)
			}
		})
	}
}

func TestEventListFilter_SetDefaults(t *testing.T) {
	f := EventListFilter{Limit: 500, Offset: -3}
	f.SetDefaults()
	if f.Limit != 100 || f.Offset != 0 {
		t.Errorf("SetDefaults() = limit %d offset %d", f.Limit, f.Offset)
	}

	f = EventListFilter{}
	f.SetDefaults()
	if f.Limit != 20 {
		t.Errorf("SetDefaults() default limit = %d, want 20", f.Limit)
	}
}
