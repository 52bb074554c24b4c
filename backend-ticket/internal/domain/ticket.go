package domain

import "time"

// TicketPurchase is the outcome of a successful ticket purchase
type TicketPurchase struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	PhaseID     string    `json:"phase_id"`
	ZoneID      string    `json:"zone_id"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Total       float64   `json:"total"`
	Currency    string    `json:"currency"`
	Remaining   int64     `json:"remaining"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// TicketSoldEvent is published on the ticket.sold topic
type TicketSoldEvent struct {
	PurchaseID string    `json:"purchase_id"`
	EventID    string    `json:"event_id"`
	TenantID   string    `json:"tenant_id"`
	PhaseID    string    `json:"phase_id"`
	ZoneID     string    `json:"zone_id"`
	Quantity   int       `json:"quantity"`
	UserID     string    `json:"user_id"`
	UnitPrice  float64   `json:"unit_price"`
	Currency   string    `json:"currency"`
	Remaining  int64     `json:"remaining"`
	SoldAt     time.Time `json:"sold_at"`
}

// NewTicketSoldEvent builds the event for p
func NewTicketSoldEvent(p *TicketPurchase) *TicketSoldEvent {
	return &TicketSoldEvent{
		PurchaseID: p.ID,
		EventID:    p.EventID,
		TenantID:   p.TenantID,
		PhaseID:    p.PhaseID,
		ZoneID:     p.ZoneID,
		Quantity:   p.Quantity,
		UserID:     p.UserID,
		UnitPrice:  p.UnitPrice,
		Currency:   p.Currency,
		Remaining:  p.Remaining,
		SoldAt:     p.PurchasedAt,
	}
}

// Key partitions sales of the same event together
func (e *TicketSoldEvent) Key() string {
	return e.EventID
}
