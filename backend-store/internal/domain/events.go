package domain

import "time"

// OrderStatusChangedEvent is published after a fulfilment transition
type OrderStatusChangedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// OrderPaymentChangedEvent is published after a payment transition
type OrderPaymentChangedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reference string    `json:"reference,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewStatusChangedEvent builds the event for a persisted change
func NewStatusChangedEvent(o *Order, c *StatusChange) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		OrderID:   c.OrderID,
		UserID:    o.UserID,
		From:      c.From.String(),
		To:        c.To.String(),
		ActorID:   c.ActorID,
		Notes:     c.Notes,
		ChangedAt: c.At,
	}
}

// NewPaymentChangedEvent builds the event for a persisted payment change
func NewPaymentChangedEvent(o *Order, c *PaymentChange) *OrderPaymentChangedEvent {
	return &OrderPaymentChangedEvent{
		OrderID:   c.OrderID,
		UserID:    o.UserID,
		From:      c.From.String(),
		To:        c.To.String(),
		Reference: c.Reference,
		ChangedAt: c.At,
	}
}
