package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions lists, per status, the statuses it may move to.
// delivered and cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusApproved, OrderStatusCancelled},
	OrderStatusApproved:  {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping:  {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: nil,
	OrderStatusCancelled: nil,
}

// ParseOrderStatus returns ErrInvalidStatus for unknown values
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the transition table allows s -> to
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	next := orderTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(orderTransitions[s]) == 0
}

// PaymentStatus is the payment state of an order, independent of fulfilment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:  {PaymentStatusApproved, PaymentStatusRejected},
	PaymentStatusApproved: nil,
	PaymentStatusRejected: nil,
}

// ParsePaymentStatus returns ErrInvalidStatus for unknown values
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := paymentTransitions[status]; !ok {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the payment machine allows s -> to
func (s PaymentStatus) CanTransitionTo(to PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ShippingAddress is where an order is delivered
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// OrderItem is one line of an order, priced when the order was placed
type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	VariantID    string          `json:"variant_id,omitempty"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Order represents a store order
type Order struct {
	ID                   string          `json:"id"`
	TenantID             string          `json:"tenant_id"`
	UserID               string          `json:"user_id"`
	Status               OrderStatus     `json:"status"`
	PaymentStatus        PaymentStatus   `json:"payment_status"`
	PaymentMethod        string          `json:"payment_method"`
	PaymentReference     string          `json:"payment_reference,omitempty"`
	Items                []OrderItem     `json:"items"`
	ShippingAddress      ShippingAddress `json:"shipping_address"`
	ShippingCost         decimal.Decimal `json:"shipping_cost"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Currency             string          `json:"currency"`
	Notes                string          `json:"notes,omitempty"`
	TrackingNumber       string          `json:"tracking_number,omitempty"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date,omitempty"`
	OrderDate            time.Time       `json:"order_date"`
	UpdatedAt            time.Time       `json:"updated_at"`
	ReviewedBy           string          `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time      `json:"reviewed_at,omitempty"`
}

// CalculateTotal sets every item subtotal and the order total from unit prices
// and the shipping cost
func (o *Order) CalculateTotal() {
	total := o.ShippingCost
	for i := range o.Items {
		it := &o.Items[i]
		it.Subtotal = it.PricePerUnit.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(it.Subtotal)
	}
	o.TotalAmount = total
}

// StockItems returns the quantities the order takes out of stock
func (o *Order) StockItems() []StockItem {
	items := make([]StockItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = StockItem{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity}
	}
	return items
}

// StatusChange is a validated fulfilment transition ready to be persisted
type StatusChange struct {
	OrderID              string
	From                 OrderStatus
	To                   OrderStatus
	ActorID              string
	Notes                string
	TrackingNumber       string
	ExpectedDeliveryDate *time.Time
	At                   time.Time
}

// PlanStatusChange checks a transition of o to status "to" and returns the change to write.
// Moving to shipping requires both a tracking number and an expected delivery date.
func (o *Order) PlanStatusChange(to OrderStatus, actorID, notes, trackingNumber string, expected *time.Time, now time.Time) (*StatusChange, error) {
	if !to.IsValid() {
		return nil, ErrInvalidStatus
	}
	trackingNumber = strings.TrimSpace(trackingNumber)
	if to == OrderStatusShipping && (trackingNumber == "" || expected == nil) {
		return nil, ErrShippingDetailsRequired
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}
	return &StatusChange{
		OrderID:              o.ID,
		From:                 o.Status,
		To:                   to,
		ActorID:              actorID,
		Notes:                notes,
		TrackingNumber:       trackingNumber,
		ExpectedDeliveryDate: expected,
		At:                   now.UTC(),
	}, nil
}

// ApplyStatusChange updates o in memory the way the repository updates the row
func (o *Order) ApplyStatusChange(c *StatusChange) {
	o.Status = c.To
	o.UpdatedAt = c.At
	if c.TrackingNumber != "" {
		o.TrackingNumber = c.TrackingNumber
	}
	if c.ExpectedDeliveryDate != nil {
		o.ExpectedDeliveryDate = c.ExpectedDeliveryDate
	}
	if c.ActorID != "" {
		at := c.At
		o.ReviewedBy = c.ActorID
		o.ReviewedAt = &at
	}
}

// PaymentChange is a validated payment transition ready to be persisted
type PaymentChange struct {
	OrderID   string
	From      PaymentStatus
	To        PaymentStatus
	ActorID   string
	Reference string
	At        time.Time
}

// PlanPaymentChange checks a payment transition of o
func (o *Order) PlanPaymentChange(to PaymentStatus, actorID, reference string, now time.Time) (*PaymentChange, error) {
	if _, ok := paymentTransitions[to]; !ok {
		return nil, ErrInvalidStatus
	}
	if !o.PaymentStatus.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}
	return &PaymentChange{
		OrderID:   o.ID,
		From:      o.PaymentStatus,
		To:        to,
		ActorID:   actorID,
		Reference: strings.TrimSpace(reference),
		At:        now.UTC(),
	}, nil
}

// ApplyPaymentChange updates o in memory the way the repository updates the row
func (o *Order) ApplyPaymentChange(c *PaymentChange) {
	o.PaymentStatus = c.To
	o.UpdatedAt = c.At
	if c.Reference != "" {
		o.PaymentReference = c.Reference
	}
	if c.ActorID != "" {
		at := c.At
		o.ReviewedBy = c.ActorID
		o.ReviewedAt = &at
	}
}

// StatusHistoryEntry is one row of an order's audit trail
type StatusHistoryEntry struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Kind      string    `json:"kind"` // status, payment
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	HistoryKindStatus  = "status"
	HistoryKindPayment = "payment"
)

// OrderFilter narrows admin order listings
type OrderFilter struct {
	UserID        string
	TenantID      string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Limit         int
	Offset        int
}
