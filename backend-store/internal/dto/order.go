package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"
)

var paymentMethods = []interface{}{"card", "bank_transfer", "yape", "plin", "cash_on_delivery"}

// OrderItemRequest is one cart line
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Normalize puts the IDs in the form the catalog and stock lookups key on
func (r *OrderItemRequest) Normalize() {
	r.ProductID = canonicalUUID(r.ProductID)
	r.VariantID = canonicalUUID(r.VariantID)
}

func (r OrderItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, isUUID),
		validation.Field(&r.VariantID, isUUID),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// ShippingAddressRequest is the delivery address given at checkout
type ShippingAddressRequest struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Region     string `json:"region"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

func (r ShippingAddressRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(2, 120)),
		validation.Field(&r.Address, validation.Required, validation.Length(5, 255)),
		validation.Field(&r.City, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Country, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.PostalCode, validation.Length(0, 20)),
		validation.Field(&r.Phone, validation.Length(0, 30)),
	)
}

// CreateOrderRequest is the checkout payload. Prices and totals are never taken
// from the client.
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	Notes           string                 `json:"notes"`
	UserID          string                 `json:"-"`
	TenantID        string                 `json:"-"`
}

func (r *CreateOrderRequest) Normalize() {
	for i := range r.Items {
		r.Items[i].Normalize()
	}
}

func (r *CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.ShippingAddress),
		validation.Field(&r.PaymentMethod, validation.Required, validation.In(paymentMethods...)),
		validation.Field(&r.Notes, validation.Length(0, 1000)),
	)
}

// CheckStockRequest asks whether a cart can be fulfilled
type CheckStockRequest struct {
	Items []OrderItemRequest `json:"items"`
}

func (r *CheckStockRequest) Normalize() {
	for i := range r.Items {
		r.Items[i].Normalize()
	}
}

func (r *CheckStockRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, 50)),
	)
}

// UpdateOrderStatusRequest is an admin fulfilment transition
type UpdateOrderStatusRequest struct {
	Status               string     `json:"status"`
	Notes                string     `json:"notes"`
	TrackingNumber       string     `json:"tracking_number"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
}

func (r *UpdateOrderStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.Required),
		validation.Field(&r.Notes, validation.Length(0, 1000)),
		validation.Field(&r.TrackingNumber, validation.Length(0, 100)),
	)
}

// UpdatePaymentStatusRequest is an admin payment transition
type UpdatePaymentStatusRequest struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

func (r *UpdatePaymentStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.Required),
		validation.Field(&r.Reference, validation.Length(0, 255)),
	)
}

// OrderListFilter represents query parameters for listing orders
type OrderListFilter struct {
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
}

// SetDefaults clamps paging to sane values
func (f *OrderListFilter) SetDefaults() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// OrderResponse is an order plus the transitions an admin may apply next
type OrderResponse struct {
	ID                   string                 `json:"id"`
	UserID               string                 `json:"user_id"`
	Status               string                 `json:"status"`
	PaymentStatus        string                 `json:"payment_status"`
	PaymentMethod        string                 `json:"payment_method"`
	PaymentReference     string                 `json:"payment_reference,omitempty"`
	Items                []*OrderItemResponse   `json:"items"`
	ShippingAddress      ShippingAddressRequest `json:"shipping_address"`
	ShippingCost         decimal.Decimal        `json:"shipping_cost"`
	TotalAmount          decimal.Decimal        `json:"total_amount"`
	Currency             string                 `json:"currency"`
	Notes                string                 `json:"notes,omitempty"`
	TrackingNumber       string                 `json:"tracking_number,omitempty"`
	ExpectedDeliveryDate *string                `json:"expected_delivery_date,omitempty"`
	OrderDate            string                 `json:"order_date"`
	UpdatedAt            string                 `json:"updated_at"`
	ReviewedBy           string                 `json:"reviewed_by,omitempty"`
	ReviewedAt           *string                `json:"reviewed_at,omitempty"`
	AllowedTransitions   []string               `json:"allowed_transitions"`
	AllowedPaymentStates []string               `json:"allowed_payment_transitions"`
}

// OrderItemResponse is one priced order line
type OrderItemResponse struct {
	ProductID    string          `json:"product_id"`
	VariantID    string          `json:"variant_id,omitempty"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// StockCheckResponse answers a cart check
type StockCheckResponse struct {
	Available bool                    `json:"available"`
	Items     []*StockCheckItemResult `json:"items"`
}

// StockCheckItemResult is the stock of one cart line
type StockCheckItemResult struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Requested int    `json:"requested"`
	InStock   int    `json:"in_stock"`
	OK        bool   `json:"ok"`
}

// PaymentResponse is the outcome of paying an order
type PaymentResponse struct {
	Order         *OrderResponse `json:"order"`
	Gateway       string         `json:"gateway"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Status        string         `json:"status"`
	ClientSecret  string         `json:"client_secret,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
}
