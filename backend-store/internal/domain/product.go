package domain

import (
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product is a catalog item sold in the store
type Product struct {
	ID                 string           `json:"id"`
	TenantID           string           `json:"tenant_id"`
	Name               string           `json:"name"`
	Slug               string           `json:"slug"`
	Description        string           `json:"description,omitempty"`
	Price              decimal.Decimal  `json:"price"`
	Currency           string           `json:"currency"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	Stock              int              `json:"stock"`
	IsActive           bool             `json:"is_active"`
	Variants           []ProductVariant `json:"variants,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// ProductVariant is a size or color of a product with its own stock.
// A nil Price inherits the product price.
type ProductVariant struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	SKU       string           `json:"sku,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Stock     int              `json:"stock"`
}

// ApplyDiscount returns price * (1 - discount/100) rounded to 2 decimals.
// A nil or non-positive discount returns the rounded price.
func ApplyDiscount(price decimal.Decimal, discount *decimal.Decimal) decimal.Decimal {
	if discount == nil || !discount.IsPositive() {
		return currency.Round2(price)
	}
	factor := hundred.Sub(*discount).Div(hundred)
	if factor.IsNegative() {
		factor = decimal.Zero
	}
	return currency.Round2(price.Mul(factor))
}

// Variant finds a variant by ID
func (p *Product) Variant(id string) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// EffectivePrice returns the discounted unit price of the product or one of its variants
func (p *Product) EffectivePrice(variantID string) (decimal.Decimal, error) {
	base := p.Price
	if variantID != "" {
		v, ok := p.Variant(variantID)
		if !ok {
			return decimal.Zero, ErrVariantNotFound
		}
		if v.Price != nil {
			base = *v.Price
		}
	}
	return ApplyDiscount(base, p.DiscountPercentage), nil
}

// StockFor returns the stock of the variant when variantID is set, otherwise of the product
func (p *Product) StockFor(variantID string) (int, error) {
	if variantID == "" {
		return p.Stock, nil
	}
	v, ok := p.Variant(variantID)
	if !ok {
		return 0, ErrVariantNotFound
	}
	return v.Stock, nil
}

// HasDiscount reports whether a positive discount applies
func (p *Product) HasDiscount() bool {
	return p.DiscountPercentage != nil && p.DiscountPercentage.IsPositive()
}
