package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"
)

// VariantRequest describes one variant of a new product
type VariantRequest struct {
	Name  string           `json:"name"`
	SKU   string           `json:"sku"`
	Price *decimal.Decimal `json:"price"`
	Stock int              `json:"stock"`
}

// Validate has a value receiver so ozzo validates every element of a []VariantRequest
func (r VariantRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.SKU, validation.Length(0, 100)),
		validation.Field(&r.Price, nonNegative),
		validation.Field(&r.Stock, validation.Min(0)),
	)
}

// CreateProductRequest represents the request to add a product to the catalog
type CreateProductRequest struct {
	Name               string           `json:"name"`
	Slug               string           `json:"slug"`
	Description        string           `json:"description"`
	Price              decimal.Decimal  `json:"price"`
	Currency           string           `json:"currency"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	Stock              int              `json:"stock"`
	IsActive           *bool            `json:"is_active"`
	Variants           []VariantRequest `json:"variants"`
	TenantID           string           `json:"-"`
}

func (r *CreateProductRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 255)),
		validation.Field(&r.Slug, validation.Length(0, 255), validation.Match(slugPattern)),
		validation.Field(&r.Description, validation.Length(0, 5000)),
		validation.Field(&r.Price, nonNegative),
		validation.Field(&r.Currency, validation.Required, validation.Match(currencyPattern)),
		validation.Field(&r.DiscountPercentage, percentage),
		validation.Field(&r.Stock, validation.Min(0)),
		validation.Field(&r.Variants, validation.Length(0, 50)),
	)
}

// UpdateProductRequest carries the fields to change; nil means unchanged
type UpdateProductRequest struct {
	Name               *string          `json:"name"`
	Slug               *string          `json:"slug"`
	Description        *string          `json:"description"`
	Price              *decimal.Decimal `json:"price"`
	Currency           *string          `json:"currency"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	ClearDiscount      bool             `json:"clear_discount"`
	IsActive           *bool            `json:"is_active"`
}

func (r *UpdateProductRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(2, 255)),
		validation.Field(&r.Slug, validation.NilOrNotEmpty, validation.Match(slugPattern)),
		validation.Field(&r.Description, validation.Length(0, 5000)),
		validation.Field(&r.Price, nonNegative),
		validation.Field(&r.Currency, validation.NilOrNotEmpty, validation.Match(currencyPattern)),
		validation.Field(&r.DiscountPercentage, percentage),
	)
}

// UpdateStockRequest overwrites the stock of a product or one of its variants
type UpdateStockRequest struct {
	VariantID string `json:"variant_id"`
	Stock     *int   `json:"stock"`
}

func (r *UpdateStockRequest) Normalize() {
	r.VariantID = canonicalUUID(r.VariantID)
}

func (r *UpdateStockRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.VariantID, isUUID),
		validation.Field(&r.Stock, validation.NotNil, validation.Min(0)),
	)
}

// ProductListFilter represents query parameters for listing products
type ProductListFilter struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// SetDefaults clamps paging to sane values
func (f *ProductListFilter) SetDefaults() {
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

// ProductResponse is a product with its effective prices
type ProductResponse struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Slug               string             `json:"slug"`
	Description        string             `json:"description,omitempty"`
	Price              decimal.Decimal    `json:"price"`
	EffectivePrice     decimal.Decimal    `json:"effective_price"`
	Currency           string             `json:"currency"`
	DiscountPercentage *decimal.Decimal   `json:"discount_percentage,omitempty"`
	Stock              int                `json:"stock"`
	InStock            bool               `json:"in_stock"`
	IsActive           bool               `json:"is_active"`
	Variants           []*VariantResponse `json:"variants"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
}

// VariantResponse is a variant with its effective price
type VariantResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku,omitempty"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Stock          int             `json:"stock"`
}
