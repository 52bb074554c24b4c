package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	productID = "5b0f6b1e-3c1d-4e38-9a55-0d1f7f0b7a01"
	variantID = "7c2a9e44-1b7f-4c0e-8d1a-6f2b3c4d5e01"
)

func TestCheckStockRequest_NormalizeCanonicalizesIDs(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"upper case", "5B0F6B1E-3C1D-4E38-9A55-0D1F7F0B7A01"},
		{"braced", "{5b0f6b1e-3c1d-4e38-9a55-0d1f7f0b7a01}"},
		{"unhyphenated", "5b0f6b1e3c1d4e389a550d1f7f0b7a01"},
		{"urn", "urn:uuid:5b0f6b1e-3c1d-4e38-9a55-0d1f7f0b7a01"},
		{"padded", "  " + productID + " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &CheckStockRequest{Items: []OrderItemRequest{{ProductID: tt.in, Quantity: 1}}}
			req.Normalize()
			require.NoError(t, req.Validate())
			assert.Equal(t, productID, req.Items[0].ProductID)
			assert.Empty(t, req.Items[0].VariantID)
		})
	}
}

func TestCreateOrderRequest_NormalizeCanonicalizesVariant(t *testing.T) {
	req := &CreateOrderRequest{Items: []OrderItemRequest{{
		ProductID: "5B0F6B1E-3C1D-4E38-9A55-0D1F7F0B7A01",
		VariantID: "{7C2A9E44-1B7F-4C0E-8D1A-6F2B3C4D5E01}",
		Quantity:  1,
	}}}
	req.Normalize()
	assert.Equal(t, productID, req.Items[0].ProductID)
	assert.Equal(t, variantID, req.Items[0].VariantID)
}

func TestOrderItemRequest_NormalizeKeepsInvalidForValidate(t *testing.T) {
	item := OrderItemRequest{ProductID: "not-a-uuid", Quantity: 1}
	item.Normalize()
	assert.Equal(t, "not-a-uuid", item.ProductID)
	assert.Error(t, item.Validate())
}

func TestUpdateStockRequest_Normalize(t *testing.T) {
	stock := 3
	req := &UpdateStockRequest{VariantID: "7C2A9E441B7F4C0E8D1A6F2B3C4D5E01", Stock: &stock}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, variantID, req.VariantID)
}
