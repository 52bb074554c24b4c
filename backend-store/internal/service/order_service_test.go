package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	productShirt = "5b0f6b1e-3c1d-4e38-9a55-0d1f7f0b7a01"
	productCap   = "5b0f6b1e-3c1d-4e38-9a55-0d1f7f0b7a02"
	variantLarge = "7c2a9e44-1b7f-4c0e-8d1a-6f2b3c4d5e01"
	orderID      = "9e8d7c6b-5a49-4382-a1b0-c9d8e7f6a501"
	adminID      = "admin-1"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func catalog() map[string]*domain.Product {
	discount := dec("10")
	largePrice := dec("30")
	return map[string]*domain.Product{
		productShirt: {
			ID: productShirt, Name: "Festival Tee", Price: dec("25"), Currency: "PEN",
			IsActive: true, Stock: 2, DiscountPercentage: &discount,
			Variants: []domain.ProductVariant{{ID: variantLarge, ProductID: productShirt, Name: "L", Price: &largePrice, Stock: 4}},
		},
		productCap: {ID: productCap, Name: "Cap", Price: dec("19.99"), Currency: "PEN", IsActive: true, Stock: 10},
	}
}

func checkout(items ...dto.OrderItemRequest) *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		Items: items,
		ShippingAddress: dto.ShippingAddressRequest{
			FullName: "Ana Torres", Address: "Av. Larco 123", City: "Lima", Country: "Peru",
		},
		PaymentMethod: "card",
		UserID:        "user-1",
		TenantID:      "tenant-1",
	}
}

type orderFixture struct {
	svc      OrderService
	products *MockProductRepository
	stock    *MockStockRepository
	orders   *MockOrderRepository
	tx       *fakeTxRunner
	pub      *MockEventPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		products: new(MockProductRepository),
		stock:    new(MockStockRepository),
		orders:   new(MockOrderRepository),
		tx:       &fakeTxRunner{},
		pub:      &MockEventPublisher{},
	}
	f.svc = NewOrderService(OrderServiceDeps{
		Products:  f.products,
		Stock:     f.stock,
		Orders:    f.orders,
		Tx:        f.tx,
		Publisher: f.pub,
		Shipping:  domain.ShippingPolicy{FlatRate: dec("15"), FreeOver: dec("200")},
	})
	return f
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.products.On("GetByIDs", mock.Anything, []string{productShirt, productCap}).Return(catalog(), nil)
	f.stock.On("ReserveStock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), checkout(
		dto.OrderItemRequest{ProductID: productShirt, Quantity: 2},
		dto.OrderItemRequest{ProductID: productShirt, VariantID: variantLarge, Quantity: 1},
		dto.OrderItemRequest{ProductID: productCap, Quantity: 1},
	))
	require.NoError(t, err)

	require.Len(t, order.Items, 3)
	assert.True(t, dec("22.5").Equal(order.Items[0].PricePerUnit), "discount applies to the product price")
	assert.True(t, dec("45").Equal(order.Items[0].Subtotal))
	assert.True(t, dec("27").Equal(order.Items[1].PricePerUnit), "discount applies to the variant price")
	assert.Equal(t, "Festival Tee - L", order.Items[1].Name)
	assert.True(t, dec("15").Equal(order.ShippingCost))
	assert.True(t, dec("106.99").Equal(order.TotalAmount), "total is %s", order.TotalAmount)
	assert.Equal(t, "PEN", order.Currency)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)

	f.stock.AssertCalled(t, "ReserveStock", mock.Anything, mock.Anything, order.StockItems())
	assert.Equal(t, 1, f.tx.calls)
	require.Len(t, f.pub.created, 1)
	assert.Equal(t, order.ID, f.pub.created[0].ID)
}

func TestOrderService_CreateOrder_NonCanonicalIDs(t *testing.T) {
	f := newOrderFixture(t)
	f.products.On("GetByIDs", mock.Anything, []string{productShirt}).Return(catalog(), nil)
	f.stock.On("ReserveStock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), checkout(
		dto.OrderItemRequest{ProductID: strings.ToUpper(productShirt), Quantity: 1},
		dto.OrderItemRequest{ProductID: "{" + productShirt + "}", VariantID: strings.ReplaceAll(variantLarge, "-", ""), Quantity: 1},
	))
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, productShirt, order.Items[0].ProductID)
	assert.Equal(t, variantLarge, order.Items[1].VariantID)
	assert.Equal(t, "Festival Tee - L", order.Items[1].Name)
	f.stock.AssertCalled(t, "ReserveStock", mock.Anything, mock.Anything, []domain.StockItem{
		{ProductID: productShirt, Quantity: 1},
		{ProductID: productShirt, VariantID: variantLarge, Quantity: 1},
	})
}

func TestOrderService_CreateOrder_FreeShipping(t *testing.T) {
	f := newOrderFixture(t)
	f.products.On("GetByIDs", mock.Anything, []string{productCap}).Return(catalog(), nil)
	f.stock.On("ReserveStock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), checkout(dto.OrderItemRequest{ProductID: productCap, Quantity: 11}))
	require.NoError(t, err)
	assert.True(t, order.ShippingCost.IsZero())
	assert.True(t, dec("219.89").Equal(order.TotalAmount), "total is %s", order.TotalAmount)
}

func TestOrderService_CreateOrder_InsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	f.products.On("GetByIDs", mock.Anything, []string{productShirt}).Return(catalog(), nil)
	f.stock.On("ReserveStock", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.InsufficientStockError{ProductID: productShirt, Requested: 3})

	_, err := f.svc.CreateOrder(context.Background(), checkout(dto.OrderItemRequest{ProductID: productShirt, Quantity: 3}))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.tx.rollbacks)
	assert.Empty(t, f.pub.created)
}

func TestOrderService_CreateOrder_Rejected(t *testing.T) {
	inactive := catalog()
	inactive[productCap].IsActive = false
	usd := catalog()
	usd[productCap].Currency = "USD"

	tests := []struct {
		name    string
		catalog map[string]*domain.Product
		items   []dto.OrderItemRequest
		wantErr error
	}{
		{
			name:    "unknown product",
			catalog: map[string]*domain.Product{},
			items:   []dto.OrderItemRequest{{ProductID: productCap, Quantity: 1}},
			wantErr: domain.ErrProductNotFound,
		},
		{
			name:    "inactive product",
			catalog: inactive,
			items:   []dto.OrderItemRequest{{ProductID: productCap, Quantity: 1}},
			wantErr: domain.ErrProductInactive,
		},
		{
			name:    "unknown variant",
			catalog: catalog(),
			items:   []dto.OrderItemRequest{{ProductID: productCap, VariantID: variantLarge, Quantity: 1}},
			wantErr: domain.ErrVariantNotFound,
		},
		{
			name:    "mixed currencies",
			catalog: usd,
			items:   []dto.OrderItemRequest{{ProductID: productShirt, Quantity: 1}, {ProductID: productCap, Quantity: 1}},
			wantErr: domain.ErrCurrencyMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.products.On("GetByIDs", mock.Anything, mock.Anything).Return(tt.catalog, nil)

			_, err := f.svc.CreateOrder(context.Background(), checkout(tt.items...))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.tx.calls, "nothing is reserved")
		})
	}
}

func TestOrderService_CreateOrder_InvalidRequest(t *testing.T) {
	f := newOrderFixture(t)

	tests := []struct {
		name string
		req  *dto.CreateOrderRequest
	}{
		{"no items", checkout()},
		{"zero quantity", checkout(dto.OrderItemRequest{ProductID: productCap, Quantity: 0})},
		{"negative quantity", checkout(dto.OrderItemRequest{ProductID: productCap, Quantity: -1})},
		{"malformed product id", checkout(dto.OrderItemRequest{ProductID: "p1", Quantity: 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}

	req := checkout(dto.OrderItemRequest{ProductID: productCap, Quantity: 1})
	req.PaymentMethod = "bitcoin"
	_, err := f.svc.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	f.products.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_PublishFailureKeepsOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.pub.pubErr = errBackend
	f.products.On("GetByIDs", mock.Anything, mock.Anything).Return(catalog(), nil)
	f.stock.On("ReserveStock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.orders.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), checkout(dto.OrderItemRequest{ProductID: productCap, Quantity: 1}))
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}

func pendingOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:            orderID,
		UserID:        "user-1",
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
		TotalAmount:   dec("75.47"),
		Currency:      "PEN",
	}
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, orderID).Return(pendingOrder(domain.OrderStatusPending), nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.AnythingOfType("*domain.StatusChange")).Return(nil)

	order, err := f.svc.UpdateOrderStatus(context.Background(), orderID, &StatusUpdate{Status: "Approved", ActorID: adminID, Notes: "paid by transfer"})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusApproved, order.Status)
	assert.Equal(t, adminID, order.ReviewedBy)
	require.NotNil(t, order.ReviewedAt)

	change := f.orders.Calls[1].Arguments.Get(1).(*domain.StatusChange)
	assert.Equal(t, domain.OrderStatusPending, change.From)
	assert.Equal(t, domain.OrderStatusApproved, change.To)
	assert.Equal(t, "paid by transfer", change.Notes)

	require.Len(t, f.pub.statuses, 1)
	assert.Equal(t, "pending", f.pub.statuses[0].From)
	assert.Equal(t, "approved", f.pub.statuses[0].To)
}

func TestOrderService_UpdateOrderStatus_Rejected(t *testing.T) {
	eta := time.Now().Add(72 * time.Hour)

	tests := []struct {
		name    string
		current domain.OrderStatus
		update  *StatusUpdate
		wantErr error
	}{
		{"unknown status", domain.OrderStatusPending, &StatusUpdate{Status: "lost"}, domain.ErrInvalidStatus},
		{"skip to delivered", domain.OrderStatusPending, &StatusUpdate{Status: "delivered"}, domain.ErrInvalidTransition},
		{"out of cancelled", domain.OrderStatusCancelled, &StatusUpdate{Status: "approved"}, domain.ErrInvalidTransition},
		{"out of delivered", domain.OrderStatusDelivered, &StatusUpdate{Status: "cancelled"}, domain.ErrInvalidTransition},
		{"ship without tracking", domain.OrderStatusApproved, &StatusUpdate{Status: "shipping", ExpectedDeliveryDate: &eta}, domain.ErrShippingDetailsRequired},
		{"ship without date", domain.OrderStatusApproved, &StatusUpdate{Status: "shipping", TrackingNumber: "OLV-1"}, domain.ErrShippingDetailsRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.orders.On("GetByID", mock.Anything, orderID).Return(pendingOrder(tt.current), nil)

			_, err := f.svc.UpdateOrderStatus(context.Background(), orderID, tt.update)
			assert.ErrorIs(t, err, tt.wantErr)
			f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
			assert.Empty(t, f.pub.statuses)
		})
	}
}

func TestOrderService_UpdateOrderStatus_Shipping(t *testing.T) {
	f := newOrderFixture(t)
	eta := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	f.orders.On("GetByID", mock.Anything, orderID).Return(pendingOrder(domain.OrderStatusApproved), nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil)

	order, err := f.svc.UpdateOrderStatus(context.Background(), orderID, &StatusUpdate{
		Status: "shipping", ActorID: adminID, TrackingNumber: " OLV-123 ", ExpectedDeliveryDate: &eta,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipping, order.Status)
	assert.Equal(t, "OLV-123", order.TrackingNumber)
	require.NotNil(t, order.ExpectedDeliveryDate)
	assert.True(t, eta.Equal(*order.ExpectedDeliveryDate))
}

func TestOrderService_UpdateOrderStatus_LostRace(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, orderID).Return(pendingOrder(domain.OrderStatusPending), nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything).Return(domain.ErrConcurrentUpdate)

	_, err := f.svc.UpdateOrderStatus(context.Background(), orderID, &StatusUpdate{Status: "cancelled", ActorID: adminID})
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	assert.True(t, domain.IsConflictError(err))
	assert.Empty(t, f.pub.statuses)
}

func TestOrderService_UpdatePaymentStatus(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, orderID).Return(pendingOrder(domain.OrderStatusPending), nil)
	f.orders.On("UpdatePaymentStatus", mock.Anything, mock.Anything).Return(nil)

	order, err := f.svc.UpdatePaymentStatus(context.Background(), orderID, "approved", adminID, "YAPE-889")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusApproved, order.PaymentStatus)
	assert.Equal(t, "YAPE-889", order.PaymentReference)
	assert.Equal(t, adminID, order.ReviewedBy)
	require.Len(t, f.pub.payments, 1)
	assert.Equal(t, "YAPE-889", f.pub.payments[0].Reference)
}

func TestOrderService_UpdatePaymentStatus_Terminal(t *testing.T) {
	f := newOrderFixture(t)
	paid := pendingOrder(domain.OrderStatusPending)
	paid.PaymentStatus = domain.PaymentStatusApproved
	f.orders.On("GetByID", mock.Anything, orderID).Return(paid, nil)

	_, err := f.svc.UpdatePaymentStatus(context.Background(), orderID, "rejected", adminID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.UpdatePaymentStatus(context.Background(), orderID, "refunded", adminID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	f.orders.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything)
}

func TestOrderService_History_UnknownOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, orderID).Return(nil, domain.ErrOrderNotFound)

	_, err := f.svc.History(context.Background(), orderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	f.orders.AssertNotCalled(t, "History", mock.Anything, mock.Anything)
}
