package handler

import (
	"net/http"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

// OrderHandler handles checkout and order administration
type OrderHandler struct {
	orders   service.OrderService
	payments service.PaymentService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, payments service.PaymentService) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments}
}

// Create handles POST /store/orders
func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	req.UserID = userID
	req.TenantID, _ = middleware.GetTenantID(c)

	order, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, response.Success(toOrderResponse(order)))
}

// ListMine handles GET /store/orders/my
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}
	h.list(c, userID)
}

// List handles GET /admin/orders?status&payment_status&page&limit
func (h *OrderHandler) List(c *gin.Context) {
	h.list(c, "")
}

func (h *OrderHandler) list(c *gin.Context, userID string) {
	var filter dto.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}
	filter.SetDefaults()

	query := &domain.OrderFilter{
		UserID: userID,
		Limit:  filter.Limit,
		Offset: (filter.Page - 1) * filter.Limit,
	}
	if filter.Status != "" {
		status, err := domain.ParseOrderStatus(filter.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ValidationError("Unknown order status"))
			return
		}
		query.Status = status
	}
	if filter.PaymentStatus != "" {
		status, err := domain.ParsePaymentStatus(filter.PaymentStatus)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ValidationError("Unknown payment status"))
			return
		}
		query.PaymentStatus = status
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}

	out := make([]*dto.OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	c.JSON(http.StatusOK, response.Paginated(out, filter.Page, filter.Limit, total))
}

// Get handles GET /store/orders/:id for the owner or an admin
func (h *OrderHandler) Get(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response.Success(toOrderResponse(order)))
}

// Pay handles POST /store/orders/:id/pay
func (h *OrderHandler) Pay(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}

	result, err := h.payments.PayOrder(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err, "Failed to pay order")
		return
	}
	c.JSON(http.StatusOK, response.Success(&dto.PaymentResponse{
		Order:         toOrderResponse(result.Order),
		Gateway:       result.Gateway,
		TransactionID: result.TransactionID,
		Status:        result.Status,
		ClientSecret:  result.ClientSecret,
		FailureReason: result.FailureReason,
	}))
}

// UpdateStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.ValidationError(err.Error()))
		return
	}
	actorID, _ := middleware.GetUserID(c)

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), &service.StatusUpdate{
		Status:               req.Status,
		ActorID:              actorID,
		Notes:                req.Notes,
		TrackingNumber:       req.TrackingNumber,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
	})
	if err != nil {
		respondError(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, response.Success(toOrderResponse(order)))
}

// UpdatePaymentStatus handles PUT /admin/orders/:id/payment-status
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.ValidationError(err.Error()))
		return
	}
	actorID, _ := middleware.GetUserID(c)

	order, err := h.orders.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), req.Status, actorID, req.Reference)
	if err != nil {
		respondError(c, err, "Failed to update payment status")
		return
	}
	c.JSON(http.StatusOK, response.Success(toOrderResponse(order)))
}

// History handles GET /admin/orders/:id/history
func (h *OrderHandler) History(c *gin.Context) {
	entries, err := h.orders.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get order history")
		return
	}
	c.JSON(http.StatusOK, response.Success(entries))
}

// ownedOrder loads the order in the path and writes an error response unless the
// caller owns it or is an admin. Other users get 404 so order IDs do not leak.
func (h *OrderHandler) ownedOrder(c *gin.Context) (*domain.Order, bool) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get order")
		return nil, false
	}
	userID, _ := middleware.GetUserID(c)
	if order.UserID != userID && !middleware.IsAdmin(c) {
		c.JSON(http.StatusNotFound, response.NotFound("Order not found"))
		return nil, false
	}
	return order, true
}

func toOrderResponse(o *domain.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		Status:           o.Status.String(),
		PaymentStatus:    o.PaymentStatus.String(),
		PaymentMethod:    o.PaymentMethod,
		PaymentReference: o.PaymentReference,
		Items:            make([]*dto.OrderItemResponse, len(o.Items)),
		ShippingAddress: dto.ShippingAddressRequest{
			FullName:   o.ShippingAddress.FullName,
			Address:    o.ShippingAddress.Address,
			City:       o.ShippingAddress.City,
			Region:     o.ShippingAddress.Region,
			Country:    o.ShippingAddress.Country,
			PostalCode: o.ShippingAddress.PostalCode,
			Phone:      o.ShippingAddress.Phone,
		},
		ShippingCost:         o.ShippingCost,
		TotalAmount:          o.TotalAmount,
		Currency:             o.Currency,
		Notes:                o.Notes,
		TrackingNumber:       o.TrackingNumber,
		OrderDate:            o.OrderDate.Format(time.RFC3339),
		UpdatedAt:            o.UpdatedAt.Format(time.RFC3339),
		ReviewedBy:           o.ReviewedBy,
		AllowedTransitions:   []string{},
		AllowedPaymentStates: []string{},
	}
	for i, it := range o.Items {
		resp.Items[i] = &dto.OrderItemResponse{
			ProductID:    it.ProductID,
			VariantID:    it.VariantID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			PricePerUnit: it.PricePerUnit,
			Subtotal:     it.Subtotal,
		}
	}
	for _, s := range o.Status.AllowedTransitions() {
		resp.AllowedTransitions = append(resp.AllowedTransitions, s.String())
	}
	for _, s := range []domain.PaymentStatus{domain.PaymentStatusApproved, domain.PaymentStatusRejected} {
		if o.PaymentStatus.CanTransitionTo(s) {
			resp.AllowedPaymentStates = append(resp.AllowedPaymentStates, s.String())
		}
	}
	if o.ExpectedDeliveryDate != nil {
		eta := o.ExpectedDeliveryDate.Format(time.RFC3339)
		resp.ExpectedDeliveryDate = &eta
	}
	if o.ReviewedAt != nil {
		at := o.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &at
	}
	return resp
}
