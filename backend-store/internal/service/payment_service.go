package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/gateway"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"go.uber.org/zap"
)

type paymentService struct {
	orders  OrderService
	gateway gateway.PaymentGateway
}

// NewPaymentService creates a PaymentService that records outcomes through orders
func NewPaymentService(orders OrderService, gw gateway.PaymentGateway) PaymentService {
	return &paymentService{orders: orders, gateway: gw}
}

// PayOrder charges the order total. A gateway failure leaves the order untouched;
// a declined charge rejects the payment and a pending one changes nothing yet.
func (s *paymentService) PayOrder(ctx context.Context, orderID string) (*PaymentResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.pay_order")
	defer span.End()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != domain.PaymentStatusPending || order.Status == domain.OrderStatusCancelled {
		return nil, domain.ErrInvalidTransition
	}

	resp, err := s.gateway.Charge(ctx, &gateway.ChargeRequest{
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Description: fmt.Sprintf("RaveHub order %s", order.ID),
		Metadata:    map[string]string{"user_id": order.UserID},
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("gateway.charge", err)
	}

	result := &PaymentResult{
		Order:         order,
		Gateway:       s.gateway.Name(),
		TransactionID: resp.TransactionID,
		Status:        resp.Status,
		ClientSecret:  resp.ClientSecret,
		FailureReason: resp.FailureReason,
	}

	var next domain.PaymentStatus
	switch resp.Status {
	case gateway.StatusSucceeded:
		next = domain.PaymentStatusApproved
	case gateway.StatusFailed:
		next = domain.PaymentStatusRejected
		logger.Get().InfoContext(ctx, "payment declined",
			zap.String("order_id", order.ID),
			zap.String("reason", resp.FailureReason),
			zap.String("code", resp.FailureCode),
		)
	default:
		return result, nil
	}

	updated, err := s.orders.UpdatePaymentStatus(ctx, order.ID, next.String(), "", resp.TransactionID)
	if err != nil {
		logger.Get().ErrorContext(ctx, "charge recorded by gateway but not on order",
			zap.String("order_id", order.ID),
			zap.String("transaction_id", resp.TransactionID),
			zap.String("gateway_status", resp.Status),
			zap.Error(err),
		)
		return nil, err
	}
	result.Order = updated
	return result, nil
}

func (s *paymentService) RecordOutcome(ctx context.Context, orderID, transactionID string, succeeded bool) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.payment.record_outcome")
	defer span.End()

	next := domain.PaymentStatusRejected
	if succeeded {
		next = domain.PaymentStatusApproved
	}

	order, err := s.orders.UpdatePaymentStatus(ctx, orderID, next.String(), "", transactionID)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		return order, err
	}

	current, getErr := s.orders.GetOrder(ctx, orderID)
	if getErr != nil {
		return nil, getErr
	}
	if current.PaymentStatus == next && current.PaymentReference == transactionID {
		return current, nil
	}
	logger.Get().WarnContext(ctx, "gateway outcome conflicts with recorded payment",
		zap.String("order_id", orderID),
		zap.String("transaction_id", transactionID),
		zap.String("recorded", current.PaymentStatus.String()),
		zap.String("reported", next.String()),
	)
	return nil, err
}
