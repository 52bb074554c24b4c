package handler

import (
	"errors"
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto the response envelope
func respondError(c *gin.Context, err error, fallback string) {
	var short *domain.InsufficientStockError
	switch {
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response.ValidationError(err.Error()))
	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, response.NotFound(notFoundMessage(err)))
	case errors.As(err, &short):
		c.JSON(http.StatusConflict, response.ErrorWithDetails(response.ErrCodeInsufficient, "Not enough stock", short.Error()))
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInsufficient, "Not enough stock"))
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInvalidState, err.Error()))
	case domain.IsConflictError(err):
		c.JSON(http.StatusConflict, response.Conflict(err.Error()))
	case errors.Is(err, currency.ErrRateUnavailable), errors.Is(err, currency.ErrRatesUnavailable):
		c.JSON(http.StatusUnprocessableEntity, response.Error(response.ErrCodeRateUnavailable, "Exchange rate unavailable"))
	case domain.IsTransientError(err):
		logger.Get().WarnContext(c.Request.Context(), "transient backend failure",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, response.TryAgain("Service temporarily unavailable, please retry"))
	default:
		logger.Get().ErrorContext(c.Request.Context(), fallback,
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, response.InternalError(fallback))
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, domain.ErrVariantNotFound):
		return "Product variant not found"
	default:
		return "Product not found"
	}
}
