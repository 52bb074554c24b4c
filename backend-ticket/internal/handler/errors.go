package handler

import (
	"errors"
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto the response envelope.
// fallback is the message used for unexpected failures.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response.ValidationError(err.Error()))
	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, response.NotFound(notFoundMessage(err)))
	case errors.Is(err, domain.ErrInsufficientAvailability):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeSoldOut, "Not enough tickets available"))
	case errors.Is(err, domain.ErrInvalidEventStatus), errors.Is(err, domain.ErrEventNotEditable):
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
	if errors.Is(err, domain.ErrPricingNotFound) {
		return "Pricing not found"
	}
	return "Event not found"
}

// canSeeDrafts reports whether the caller may read unpublished events
func canSeeDrafts(c *gin.Context) bool {
	role, _ := middleware.GetRole(c)
	return role == middleware.RoleAdmin || role == middleware.RoleOrganizer
}
