package handler

import (
	"errors"
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto the response envelope
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response.ValidationError(err.Error()))
	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, response.NotFound(err.Error()))
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSuggestionsClosed),
		errors.Is(err, domain.ErrVotingClosed):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInvalidState, err.Error()))
	case domain.IsConflictError(err):
		c.JSON(http.StatusConflict, response.Conflict(err.Error()))
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
