package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is a dependency that can report its health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints. The voting service only
// depends on MongoDB for readiness; Kafka is best effort.
type HealthHandler struct {
	mongo HealthChecker
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(mongo HealthChecker) *HealthHandler {
	return &HealthHandler{mongo: mongo}
}

// Health returns a simple health check (liveness probe)
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports not ready while MongoDB is unreachable
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	mongo := "healthy"
	status, code := "ready", http.StatusOK
	if err := h.mongo.HealthCheck(ctx); err != nil {
		mongo = "unhealthy: " + err.Error()
		status, code = "not ready", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": map[string]string{"mongodb": mongo},
	})
}
