package handler

import (
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler exposes admin tooling for the live availability counters
type AvailabilityHandler struct {
	eventService service.EventService
	syncer       service.AvailabilitySyncer
}

// NewAvailabilityHandler creates a new AvailabilityHandler
func NewAvailabilityHandler(eventService service.EventService, syncer service.AvailabilitySyncer) *AvailabilityHandler {
	return &AvailabilityHandler{
		eventService: eventService,
		syncer:       syncer,
	}
}

// Compare handles GET /admin/events/:id/availability
func (h *AvailabilityHandler) Compare(c *gin.Context) {
	event, err := h.eventService.GetEventByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get event")
		return
	}

	entries, err := h.syncer.Compare(c.Request.Context(), event)
	if err != nil {
		respondError(c, domain.Transient("availability.compare", err), "Failed to read availability")
		return
	}

	c.JSON(http.StatusOK, response.Success(entries))
}

// Sync handles POST /admin/events/:id/availability/sync. It overwrites the live
// counters with the persisted allotments, discarding unflushed sales.
func (h *AvailabilityHandler) Sync(c *gin.Context) {
	event, err := h.eventService.GetEventByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get event")
		return
	}
	if event.Status != domain.EventStatusPublished {
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInvalidState, "Only published events have live availability"))
		return
	}

	if err := h.syncer.SyncEvent(c.Request.Context(), event); err != nil {
		respondError(c, domain.Transient("availability.sync", err), "Failed to sync availability")
		return
	}

	logger.Get().InfoContext(c.Request.Context(), "availability resynced from event document",
		zap.String("event_id", event.ID),
	)
	c.JSON(http.StatusOK, response.Success(map[string]string{"message": "Availability synced"}))
}
