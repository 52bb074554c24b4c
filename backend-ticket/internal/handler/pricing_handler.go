package handler

import (
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

// PricingHandler serves the aggregated pricing of an event
type PricingHandler struct {
	eventService   service.EventService
	pricingService service.PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(eventService service.EventService, pricingService service.PricingService) *PricingHandler {
	return &PricingHandler{
		eventService:   eventService,
		pricingService: pricingService,
	}
}

// Get handles GET /events/id/:id/pricing?currency=PEN
func (h *PricingHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("ID is required"))
		return
	}

	displayCurrency := c.Query("currency")
	if displayCurrency != "" && len(currency.Normalize(displayCurrency)) != 3 {
		c.JSON(http.StatusBadRequest, response.ValidationError("Currency must be a 3-letter code"))
		return
	}

	event, err := h.eventService.GetEventByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get event")
		return
	}
	if !visible(c, event) {
		c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
		return
	}

	pricing, err := h.pricingService.GetPricing(c.Request.Context(), event, displayCurrency)
	if err != nil {
		respondError(c, err, "Failed to get pricing")
		return
	}

	c.JSON(http.StatusOK, response.Success(pricing))
}
