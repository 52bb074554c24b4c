package handler

import (
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

// TicketHandler handles ticket purchases
type TicketHandler struct {
	ticketService service.TicketService
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// Purchase handles POST /events/id/:id/tickets
func (h *TicketHandler) Purchase(c *gin.Context) {
	var req dto.PurchaseTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}
	req.EventID = c.Param("id")
	req.UserID = userID
	req.TenantID, _ = middleware.GetTenantID(c)

	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.ValidationError(msg))
		return
	}

	purchase, err := h.ticketService.PurchaseTickets(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to purchase tickets")
		return
	}

	c.JSON(http.StatusCreated, response.Success(purchase))
}
