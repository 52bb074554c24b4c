package handler

import (
	"net/http"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// List handles GET /events - lists events with pagination and filters.
// Anonymous callers and customers only see published events.
func (h *EventHandler) List(c *gin.Context) {
	var filter dto.EventListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}

	if !canSeeDrafts(c) {
		filter.Status = string(domain.EventStatusPublished)
	} else if !middleware.IsAdmin(c) {
		filter.TenantID, _ = middleware.GetTenantID(c)
	}

	events, total, err := h.eventService.ListEvents(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err, "Failed to list events")
		return
	}

	eventResponses := make([]*dto.EventResponse, len(events))
	for i, event := range events {
		eventResponses[i] = toEventResponse(event)
	}

	filter.SetDefaults()
	c.JSON(http.StatusOK, response.Paginated(eventResponses, filter.Offset/filter.Limit+1, filter.Limit, total))
}

// GetBySlug handles GET /events/:slug - retrieves an event by slug
func (h *EventHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Slug is required"))
		return
	}

	event, err := h.eventService.GetEventBySlug(c.Request.Context(), slug)
	if err != nil {
		respondError(c, err, "Failed to get event")
		return
	}
	if !visible(c, event) {
		c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(toEventResponse(event)))
}

// GetByID handles GET /events/id/:id - retrieves an event by ID
func (h *EventHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("ID is required"))
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

	c.JSON(http.StatusOK, response.Success(toEventResponse(event)))
}

// Create handles POST /events - creates a new draft event (organizer or admin)
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Tenant ID not found in token"))
		return
	}
	req.TenantID = tenantID
	req.OrganizerID, _ = middleware.GetUserID(c)

	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.ValidationError(msg))
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create event")
		return
	}

	c.JSON(http.StatusCreated, response.Success(toEventResponse(event)))
}

// Update handles PUT /events/:id - updates an event
func (h *EventHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("ID is required"))
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.ValidationError(msg))
		return
	}

	if !h.ownsEvent(c, id) {
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update event")
		return
	}

	c.JSON(http.StatusOK, response.Success(toEventResponse(event)))
}

// Delete handles DELETE /events/:id - soft deletes an event
func (h *EventHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("ID is required"))
		return
	}
	if !h.ownsEvent(c, id) {
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete event")
		return
	}

	c.JSON(http.StatusOK, response.Success(map[string]string{"message": "Event deleted successfully"}))
}

// Publish handles POST /events/:id/publish - publishes a draft event
func (h *EventHandler) Publish(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("ID is required"))
		return
	}
	if !h.ownsEvent(c, id) {
		return
	}

	event, err := h.eventService.PublishEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to publish event")
		return
	}

	c.JSON(http.StatusOK, response.Success(toEventResponse(event)))
}

// ownsEvent writes an error response and returns false unless the caller is an
// admin or belongs to the event's tenant
func (h *EventHandler) ownsEvent(c *gin.Context, id string) bool {
	if middleware.IsAdmin(c) {
		return true
	}
	event, err := h.eventService.GetEventByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get event")
		return false
	}
	tenantID, _ := middleware.GetTenantID(c)
	if event.TenantID != tenantID {
		c.JSON(http.StatusForbidden, response.Forbidden("Event belongs to another tenant"))
		return false
	}
	return true
}

func visible(c *gin.Context, event *domain.Event) bool {
	return event.Status == domain.EventStatusPublished ||
		event.Status == domain.EventStatusCompleted ||
		canSeeDrafts(c)
}

// toEventResponse converts a domain event to response DTO.
// The pricing summary uses the persisted allotments.
func toEventResponse(event *domain.Event) *dto.EventResponse {
	resp := &dto.EventResponse{
		ID:          event.ID,
		TenantID:    event.TenantID,
		Name:        event.Name,
		Slug:        event.Slug,
		Description: event.Description,
		Venue:       event.Venue,
		City:        event.City,
		Country:     event.Country,
		Currency:    event.Currency,
		StartDate:   event.StartDate.Format(time.RFC3339),
		Status:      string(event.Status),
		Zones:       event.Zones,
		SalesPhases: event.SalesPhases,
		SoldOut:     domain.IsSoldOut(event),
		OnSale:      domain.IsOnSale(event, time.Now()),
		CreatedAt:   event.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   event.UpdatedAt.Format(time.RFC3339),
	}
	if !event.EndDate.IsZero() {
		resp.EndDate = event.EndDate.Format(time.RFC3339)
	}
	if cheapest, ok := domain.CheapestAvailable(event); ok {
		resp.Cheapest = &cheapest
	}
	if event.PublishedAt != nil {
		publishedAt := event.PublishedAt.Format(time.RFC3339)
		resp.PublishedAt = &publishedAt
	}
	return resp
}
