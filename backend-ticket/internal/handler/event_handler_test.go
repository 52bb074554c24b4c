package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	events     map[string]*domain.Event
	publishErr error
	lastFilter *dto.EventListFilter
}

func NewMockEventService() *MockEventService {
	return &MockEventService{
		events: make(map[string]*domain.Event),
	}
}

func (m *MockEventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error) {
	now := time.Now()
	event := &domain.Event{
		ID:          "event-123",
		TenantID:    req.TenantID,
		OrganizerID: req.OrganizerID,
		Name:        req.Name,
		Slug:        "test-slug",
		Currency:    req.Currency,
		StartDate:   req.StartDate,
		Status:      domain.EventStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.events[event.ID] = event
	return event, nil
}

func (m *MockEventService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

func (m *MockEventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	for _, e := range m.events {
		if e.Slug == slug {
			return e, nil
		}
	}
	return nil, domain.ErrEventNotFound
}

func (m *MockEventService) ListEvents(ctx context.Context, filter *dto.EventListFilter) ([]*domain.Event, int64, error) {
	m.lastFilter = filter
	var events []*domain.Event
	for _, e := range m.events {
		if filter.Status != "" && string(e.Status) != filter.Status {
			continue
		}
		events = append(events, e)
	}
	return events, int64(len(events)), nil
}

func (m *MockEventService) UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*domain.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	if !event.CanEdit() {
		return nil, domain.ErrEventNotEditable
	}
	if req.Name != nil {
		event.Name = *req.Name
	}
	return event, nil
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *MockEventService) PublishEvent(ctx context.Context, id string) (*domain.Event, error) {
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	event, ok := m.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	if event.Status != domain.EventStatusDraft {
		return nil, domain.ErrInvalidEventStatus
	}
	event.Status = domain.EventStatusPublished
	return event, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

// withCaller fakes what JWTMiddleware stores in the context
func withCaller(userID, tenantID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextKeyUserID, userID)
		}
		if tenantID != "" {
			c.Set(middleware.ContextKeyTenantID, tenantID)
		}
		if role != "" {
			c.Set(middleware.ContextKeyRole, role)
		}
		c.Next()
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleEvents() *MockEventService {
	svc := NewMockEventService()
	svc.events["pub"] = &domain.Event{
		ID: "pub", Slug: "ultra-peru", TenantID: "tenant-1", Status: domain.EventStatusPublished,
		Currency: "USD",
		SalesPhases: []domain.SalesPhase{{
			ID: "early", ZonePricing: []domain.ZonePricing{
				{ZoneID: "vip", Price: 50, Available: 0},
				{ZoneID: "ga", Price: 30, Available: 10},
			},
		}},
	}
	svc.events["draft"] = &domain.Event{ID: "draft", Slug: "secret-show", TenantID: "tenant-1", Status: domain.EventStatusDraft}
	return svc
}

func TestEventHandler_List(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus string
		wantCount  int
	}{
		{"anonymous sees published only", "", "published", 1},
		{"customer sees published only", middleware.RoleCustomer, "published", 1},
		{"organizer sees drafts too", middleware.RoleOrganizer, "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := sampleEvents()
			h := NewEventHandler(svc)
			router := gin.New()
			router.GET("/events", withCaller("user-1", "tenant-1", tt.role), h.List)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/events?limit=10", nil)
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantStatus, svc.lastFilter.Status)

			resp := decode(t, w)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, int64(tt.wantCount), resp.Meta.Total)
			assert.Equal(t, 1, resp.Meta.Page)
		})
	}
}

func TestEventHandler_GetBySlug(t *testing.T) {
	tests := []struct {
		name       string
		slug       string
		role       string
		wantStatus int
	}{
		{"published event", "ultra-peru", "", http.StatusOK},
		{"draft hidden from the public", "secret-show", "", http.StatusNotFound},
		{"draft visible to admin", "secret-show", middleware.RoleAdmin, http.StatusOK},
		{"unknown slug", "nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEventHandler(sampleEvents())
			router := gin.New()
			router.GET("/events/:slug", withCaller("", "", tt.role), h.GetBySlug)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+tt.slug, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestEventHandler_GetByID_PricingSummary(t *testing.T) {
	h := NewEventHandler(sampleEvents())
	router := gin.New()
	router.GET("/events/id/:id", h.GetByID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/id/pub", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data dto.EventResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Cheapest)
	assert.Equal(t, "ga", body.Data.Cheapest.ZoneID)
	assert.Equal(t, 30.0, body.Data.Cheapest.Price)
	assert.False(t, body.Data.SoldOut)
}

func TestEventHandler_Create(t *testing.T) {
	validBody := map[string]interface{}{
		"name":       "Ultra Perú 2026",
		"country":    "PE",
		"currency":   "PEN",
		"start_date": time.Now().Add(720 * time.Hour).Format(time.RFC3339),
	}

	tests := []struct {
		name       string
		tenantID   string
		body       interface{}
		wantStatus int
	}{
		{"valid request", "tenant-1", validBody, http.StatusCreated},
		{"missing tenant", "", validBody, http.StatusUnauthorized},
		{"invalid body", "tenant-1", "not json", http.StatusBadRequest},
		{"bad currency", "tenant-1", map[string]interface{}{
			"name": "X", "country": "PE", "currency": "SOLES", "start_date": time.Now().Format(time.RFC3339),
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMockEventService()
			h := NewEventHandler(svc)
			router := gin.New()
			router.POST("/events", withCaller("user-1", tt.tenantID, middleware.RoleOrganizer), h.Create)

			raw, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusCreated {
				event := svc.events["event-123"]
				require.NotNil(t, event)
				assert.Equal(t, "tenant-1", event.TenantID)
				assert.Equal(t, "user-1", event.OrganizerID)
			}
		})
	}
}

func TestEventHandler_Publish(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		tenantID   string
		role       string
		publishErr error
		wantStatus int
		wantCode   string
	}{
		{"draft is published", "draft", "tenant-1", middleware.RoleOrganizer, nil, http.StatusOK, ""},
		{"already published", "pub", "tenant-1", middleware.RoleOrganizer, nil, http.StatusConflict, response.ErrCodeInvalidState},
		{"other tenant", "draft", "tenant-2", middleware.RoleOrganizer, nil, http.StatusForbidden, response.ErrCodeForbidden},
		{"admin bypasses tenant", "draft", "tenant-2", middleware.RoleAdmin, nil, http.StatusOK, ""},
		{"no pricing", "draft", "tenant-1", middleware.RoleOrganizer, domain.ErrNoPricing, http.StatusBadRequest, response.ErrCodeValidation},
		{"unknown event", "nope", "tenant-1", middleware.RoleOrganizer, nil, http.StatusNotFound, response.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := sampleEvents()
			svc.publishErr = tt.publishErr
			h := NewEventHandler(svc)
			router := gin.New()
			router.POST("/events/:id/publish", withCaller("user-1", tt.tenantID, tt.role), h.Publish)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/"+tt.id+"/publish", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				resp := decode(t, w)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestEventHandler_Update_NotEditable(t *testing.T) {
	svc := sampleEvents()
	svc.events["draft"].Status = domain.EventStatusCancelled
	h := NewEventHandler(svc)
	router := gin.New()
	router.PUT("/events/:id", withCaller("user-1", "tenant-1", middleware.RoleOrganizer), h.Update)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/events/draft", bytes.NewBufferString(`{"name":"Renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.ErrInvalidLayout, http.StatusBadRequest, response.ErrCodeValidation},
		{"not found", domain.ErrEventNotFound, http.StatusNotFound, response.ErrCodeNotFound},
		{"pricing not found", domain.ErrPricingNotFound, http.StatusNotFound, response.ErrCodeNotFound},
		{"sold out", domain.ErrInsufficientAvailability, http.StatusConflict, response.ErrCodeSoldOut},
		{"phase closed", domain.ErrPhaseNotActive, http.StatusConflict, response.ErrCodeConflict},
		{"transient", domain.Transient("redis.reserve_tickets", errors.New("i/o timeout")), http.StatusServiceUnavailable, response.ErrCodeTryAgain},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, response.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/x", func(c *gin.Context) { respondError(c, tt.err, "Failed") })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
