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

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockVotingService struct {
	mock.Mock
}

func (m *MockVotingService) CreatePeriod(ctx context.Context, req *dto.CreatePeriodRequest) (*domain.VotingPeriod, error) {
	args := m.Called(ctx, req)
	if p := args.Get(0); p != nil {
		return p.(*domain.VotingPeriod), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) GetPeriod(ctx context.Context, country string, year int) (*domain.VotingPeriod, error) {
	args := m.Called(ctx, country, year)
	if p := args.Get(0); p != nil {
		return p.(*domain.VotingPeriod), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) ListPeriods(ctx context.Context, country string) ([]*domain.VotingPeriod, error) {
	args := m.Called(ctx, country)
	if p := args.Get(0); p != nil {
		return p.([]*domain.VotingPeriod), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) ApplyAction(ctx context.Context, country string, year int, action, actorID string) (*domain.VotingPeriod, error) {
	args := m.Called(ctx, country, year, action, actorID)
	if p := args.Get(0); p != nil {
		return p.(*domain.VotingPeriod), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) SuggestDJ(ctx context.Context, country string, year int, req *dto.SuggestDJRequest) (*domain.Suggestion, error) {
	args := m.Called(ctx, country, year, req)
	if s := args.Get(0); s != nil {
		return s.(*domain.Suggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) ListSuggestions(ctx context.Context, country string, year int) ([]*domain.Suggestion, error) {
	args := m.Called(ctx, country, year)
	if s := args.Get(0); s != nil {
		return s.([]*domain.Suggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) CastVote(ctx context.Context, country string, year int, req *dto.CastVoteRequest) (*domain.Vote, error) {
	args := m.Called(ctx, country, year, req)
	if v := args.Get(0); v != nil {
		return v.(*domain.Vote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) VoterStatus(ctx context.Context, country string, year int, userID string) (*dto.VoterStatus, error) {
	args := m.Called(ctx, country, year, userID)
	if s := args.Get(0); s != nil {
		return s.(*dto.VoterStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) GenerateRanking(ctx context.Context, country string, year int, actorID string) (*domain.Ranking, error) {
	args := m.Called(ctx, country, year, actorID)
	if r := args.Get(0); r != nil {
		return r.(*domain.Ranking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) PublishRanking(ctx context.Context, country string, year int, actorID string) (*domain.VotingPeriod, error) {
	args := m.Called(ctx, country, year, actorID)
	if p := args.Get(0); p != nil {
		return p.(*domain.VotingPeriod), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVotingService) GetRanking(ctx context.Context, country string, year int, includeUnpublished bool) (*domain.Ranking, error) {
	args := m.Called(ctx, country, year, includeUnpublished)
	if r := args.Get(0); r != nil {
		return r.(*domain.Ranking), args.Error(1)
	}
	return nil, args.Error(1)
}

// withCaller fakes what JWTMiddleware stores in the context
func withCaller(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextKeyUserID, userID)
		}
		if role != "" {
			c.Set(middleware.ContextKeyRole, role)
		}
		c.Next()
	}
}

func newRouter(svc *MockVotingService, userID, role string) *gin.Engine {
	h := NewVotingHandler(svc)
	r := gin.New()
	r.Use(withCaller(userID, role))
	r.GET("/voting", h.ListPeriods)
	r.GET("/voting/:country/:year", h.GetPeriod)
	r.GET("/voting/:country/:year/suggestions", h.ListSuggestions)
	r.POST("/voting/:country/:year/suggestions", h.Suggest)
	r.POST("/voting/:country/:year/votes", h.Vote)
	r.GET("/voting/:country/:year/votes/my", h.MyVotes)
	r.GET("/voting/:country/:year/ranking", h.GetRanking)
	r.POST("/admin/voting", h.CreatePeriod)
	r.POST("/admin/voting/:country/:year/actions/:action", h.ApplyAction)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func samplePeriod(state domain.PeriodState) *domain.VotingPeriod {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return &domain.VotingPeriod{ID: "period-1", Country: "pe", Year: 2026, State: state, TopCount: 10, CreatedAt: now, UpdatedAt: now}
}

func TestVotingHandler_GetPeriod(t *testing.T) {
	svc := new(MockVotingService)
	svc.On("GetPeriod", mock.Anything, "pe", 2026).Return(samplePeriod(domain.StateSuggestionsOpen), nil)
	svc.On("GetPeriod", mock.Anything, "cl", 2026).Return(nil, domain.ErrPeriodNotFound)
	r := newRouter(svc, "", "")

	w := do(r, http.MethodGet, "/voting/pe/2026", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data dto.PeriodResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.SuggestionsOpen)
	assert.False(t, body.Data.VotingOpen)
	assert.Equal(t, []string{"open_voting", "generate_ranking"}, body.Data.AvailableActions)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/voting/cl/2026", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/voting/pe/next", nil).Code)
}

func TestVotingHandler_Vote(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"accepted", nil, http.StatusCreated, ""},
		{"voting closed", domain.ErrVotingClosed, http.StatusConflict, response.ErrCodeInvalidState},
		{"already voted", domain.ErrAlreadyVoted, http.StatusConflict, response.ErrCodeConflict},
		{"limit reached", domain.ErrVoteLimitReached, http.StatusConflict, response.ErrCodeConflict},
		{"unknown DJ", domain.ErrDJNotFound, http.StatusNotFound, response.ErrCodeNotFound},
		{"backend down", domain.Transient("dj_votes.insert", errors.New("timeout")), http.StatusServiceUnavailable, response.ErrCodeTryAgain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockVotingService)
			var vote *domain.Vote
			if tt.err == nil {
				vote = &domain.Vote{ID: "vote-1", DJID: "dj-1", UserID: "user-1"}
			}
			svc.On("CastVote", mock.Anything, "pe", 2026, mock.MatchedBy(func(req *dto.CastVoteRequest) bool {
				return req.UserID == "user-1" && req.DJID == "dj-1"
			})).Return(vote, tt.err)

			w := do(newRouter(svc, "user-1", middleware.RoleCustomer), http.MethodPost, "/voting/pe/2026/votes", map[string]string{"dj_id": "dj-1"})
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				resp := decode(t, w)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestVotingHandler_Vote_RequiresUser(t *testing.T) {
	svc := new(MockVotingService)
	w := do(newRouter(svc, "", ""), http.MethodPost, "/voting/pe/2026/votes", map[string]string{"dj_id": "dj-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "CastVote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVotingHandler_Suggest(t *testing.T) {
	svc := new(MockVotingService)
	svc.On("SuggestDJ", mock.Anything, "pe", 2026, mock.MatchedBy(func(req *dto.SuggestDJRequest) bool {
		return req.Name == "Amelie Lens" && req.UserID == "user-1"
	})).Return(&domain.Suggestion{ID: "dj-1", Name: "Amelie Lens", NameKey: "amelie lens", SuggestedBy: "user-1"}, nil)
	r := newRouter(svc, "user-1", middleware.RoleCustomer)

	w := do(r, http.MethodPost, "/voting/pe/2026/suggestions", map[string]string{"name": "Amelie Lens"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "name_key")
	assert.NotContains(t, w.Body.String(), "suggested_by")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/voting/pe/2026/suggestions", "nope").Code)
}

func TestVotingHandler_GetRanking_AdminPreview(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		wantInclude bool
	}{
		{"public", "", false},
		{"customer", middleware.RoleCustomer, false},
		{"admin", middleware.RoleAdmin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockVotingService)
			svc.On("GetRanking", mock.Anything, "pe", 2026, tt.wantInclude).
				Return(&domain.Ranking{PeriodID: "period-1", Entries: []domain.RankingEntry{{Position: 1, DJID: "dj-1", DJName: "Amelie Lens", Votes: 3}}}, nil)

			w := do(newRouter(svc, "user-1", tt.role), http.MethodGet, "/voting/pe/2026/ranking", nil)
			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestVotingHandler_GetRanking_Unpublished(t *testing.T) {
	svc := new(MockVotingService)
	svc.On("GetRanking", mock.Anything, "pe", 2026, false).Return(nil, domain.ErrRankingUnpublished)

	w := do(newRouter(svc, "", ""), http.MethodGet, "/voting/pe/2026/ranking", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVotingHandler_ApplyAction(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		result     *domain.VotingPeriod
		err        error
		wantStatus int
	}{
		{"open voting", "open_voting", samplePeriod(domain.StateVotingOpen), nil, http.StatusOK},
		{"not allowed", "publish_ranking", nil, domain.ErrInvalidTransition, http.StatusConflict},
		{"unknown action", "reset", nil, domain.ErrUnknownAction, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockVotingService)
			svc.On("ApplyAction", mock.Anything, "pe", 2026, tt.action, "admin-1").Return(tt.result, tt.err)

			w := do(newRouter(svc, "admin-1", middleware.RoleAdmin), http.MethodPost, "/admin/voting/pe/2026/actions/"+tt.action, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestVotingHandler_CreatePeriod(t *testing.T) {
	svc := new(MockVotingService)
	svc.On("CreatePeriod", mock.Anything, mock.MatchedBy(func(req *dto.CreatePeriodRequest) bool {
		return req.Country == "pe" && req.Year == 2026 && req.ActorID == "admin-1"
	})).Return(samplePeriod(domain.StateDraft), nil)
	svc.On("CreatePeriod", mock.Anything, mock.MatchedBy(func(req *dto.CreatePeriodRequest) bool {
		return req.Country == "cl"
	})).Return(nil, domain.ErrPeriodAlreadyExists)
	r := newRouter(svc, "admin-1", middleware.RoleAdmin)

	w := do(r, http.MethodPost, "/admin/voting", map[string]interface{}{"country": "pe", "year": 2026})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)

	w = do(r, http.MethodPost, "/admin/voting", map[string]interface{}{"country": "cl", "year": 2026})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVotingHandler_MyVotes(t *testing.T) {
	svc := new(MockVotingService)
	svc.On("VoterStatus", mock.Anything, "pe", 2026, "user-1").Return(&dto.VoterStatus{DJIDs: []string{"dj-1"}, Used: 1, Remaining: 4}, nil)

	w := do(newRouter(svc, "user-1", middleware.RoleCustomer), http.MethodGet, "/voting/pe/2026/votes/my", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data dto.VoterStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Data.Remaining)
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

func TestHealthHandler_Ready(t *testing.T) {
	for name, tc := range map[string]struct {
		err  error
		want int
	}{
		"healthy":    {nil, http.StatusOK},
		"mongo down": {errors.New("no reachable servers"), http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewHealthHandler(fakeChecker{err: tc.err})
			r := gin.New()
			r.GET("/ready", h.Ready)
			assert.Equal(t, tc.want, do(r, http.MethodGet, "/ready", nil).Code)
		})
	}
}
