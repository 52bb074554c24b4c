package handler

import (
	"net/http"
	"strconv"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

// VotingHandler handles the DJ ranking endpoints
type VotingHandler struct {
	votingService service.VotingService
}

// NewVotingHandler creates a new VotingHandler
func NewVotingHandler(votingService service.VotingService) *VotingHandler {
	return &VotingHandler{votingService: votingService}
}

// periodKey reads :country and :year, writing a 400 when the year is not a number
func periodKey(c *gin.Context) (string, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Year must be a number"))
		return "", 0, false
	}
	return c.Param("country"), year, true
}

// ListPeriods handles GET /voting?country=
func (h *VotingHandler) ListPeriods(c *gin.Context) {
	periods, err := h.votingService.ListPeriods(c.Request.Context(), c.Query("country"))
	if err != nil {
		respondError(c, err, "Failed to list voting periods")
		return
	}

	out := make([]*dto.PeriodResponse, len(periods))
	for i, p := range periods {
		out[i] = dto.NewPeriodResponse(p)
	}
	c.JSON(http.StatusOK, response.Success(out))
}

// GetPeriod handles GET /voting/:country/:year
func (h *VotingHandler) GetPeriod(c *gin.Context) {
	country, year, ok := periodKey(c)
	if !ok {
		return
	}

	period, err := h.votingService.GetPeriod(c.Request.Context(), country, year)
	if err != nil {
		respondError(c, err, "Failed to get voting period")
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.NewPeriodResponse(period)))
}

// ListSuggestions handles GET /voting/:country/:year/suggestions
func (h *VotingHandler) ListSuggestions(c *gin.Context) {
	country, year, ok := periodKey(c)
	if !ok {
		return
	}

	suggestions, err := h.votingService.ListSuggestions(c.Request.Context(), country, year)
	if err != nil {
		respondError(c, err, "Failed to list suggestions")
		return
	}
	c.JSON(http.StatusOK, response.Success(suggestions))
}

// Suggest handles POST /voting/:country/:year/suggestions
func (h *VotingHandler) Suggest(c *gin.Context) {
	country, year, ok := periodKey(c)
	if !ok {
		return
	}

	var req dto.SuggestDJRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	req.UserID, _ = middleware.GetUserID(c)

	suggestion, err := h.votingService.SuggestDJ(c.Request.Context(), country, year, &req)
	if err != nil {
		respondError(c, err, "Failed to suggest DJ")
		return
	}
	c.JSON(http.StatusCreated, response.Success(suggestion))
}

// Vote handles POST /voting/:country/:year/votes
func (h *VotingHandler) Vote(c *gin.Context) {
	country, year, ok := periodKey(c)
	if !ok {
		return
	}

	var req dto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}
	req.UserID = userID

	vote, err := h.votingService.CastVote(c.Request.Context(), country, year, &req)
	if err != nil {
		respondError(c, err, "Failed to cast vote")
		return
	}
	c.JSON(http.StatusCreated, response.Success(vote))
}

// MyVotes handles GET /voting/:country/:year/votes/my
func (h *VotingHandler) MyVotes(c *gin.Context) {
	country, year, ok := periodKey(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}

	status, err := h.votingService.VoterStatus(c.Request.Context(), country, year, userID)
	if err != nil {
		respondError(c, err, "Failed to get votes")
		return
	}
	c.JSON(http.StatusOK, response.Success(status))
}

// GetRanking handles GET /voting/:country/:year/ranking.
// Admins can preview a generated ranking before it is published.
func (h *VotingHandler) GetRanking(c *gin.Context) {
	country, year, ok := periodKey(c)
	if !ok {
		return
	}

	ranking, err := h.votingService.GetRanking(c.Request.Context(), country, year, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err, "Failed to get ranking")
		return
	}
	c.JSON(http.StatusOK, response.Success(ranking))
}

// CreatePeriod handles POST /admin/voting
func (h *VotingHandler) CreatePeriod(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	req.ActorID, _ = middleware.GetUserID(c)

	period, err := h.votingService.CreatePeriod(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create voting period")
		return
	}
	c.JSON(http.StatusCreated, response.Success(dto.NewPeriodResponse(period)))
}

// ApplyAction handles POST /admin/voting/:country/:year/actions/:action
func (h *VotingHandler) ApplyAction(c *gin.Context) {
	country, year, ok := periodKey(c)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(c)

	period, err := h.votingService.ApplyAction(c.Request.Context(), country, year, c.Param("action"), actorID)
	if err != nil {
		respondError(c, err, "Failed to apply action")
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.NewPeriodResponse(period)))
}
