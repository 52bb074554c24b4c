package dto

import (
	"regexp"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	countryPattern   = regexp.MustCompile(`^[a-z]+(?:-[a-z]+)*$`)
	instagramPattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)
)

// Years a period may be opened for
const (
	MinYear = 2000
	MaxYear = 2100
)

// CreatePeriodRequest opens a new draft voting period
type CreatePeriodRequest struct {
	Country  string `json:"country"`
	Year     int    `json:"year"`
	TopCount int    `json:"top_count"`
	ActorID  string `json:"-"`
}

// Normalize lowercases the country key
func (r *CreatePeriodRequest) Normalize() {
	r.Country = domain.NormalizeCountry(r.Country)
}

func (r *CreatePeriodRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Country, validation.Required, validation.Length(2, 40), validation.Match(countryPattern)),
		validation.Field(&r.Year, validation.Required, validation.Min(MinYear), validation.Max(MaxYear)),
		validation.Field(&r.TopCount, validation.Min(0), validation.Max(100)),
	)
}

// SuggestDJRequest puts a DJ forward in an open suggestions round
type SuggestDJRequest struct {
	Name      string `json:"name"`
	Instagram string `json:"instagram"`
	UserID    string `json:"-"`
}

// Normalize trims the name and reduces the instagram field to a handle
func (r *SuggestDJRequest) Normalize() {
	r.Name = DJDisplayName(r.Name)
	r.Instagram = domain.NormalizeInstagram(r.Instagram)
}

func (r *SuggestDJRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 80)),
		validation.Field(&r.Instagram, validation.Match(instagramPattern)),
	)
}

// DJDisplayName collapses inner whitespace but keeps the casing given
func DJDisplayName(name string) string {
	out := make([]rune, 0, len(name))
	space := false
	for _, r := range name {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			space = len(out) > 0
			continue
		}
		if space {
			out = append(out, ' ')
			space = false
		}
		out = append(out, r)
	}
	return string(out)
}

// CastVoteRequest votes for one suggested DJ
type CastVoteRequest struct {
	DJID   string `json:"dj_id"`
	UserID string `json:"-"`
}

func (r *CastVoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DJID, validation.Required, validation.Length(1, 64)),
	)
}

// PeriodResponse is a voting period with the actions an admin may take next
type PeriodResponse struct {
	ID                 string   `json:"id"`
	Country            string   `json:"country"`
	Year               int      `json:"year"`
	State              string   `json:"state"`
	TopCount           int      `json:"top_count"`
	SuggestionsOpen    bool     `json:"suggestions_open"`
	VotingOpen         bool     `json:"voting_open"`
	ResultsPublished   bool     `json:"results_published"`
	AvailableActions   []string `json:"available_actions"`
	RankingGeneratedAt *string  `json:"ranking_generated_at,omitempty"`
	PublishedAt        *string  `json:"published_at,omitempty"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// NewPeriodResponse converts a period to its response
func NewPeriodResponse(p *domain.VotingPeriod) *PeriodResponse {
	available := domain.AvailableActions(p.State)
	actions := make([]string, len(available))
	for i, a := range available {
		actions[i] = a.String()
	}
	resp := &PeriodResponse{
		ID:               p.ID,
		Country:          p.Country,
		Year:             p.Year,
		State:            string(p.State),
		TopCount:         p.TopCount,
		SuggestionsOpen:  p.AcceptsSuggestions(),
		VotingOpen:       p.AcceptsVotes(),
		ResultsPublished: p.State == domain.StatePublished,
		AvailableActions: actions,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
	if p.RankingGeneratedAt != nil {
		at := p.RankingGeneratedAt.Format(time.RFC3339)
		resp.RankingGeneratedAt = &at
	}
	if p.PublishedAt != nil {
		at := p.PublishedAt.Format(time.RFC3339)
		resp.PublishedAt = &at
	}
	return resp
}

// VoterStatus tells a user how many votes they have left
type VoterStatus struct {
	DJIDs     []string `json:"dj_ids"`
	Used      int      `json:"used"`
	Remaining int      `json:"remaining"`
}
