package domain

import "time"

// RankingPublishedEvent is published once a ranking becomes public
type RankingPublishedEvent struct {
	PeriodID    string         `json:"period_id"`
	Country     string         `json:"country"`
	Year        int            `json:"year"`
	Entries     []RankingEntry `json:"entries"`
	Revision    string         `json:"revision,omitempty"`
	PublishedBy string         `json:"published_by,omitempty"`
	PublishedAt time.Time      `json:"published_at"`
}

// NewRankingPublishedEvent builds the event for a published period
func NewRankingPublishedEvent(p *VotingPeriod, r *Ranking) *RankingPublishedEvent {
	e := &RankingPublishedEvent{
		PeriodID:    p.ID,
		Country:     p.Country,
		Year:        p.Year,
		PublishedBy: p.UpdatedBy,
		PublishedAt: p.UpdatedAt,
	}
	if p.PublishedAt != nil {
		e.PublishedAt = *p.PublishedAt
	}
	if r != nil {
		e.Entries = r.Entries
		e.Revision = r.Revision
	}
	return e
}
