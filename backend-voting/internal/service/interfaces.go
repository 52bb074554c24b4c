package service

import (
	"context"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/dto"
)

// VotingService runs the DJ ranking round of each (country, year)
type VotingService interface {
	// CreatePeriod opens a draft period
	CreatePeriod(ctx context.Context, req *dto.CreatePeriodRequest) (*domain.VotingPeriod, error)
	// GetPeriod returns the period of (country, year)
	GetPeriod(ctx context.Context, country string, year int) (*domain.VotingPeriod, error)
	// ListPeriods lists the periods of a country; empty lists all
	ListPeriods(ctx context.Context, country string) ([]*domain.VotingPeriod, error)
	// ApplyAction runs one admin action of the period state machine
	ApplyAction(ctx context.Context, country string, year int, action, actorID string) (*domain.VotingPeriod, error)

	// SuggestDJ adds a DJ while suggestions are open
	SuggestDJ(ctx context.Context, country string, year int, req *dto.SuggestDJRequest) (*domain.Suggestion, error)
	// ListSuggestions returns the DJs of a period
	ListSuggestions(ctx context.Context, country string, year int) ([]*domain.Suggestion, error)

	// CastVote records one vote while voting is open
	CastVote(ctx context.Context, country string, year int, req *dto.CastVoteRequest) (*domain.Vote, error)
	// VoterStatus reports the votes a user has cast and has left
	VoterStatus(ctx context.Context, country string, year int, userID string) (*dto.VoterStatus, error)

	// GenerateRanking tallies the votes and stores the ranking snapshot
	GenerateRanking(ctx context.Context, country string, year int, actorID string) (*domain.Ranking, error)
	// PublishRanking makes the generated ranking public
	PublishRanking(ctx context.Context, country string, year int, actorID string) (*domain.VotingPeriod, error)
	// GetRanking returns the ranking; unpublished ones only when includeUnpublished
	GetRanking(ctx context.Context, country string, year int, includeUnpublished bool) (*domain.Ranking, error)
}
