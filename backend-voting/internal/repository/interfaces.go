package repository

import (
	"context"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
)

// PeriodRepository defines voting period persistence
type PeriodRepository interface {
	// Create returns ErrPeriodAlreadyExists when (country, year) is taken
	Create(ctx context.Context, period *domain.VotingPeriod) error

	// GetByKey returns ErrPeriodNotFound when no period exists for (country, year)
	GetByKey(ctx context.Context, country string, year int) (*domain.VotingPeriod, error)

	// List returns the periods of a country, newest year first. An empty country lists all.
	List(ctx context.Context, country string) ([]*domain.VotingPeriod, error)

	// ApplyChange writes change only while the period is still in one of change.From
	ApplyChange(ctx context.Context, change *domain.StateChange) error
}

// SuggestionRepository stores the DJs suggested for a period
type SuggestionRepository interface {
	// Create returns ErrDuplicateDJ when the name is already suggested
	Create(ctx context.Context, s *domain.Suggestion) error

	// GetByID returns ErrDJNotFound unless id is a suggestion of periodID
	GetByID(ctx context.Context, periodID, id string) (*domain.Suggestion, error)

	// ListByPeriod returns the suggestions of a period by name
	ListByPeriod(ctx context.Context, periodID string) ([]*domain.Suggestion, error)
}

// VoteRepository stores votes and tallies them
type VoteRepository interface {
	// Cast stores vote unless the user already voted for the DJ or has used maxVotes
	Cast(ctx context.Context, vote *domain.Vote, maxVotes int) error

	// ListByUser returns the votes of one user in a period
	ListByUser(ctx context.Context, periodID, userID string) ([]*domain.Vote, error)

	// Tally counts the votes of each DJ in a period
	Tally(ctx context.Context, periodID string) ([]domain.Tally, error)
}

// RankingRepository stores the generated ranking of each period
type RankingRepository interface {
	// Replace stores ranking, overwriting any previous unpublished one of the period.
	// It returns ErrInvalidTransition once the stored ranking has been published.
	Replace(ctx context.Context, ranking *domain.Ranking) error

	// Publish freezes the stored ranking if it is still at revision, and returns
	// ErrInvalidTransition when it was replaced in the meantime
	Publish(ctx context.Context, periodID, revision string) error

	// Get returns ErrRankingNotFound when no ranking was generated
	Get(ctx context.Context, periodID string) (*domain.Ranking, error)
}
