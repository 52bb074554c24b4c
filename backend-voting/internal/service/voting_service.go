package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultMaxVotesPerUser applies when the config leaves the limit unset
const DefaultMaxVotesPerUser = 5

// VotingServiceConfig holds the voting rules
type VotingServiceConfig struct {
	MaxVotesPerUser int
	DefaultTopCount int
}

// VotingServiceDeps groups the collaborators of the voting service
type VotingServiceDeps struct {
	Periods     repository.PeriodRepository
	Suggestions repository.SuggestionRepository
	Votes       repository.VoteRepository
	Rankings    repository.RankingRepository
	Publisher   EventPublisher
	Config      VotingServiceConfig
}

type votingService struct {
	periods     repository.PeriodRepository
	suggestions repository.SuggestionRepository
	votes       repository.VoteRepository
	rankings    repository.RankingRepository
	publisher   EventPublisher
	config      VotingServiceConfig
	now         func() time.Time
}

// NewVotingService creates a new VotingService
func NewVotingService(deps VotingServiceDeps) VotingService {
	if deps.Publisher == nil {
		deps.Publisher = NewNoOpEventPublisher()
	}
	if deps.Config.MaxVotesPerUser <= 0 {
		deps.Config.MaxVotesPerUser = DefaultMaxVotesPerUser
	}
	if deps.Config.DefaultTopCount <= 0 {
		deps.Config.DefaultTopCount = domain.DefaultTopCount
	}
	return &votingService{
		periods:     deps.Periods,
		suggestions: deps.Suggestions,
		votes:       deps.Votes,
		rankings:    deps.Rankings,
		publisher:   deps.Publisher,
		config:      deps.Config,
		now:         time.Now,
	}
}

func (s *votingService) CreatePeriod(ctx context.Context, req *dto.CreatePeriodRequest) (*domain.VotingPeriod, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.voting.create_period")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error())
	}

	topCount := req.TopCount
	if topCount == 0 {
		topCount = s.config.DefaultTopCount
	}

	now := s.now().UTC()
	period := &domain.VotingPeriod{
		ID:        uuid.New().String(),
		Country:   req.Country,
		Year:      req.Year,
		State:     domain.StateDraft,
		TopCount:  topCount,
		CreatedAt: now,
		UpdatedAt: now,
		UpdatedBy: req.ActorID,
	}
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, err
	}

	logger.Get().InfoContext(ctx, "voting period created",
		zap.String("period_id", period.ID),
		zap.String("country", period.Country),
		zap.Int("year", period.Year),
	)
	return period, nil
}

func (s *votingService) GetPeriod(ctx context.Context, country string, year int) (*domain.VotingPeriod, error) {
	return s.periods.GetByKey(ctx, domain.NormalizeCountry(country), year)
}

func (s *votingService) ListPeriods(ctx context.Context, country string) ([]*domain.VotingPeriod, error) {
	return s.periods.List(ctx, domain.NormalizeCountry(country))
}

func (s *votingService) ApplyAction(ctx context.Context, country string, year int, action, actorID string) (*domain.VotingPeriod, error) {
	a, err := domain.ParseAction(action)
	if err != nil {
		return nil, err
	}

	switch a {
	case domain.ActionGenerateRanking:
		period, _, err := s.generate(ctx, country, year, actorID)
		return period, err
	case domain.ActionPublishRanking:
		return s.PublishRanking(ctx, country, year, actorID)
	}

	ctx, span := telemetry.StartSpan(ctx, "service.voting.apply_action")
	defer span.End()

	span.SetAttributes(attribute.String("action", a.String()))

	period, err := s.GetPeriod(ctx, country, year)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, period, a, actorID); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	return period, nil
}

// transition writes action a with compare-and-set and applies it to period
func (s *votingService) transition(ctx context.Context, period *domain.VotingPeriod, a domain.Action, actorID string) error {
	from := period.State
	change, err := period.PlanAction(a, actorID, s.now().UTC())
	if err != nil {
		return err
	}
	if err := s.periods.ApplyChange(ctx, change); err != nil {
		return err
	}
	period.Apply(change)

	logger.Get().InfoContext(ctx, "voting period state changed",
		zap.String("period_id", period.ID),
		zap.String("action", a.String()),
		zap.String("from", string(from)),
		zap.String("to", string(period.State)),
		zap.String("actor_id", actorID),
	)
	return nil
}

func (s *votingService) SuggestDJ(ctx context.Context, country string, year int, req *dto.SuggestDJRequest) (*domain.Suggestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.voting.suggest_dj")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error())
	}

	period, err := s.GetPeriod(ctx, country, year)
	if err != nil {
		return nil, err
	}
	if !period.AcceptsSuggestions() {
		return nil, domain.ErrSuggestionsClosed
	}

	suggestion := &domain.Suggestion{
		ID:          uuid.New().String(),
		PeriodID:    period.ID,
		Name:        req.Name,
		NameKey:     domain.DJNameKey(req.Name),
		Instagram:   req.Instagram,
		SuggestedBy: req.UserID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, err
	}
	return suggestion, nil
}

func (s *votingService) ListSuggestions(ctx context.Context, country string, year int) ([]*domain.Suggestion, error) {
	period, err := s.GetPeriod(ctx, country, year)
	if err != nil {
		return nil, err
	}
	return s.suggestions.ListByPeriod(ctx, period.ID)
}

func (s *votingService) CastVote(ctx context.Context, country string, year int, req *dto.CastVoteRequest) (*domain.Vote, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.voting.cast_vote")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error())
	}

	period, err := s.GetPeriod(ctx, country, year)
	if err != nil {
		return nil, err
	}
	if !period.AcceptsVotes() {
		return nil, domain.ErrVotingClosed
	}
	if _, err := s.suggestions.GetByID(ctx, period.ID, req.DJID); err != nil {
		return nil, err
	}

	vote := &domain.Vote{
		ID:        uuid.New().String(),
		PeriodID:  period.ID,
		UserID:    req.UserID,
		DJID:      req.DJID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.votes.Cast(ctx, vote, s.config.MaxVotesPerUser); err != nil {
		return nil, err
	}
	return vote, nil
}

func (s *votingService) VoterStatus(ctx context.Context, country string, year int, userID string) (*dto.VoterStatus, error) {
	period, err := s.GetPeriod(ctx, country, year)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.ListByUser(ctx, period.ID, userID)
	if err != nil {
		return nil, err
	}

	status := &dto.VoterStatus{DJIDs: make([]string, len(votes)), Used: len(votes)}
	for i, v := range votes {
		status.DJIDs[i] = v.DJID
	}
	if remaining := s.config.MaxVotesPerUser - len(votes); remaining > 0 {
		status.Remaining = remaining
	}
	return status, nil
}

func (s *votingService) GenerateRanking(ctx context.Context, country string, year int, actorID string) (*domain.Ranking, error) {
	_, ranking, err := s.generate(ctx, country, year, actorID)
	return ranking, err
}

// generate moves the state before storing the snapshot, so a period published in
// the meantime fails the compare-and-set and its ranking is left alone. Replace
// also refuses a published snapshot.
func (s *votingService) generate(ctx context.Context, country string, year int, actorID string) (*domain.VotingPeriod, *domain.Ranking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.voting.generate_ranking")
	defer span.End()

	period, err := s.GetPeriod(ctx, country, year)
	if err != nil {
		return nil, nil, err
	}
	if !domain.ActionGenerateRanking.Allows(period.State) {
		return nil, nil, domain.ErrInvalidTransition
	}

	tallies, err := s.votes.Tally(ctx, period.ID)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, nil, err
	}
	suggestions, err := s.suggestions.ListByPeriod(ctx, period.ID)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, nil, err
	}
	names := make(map[string]string, len(suggestions))
	for _, sg := range suggestions {
		names[sg.ID] = sg.Name
	}

	ranking := domain.BuildRanking(period, tallies, names, actorID, s.now().UTC())
	ranking.Revision = uuid.New().String()
	if err := s.transition(ctx, period, domain.ActionGenerateRanking, actorID); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, nil, err
	}
	if err := s.rankings.Replace(ctx, ranking); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("entries", len(ranking.Entries)), attribute.Int("total_votes", ranking.TotalVotes))
	return period, ranking, nil
}

func (s *votingService) PublishRanking(ctx context.Context, country string, year int, actorID string) (*domain.VotingPeriod, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.voting.publish_ranking")
	defer span.End()

	period, err := s.GetPeriod(ctx, country, year)
	if err != nil {
		return nil, err
	}
	if !domain.ActionPublishRanking.Allows(period.State) {
		return nil, domain.ErrInvalidTransition
	}

	ranking, err := s.rankings.Get(ctx, period.ID)
	if errors.Is(err, domain.ErrRankingNotFound) {
		return nil, fmt.Errorf("%w: no ranking has been generated", domain.ErrInvalidTransition)
	}
	if err != nil {
		return nil, err
	}

	// A generate that replaced the snapshot after it was read makes this fail
	if err := s.rankings.Publish(ctx, period.ID, ranking.Revision); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	ranking.Published = true

	if err := s.transition(ctx, period, domain.ActionPublishRanking, actorID); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	if err := s.publisher.PublishRankingPublished(ctx, domain.NewRankingPublishedEvent(period, ranking)); err != nil {
		logger.Get().WarnContext(ctx, "failed to publish ranking", zap.String("period_id", period.ID), zap.Error(err))
	}
	return period, nil
}

func (s *votingService) GetRanking(ctx context.Context, country string, year int, includeUnpublished bool) (*domain.Ranking, error) {
	period, err := s.GetPeriod(ctx, country, year)
	if err != nil {
		return nil, err
	}
	if period.State != domain.StatePublished && !includeUnpublished {
		return nil, domain.ErrRankingUnpublished
	}
	return s.rankings.Get(ctx, period.ID)
}
