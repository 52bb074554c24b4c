package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type votingFixture struct {
	svc         VotingService
	periods     *MockPeriodRepository
	suggestions *MockSuggestionRepository
	votes       *MockVoteRepository
	rankings    *MockRankingRepository
	pub         *MockEventPublisher
}

func newVotingFixture(t *testing.T, maxVotes int) *votingFixture {
	t.Helper()
	f := &votingFixture{
		periods:     NewMockPeriodRepository(),
		suggestions: &MockSuggestionRepository{},
		votes:       &MockVoteRepository{},
		rankings:    NewMockRankingRepository(),
		pub:         &MockEventPublisher{},
	}
	f.svc = NewVotingService(VotingServiceDeps{
		Periods:     f.periods,
		Suggestions: f.suggestions,
		Votes:       f.votes,
		Rankings:    f.rankings,
		Publisher:   f.pub,
		Config:      VotingServiceConfig{MaxVotesPerUser: maxVotes, DefaultTopCount: 3},
	})

	// Every call to now advances one minute so votes have distinct times
	var tick atomic.Int64
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	f.svc.(*votingService).now = func() time.Time {
		return base.Add(time.Duration(tick.Add(1)) * time.Minute)
	}
	return f
}

// period creates pe/2026 and applies actions in order
func (f *votingFixture) period(t *testing.T, actions ...domain.Action) *domain.VotingPeriod {
	t.Helper()
	p, err := f.svc.CreatePeriod(context.Background(), &dto.CreatePeriodRequest{Country: "PE", Year: 2026, ActorID: "admin-1"})
	require.NoError(t, err)
	for _, a := range actions {
		p, err = f.svc.ApplyAction(context.Background(), "pe", 2026, a.String(), "admin-1")
		require.NoError(t, err)
	}
	return p
}

func (f *votingFixture) suggest(t *testing.T, names ...string) []string {
	t.Helper()
	ids := make([]string, len(names))
	for i, name := range names {
		s, err := f.svc.SuggestDJ(context.Background(), "pe", 2026, &dto.SuggestDJRequest{Name: name, UserID: "fan-0"})
		require.NoError(t, err)
		ids[i] = s.ID
	}
	return ids
}

func (f *votingFixture) vote(userID, djID string) error {
	_, err := f.svc.CastVote(context.Background(), "pe", 2026, &dto.CastVoteRequest{DJID: djID, UserID: userID})
	return err
}

func TestVotingService_CreatePeriod(t *testing.T) {
	f := newVotingFixture(t, 5)

	p := f.period(t)
	assert.Equal(t, "pe", p.Country)
	assert.Equal(t, domain.StateDraft, p.State)
	assert.Equal(t, 3, p.TopCount, "the configured default applies")
	assert.NotEmpty(t, p.ID)

	_, err := f.svc.CreatePeriod(context.Background(), &dto.CreatePeriodRequest{Country: "pe", Year: 2026})
	assert.ErrorIs(t, err, domain.ErrPeriodAlreadyExists)

	_, err = f.svc.CreatePeriod(context.Background(), &dto.CreatePeriodRequest{Country: "pe", Year: 1990})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestVotingService_FullRound(t *testing.T) {
	f := newVotingFixture(t, 2)
	ctx := context.Background()

	f.period(t, domain.ActionOpenSuggestions)
	ids := f.suggest(t, "Amelie Lens", "Charlotte de Witte", "Boris Brejcha")

	_, err := f.svc.SuggestDJ(ctx, "pe", 2026, &dto.SuggestDJRequest{Name: "  amelie LENS "})
	assert.ErrorIs(t, err, domain.ErrDuplicateDJ)

	_, err = f.svc.ApplyAction(ctx, "pe", 2026, "open_voting", "admin-1")
	require.NoError(t, err)

	_, err = f.svc.SuggestDJ(ctx, "pe", 2026, &dto.SuggestDJRequest{Name: "Late Entry"})
	assert.ErrorIs(t, err, domain.ErrSuggestionsClosed)

	require.NoError(t, f.vote("fan-1", ids[1]))
	require.NoError(t, f.vote("fan-1", ids[0]))
	require.NoError(t, f.vote("fan-2", ids[0]))
	require.NoError(t, f.vote("fan-2", ids[1]))
	require.NoError(t, f.vote("fan-3", ids[2]))

	_, err = f.svc.GenerateRanking(ctx, "pe", 2026, "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "the ranking waits for voting to close")

	_, err = f.svc.ApplyAction(ctx, "pe", 2026, "close_voting", "admin-1")
	require.NoError(t, err)

	p, err := f.svc.ApplyAction(ctx, "pe", 2026, "generate_ranking", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateRankingGenerated, p.State)
	require.NotNil(t, p.RankingGeneratedAt)

	ranking, err := f.svc.GetRanking(ctx, "pe", 2026, true)
	require.NoError(t, err)
	require.Len(t, ranking.Entries, 3)
	// Charlotte and Amelie both have 2 votes; Charlotte was voted first
	assert.Equal(t, "Charlotte de Witte", ranking.Entries[0].DJName)
	assert.Equal(t, "Amelie Lens", ranking.Entries[1].DJName)
	assert.Equal(t, 1, ranking.Entries[2].Votes)
	assert.Equal(t, 5, ranking.TotalVotes)

	_, err = f.svc.GetRanking(ctx, "pe", 2026, false)
	assert.ErrorIs(t, err, domain.ErrRankingUnpublished)

	p, err = f.svc.ApplyAction(ctx, "pe", 2026, "publish_ranking", "admin-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePublished, p.State)
	assert.Equal(t, "admin-2", p.UpdatedBy)
	require.NotNil(t, p.PublishedAt)

	require.Len(t, f.pub.published, 1)
	assert.Equal(t, p.ID, f.pub.published[0].PeriodID)
	assert.Len(t, f.pub.published[0].Entries, 3)

	public, err := f.svc.GetRanking(ctx, "pe", 2026, false)
	require.NoError(t, err)
	assert.Equal(t, ranking.Entries, public.Entries)

	for _, a := range []string{"open_suggestions", "open_voting", "generate_ranking", "publish_ranking"} {
		_, err := f.svc.ApplyAction(ctx, "pe", 2026, a, "admin-1")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "published is terminal: %s", a)
	}
	assert.Equal(t, 1, f.rankings.replaces)
}

func TestVotingService_CastVote_Rules(t *testing.T) {
	f := newVotingFixture(t, 2)
	f.period(t, domain.ActionOpenSuggestions)
	ids := f.suggest(t, "Alpha", "Beta", "Gamma")

	assert.ErrorIs(t, f.vote("fan-1", ids[0]), domain.ErrVotingClosed)

	_, err := f.svc.ApplyAction(context.Background(), "pe", 2026, "open_voting", "admin-1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  string
		djID    string
		wantErr error
	}{
		{"first vote", "fan-1", ids[0], nil},
		{"same DJ again", "fan-1", ids[0], domain.ErrAlreadyVoted},
		{"second DJ", "fan-1", ids[1], nil},
		{"over the limit", "fan-1", ids[2], domain.ErrVoteLimitReached},
		{"other user same DJ", "fan-2", ids[0], nil},
		{"unknown DJ", "fan-2", "not-a-dj", domain.ErrDJNotFound},
		{"missing DJ", "fan-2", "", domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.vote(tt.userID, tt.djID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	status, err := f.svc.VoterStatus(context.Background(), "pe", 2026, "fan-1")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Used)
	assert.Equal(t, 0, status.Remaining)
	assert.ElementsMatch(t, []string{ids[0], ids[1]}, status.DJIDs)

	status, err = f.svc.VoterStatus(context.Background(), "pe", 2026, "fan-9")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Remaining)
	assert.NotNil(t, status.DJIDs)
}

func TestVotingService_CastVote_ConcurrentVotesRespectLimit(t *testing.T) {
	f := newVotingFixture(t, 3)
	f.period(t, domain.ActionOpenSuggestions)
	ids := f.suggest(t, "A1", "A2", "A3", "A4", "A5", "A6")
	_, err := f.svc.ApplyAction(context.Background(), "pe", 2026, "open_voting", "admin-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var accepted atomic.Int64
	for _, id := range ids {
		wg.Add(1)
		go func(djID string) {
			defer wg.Done()
			if f.vote("fan-1", djID) == nil {
				accepted.Add(1)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int64(3), accepted.Load())
}

func TestVotingService_ApplyAction_Errors(t *testing.T) {
	f := newVotingFixture(t, 5)
	f.period(t)

	_, err := f.svc.ApplyAction(context.Background(), "pe", 2026, "reset", "admin-1")
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	_, err = f.svc.ApplyAction(context.Background(), "pe", 2026, "publish_ranking", "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "draft has no ranking to publish")

	_, err = f.svc.ApplyAction(context.Background(), "cl", 2026, "open_voting", "admin-1")
	assert.ErrorIs(t, err, domain.ErrPeriodNotFound)
}

func TestVotingService_ApplyAction_LostRace(t *testing.T) {
	f := newVotingFixture(t, 5)
	p := f.period(t)

	// Another admin opens voting right after this request read the period
	f.periods.afterGet = func() { f.periods.SetState(p.ID, domain.StateVotingOpen) }

	_, err := f.svc.ApplyAction(context.Background(), "pe", 2026, "open_suggestions", "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StateVotingOpen, f.periods.State(p.ID))
}

func TestVotingService_GenerateRanking_BackendFailure(t *testing.T) {
	f := newVotingFixture(t, 5)
	p := f.period(t)
	f.votes.tallyErr = domain.Transient("dj_votes.aggregate", errBackend)

	_, err := f.svc.GenerateRanking(context.Background(), "pe", 2026, "admin-1")
	assert.True(t, domain.IsTransientError(err))
	assert.Equal(t, domain.StateDraft, f.periods.State(p.ID), "state does not move without a snapshot")
	assert.Equal(t, 0, f.rankings.replaces)
}

func TestVotingService_GenerateRanking_Regenerate(t *testing.T) {
	f := newVotingFixture(t, 5)
	f.period(t, domain.ActionOpenSuggestions)
	ids := f.suggest(t, "Solo")
	_, err := f.svc.ApplyAction(context.Background(), "pe", 2026, "open_voting", "admin-1")
	require.NoError(t, err)
	require.NoError(t, f.vote("fan-1", ids[0]))
	_, err = f.svc.ApplyAction(context.Background(), "pe", 2026, "close_voting", "admin-1")
	require.NoError(t, err)

	first, err := f.svc.GenerateRanking(context.Background(), "pe", 2026, "admin-1")
	require.NoError(t, err)
	second, err := f.svc.GenerateRanking(context.Background(), "pe", 2026, "admin-2")
	require.NoError(t, err)

	assert.True(t, second.GeneratedAt.After(first.GeneratedAt))
	assert.Equal(t, "admin-2", second.GeneratedBy)
	assert.Equal(t, 2, f.rankings.replaces)
}

func TestVotingService_PublishRanking_PublishFailureKeepsState(t *testing.T) {
	f := newVotingFixture(t, 5)
	p := f.period(t, domain.ActionGenerateRanking)
	f.pub.pubErr = errors.New("broker unavailable")

	got, err := f.svc.PublishRanking(context.Background(), "pe", 2026, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePublished, got.State)
	assert.Equal(t, domain.StatePublished, f.periods.State(p.ID))
}

func TestVotingService_PublishRanking_MissingSnapshot(t *testing.T) {
	f := newVotingFixture(t, 5)
	p := f.period(t)
	f.periods.SetState(p.ID, domain.StateRankingGenerated)

	_, err := f.svc.PublishRanking(context.Background(), "pe", 2026, "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StateRankingGenerated, f.periods.State(p.ID))
}

func TestKafkaEventPublisher_PublishRankingPublished(t *testing.T) {
	producer := &MockProducer{}
	pub := NewKafkaEventPublisher(producer, "")

	event := &domain.RankingPublishedEvent{PeriodID: "period-1", Country: "pe", Year: 2026}
	require.NoError(t, pub.PublishRankingPublished(context.Background(), event))

	assert.Equal(t, TopicRankingPublished, producer.topic)
	assert.Equal(t, "period-1", producer.key)
	assert.Equal(t, event, producer.value)
	assert.Equal(t, "voting-service", producer.headers["source"])
	assert.Equal(t, TopicRankingPublished, producer.headers["event_type"])
	assert.NotEmpty(t, producer.headers["event_id"])
}

func TestVotingService_GenerateRanking_AfterConcurrentPublishKeepsSnapshot(t *testing.T) {
	f := newVotingFixture(t, 5)
	ctx := context.Background()
	p := f.period(t, domain.ActionGenerateRanking)
	published := f.rankings.Stored(p.ID)

	// Another admin publishes right after this request read the period
	f.periods.afterGet = func() {
		_, err := f.svc.PublishRanking(ctx, "pe", 2026, "admin-1")
		require.NoError(t, err)
	}

	_, err := f.svc.GenerateRanking(ctx, "pe", 2026, "admin-2")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored := f.rankings.Stored(p.ID)
	assert.Equal(t, published.Revision, stored.Revision, "a published ranking is never replaced")
	assert.Equal(t, published.GeneratedAt, stored.GeneratedAt)
	assert.True(t, stored.Published)
	assert.Equal(t, domain.StatePublished, f.periods.State(p.ID))

	require.Len(t, f.pub.published, 1)
	assert.Equal(t, stored.Revision, f.pub.published[0].Revision)
}

func TestVotingService_GenerateRanking_PublishedStateOnly(t *testing.T) {
	f := newVotingFixture(t, 5)
	p := f.period(t, domain.ActionGenerateRanking)
	before := f.rankings.Stored(p.ID)

	// The state moved to published between the read and the write
	f.periods.afterGet = func() { f.periods.SetState(p.ID, domain.StatePublished) }

	_, err := f.svc.GenerateRanking(context.Background(), "pe", 2026, "admin-2")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, before.Revision, f.rankings.Stored(p.ID).Revision)
	assert.Equal(t, "admin-1", f.rankings.Stored(p.ID).GeneratedBy)
}

func TestVotingService_PublishRanking_SnapshotReplacedAfterRead(t *testing.T) {
	f := newVotingFixture(t, 5)
	ctx := context.Background()
	p := f.period(t, domain.ActionGenerateRanking)

	// Another admin regenerates right after this request read the snapshot
	f.rankings.afterGet = func() {
		_, err := f.svc.GenerateRanking(ctx, "pe", 2026, "admin-2")
		require.NoError(t, err)
	}

	_, err := f.svc.PublishRanking(ctx, "pe", 2026, "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StateRankingGenerated, f.periods.State(p.ID))
	assert.False(t, f.rankings.Stored(p.ID).Published)
	assert.Empty(t, f.pub.published)

	// The regenerated snapshot can still be published
	got, err := f.svc.PublishRanking(ctx, "pe", 2026, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePublished, got.State)
	require.Len(t, f.pub.published, 1)
	assert.Equal(t, "admin-2", f.rankings.Stored(p.ID).GeneratedBy)
	assert.Equal(t, f.rankings.Stored(p.ID).Revision, f.pub.published[0].Revision)
}
