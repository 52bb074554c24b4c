package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/repository"
)

var errBackend = errors.New("connection reset by peer")

// MockPeriodRepository keeps periods in memory and hands out copies, so a
// stale copy loses a compare-and-set like it would against MongoDB
type MockPeriodRepository struct {
	mu       sync.Mutex
	periods  map[string]*domain.VotingPeriod
	applyErr error
	// afterGet runs once after the next read, to simulate a concurrent writer
	afterGet func()
}

func NewMockPeriodRepository() *MockPeriodRepository {
	return &MockPeriodRepository{periods: make(map[string]*domain.VotingPeriod)}
}

func (m *MockPeriodRepository) Create(ctx context.Context, p *domain.VotingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.periods {
		if existing.Country == p.Country && existing.Year == p.Year {
			return domain.ErrPeriodAlreadyExists
		}
	}
	cp := *p
	m.periods[p.ID] = &cp
	return nil
}

func (m *MockPeriodRepository) GetByKey(ctx context.Context, country string, year int) (*domain.VotingPeriod, error) {
	m.mu.Lock()
	var found *domain.VotingPeriod
	for _, p := range m.periods {
		if p.Country == country && p.Year == year {
			cp := *p
			found = &cp
		}
	}
	hook := m.afterGet
	m.afterGet = nil
	m.mu.Unlock()

	if found == nil {
		return nil, domain.ErrPeriodNotFound
	}
	if hook != nil {
		hook()
	}
	return found, nil
}

func (m *MockPeriodRepository) List(ctx context.Context, country string) ([]*domain.VotingPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.VotingPeriod{}
	for _, p := range m.periods {
		if country == "" || p.Country == country {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (m *MockPeriodRepository) ApplyChange(ctx context.Context, change *domain.StateChange) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[change.PeriodID]
	if !ok {
		return domain.ErrPeriodNotFound
	}
	for _, from := range change.From {
		if p.State == from {
			p.Apply(change)
			return nil
		}
	}
	return domain.ErrInvalidTransition
}

// SetState forces the stored state, as a concurrent admin would
func (m *MockPeriodRepository) SetState(id string, state domain.PeriodState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[id].State = state
}

func (m *MockPeriodRepository) State(id string) domain.PeriodState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.periods[id].State
}

// MockSuggestionRepository keeps suggestions in memory
type MockSuggestionRepository struct {
	mu          sync.Mutex
	suggestions []*domain.Suggestion
}

func (m *MockSuggestionRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.suggestions {
		if existing.PeriodID == s.PeriodID && existing.NameKey == s.NameKey {
			return domain.ErrDuplicateDJ
		}
	}
	m.suggestions = append(m.suggestions, s)
	return nil
}

func (m *MockSuggestionRepository) GetByID(ctx context.Context, periodID, id string) (*domain.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.suggestions {
		if s.PeriodID == periodID && s.ID == id {
			return s, nil
		}
	}
	return nil, domain.ErrDJNotFound
}

func (m *MockSuggestionRepository) ListByPeriod(ctx context.Context, periodID string) ([]*domain.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Suggestion{}
	for _, s := range m.suggestions {
		if s.PeriodID == periodID {
			out = append(out, s)
		}
	}
	return out, nil
}

// MockVoteRepository enforces the same uniqueness and quota rules as MongoDB
type MockVoteRepository struct {
	mu       sync.Mutex
	votes    []*domain.Vote
	tallyErr error
}

func (m *MockVoteRepository) Cast(ctx context.Context, vote *domain.Vote, maxVotes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	used := 0
	for _, v := range m.votes {
		if v.PeriodID != vote.PeriodID || v.UserID != vote.UserID {
			continue
		}
		if v.DJID == vote.DJID {
			return domain.ErrAlreadyVoted
		}
		used++
	}
	if used >= maxVotes {
		return domain.ErrVoteLimitReached
	}
	m.votes = append(m.votes, vote)
	return nil
}

func (m *MockVoteRepository) ListByUser(ctx context.Context, periodID, userID string) ([]*domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Vote{}
	for _, v := range m.votes {
		if v.PeriodID == periodID && v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MockVoteRepository) Tally(ctx context.Context, periodID string) ([]domain.Tally, error) {
	if m.tallyErr != nil {
		return nil, m.tallyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byDJ := map[string]*domain.Tally{}
	out := []domain.Tally{}
	for _, v := range m.votes {
		if v.PeriodID != periodID {
			continue
		}
		t, ok := byDJ[v.DJID]
		if !ok {
			t = &domain.Tally{DJID: v.DJID, FirstVote: v.CreatedAt}
			byDJ[v.DJID] = t
		}
		t.Votes++
		if v.CreatedAt.Before(t.FirstVote) {
			t.FirstVote = v.CreatedAt
		}
	}
	for _, t := range byDJ {
		out = append(out, *t)
	}
	return out, nil
}

// MockRankingRepository keeps one ranking per period and, like MongoDB, refuses
// to replace a published one
type MockRankingRepository struct {
	mu       sync.Mutex
	rankings map[string]*domain.Ranking
	replaces int
	// afterGet runs once after the next read, to simulate a concurrent writer
	afterGet func()
}

func NewMockRankingRepository() *MockRankingRepository {
	return &MockRankingRepository{rankings: make(map[string]*domain.Ranking)}
}

func (m *MockRankingRepository) Replace(ctx context.Context, r *domain.Ranking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.rankings[r.PeriodID]; ok && existing.Published {
		return domain.ErrInvalidTransition
	}
	cp := *r
	cp.Published = false
	m.rankings[r.PeriodID] = &cp
	m.replaces++
	return nil
}

func (m *MockRankingRepository) Publish(ctx context.Context, periodID, revision string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rankings[periodID]
	if !ok || r.Revision != revision {
		return domain.ErrInvalidTransition
	}
	r.Published = true
	return nil
}

func (m *MockRankingRepository) Get(ctx context.Context, periodID string) (*domain.Ranking, error) {
	m.mu.Lock()
	var found *domain.Ranking
	if r, ok := m.rankings[periodID]; ok {
		cp := *r
		found = &cp
	}
	hook := m.afterGet
	m.afterGet = nil
	m.mu.Unlock()

	if found == nil {
		return nil, domain.ErrRankingNotFound
	}
	if hook != nil {
		hook()
	}
	return found, nil
}

// Stored returns a copy of the stored ranking of a period
func (m *MockRankingRepository) Stored(periodID string) domain.Ranking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rankings[periodID]
}

// MockEventPublisher records published rankings
type MockEventPublisher struct {
	mu        sync.Mutex
	published []*domain.RankingPublishedEvent
	pubErr    error
}

func (m *MockEventPublisher) PublishRankingPublished(ctx context.Context, event *domain.RankingPublishedEvent) error {
	if m.pubErr != nil {
		return m.pubErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return nil
}

// MockProducer captures what the Kafka publisher sends
type MockProducer struct {
	topic   string
	key     string
	value   interface{}
	headers map[string]string
}

func (m *MockProducer) ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error {
	m.topic, m.key, m.value, m.headers = topic, key, value, headers
	return nil
}

var (
	_ repository.PeriodRepository     = (*MockPeriodRepository)(nil)
	_ repository.SuggestionRepository = (*MockSuggestionRepository)(nil)
	_ repository.VoteRepository       = (*MockVoteRepository)(nil)
	_ repository.RankingRepository    = (*MockRankingRepository)(nil)
	_ EventPublisher                  = (*MockEventPublisher)(nil)
	_ JSONProducer                    = (*MockProducer)(nil)
)
