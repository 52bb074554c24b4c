package domain

import (
	"strings"
	"time"
)

// PeriodState is the single lifecycle state of a voting period
type PeriodState string

const (
	StateDraft            PeriodState = "draft"
	StateSuggestionsOpen  PeriodState = "suggestions_open"
	StateVotingOpen       PeriodState = "voting_open"
	StateRankingGenerated PeriodState = "ranking_generated"
	StatePublished        PeriodState = "published"
)

// IsValid reports whether s is a known state
func (s PeriodState) IsValid() bool {
	switch s {
	case StateDraft, StateSuggestionsOpen, StateVotingOpen, StateRankingGenerated, StatePublished:
		return true
	}
	return false
}

// IsTerminal reports whether no action leaves s
func (s PeriodState) IsTerminal() bool {
	return s == StatePublished
}

// Action is an admin operation on a voting period
type Action string

const (
	ActionOpenSuggestions Action = "open_suggestions"
	ActionOpenVoting      Action = "open_voting"
	ActionCloseVoting     Action = "close_voting"
	ActionGenerateRanking Action = "generate_ranking"
	ActionPublishRanking  Action = "publish_ranking"
)

// Transition is one row of the action table
type Transition struct {
	From []PeriodState
	To   PeriodState
}

// actions lists, per action, the states it may start from and the state it leads to.
// generate_ranking may be repeated to refresh the snapshot until it is published.
var actions = map[Action]Transition{
	ActionOpenSuggestions: {From: []PeriodState{StateDraft}, To: StateSuggestionsOpen},
	ActionOpenVoting:      {From: []PeriodState{StateDraft, StateSuggestionsOpen}, To: StateVotingOpen},
	ActionCloseVoting:     {From: []PeriodState{StateVotingOpen}, To: StateDraft},
	ActionGenerateRanking: {From: []PeriodState{StateDraft, StateSuggestionsOpen, StateRankingGenerated}, To: StateRankingGenerated},
	ActionPublishRanking:  {From: []PeriodState{StateRankingGenerated}, To: StatePublished},
}

// actionOrder is the order actions are offered in
var actionOrder = []Action{
	ActionOpenSuggestions,
	ActionOpenVoting,
	ActionCloseVoting,
	ActionGenerateRanking,
	ActionPublishRanking,
}

// ParseAction returns ErrUnknownAction for unknown values
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := actions[a]; !ok {
		return "", ErrUnknownAction
	}
	return a, nil
}

// String returns the string representation of Action
func (a Action) String() string {
	return string(a)
}

// TransitionFor returns the row of the action table for a
func TransitionFor(a Action) (Transition, bool) {
	t, ok := actions[a]
	if !ok {
		return Transition{}, false
	}
	from := make([]PeriodState, len(t.From))
	copy(from, t.From)
	return Transition{From: from, To: t.To}, true
}

// Allows reports whether a may be applied in state s
func (a Action) Allows(s PeriodState) bool {
	for _, from := range actions[a].From {
		if from == s {
			return true
		}
	}
	return false
}

// AvailableActions returns the actions that may be applied in state s
func AvailableActions(s PeriodState) []Action {
	out := []Action{}
	for _, a := range actionOrder {
		if a.Allows(s) {
			out = append(out, a)
		}
	}
	return out
}

// DefaultTopCount is used when a period is created without one
const DefaultTopCount = 10

// VotingPeriod is the DJ ranking round of one country and year
type VotingPeriod struct {
	ID                 string      `bson:"_id" json:"id"`
	Country            string      `bson:"country" json:"country"`
	Year               int         `bson:"year" json:"year"`
	State              PeriodState `bson:"state" json:"state"`
	TopCount           int         `bson:"top_count" json:"top_count"`
	RankingGeneratedAt *time.Time  `bson:"ranking_generated_at,omitempty" json:"ranking_generated_at,omitempty"`
	PublishedAt        *time.Time  `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CreatedAt          time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `bson:"updated_at" json:"updated_at"`
	UpdatedBy          string      `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// AcceptsSuggestions reports whether DJs may be suggested
func (p *VotingPeriod) AcceptsSuggestions() bool {
	return p.State == StateSuggestionsOpen
}

// AcceptsVotes reports whether votes may be cast
func (p *VotingPeriod) AcceptsVotes() bool {
	return p.State == StateVotingOpen
}

// StateChange is a checked transition ready to be written with compare-and-set
type StateChange struct {
	PeriodID string
	Action   Action
	From     []PeriodState
	To       PeriodState
	ActorID  string
	At       time.Time
}

// PlanAction checks that a is allowed in the current state of p and returns the
// change to write. The write must still match one of From to succeed.
func (p *VotingPeriod) PlanAction(a Action, actorID string, now time.Time) (*StateChange, error) {
	t, ok := TransitionFor(a)
	if !ok {
		return nil, ErrUnknownAction
	}
	if !a.Allows(p.State) {
		return nil, ErrInvalidTransition
	}
	return &StateChange{
		PeriodID: p.ID,
		Action:   a,
		From:     t.From,
		To:       t.To,
		ActorID:  actorID,
		At:       now,
	}, nil
}

// Apply updates p after change has been persisted
func (p *VotingPeriod) Apply(change *StateChange) {
	p.State = change.To
	p.UpdatedAt = change.At
	p.UpdatedBy = change.ActorID
	at := change.At
	switch change.Action {
	case ActionGenerateRanking:
		p.RankingGeneratedAt = &at
	case ActionPublishRanking:
		p.PublishedAt = &at
	}
}

// NormalizeCountry returns the lookup form of a country key
func NormalizeCountry(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}
