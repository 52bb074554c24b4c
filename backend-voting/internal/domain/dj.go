package domain

import (
	"sort"
	"strings"
	"time"
)

// Suggestion is a DJ put forward for a voting period
type Suggestion struct {
	ID          string    `bson:"_id" json:"id"`
	PeriodID    string    `bson:"period_id" json:"period_id"`
	Name        string    `bson:"name" json:"name"`
	NameKey     string    `bson:"name_key" json:"-"`
	Instagram   string    `bson:"instagram,omitempty" json:"instagram,omitempty"`
	SuggestedBy string    `bson:"suggested_by" json:"-"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// DJNameKey is the case and whitespace insensitive form used to de-duplicate names
func DJNameKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NormalizeInstagram strips the URL prefix and the leading @ from a handle
func NormalizeInstagram(handle string) string {
	h := strings.TrimSpace(handle)
	for _, prefix := range []string{"https://", "http://", "www.", "instagram.com/"} {
		h = strings.TrimPrefix(h, prefix)
	}
	h = strings.TrimSuffix(h, "/")
	return strings.TrimPrefix(h, "@")
}

// Vote is one user's vote for one DJ in a period
type Vote struct {
	ID        string    `bson:"_id" json:"id"`
	PeriodID  string    `bson:"period_id" json:"period_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	DJID      string    `bson:"dj_id" json:"dj_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Tally is the vote count of one DJ
type Tally struct {
	DJID      string    `bson:"_id"`
	Votes     int       `bson:"votes"`
	FirstVote time.Time `bson:"first_vote"`
}

// RankingEntry is one position of a ranking
type RankingEntry struct {
	Position int    `bson:"position" json:"position"`
	DJID     string `bson:"dj_id" json:"dj_id"`
	DJName   string `bson:"dj_name" json:"dj_name"`
	Votes    int    `bson:"votes" json:"votes"`
}

// Ranking is the snapshot generated from the votes of a period
type Ranking struct {
	PeriodID    string         `bson:"_id" json:"period_id"`
	Country     string         `bson:"country" json:"country"`
	Year        int            `bson:"year" json:"year"`
	Entries     []RankingEntry `bson:"entries" json:"entries"`
	TotalVotes  int            `bson:"total_votes" json:"total_votes"`
	GeneratedAt time.Time      `bson:"generated_at" json:"generated_at"`
	GeneratedBy string         `bson:"generated_by" json:"generated_by,omitempty"`
	// Revision identifies one generation; publishing freezes exactly this revision
	Revision    string         `bson:"revision" json:"revision"`
	Published   bool           `bson:"published" json:"published"`
}

// BuildRanking orders tallies by votes desc, then earliest first vote, then DJ
// name, and keeps the first topCount. Tallies for DJs missing from names are dropped.
func BuildRanking(p *VotingPeriod, tallies []Tally, names map[string]string, actorID string, now time.Time) *Ranking {
	type row struct {
		Tally
		name string
	}
	rows := make([]row, 0, len(tallies))
	total := 0
	for _, t := range tallies {
		name, ok := names[t.DJID]
		if !ok {
			continue
		}
		rows = append(rows, row{Tally: t, name: name})
		total += t.Votes
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		if !a.FirstVote.Equal(b.FirstVote) {
			return a.FirstVote.Before(b.FirstVote)
		}
		return strings.ToLower(a.name) < strings.ToLower(b.name)
	})

	top := p.TopCount
	if top <= 0 || top > len(rows) {
		top = len(rows)
	}
	entries := make([]RankingEntry, top)
	for i := 0; i < top; i++ {
		entries[i] = RankingEntry{Position: i + 1, DJID: rows[i].DJID, DJName: rows[i].name, Votes: rows[i].Votes}
	}

	return &Ranking{
		PeriodID:    p.ID,
		Country:     p.Country,
		Year:        p.Year,
		Entries:     entries,
		TotalVotes:  total,
		GeneratedAt: now,
		GeneratedBy: actorID,
	}
}
