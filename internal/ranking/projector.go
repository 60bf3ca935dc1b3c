package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/bluesumk/mjjf/internal/model"
	"github.com/bluesumk/mjjf/internal/scoring"
)

// Entry is one leaderboard row.
type Entry struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"rawScore"`
	Multiplier int     `json:"multiplier"`
	FinalScore int     `json:"finalScore"`
	Rank       int     `json:"rank"`
}

// SessionRanking projects a session's rounds into a leaderboard sorted by
// final score descending. Unfinalized sessions rank by raw totals
// (multiplier 1). Ties keep original participant order.
func SessionRanking(s *model.Session) []Entry {
	multiplier := s.Multiplier
	if !s.Finished() || multiplier == 0 {
		multiplier = 1
	}

	names := s.Scoreboard()
	entries := make([]Entry, len(names))
	for i, name := range names {
		raw := scoring.RunningTotal(s, name)
		entries[i] = Entry{
			Name:       name,
			RawScore:   raw,
			Multiplier: multiplier,
			FinalScore: int(math.Round(raw * float64(multiplier))),
		}
	}

	sortEntries(entries)
	return entries
}

// AggregateRanking sums each participant's per-session final totals across
// all finished sessions created within [from, to) and ranks them descending.
// A zero bound leaves that side of the window open.
func AggregateRanking(sessions []*model.Session, from, to time.Time) []Entry {
	totals := map[string]int{}
	var order []string

	for _, s := range sessions {
		if !s.Finished() {
			continue
		}
		if !from.IsZero() && s.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !s.CreatedAt.Before(to) {
			continue
		}
		for _, e := range SessionRanking(s) {
			if _, seen := totals[e.Name]; !seen {
				order = append(order, e.Name)
			}
			totals[e.Name] += e.FinalScore
		}
	}

	entries := make([]Entry, len(order))
	for i, name := range order {
		entries[i] = Entry{
			Name:       name,
			RawScore:   float64(totals[name]),
			Multiplier: 1,
			FinalScore: totals[name],
		}
	}

	sortEntries(entries)
	return entries
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].FinalScore > entries[j].FinalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
