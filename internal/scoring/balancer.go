package scoring

import (
	"errors"

	"github.com/bluesumk/mjjf/internal/model"
)

// Role tags a participant's outcome in a single round.
type Role string

const (
	RoleWin  Role = "win"
	RoleLose Role = "lose"
	RoleNone Role = ""
)

var (
	// ErrTooFewSeats means a round needs at least two participants.
	ErrTooFewSeats = errors.New("scoring: round needs at least two participants")
	// ErrIncomplete means one of the manually entered seats is still blank.
	// The returned result carries a preview sum for display; the round must
	// not be committed.
	ErrIncomplete = errors.New("scoring: round has blank entries")
	// ErrHouseNegative means auto-balancing would drive the house seat below
	// zero. The caller must present corrected input.
	ErrHouseNegative = errors.New("scoring: balanced house share would be negative")
	// ErrNoWinner means no seat ended strictly positive.
	ErrNoWinner = errors.New("scoring: round needs at least one winner")
)

// Entry is one seat's manual input. A nil Value is a blank field; the final
// seat's value is always computed, never read.
type Entry struct {
	Name  string
	Value *float64
}

// Balanced is a fully populated round: deltas sum to zero and each seat
// carries a role derived from its sign. The house seat is always RoleNone.
type Balanced struct {
	Names  []string
	Deltas []float64
	Roles  []Role
	// Preview is the sum of the filled seats, reported even when the round
	// is incomplete so the UI can show a running balance.
	Preview float64
}

// Round converts the balanced result into a committable round record.
func (b *Balanced) Round() model.Round {
	scores := make(map[string]float64, len(b.Names))
	for i, name := range b.Names {
		scores[name] = b.Deltas[i]
	}
	return model.Round{Scores: scores}
}

// Balance fills in the last seat so the round sums to zero and tags every
// seat with its win/lose role. houseLast marks the final seat as the
// synthetic house entry, which must not come out negative.
func Balance(entries []Entry, houseLast bool) (*Balanced, error) {
	if len(entries) < 2 {
		return nil, ErrTooFewSeats
	}

	n := len(entries)
	out := &Balanced{
		Names:  make([]string, n),
		Deltas: make([]float64, n),
		Roles:  make([]Role, n),
	}
	for i, e := range entries {
		out.Names[i] = e.Name
	}

	incomplete := false
	sum := 0.0
	for i := 0; i < n-1; i++ {
		if entries[i].Value == nil {
			incomplete = true
			continue
		}
		out.Deltas[i] = *entries[i].Value
		sum += out.Deltas[i]
	}
	out.Preview = sum
	if incomplete {
		return out, ErrIncomplete
	}

	auto := -sum
	if houseLast && auto < 0 {
		return nil, ErrHouseNegative
	}
	out.Deltas[n-1] = auto

	for i := 0; i < n; i++ {
		if houseLast && i == n-1 {
			out.Roles[i] = RoleNone
			continue
		}
		out.Roles[i] = roleOf(out.Deltas[i])
	}

	if !hasWinner(out.Deltas) {
		return nil, ErrNoWinner
	}
	return out, nil
}

func roleOf(v float64) Role {
	switch {
	case v > 0:
		return RoleWin
	case v < 0:
		return RoleLose
	default:
		return RoleNone
	}
}

// hasWinner requires a strictly positive seat. The house seat counts: a round
// where everyone pays the house is still a committable round. Only a nothing-
// moved round, where no delta is above zero, is rejected.
func hasWinner(deltas []float64) bool {
	for _, d := range deltas {
		if d > 0 {
			return true
		}
	}
	return false
}
