package scoring

import (
	"errors"
	"math"

	"github.com/bluesumk/mjjf/internal/model"
)

// ZeroSumTolerance bounds floating-point drift when re-validating that a
// round's deltas cancel out.
const ZeroSumTolerance = 1e-6

var (
	// ErrUnbalancedRound means the round's deltas do not sum to zero.
	ErrUnbalancedRound = errors.New("scoring: round scores do not sum to zero")
	// ErrAlreadyFinalized means the session has already been closed.
	ErrAlreadyFinalized = errors.New("scoring: session already finalized")
	// ErrInvalidMultiplier means a zero closing multiplier was supplied.
	// Zero is rejected rather than coerced to 1.
	ErrInvalidMultiplier = errors.New("scoring: multiplier must be non-zero")
)

// AppendRound re-validates the zero-sum invariant and appends the round.
// Rounds are never trusted from the caller, even when they came out of
// Balance.
func AppendRound(s *model.Session, r model.Round) error {
	if s.Finished() {
		return ErrAlreadyFinalized
	}
	sum := 0.0
	for _, v := range r.Scores {
		sum += v
	}
	if math.Abs(sum) > ZeroSumTolerance {
		return ErrUnbalancedRound
	}
	s.Rounds = append(s.Rounds, r)
	return nil
}

// RunningTotal sums a participant's deltas across all rounds so far.
func RunningTotal(s *model.Session, name string) float64 {
	total := 0.0
	for _, r := range s.Rounds {
		total += r.Scores[name]
	}
	return total
}

// Finalize applies the one-time closing multiplier, computes the final
// per-participant totals and moves the session to its terminal state. Each
// total is rounded half away from zero after scaling; rounds themselves stay
// unrounded. Finalize is terminal: there is no un-finalize.
func Finalize(s *model.Session, multiplier int) error {
	if s.Finished() {
		return ErrAlreadyFinalized
	}
	if multiplier == 0 {
		return ErrInvalidMultiplier
	}

	final := make(map[string]int)
	for _, name := range s.Scoreboard() {
		final[name] = int(math.Round(RunningTotal(s, name) * float64(multiplier)))
	}

	s.FinalScores = final
	s.Multiplier = multiplier
	s.Status = model.SessionFinished
	return nil
}
