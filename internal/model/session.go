package model

import "time"

type SessionStatus string

const (
	SessionOngoing  SessionStatus = "ongoing"
	SessionFinished SessionStatus = "finished"
)

// HouseName is the display name of the synthetic house/rake seat. It never
// carries a win/lose role and its balance may never go negative.
const HouseName = "台"

// MaxMembers caps the number of authenticated identities per session.
const MaxMembers = 4

// Round is one scored hand. Scores are signed deltas keyed by participant
// name and must sum to zero.
type Round struct {
	Scores map[string]float64 `json:"scores" bson:"scores"`
}

// Session is one complete multi-round scoring engagement.
type Session struct {
	ID           string         `json:"id" bson:"_id"`
	OwnerID      string         `json:"ownerId" bson:"ownerId"`
	Participants []string       `json:"participants" bson:"participants"`
	HouseShare   bool           `json:"houseShareEnabled" bson:"houseShareEnabled"`
	Rounds       []Round        `json:"rounds" bson:"rounds"`
	Multiplier   int            `json:"multiplier" bson:"multiplier"`
	Status       SessionStatus  `json:"status" bson:"status"`
	FinalScores  map[string]int `json:"finalScores,omitempty" bson:"finalScores,omitempty"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updatedAt"`
	InviteToken  string         `json:"inviteToken" bson:"inviteToken"`
	Members      []string       `json:"members" bson:"members"`
}

// Scoreboard returns the participant names that take part in scoring, with
// the house seat appended when enabled.
func (s *Session) Scoreboard() []string {
	names := make([]string, 0, len(s.Participants)+1)
	names = append(names, s.Participants...)
	if s.HouseShare && !contains(names, HouseName) {
		names = append(names, HouseName)
	}
	return names
}

// IsMember reports whether identity has joined the session.
func (s *Session) IsMember(identity string) bool {
	return contains(s.Members, identity)
}

// Finished reports whether the session has reached its terminal state.
func (s *Session) Finished() bool {
	return s.Status == SessionFinished
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
