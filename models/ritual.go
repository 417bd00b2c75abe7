package models

import (
	"time"

	"github.com/google/uuid"
)

type RitualKind string

const (
	RitualByeDecision RitualKind = "bye_decision"
	RitualSeatRoll    RitualKind = "seat_roll"
)

type RitualState string

const (
	RitualOpen     RitualState = "open"
	RitualResolved RitualState = "resolved"
	RitualExpired  RitualState = "expired"
)

// RitualSession is a short-lived shared dice roll that settles a decision
// the deterministic pairing rules cannot break, e.g. two players tied for
// the single bye. RoundNumber names the round the outcome will decide;
// the session is consumed exactly once, by the round creation that
// requested it.
type RitualSession struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	EventID      int         `json:"event_id" db:"event_id"`
	RoundNumber  int         `json:"round_number" db:"round_number"`
	Kind         RitualKind  `json:"kind" db:"kind"`
	DieSize      int         `json:"die_size" db:"die_size"`
	State        RitualState `json:"state" db:"state"`
	Participants []int       `json:"participants" db:"participants"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	RerollRound  int         `json:"reroll_round" db:"reroll_round"`
	Consumed     bool        `json:"consumed" db:"consumed"`
	ExpiresAt    time.Time   `json:"expires_at" db:"expires_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Rolls []RitualRoll `json:"rolls,omitempty" db:"-"`
}

type RitualRoll struct {
	ID            int       `json:"id" db:"id"`
	SessionID     uuid.UUID `json:"session_id" db:"session_id"`
	ParticipantID int       `json:"participant_id" db:"participant_id"`
	RerollRound   int       `json:"reroll_round" db:"reroll_round"`
	Value         int       `json:"value" db:"value"`
	RolledAt      time.Time `json:"rolled_at" db:"rolled_at"`
}
