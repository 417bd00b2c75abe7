package models

import "time"

type RoundState string

const (
	RoundDrafting       RoundState = "drafting"
	RoundAnnounced      RoundState = "announced"
	RoundActive         RoundState = "active"
	RoundDeadlineWarned RoundState = "deadline_warned"
	RoundComplete       RoundState = "complete"
)

// Round is one Swiss round of an event. Number is unique per event and
// monotonically increasing; repair re-pairs a round without renumbering it.
// Version guards concurrent state transitions.
type Round struct {
	ID             int        `json:"id" db:"id"`
	EventID        int        `json:"event_id" db:"event_id"`
	Number         int        `json:"number" db:"number"`
	State          RoundState `json:"state" db:"state"`
	Deadline       time.Time  `json:"deadline" db:"deadline"`
	DeadlineWarned bool       `json:"deadline_warned" db:"deadline_warned"`
	Version        int        `json:"version" db:"version"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`

	Games []*Game `json:"games,omitempty" db:"-"`
}

// Open reports whether the round still accepts game transitions.
func (r *Round) Open() bool {
	return r.State == RoundAnnounced || r.State == RoundActive || r.State == RoundDeadlineWarned
}
