package models

import "time"

type RegistrationStatus string

const (
	RegistrationActive  RegistrationStatus = "active"
	RegistrationDropped RegistrationStatus = "dropped"
)

// Registration admits one participant (a player in singles, a team in the
// teams format) to one event. ParticipantID refers to users.id or teams.id
// depending on the event format. Unique per (event, participant).
//
// Dropped registrations keep their game history but are excluded from
// future pairings.
type Registration struct {
	ID            int                `json:"id" db:"id"`
	EventID       int                `json:"event_id" db:"event_id"`
	ParticipantID int                `json:"participant_id" db:"participant_id"`
	Status        RegistrationStatus `json:"status" db:"status"`
	ListKey       *string            `json:"-" db:"list_key"`
	ListURL       *string            `json:"list_url,omitempty" db:"-"`
	ListApproved  bool               `json:"list_approved" db:"list_approved"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
}
