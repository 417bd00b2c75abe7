package models

import "time"

// EventFormat and EventPhase correspond to ENUM types in the database.
type EventFormat string

const (
	FormatSingles EventFormat = "singles"
	FormatTeams   EventFormat = "teams"
)

type EventPhase string

const (
	PhaseInterest     EventPhase = "interest"
	PhaseRegistration EventPhase = "registration"
	PhaseListsLock    EventPhase = "listslock"
	PhaseActive       EventPhase = "active"
	PhaseFinished     EventPhase = "finished"
)

// Event owns all rounds and registrations of one competition.
// The phase only ever moves forward.
type Event struct {
	ID           int         `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Format       EventFormat `json:"format" db:"format"`
	Phase        EventPhase  `json:"phase" db:"phase"`
	OrganizerID  int         `json:"organizer_id" db:"organizer_id"`
	TeamSize     int         `json:"team_size" db:"team_size"`
	RoundCount   int         `json:"round_count" db:"round_count"`
	CurrentRound int         `json:"current_round" db:"current_round"`
	PointsWin    int         `json:"points_win" db:"points_win"`
	PointsDraw   int         `json:"points_draw" db:"points_draw"`
	PointsLoss   int         `json:"points_loss" db:"points_loss"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Registrations []*Registration `json:"registrations,omitempty" db:"-"`
	Rounds        []*Round        `json:"rounds,omitempty" db:"-"`
	Standings     []Standing      `json:"standings,omitempty" db:"-"`
}

// NextPhase returns the phase that follows p, or p itself when terminal.
func (p EventPhase) NextPhase() EventPhase {
	switch p {
	case PhaseInterest:
		return PhaseRegistration
	case PhaseRegistration:
		return PhaseListsLock
	case PhaseListsLock:
		return PhaseActive
	case PhaseActive:
		return PhaseFinished
	default:
		return p
	}
}

// RoundCountFor returns the Swiss round schedule for a roster size.
func RoundCountFor(participants int) int {
	switch {
	case participants <= 4:
		return 2
	case participants <= 8:
		return 3
	case participants <= 16:
		return 4
	case participants <= 32:
		return 5
	default:
		return 6
	}
}
