package models

import "time"

type Team struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CaptainID int       `json:"captain_id"`
	CreatedAt time.Time `json:"created_at"`

	Members []TeamMember `json:"members,omitempty"`
}

// TeamMember fixes a player to a board slot. Board games of a team pairing
// are matched slot-for-slot, never re-shuffled.
type TeamMember struct {
	ID     int `json:"id"`
	TeamID int `json:"team_id"`
	UserID int `json:"user_id"`
	Slot   int `json:"slot"`
}
