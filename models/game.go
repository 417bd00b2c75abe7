package models

import "time"

type GameState string

const (
	GameUnplayed  GameState = "unplayed"
	GameReported  GameState = "reported"
	GameDisputed  GameState = "disputed"
	GameConfirmed GameState = "confirmed"
	GameLocked    GameState = "locked"
)

// Game is one pairing of a round.
//
// In singles P1ID/P2ID hold the paired player ids. In the teams format a
// team pairing expands into one board game per roster slot: P1ID/P2ID hold
// the board players and T1ID/T2ID the parent teams. A nil P2ID (and nil
// T2ID in teams) marks a bye.
//
// ConfirmedBy is nil for auto-confirmed games; AutoConfirmed distinguishes
// the timeout path from a peer confirmation for audit purposes. Version
// guards concurrent transitions.
type Game struct {
	ID            int        `json:"id" db:"id"`
	RoundID       int        `json:"round_id" db:"round_id"`
	P1ID          *int       `json:"p1_id,omitempty" db:"p1_id"`
	P2ID          *int       `json:"p2_id,omitempty" db:"p2_id"`
	T1ID          *int       `json:"t1_id,omitempty" db:"t1_id"`
	T2ID          *int       `json:"t2_id,omitempty" db:"t2_id"`
	Slot          int        `json:"slot" db:"slot"`
	Room          *string    `json:"room,omitempty" db:"room"`
	State         GameState  `json:"state" db:"state"`
	P1VP          *int       `json:"p1_vp,omitempty" db:"p1_vp"`
	P2VP          *int       `json:"p2_vp,omitempty" db:"p2_vp"`
	ReporterID    *int       `json:"reporter_id,omitempty" db:"reporter_id"`
	ConfirmedBy   *int       `json:"confirmed_by,omitempty" db:"confirmed_by"`
	AutoConfirmed bool       `json:"auto_confirmed" db:"auto_confirmed"`
	ReportedAt    *time.Time `json:"reported_at,omitempty" db:"reported_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	Version       int        `json:"version" db:"version"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

func (g *Game) IsBye() bool {
	return g.P2ID == nil && g.T2ID == nil
}

// Terminal reports whether the game counts towards round completion.
func (g *Game) Terminal() bool {
	return g.State == GameConfirmed || g.State == GameLocked
}

// HasParticipant reports whether userID plays in this game.
func (g *Game) HasParticipant(userID int) bool {
	if g.P1ID != nil && *g.P1ID == userID {
		return true
	}
	return g.P2ID != nil && *g.P2ID == userID
}

// GameOverride is the audit record written every time a privileged actor
// rewrites a game result.
type GameOverride struct {
	ID        int       `json:"id" db:"id"`
	GameID    int       `json:"game_id" db:"game_id"`
	ActorID   int       `json:"actor_id" db:"actor_id"`
	OldP1VP   *int      `json:"old_p1_vp,omitempty" db:"old_p1_vp"`
	OldP2VP   *int      `json:"old_p2_vp,omitempty" db:"old_p2_vp"`
	NewP1VP   int       `json:"new_p1_vp" db:"new_p1_vp"`
	NewP2VP   int       `json:"new_p2_vp" db:"new_p2_vp"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
