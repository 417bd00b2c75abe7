package models

// Standing is a derived view, recomputed from confirmed and locked games.
// It is never persisted as an authoritative source.
type Standing struct {
	ParticipantID int `json:"participant_id"`
	Rank          int `json:"rank"`
	Wins          int `json:"wins"`
	Draws         int `json:"draws"`
	Losses        int `json:"losses"`
	Points        int `json:"points"`
	VPFor         int `json:"vp_for"`
	VPAgainst     int `json:"vp_against"`
	VPDiff        int `json:"vp_diff"`
	Byes          int `json:"byes"`
}
