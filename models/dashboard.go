package models

type DashboardStats struct {
	UsersTotal    int `json:"users_total"`
	EventsTotal   int `json:"events_total"`
	ActiveEvents  int `json:"active_events"`
	OpenRounds    int `json:"open_rounds"`
	DisputedGames int `json:"disputed_games"`
	OpenRituals   int `json:"open_rituals"`
}
