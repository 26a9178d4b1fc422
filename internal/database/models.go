package database

// GamePlayer is a seat in a stored game.
type GamePlayer struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	FinalScore *int   `json:"final_score,omitempty"`
	Left       bool   `json:"left,omitempty"` // left before the game ended
}

// GameSummary is a stored game with its roster.
type GameSummary struct {
	ID         string       `json:"id"`
	Code       string       `json:"code"`
	StartedAt  string       `json:"started_at"`
	EndedAt    string       `json:"ended_at,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	WinnerName string       `json:"winner_name,omitempty"`
	Rounds     int          `json:"rounds"`
	Players    []GamePlayer `json:"players"`
}

// PlayerStats is a row of the cumulative ranking, keyed by display name.
type PlayerStats struct {
	Name          string `json:"name"`
	GamesPlayed   int    `json:"games_played"`
	GamesWon      int    `json:"games_won"`
	RankingPoints int    `json:"ranking_points"`
	PointsSum     int    `json:"points_sum"`
	UpdatedAt     string `json:"updated_at"`
}
