package shared

// ScoreEntry is one player's line in a round report.
type ScoreEntry struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Bid       int    `json:"bid"`
	TricksWon int    `json:"tricks_won"`
	Hit       bool   `json:"hit"`   // bid == tricks won
	Delta     int    `json:"delta"` // points earned this round
	Total     int    `json:"total"` // score after this round
}

// RoundReport is produced once per scored round.
type RoundReport struct {
	Round     int          `json:"round"`
	CardCount int          `json:"card_count"`
	Entries   []ScoreEntry `json:"entries"`
}

// ScoreLine is a player's cumulative score.
type ScoreLine struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// TrickTally is a player's progress against their bid after a trick.
type TrickTally struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Bid       *int   `json:"bid"`
	TricksWon int    `json:"tricks_won"`
}

// TrickResult describes a resolved trick.
type TrickResult struct {
	Winner PlayedCard   `json:"winner"`
	Cards  []PlayedCard `json:"cards"`
	Tally  []TrickTally `json:"tally"`
}

// GameResult describes how a game ended.
type GameResult struct {
	Reason      string      `json:"reason"`
	WinnerID    string      `json:"winner_id,omitempty"`
	WinnerName  string      `json:"winner_name,omitempty"`
	Rounds      int         `json:"rounds"`
	FinalScores []ScoreLine `json:"final_scores"`
}
