package game

import (
	"context"
	"time"

	"bazas-game/internal/shared"
)

// GamePlayer is a seat in a recorded game.
type GamePlayer struct {
	PlayerID string
	Name     string
	Position int
}

// GameRecord is handed to a Recorder when a game starts.
type GameRecord struct {
	ID        string
	Code      string
	StartedAt time.Time
	Players   []GamePlayer
}

// Recorder persists game history. Sessions log recorder errors and keep playing.
type Recorder interface {
	GameStarted(ctx context.Context, rec GameRecord) error
	RoundFinished(ctx context.Context, gameID string, report shared.RoundReport) error
	GameFinished(ctx context.Context, gameID string, result shared.GameResult) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) GameStarted(context.Context, GameRecord) error { return nil }

func (NopRecorder) RoundFinished(context.Context, string, shared.RoundReport) error { return nil }

func (NopRecorder) GameFinished(context.Context, string, shared.GameResult) error { return nil }
