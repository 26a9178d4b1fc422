package game

import "errors"

// Rejections of a single intent. Room state is unchanged when one is returned.
var (
	ErrRoomFull         = errors.New("room is full")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidBid       = errors.New("invalid bid")
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrAlreadyPlayed    = errors.New("already played this trick")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrWrongPhase       = errors.New("action not allowed in this phase")
	ErrPlayerNotSeated  = errors.New("player not in room")
	ErrGameInProgress   = errors.New("game already in progress")
)

var (
	// ErrCorrupted signals a structural fault that requires tearing the room down.
	ErrCorrupted = errors.New("room state corrupted")
	// ErrInternal reports a fault recovered while handling an intent.
	ErrInternal = errors.New("internal server error")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomFull, "room_full"},
	{ErrRoomNotFound, "room_not_found"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrInvalidBid, "invalid_bid"},
	{ErrCardNotInHand, "card_not_in_hand"},
	{ErrAlreadyPlayed, "already_played"},
	{ErrNotHost, "not_host"},
	{ErrNotEnoughPlayers, "not_enough_players"},
	{ErrWrongPhase, "wrong_phase"},
	{ErrPlayerNotSeated, "not_seated"},
	{ErrGameInProgress, "game_in_progress"},
	{ErrCorrupted, "corrupted"},
	{ErrInternal, "internal"},
}

// ErrorCode maps an error to its wire code. Unknown errors map to "internal".
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
