package protocol

import (
	"encoding/json"

	"bazas-game/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`              // Type of the message (e.g., "join_room", "play_card")
	Payload json.RawMessage `json:"payload,omitempty"` // Raw JSON payload, decoded per type
}

// Server -> client message types.
const (
	TypeWelcome         = "welcome"
	TypeRoomCreated     = "room_created"
	TypeRoomJoined      = "room_joined"
	TypePlayersChanged  = "players_changed"
	TypeRoundStarted    = "round_started"
	TypeBiddingTurn     = "bidding_turn"
	TypeValidBidOptions = "valid_bid_options"
	TypeAutoBid         = "auto_bid"
	TypeBidsUpdated     = "bids_updated"
	TypeBidRejected     = "bid_rejected"
	TypeBiddingClosed   = "bidding_closed"
	TypeTableUpdated    = "table_updated"
	TypeTrickFinished   = "trick_finished"
	TypePlayTurn        = "play_turn"
	TypePlayError       = "play_error"
	TypeRoundFinished   = "round_finished"
	TypeGameFinished    = "game_finished"
	TypeRoomState       = "room_state"
	TypeRoomError       = "room_error"
	TypeChatMessage     = "chat_message"
	TypePong            = "pong"
)

// --- Server -> Client Payload Structs ---

type WelcomePayload struct {
	PlayerID string `json:"player_id"`
}

// RoomJoinedPayload answers both room_created and room_joined.
type RoomJoinedPayload struct {
	Code  string    `json:"code"`
	Host  bool      `json:"host"`
	State RoomState `json:"state"`
}

type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"` // Seat index
	Score     int    `json:"score"`
	Bid       *int   `json:"bid"`
	TricksWon int    `json:"tricks_won"`
	CardCount int    `json:"card_count"`
	Host      bool   `json:"host,omitempty"`
	Dealer    bool   `json:"dealer,omitempty"`
}

type PlayersPayload struct {
	Players []PlayerInfo `json:"players"`
}

// HandInfo carries a seat's dealt hand. Cards are only filled for the recipient.
type HandInfo struct {
	PlayerID  string        `json:"player_id"`
	Name      string        `json:"name"`
	CardCount int           `json:"card_count"`
	Cards     []shared.Card `json:"cards,omitempty"`
}

type RoundStartedPayload struct {
	Round        int        `json:"round"`
	CardCount    int        `json:"card_count"`
	DealerID     string     `json:"dealer_id"`
	InitialHands []HandInfo `json:"initial_hands"`
}

type TurnPayload struct {
	PlayerID       string `json:"player_id"`
	Name           string `json:"name"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type ValidBidOptionsPayload struct {
	PlayerID string `json:"player_id"`
	Options  []int  `json:"options"`
}

type AutoBidPayload struct {
	Value int `json:"value"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableUpdatedPayload struct {
	Trick []shared.PlayedCard `json:"trick"`
}

type TrickFinishedPayload struct {
	WinnerID   string              `json:"winner_id"`
	WinnerName string              `json:"winner_name"`
	Cards      []shared.PlayedCard `json:"cards"`
	Results    []shared.TrickTally `json:"results"`
}

type RoundFinishedPayload struct {
	Report shared.RoundReport `json:"scoring_report"`
	Scores []shared.ScoreLine `json:"scores"`
}

type GameFinishedPayload struct {
	GameID string            `json:"game_id,omitempty"`
	Result shared.GameResult `json:"result"`
}

// RoomState is a full public view of a room.
type RoomState struct {
	Code          string              `json:"code"`
	HostID        string              `json:"host_id"`
	Phase         string              `json:"phase"`
	Round         int                 `json:"round"`
	CardCount     int                 `json:"card_count"`
	MaxSeats      int                 `json:"max_seats"`
	DealerID      string              `json:"dealer_id,omitempty"`
	BiddingTurnID string              `json:"bidding_turn_id,omitempty"`
	CurrentTurnID string              `json:"current_turn_id,omitempty"`
	Players       []PlayerInfo        `json:"players"`
	Table         []shared.PlayedCard `json:"table"`
	Result        *shared.GameResult  `json:"result,omitempty"`
}

// RoomStatePayload answers request_state with the requester's private view.
type RoomStatePayload struct {
	Room            RoomState     `json:"room"`
	Hand            []shared.Card `json:"hand"`
	ValidBidOptions []int         `json:"valid_bid_options,omitempty"`
}

type ChatPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Text     string `json:"text"`
}

// RoomSummary is the lobby-list view of a room.
type RoomSummary struct {
	Code     string `json:"code"`
	Players  int    `json:"players"`
	MaxSeats int    `json:"max_seats"`
	Phase    string `json:"phase"`
}

// NewMessage encodes a typed payload into a message envelope.
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Type:    msgType,
		Payload: payloadBytes,
	}
	return json.Marshal(msg)
}
