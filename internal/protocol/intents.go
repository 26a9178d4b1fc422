package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"bazas-game/internal/shared"
)

// Client -> server message types.
const (
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypeStartGame    = "start_game"
	TypePlaceBid     = "place_bid"
	TypePlayCard     = "play_card"
	TypeRequestState = "request_state"
	TypeChat         = "chat"
	TypePing         = "ping"
)

const (
	maxNameLength = 24
	maxChatLength = 280
)

var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Intent is a validated client request.
type Intent interface {
	IntentType() string
}

// RoomIntent is an intent addressed to an existing room.
type RoomIntent interface {
	Intent
	RoomCode() string
}

type CreateRoom struct {
	Name     string `json:"name"`
	MaxSeats int    `json:"max_seats"` // 0 selects the server default
}

type JoinRoom struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type LeaveRoom struct {
	Code string `json:"code"`
}

type StartGame struct {
	Code string `json:"code"`
}

type PlaceBid struct {
	Code  string `json:"code"`
	Value int    `json:"value"`
}

type PlayCard struct {
	Code string      `json:"code"`
	Card shared.Card `json:"card"`
}

type RequestState struct {
	Code string `json:"code"`
}

type Chat struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type Ping struct{}

func (CreateRoom) IntentType() string   { return TypeCreateRoom }
func (JoinRoom) IntentType() string     { return TypeJoinRoom }
func (LeaveRoom) IntentType() string    { return TypeLeaveRoom }
func (StartGame) IntentType() string    { return TypeStartGame }
func (PlaceBid) IntentType() string     { return TypePlaceBid }
func (PlayCard) IntentType() string     { return TypePlayCard }
func (RequestState) IntentType() string { return TypeRequestState }
func (Chat) IntentType() string         { return TypeChat }
func (Ping) IntentType() string         { return TypePing }

func (i JoinRoom) RoomCode() string     { return i.Code }
func (i LeaveRoom) RoomCode() string    { return i.Code }
func (i StartGame) RoomCode() string    { return i.Code }
func (i PlaceBid) RoomCode() string     { return i.Code }
func (i PlayCard) RoomCode() string     { return i.Code }
func (i RequestState) RoomCode() string { return i.Code }
func (i Chat) RoomCode() string         { return i.Code }

// ParseIntent decodes and validates the payload of an inbound message.
func ParseIntent(msg Message) (Intent, error) {
	switch msg.Type {
	case TypePing:
		return Ping{}, nil

	case TypeCreateRoom:
		var p CreateRoom
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		name, err := cleanName(p.Name)
		if err != nil {
			return nil, err
		}
		if p.MaxSeats != 0 && (p.MaxSeats < 2 || p.MaxSeats > 5) {
			return nil, fmt.Errorf("%w: max_seats must be between 2 and 5", ErrInvalidPayload)
		}
		return CreateRoom{Name: name, MaxSeats: p.MaxSeats}, nil

	case TypeJoinRoom:
		var p JoinRoom
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		code, err := cleanCode(p.Code)
		if err != nil {
			return nil, err
		}
		name, err := cleanName(p.Name)
		if err != nil {
			return nil, err
		}
		return JoinRoom{Code: code, Name: name}, nil

	case TypeLeaveRoom:
		var p LeaveRoom
		code, err := decodeCode(msg, &p, &p.Code)
		if err != nil {
			return nil, err
		}
		return LeaveRoom{Code: code}, nil

	case TypeStartGame:
		var p StartGame
		code, err := decodeCode(msg, &p, &p.Code)
		if err != nil {
			return nil, err
		}
		return StartGame{Code: code}, nil

	case TypeRequestState:
		var p RequestState
		code, err := decodeCode(msg, &p, &p.Code)
		if err != nil {
			return nil, err
		}
		return RequestState{Code: code}, nil

	case TypePlaceBid:
		var p struct {
			Code  string `json:"code"`
			Value *int   `json:"value"`
		}
		code, err := decodeCode(msg, &p, &p.Code)
		if err != nil {
			return nil, err
		}
		if p.Value == nil {
			return nil, fmt.Errorf("%w: value is required", ErrInvalidPayload)
		}
		return PlaceBid{Code: code, Value: *p.Value}, nil

	case TypePlayCard:
		var p PlayCard
		code, err := decodeCode(msg, &p, &p.Code)
		if err != nil {
			return nil, err
		}
		if !p.Card.Valid() {
			return nil, fmt.Errorf("%w: unknown card %d de %s", ErrInvalidPayload, p.Card.Rank, p.Card.Suit)
		}
		return PlayCard{Code: code, Card: p.Card}, nil

	case TypeChat:
		var p Chat
		code, err := decodeCode(msg, &p, &p.Code)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: empty chat message", ErrInvalidPayload)
		}
		if utf8.RuneCountInString(text) > maxChatLength {
			return nil, fmt.Errorf("%w: chat message longer than %d characters", ErrInvalidPayload, maxChatLength)
		}
		return Chat{Code: code, Text: text}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
}

func decode(msg Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%w: missing payload for %s", ErrInvalidPayload, msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, msg.Type, err)
	}
	return nil
}

func decodeCode(msg Message, v any, code *string) (string, error) {
	if err := decode(msg, v); err != nil {
		return "", err
	}
	return cleanCode(*code)
}

// NormalizeCode upper-cases and trims a room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func cleanCode(code string) (string, error) {
	code = NormalizeCode(code)
	if code == "" {
		return "", fmt.Errorf("%w: room code is required", ErrInvalidPayload)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: room code must be alphanumeric", ErrInvalidPayload)
		}
	}
	return code, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidPayload)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrInvalidPayload, maxNameLength)
	}
	return name, nil
}
