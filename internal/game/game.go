package game

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"bazas-game/internal/protocol"
	"bazas-game/internal/shared"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// MessageSender defines the function signature for sending messages back to clients.
// The Hub will provide an implementation of this.
type MessageSender func(clientID string, message []byte)

const recordTimeout = 3 * time.Second

// Session serializes every intent for one room and fans the resulting
// notifications out to the seated players.
type Session struct {
	mu       sync.Mutex
	room     *Room
	send     MessageSender
	clock    quartz.Clock
	logger   *log.Logger
	recorder Recorder
	teardown func(code string)

	gameID   string
	bidTimer *quartz.Timer
	bidGen   uint64
	closed   bool
}

// Option configures a Session.
type Option func(*Session)

func WithClock(c quartz.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithTeardown sets the callback used when the room is found corrupted.
func WithTeardown(f func(code string)) Option {
	return func(s *Session) { s.teardown = f }
}

// NewSession wraps a room. The sender must not block.
func NewSession(room *Room, send MessageSender, opts ...Option) *Session {
	s := &Session{
		room:     room,
		send:     send,
		clock:    quartz.NewReal(),
		logger:   log.Default(),
		recorder: NopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("code", room.Code)
	return s
}

// Code returns the room code.
func (s *Session) Code() string {
	return s.room.Code
}

// Occupants returns the number of seated players.
func (s *Session) Occupants() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.room.Seats)
}

// HasPlayer reports whether the player is seated.
func (s *Session) HasPlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.SeatIndex(playerID) >= 0
}

// Summary returns the lobby-list view of the room.
func (s *Session) Summary() protocol.RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.RoomSummary{
		Code:     s.room.Code,
		Players:  len(s.room.Seats),
		MaxSeats: s.room.Rules.MaxSeats,
		Phase:    string(s.room.Phase),
	}
}

// Snapshot returns the public room state.
func (s *Session) Snapshot() protocol.RoomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Snapshot()
}

// Close stops the bid timer and rejects further intents.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopBidTimer()
	s.closed = true
}

// Created confirms room creation to the host.
func (s *Session) Created(hostID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendJoined(hostID, protocol.TypeRoomCreated)
	s.broadcast(protocol.TypePlayersChanged, protocol.PlayersPayload{Players: s.room.Players()})
}

// Join seats a player. Joining twice only resends the room state.
func (s *Session) Join(playerID, name string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(playerID, &err)
	if s.closed {
		return ErrRoomNotFound
	}

	if err := s.room.AddPlayer(playerID, name); err != nil {
		s.reject(playerID, protocol.TypeRoomError, err)
		return err
	}
	s.logger.Info("player joined", "player", playerID, "name", name, "seats", len(s.room.Seats))
	s.sendJoined(playerID, protocol.TypeRoomJoined)
	s.broadcast(protocol.TypePlayersChanged, protocol.PlayersPayload{Players: s.room.Players()})
	return nil
}

// Leave removes a player from the room and returns how many remain.
func (s *Session) Leave(playerID string) (remaining int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(playerID, &err)
	if s.closed {
		return 0, ErrRoomNotFound
	}

	prevBidder := playerIDOf(s.room.BiddingPlayer())
	removed, out, ok := s.room.RemovePlayer(playerID)
	if !ok {
		return len(s.room.Seats), ErrPlayerNotSeated
	}
	s.logger.Info("player left", "player", removed.ID, "name", removed.Name, "seats", len(s.room.Seats), "phase", s.room.Phase)

	if prevBidder == playerID {
		s.stopBidTimer()
		prevBidder = ""
	}
	if len(s.room.Seats) == 0 {
		s.stopBidTimer()
		if out.Game != nil {
			s.record(func(ctx context.Context) error { return s.recorder.GameFinished(ctx, s.gameID, *out.Game) })
		}
		return 0, nil
	}

	s.broadcast(protocol.TypePlayersChanged, protocol.PlayersPayload{Players: s.room.Players()})
	if s.room.Trick.Len() > 0 && out.Trick == nil && s.room.Phase == PhaseTrickPlay {
		s.broadcast(protocol.TypeTableUpdated, protocol.TableUpdatedPayload{Trick: s.room.Trick.Played()})
	}
	s.publish(out, prevBidder)
	return len(s.room.Seats), nil
}

// Start deals the first round. Only the host may start.
func (s *Session) Start(requesterID string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(requesterID, &err)
	if s.closed {
		return ErrRoomNotFound
	}

	if err := s.room.StartGame(requesterID); err != nil {
		if errors.Is(err, ErrCorrupted) {
			s.fail(err)
			return err
		}
		s.reject(requesterID, protocol.TypeRoomError, err)
		return err
	}

	s.gameID = uuid.New().String()
	s.logger.Info("game started", "game", s.gameID, "players", len(s.room.Seats), "policy", s.room.Rules.EndPolicy)

	rec := GameRecord{ID: s.gameID, Code: s.room.Code, StartedAt: s.clock.Now().UTC()}
	for i, p := range s.room.Seats {
		rec.Players = append(rec.Players, GamePlayer{PlayerID: p.ID, Name: p.Name, Position: i})
	}
	s.record(func(ctx context.Context) error { return s.recorder.GameStarted(ctx, rec) })

	s.announceRound()
	return nil
}

// Bid places a bid for the player.
func (s *Session) Bid(playerID string, value int) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(playerID, &err)
	if s.closed {
		return ErrRoomNotFound
	}
	return s.applyBid(playerID, value, false)
}

// Play plays a card for the player.
func (s *Session) Play(playerID string, card shared.Card) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(playerID, &err)
	if s.closed {
		return ErrRoomNotFound
	}

	out, err := s.room.PlayCard(playerID, card)
	if err != nil {
		if errors.Is(err, ErrCorrupted) {
			s.fail(err)
			return err
		}
		s.logger.Debug("play rejected", "player", playerID, "card", card.String(), "error", err)
		s.reject(playerID, protocol.TypePlayError, err)
		return err
	}
	s.logger.Debug("card played", "player", playerID, "card", card.String())

	table := s.room.Trick.Played()
	if out.Trick != nil {
		table = out.Trick.Cards
	}
	s.broadcast(protocol.TypeTableUpdated, protocol.TableUpdatedPayload{Trick: table})
	s.publish(out, "")
	return nil
}

// State sends the requester their private view of the room.
func (s *Session) State(playerID string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(playerID, &err)
	if s.closed {
		return ErrRoomNotFound
	}
	if s.room.SeatIndex(playerID) < 0 {
		s.reject(playerID, protocol.TypeRoomError, ErrPlayerNotSeated)
		return ErrPlayerNotSeated
	}
	s.sendTo(playerID, protocol.TypeRoomState, protocol.RoomStatePayload{
		Room:            s.room.Snapshot(),
		Hand:            s.room.Hand(playerID),
		ValidBidOptions: s.room.ValidBidOptions(playerID),
	})
	return nil
}

// Chat relays a message to the room.
func (s *Session) Chat(playerID, text string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(playerID, &err)
	if s.closed {
		return ErrRoomNotFound
	}
	p := s.room.Player(playerID)
	if p == nil {
		s.reject(playerID, protocol.TypeRoomError, ErrPlayerNotSeated)
		return ErrPlayerNotSeated
	}
	s.broadcast(protocol.TypeChatMessage, protocol.ChatPayload{PlayerID: p.ID, Name: p.Name, Text: text})
	return nil
}

// applyBid assumes the lock is held.
func (s *Session) applyBid(playerID string, value int, auto bool) error {
	prevBidder := playerIDOf(s.room.BiddingPlayer())
	out, err := s.room.PlaceBid(playerID, value)
	if err != nil {
		s.logger.Debug("bid rejected", "player", playerID, "value", value, "error", err)
		s.reject(playerID, protocol.TypeBidRejected, err)
		if opts := s.room.ValidBidOptions(playerID); opts != nil && playerID == prevBidder {
			s.sendTo(playerID, protocol.TypeValidBidOptions, protocol.ValidBidOptionsPayload{PlayerID: playerID, Options: opts})
		}
		return err
	}
	s.stopBidTimer()
	s.logger.Info("bid placed", "player", playerID, "value", value, "auto", auto)

	if auto {
		s.sendTo(playerID, protocol.TypeAutoBid, protocol.AutoBidPayload{Value: value})
	}
	s.broadcast(protocol.TypeBidsUpdated, protocol.PlayersPayload{Players: s.room.Players()})
	s.publish(out, "")
	return nil
}

// publish announces the transitions in out and whose turn it is.
// prevBidder is the bidder before the mutation; when it is unchanged the
// running bid timer is kept. Assumes the lock is held.
func (s *Session) publish(out Outcome, prevBidder string) {
	if out.Trick != nil {
		s.broadcast(protocol.TypeTrickFinished, protocol.TrickFinishedPayload{
			WinnerID:   out.Trick.Winner.PlayerID,
			WinnerName: out.Trick.Winner.Name,
			Cards:      out.Trick.Cards,
			Results:    out.Trick.Tally,
		})
	}
	if out.Round != nil {
		report := *out.Round
		s.logger.Info("round finished", "round", report.Round, "cards", report.CardCount)
		s.broadcast(protocol.TypeRoundFinished, protocol.RoundFinishedPayload{Report: report, Scores: s.room.Scores()})
		s.record(func(ctx context.Context) error { return s.recorder.RoundFinished(ctx, s.gameID, report) })
	}
	if out.Game != nil {
		result := *out.Game
		s.stopBidTimer()
		s.logger.Info("game finished", "game", s.gameID, "reason", result.Reason, "winner", result.WinnerName)
		s.broadcast(protocol.TypeGameFinished, protocol.GameFinishedPayload{GameID: s.gameID, Result: result})
		s.record(func(ctx context.Context) error { return s.recorder.GameFinished(ctx, s.gameID, result) })
		return
	}
	if err := s.room.Check(); err != nil {
		s.fail(err)
		return
	}
	if out.NextRound {
		s.announceRound()
		return
	}
	if out.BiddingClosed {
		s.stopBidTimer()
		s.broadcast(protocol.TypeBiddingClosed, protocol.PlayersPayload{Players: s.room.Players()})
	}

	switch s.room.Phase {
	case PhaseBidding:
		bidder := s.room.BiddingPlayer()
		if bidder.ID != prevBidder || s.bidTimer == nil {
			s.announceBidTurn()
			return
		}
		// Same bidder, but their options may have changed.
		s.sendTo(bidder.ID, protocol.TypeValidBidOptions, protocol.ValidBidOptionsPayload{
			PlayerID: bidder.ID,
			Options:  s.room.ValidBidOptions(bidder.ID),
		})
	case PhaseTrickPlay:
		s.announcePlayTurn()
	}
}

// announceRound sends every player the new round, showing them only their own cards.
func (s *Session) announceRound() {
	dealer := s.room.Dealer()
	s.logger.Info("round started", "round", s.room.RoundNumber, "cards", s.room.CardsThisRound(), "dealer", dealer.Name)
	for _, recipient := range s.room.Seats {
		hands := make([]protocol.HandInfo, 0, len(s.room.Seats))
		for _, p := range s.room.Seats {
			info := protocol.HandInfo{PlayerID: p.ID, Name: p.Name, CardCount: len(p.Hand)}
			if p.ID == recipient.ID {
				info.Cards = append([]shared.Card{}, p.Hand...)
			}
			hands = append(hands, info)
		}
		s.sendTo(recipient.ID, protocol.TypeRoundStarted, protocol.RoundStartedPayload{
			Round:        s.room.RoundNumber,
			CardCount:    s.room.CardsThisRound(),
			DealerID:     dealer.ID,
			InitialHands: hands,
		})
	}
	s.announceBidTurn()
}

func (s *Session) announceBidTurn() {
	bidder := s.room.BiddingPlayer()
	if bidder == nil {
		return
	}
	s.broadcast(protocol.TypeBiddingTurn, protocol.TurnPayload{
		PlayerID:       bidder.ID,
		Name:           bidder.Name,
		TimeoutSeconds: int(s.room.Rules.BidTimeout / time.Second),
	})
	s.sendTo(bidder.ID, protocol.TypeValidBidOptions, protocol.ValidBidOptionsPayload{
		PlayerID: bidder.ID,
		Options:  s.room.ValidBidOptions(bidder.ID),
	})
	s.scheduleBidTimer(bidder.ID)
}

func (s *Session) announcePlayTurn() {
	p := s.room.TurnPlayer()
	if p == nil {
		return
	}
	s.broadcast(protocol.TypePlayTurn, protocol.TurnPayload{PlayerID: p.ID, Name: p.Name})
}

// scheduleBidTimer replaces any pending timer.
func (s *Session) scheduleBidTimer(playerID string) {
	s.stopBidTimer()
	if s.room.Rules.BidTimeout <= 0 {
		return
	}
	gen := s.bidGen
	s.bidTimer = s.clock.AfterFunc(s.room.Rules.BidTimeout, func() {
		s.autoBid(gen, playerID)
	}, "bid", s.room.Code)
}

func (s *Session) stopBidTimer() {
	if s.bidTimer != nil {
		s.bidTimer.Stop()
		s.bidTimer = nil
	}
	s.bidGen++
}

// autoBid places the fallback bid: 0 when allowed, otherwise the lowest option.
func (s *Session) autoBid(gen uint64, playerID string) {
	var err error
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverIntent(playerID, &err)

	if s.closed || gen != s.bidGen {
		return
	}
	s.bidTimer = nil
	if p := s.room.BiddingPlayer(); p == nil || p.ID != playerID {
		return
	}
	options := s.room.ValidBidOptions(playerID)
	if len(options) == 0 {
		return
	}
	value := options[0]
	for _, v := range options {
		if v == 0 {
			value = 0
			break
		}
	}
	s.logger.Info("bid timed out", "player", playerID, "value", value)
	err = s.applyBid(playerID, value, true)
}

// recoverIntent turns a panic into an internal error for the acting player.
func (s *Session) recoverIntent(playerID string, err *error) {
	if r := recover(); r != nil {
		s.logger.Error("recovered panic", "player", playerID, "panic", r, "stack", string(debug.Stack()))
		*err = fmt.Errorf("%w: %v", ErrInternal, r)
		s.reject(playerID, protocol.TypeRoomError, ErrInternal)
	}
}

// fail tears the room down after structural corruption.
func (s *Session) fail(err error) {
	s.logger.Error("room corrupted", "error", err)
	s.broadcast(protocol.TypeRoomError, protocol.ErrorPayload{Code: ErrorCode(ErrCorrupted), Message: err.Error()})
	s.stopBidTimer()
	s.closed = true
	if s.teardown != nil {
		go s.teardown(s.room.Code)
	}
}

func (s *Session) record(f func(ctx context.Context) error) {
	if s.gameID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := f(ctx); err != nil {
		s.logger.Warn("failed to record game", "game", s.gameID, "error", err)
	}
}

// --- Messaging Helpers (lock is held) ---

func (s *Session) sendJoined(playerID, msgType string) {
	s.sendTo(playerID, msgType, protocol.RoomJoinedPayload{
		Code:  s.room.Code,
		Host:  playerID == s.room.HostID,
		State: s.room.Snapshot(),
	})
}

func (s *Session) reject(playerID, msgType string, err error) {
	s.sendTo(playerID, msgType, protocol.ErrorPayload{Code: ErrorCode(err), Message: err.Error()})
}

func (s *Session) sendTo(playerID, msgType string, payload interface{}) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		s.logger.Error("failed to encode message", "type", msgType, "error", err)
		return
	}
	s.send(playerID, msg)
}

func (s *Session) broadcast(msgType string, payload interface{}) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		s.logger.Error("failed to encode message", "type", msgType, "error", err)
		return
	}
	for _, p := range s.room.Seats {
		s.send(p.ID, msg)
	}
}

func playerIDOf(p *shared.Player) string {
	if p == nil {
		return ""
	}
	return p.ID
}
