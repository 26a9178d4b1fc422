package game

import (
	"fmt"

	"bazas-game/internal/protocol"
	"bazas-game/internal/shared"
)

// Phase is the current step of a room's state machine.
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseDealing   Phase = "dealing"
	PhaseBidding   Phase = "bidding"
	PhaseTrickPlay Phase = "trick_play"
	PhaseRoundEnd  Phase = "round_end"
	PhaseGameEnd   Phase = "game_end"
)

// Reasons reported in a GameResult.
const (
	ReasonRoundsComplete = "rounds_complete"
	ReasonThreshold      = "threshold"
	ReasonAbandoned      = "abandoned"
)

// Outcome lists the transitions a mutation caused, so the caller knows what to announce.
type Outcome struct {
	BiddingClosed bool
	Trick         *shared.TrickResult
	Round         *shared.RoundReport
	Game          *shared.GameResult
	NextRound     bool // a new round was dealt
}

// Room is the state of a single table. It does no locking and no I/O;
// callers serialize access.
type Room struct {
	Code   string
	HostID string
	Rules  Rules

	Seats            []*shared.Player
	Phase            Phase
	RoundNumber      int
	DealerIndex      int
	BiddingTurnIndex int
	LeaderIndex      int
	CurrentTurnIndex int
	Trick            *shared.Trick
	Deck             *shared.Deck
	Result           *shared.GameResult

	rng shared.RandFunc
}

// NewRoom creates a lobby with the host seated.
func NewRoom(code, hostID, hostName string, rules Rules, rng shared.RandFunc) *Room {
	if rng == nil {
		rng = shared.DefaultRand
	}
	r := &Room{
		Code:   code,
		HostID: hostID,
		Rules:  rules,
		Phase:  PhaseLobby,
		Trick:  shared.NewTrick(),
		rng:    rng,
	}
	r.Seats = append(r.Seats, shared.NewPlayer(hostID, hostName))
	return r
}

// SeatIndex returns the seat of a player, or -1.
func (r *Room) SeatIndex(playerID string) int {
	for i, p := range r.Seats {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// Player returns the seated player with the given ID, or nil.
func (r *Room) Player(playerID string) *shared.Player {
	if i := r.SeatIndex(playerID); i >= 0 {
		return r.Seats[i]
	}
	return nil
}

// AddPlayer seats a new player. Seating an already seated player is a no-op.
func (r *Room) AddPlayer(id, name string) error {
	if r.SeatIndex(id) >= 0 {
		return nil
	}
	if r.Phase != PhaseLobby {
		return ErrGameInProgress
	}
	if len(r.Seats) >= r.Rules.MaxSeats {
		return ErrRoomFull
	}
	r.Seats = append(r.Seats, shared.NewPlayer(id, name))
	return nil
}

// IsReady reports whether enough players are seated to start.
func (r *Room) IsReady() bool {
	return len(r.Seats) >= MinSeats
}

// Active reports whether a game is being played.
func (r *Room) Active() bool {
	switch r.Phase {
	case PhaseDealing, PhaseBidding, PhaseTrickPlay, PhaseRoundEnd:
		return true
	}
	return false
}

// RemovePlayer takes a player out of their seat and rebases every seat
// pointer so turn order among the remaining players is preserved.
func (r *Room) RemovePlayer(id string) (*shared.Player, Outcome, bool) {
	var out Outcome
	idx := r.SeatIndex(id)
	if idx < 0 {
		return nil, out, false
	}
	removed := r.Seats[idx]
	r.Seats = append(r.Seats[:idx], r.Seats[idx+1:]...)
	n := len(r.Seats)

	if r.HostID == id {
		r.HostID = ""
		if n > 0 {
			r.HostID = r.Seats[0].ID
		}
	}

	if n == 0 {
		r.DealerIndex, r.BiddingTurnIndex, r.LeaderIndex, r.CurrentTurnIndex = 0, 0, 0, 0
		r.Trick = shared.NewTrick()
		if r.Active() {
			out.Game = r.finishGame(ReasonAbandoned)
		}
		return removed, out, true
	}

	if idx <= r.DealerIndex {
		r.DealerIndex = (r.DealerIndex - 1 + n) % n
	}
	if idx <= r.BiddingTurnIndex {
		r.BiddingTurnIndex = (r.BiddingTurnIndex - 1 + n) % n
	}
	r.DealerIndex %= n
	r.BiddingTurnIndex %= n

	if r.Active() && n < MinSeats {
		r.Trick.Remove(id)
		r.LeaderIndex, r.CurrentTurnIndex = 0, 0
		out.Game = r.finishGame(ReasonAbandoned)
		return removed, out, true
	}

	switch r.Phase {
	case PhaseBidding:
		r.LeaderIndex = (r.DealerIndex + 1) % n
		r.CurrentTurnIndex = r.LeaderIndex
		if r.allBid() {
			r.closeBidding()
			out.BiddingClosed = true
		} else if r.Seats[r.BiddingTurnIndex].HasBid() {
			r.BiddingTurnIndex = r.nextBidder(r.BiddingTurnIndex)
		}

	case PhaseTrickPlay:
		r.Trick.Remove(id)
		if idx < r.LeaderIndex {
			r.LeaderIndex--
		}
		r.LeaderIndex %= n
		r.CurrentTurnIndex = (r.LeaderIndex + r.Trick.Len()) % n
		if r.Trick.Len() > 0 && r.Trick.Len() == n {
			// A failure here leaves the room for Check to report.
			_ = r.completeTrick(&out)
		}

	default:
		r.LeaderIndex %= n
		r.CurrentTurnIndex %= n
	}
	return removed, out, true
}

// StartGame leaves the lobby and deals the first round.
func (r *Room) StartGame(requesterID string) error {
	if r.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if requesterID != r.HostID {
		return ErrNotHost
	}
	if !r.IsReady() {
		return ErrNotEnoughPlayers
	}
	r.RoundNumber = 1
	r.DealerIndex = 0
	r.Result = nil
	for _, p := range r.Seats {
		p.Score = 0
	}
	return r.deal()
}

// CardsThisRound returns the hand size for the current round.
func (r *Room) CardsThisRound() int {
	if r.RoundNumber < 1 || len(r.Rules.Pattern) == 0 {
		return 0
	}
	return r.Rules.Pattern[(r.RoundNumber-1)%len(r.Rules.Pattern)]
}

func (r *Room) deal() error {
	r.Phase = PhaseDealing
	n := len(r.Seats)
	for _, p := range r.Seats {
		p.ResetForNewRound()
	}
	r.Trick = shared.NewTrick()
	r.Deck = shared.NewDeck()
	r.Deck.Shuffle(r.rng)

	hands, err := r.Deck.Deal(n, r.CardsThisRound())
	if err != nil {
		return fmt.Errorf("round %d: %w: %v", r.RoundNumber, ErrCorrupted, err)
	}
	for i, hand := range hands {
		for _, c := range hand {
			r.Seats[i].AddCard(c)
		}
	}

	r.BiddingTurnIndex = (r.DealerIndex - 1 + n) % n
	r.LeaderIndex = (r.DealerIndex + 1) % n
	r.CurrentTurnIndex = r.LeaderIndex
	r.Phase = PhaseBidding
	return nil
}

func (r *Room) allBid() bool {
	for _, p := range r.Seats {
		if !p.HasBid() {
			return false
		}
	}
	return true
}

// nextBidder walks backward through seating order from i to the first
// seat that has not bid yet.
func (r *Room) nextBidder(i int) int {
	n := len(r.Seats)
	for step := 1; step <= n; step++ {
		j := ((i-step)%n + n) % n
		if !r.Seats[j].HasBid() {
			return j
		}
	}
	return i
}

// lastToBid reports whether every other seat has already bid.
func (r *Room) lastToBid(idx int) bool {
	for i, p := range r.Seats {
		if i != idx && !p.HasBid() {
			return false
		}
	}
	return true
}

// ValidBidOptions lists the bids the player may place right now. The last
// seat to bid may not choose the value that makes all bids sum to the
// number of cards dealt.
func (r *Room) ValidBidOptions(playerID string) []int {
	if r.Phase != PhaseBidding {
		return nil
	}
	idx := r.SeatIndex(playerID)
	if idx < 0 {
		return nil
	}
	total := r.CardsThisRound()
	forbidden := -1
	if idx == r.BiddingTurnIndex && r.lastToBid(idx) {
		sum := 0
		for i, p := range r.Seats {
			if i != idx {
				sum += p.BidValue()
			}
		}
		if f := total - sum; f >= 0 && f <= total {
			forbidden = f
		}
	}
	options := make([]int, 0, total+1)
	for v := 0; v <= total; v++ {
		if v != forbidden {
			options = append(options, v)
		}
	}
	return options
}

// PlaceBid records the bid of the seat whose turn it is.
func (r *Room) PlaceBid(playerID string, value int) (Outcome, error) {
	var out Outcome
	if r.Phase != PhaseBidding {
		return out, ErrWrongPhase
	}
	idx := r.SeatIndex(playerID)
	if idx < 0 {
		return out, ErrPlayerNotSeated
	}
	if idx != r.BiddingTurnIndex {
		return out, ErrNotYourTurn
	}
	valid := false
	for _, v := range r.ValidBidOptions(playerID) {
		if v == value {
			valid = true
			break
		}
	}
	if !valid {
		return out, fmt.Errorf("%w: %d", ErrInvalidBid, value)
	}

	r.Seats[idx].SetBid(value)
	if r.allBid() {
		r.closeBidding()
		out.BiddingClosed = true
		return out, nil
	}
	r.BiddingTurnIndex = r.nextBidder(idx)
	return out, nil
}

func (r *Room) closeBidding() {
	n := len(r.Seats)
	r.Phase = PhaseTrickPlay
	r.LeaderIndex = (r.DealerIndex + 1) % n
	r.CurrentTurnIndex = r.LeaderIndex
	r.Trick = shared.NewTrick()
}

// ValidPlay checks whether the player may play the card now.
func (r *Room) ValidPlay(playerID string, card shared.Card) error {
	if r.Phase != PhaseTrickPlay {
		return ErrWrongPhase
	}
	idx := r.SeatIndex(playerID)
	if idx < 0 {
		return ErrPlayerNotSeated
	}
	if r.Trick.HasPlayed(playerID) {
		return ErrAlreadyPlayed
	}
	if idx != r.CurrentTurnIndex {
		return ErrNotYourTurn
	}
	if !r.Seats[idx].HasCard(card) {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	return nil
}

// PlayCard moves a card from the player's hand to the table and resolves
// the trick, round and game when they complete.
func (r *Room) PlayCard(playerID string, card shared.Card) (Outcome, error) {
	var out Outcome
	if err := r.ValidPlay(playerID, card); err != nil {
		return out, err
	}
	player := r.Seats[r.CurrentTurnIndex]
	played, ok := player.PlayCard(card)
	if !ok {
		return out, fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	r.Trick.AddCard(player, played)

	if r.Trick.Len() == len(r.Seats) {
		if err := r.completeTrick(&out); err != nil {
			return out, err
		}
		return out, nil
	}
	r.CurrentTurnIndex = (r.CurrentTurnIndex + 1) % len(r.Seats)
	return out, nil
}

func (r *Room) completeTrick(out *Outcome) error {
	win, ok := r.Trick.Winner()
	if !ok {
		return fmt.Errorf("%w: empty trick", ErrCorrupted)
	}
	widx := r.SeatIndex(win.PlayerID)
	if widx < 0 {
		return fmt.Errorf("%w: trick winner %s not seated", ErrCorrupted, win.PlayerID)
	}
	r.Seats[widx].TricksWon++

	result := &shared.TrickResult{Winner: win, Cards: r.Trick.Played()}
	for _, p := range r.Seats {
		result.Tally = append(result.Tally, shared.TrickTally{
			PlayerID:  p.ID,
			Name:      p.Name,
			Bid:       copyBid(p.Bid),
			TricksWon: p.TricksWon,
		})
	}
	out.Trick = result

	r.Trick = shared.NewTrick()
	r.LeaderIndex = widx
	r.CurrentTurnIndex = widx

	for _, p := range r.Seats {
		if len(p.Hand) > 0 {
			return nil
		}
	}
	return r.endRound(out)
}

func (r *Room) endRound(out *Outcome) error {
	r.Phase = PhaseRoundEnd
	out.Round = r.scoreRound()

	if reason, done := r.gameOver(); done {
		out.Game = r.finishGame(reason)
		return nil
	}

	r.DealerIndex = (r.DealerIndex + 1) % len(r.Seats)
	r.RoundNumber++
	if err := r.deal(); err != nil {
		return err
	}
	out.NextRound = true
	return nil
}

func (r *Room) scoreRound() *shared.RoundReport {
	report := &shared.RoundReport{Round: r.RoundNumber, CardCount: r.CardsThisRound()}
	for _, p := range r.Seats {
		hit := p.HasBid() && p.BidValue() == p.TricksWon
		delta := 0
		if hit {
			delta = HitBonus + p.TricksWon
		}
		p.Score += delta
		report.Entries = append(report.Entries, shared.ScoreEntry{
			PlayerID:  p.ID,
			Name:      p.Name,
			Bid:       p.BidValue(),
			TricksWon: p.TricksWon,
			Hit:       hit,
			Delta:     delta,
			Total:     p.Score,
		})
	}
	return report
}

func (r *Room) gameOver() (string, bool) {
	patternDone := r.RoundNumber >= len(r.Rules.Pattern)
	threshold := false
	for _, p := range r.Seats {
		if p.Score >= r.Rules.TargetScore {
			threshold = true
			break
		}
	}
	switch r.Rules.EndPolicy {
	case EndAtThreshold:
		if threshold {
			return ReasonThreshold, true
		}
	case EndPatternOrThreshold:
		if threshold {
			return ReasonThreshold, true
		}
		if patternDone {
			return ReasonRoundsComplete, true
		}
	default:
		if patternDone {
			return ReasonRoundsComplete, true
		}
	}
	return "", false
}

// finishGame ends the game. The highest score wins; ties go to the earliest seat.
func (r *Room) finishGame(reason string) *shared.GameResult {
	r.Phase = PhaseGameEnd
	res := &shared.GameResult{
		Reason:      reason,
		Rounds:      r.RoundNumber,
		FinalScores: r.Scores(),
	}
	var best *shared.Player
	for _, p := range r.Seats {
		if best == nil || p.Score > best.Score {
			best = p
		}
	}
	if best != nil {
		res.WinnerID = best.ID
		res.WinnerName = best.Name
	}
	r.Result = res
	return res
}

// Check reports structural corruption that cannot be recovered from.
func (r *Room) Check() error {
	n := len(r.Seats)
	if n == 0 {
		if r.Active() {
			return fmt.Errorf("%w: no seats in phase %s", ErrCorrupted, r.Phase)
		}
		return nil
	}
	if r.Active() && n < MinSeats {
		return fmt.Errorf("%w: %d seats in phase %s", ErrCorrupted, n, r.Phase)
	}
	for name, i := range map[string]int{
		"dealer":  r.DealerIndex,
		"bidding": r.BiddingTurnIndex,
		"leader":  r.LeaderIndex,
		"current": r.CurrentTurnIndex,
	} {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: %s index %d out of %d seats", ErrCorrupted, name, i, n)
		}
	}
	if r.Trick.Len() >= n && r.Phase == PhaseTrickPlay {
		return fmt.Errorf("%w: unresolved full trick", ErrCorrupted)
	}
	return nil
}

// Scores returns cumulative scores in seat order.
func (r *Room) Scores() []shared.ScoreLine {
	out := make([]shared.ScoreLine, 0, len(r.Seats))
	for _, p := range r.Seats {
		out = append(out, shared.ScoreLine{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}
	return out
}

// Hand returns a copy of the player's hand.
func (r *Room) Hand(playerID string) []shared.Card {
	p := r.Player(playerID)
	if p == nil {
		return nil
	}
	return append([]shared.Card{}, p.Hand...)
}

// Dealer returns the dealer seat, or nil for an empty room.
func (r *Room) Dealer() *shared.Player {
	return r.seat(r.DealerIndex)
}

// BiddingPlayer returns the seat expected to bid, or nil outside bidding.
func (r *Room) BiddingPlayer() *shared.Player {
	if r.Phase != PhaseBidding {
		return nil
	}
	return r.seat(r.BiddingTurnIndex)
}

// TurnPlayer returns the seat expected to play, or nil outside trick play.
func (r *Room) TurnPlayer() *shared.Player {
	if r.Phase != PhaseTrickPlay {
		return nil
	}
	return r.seat(r.CurrentTurnIndex)
}

func (r *Room) seat(i int) *shared.Player {
	if i < 0 || i >= len(r.Seats) {
		return nil
	}
	return r.Seats[i]
}

// Players returns the public view of every seat.
func (r *Room) Players() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(r.Seats))
	for i, p := range r.Seats {
		infos = append(infos, protocol.PlayerInfo{
			ID:        p.ID,
			Name:      p.Name,
			Position:  i,
			Score:     p.Score,
			Bid:       copyBid(p.Bid),
			TricksWon: p.TricksWon,
			CardCount: len(p.Hand),
			Host:      p.ID == r.HostID,
			Dealer:    r.Phase != PhaseLobby && i == r.DealerIndex,
		})
	}
	return infos
}

// Snapshot returns the public state of the room. Hands are never included.
func (r *Room) Snapshot() protocol.RoomState {
	st := protocol.RoomState{
		Code:      r.Code,
		HostID:    r.HostID,
		Phase:     string(r.Phase),
		Round:     r.RoundNumber,
		CardCount: r.CardsThisRound(),
		MaxSeats:  r.Rules.MaxSeats,
		Players:   r.Players(),
		Table:     r.Trick.Played(),
		Result:    r.Result,
	}
	if r.Phase != PhaseLobby {
		if d := r.Dealer(); d != nil {
			st.DealerID = d.ID
		}
	}
	if p := r.BiddingPlayer(); p != nil {
		st.BiddingTurnID = p.ID
	}
	if p := r.TurnPlayer(); p != nil {
		st.CurrentTurnID = p.ID
	}
	return st
}

func copyBid(b *int) *int {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
