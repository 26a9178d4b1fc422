package shared

// Player represents a seated participant and their per-round state.
type Player struct {
	ID        string // Unique identifier for the player
	Name      string // Player's chosen name
	Hand      []Card // Cards currently held by the player
	Bid       *int   // Tricks predicted this round, nil until placed
	TricksWon int    // Tricks taken this round
	Score     int    // Cumulative score across rounds
}

// NewPlayer creates a new player with the given ID and name.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:   id,
		Name: name,
		Hand: []Card{},
	}
}

// ResetForNewRound clears hand, bid and tricks. Score is kept.
func (p *Player) ResetForNewRound() {
	p.Hand = []Card{}
	p.Bid = nil
	p.TricksWon = 0
}

// AddCard adds a card to the player's hand.
func (p *Player) AddCard(card Card) {
	p.Hand = append(p.Hand, card)
}

// HasBid reports whether a bid was placed this round.
func (p *Player) HasBid() bool {
	return p.Bid != nil
}

// SetBid records the bid for this round.
func (p *Player) SetBid(value int) {
	v := value
	p.Bid = &v
}

// BidValue returns the bid, or 0 when none was placed.
func (p *Player) BidValue() int {
	if p.Bid == nil {
		return 0
	}
	return *p.Bid
}

// HasCard reports whether a card with the same suit and rank is in hand.
func (p *Player) HasCard(card Card) bool {
	for _, c := range p.Hand {
		if c == card {
			return true
		}
	}
	return false
}

// PlayCard removes and returns the hand card matching suit and rank.
func (p *Player) PlayCard(want Card) (Card, bool) {
	for i, c := range p.Hand {
		if c.Suit == want.Suit && c.Rank == want.Rank {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c, true
		}
	}
	return Card{}, false
}
