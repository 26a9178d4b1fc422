package shared

// PlayedCard stores a card along with the player who played it.
type PlayedCard struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Card     Card   `json:"card"`
}

// Trick represents the in-progress trick.
type Trick struct {
	Cards []PlayedCard
}

// NewTrick creates an empty trick.
func NewTrick() *Trick {
	return &Trick{Cards: []PlayedCard{}}
}

// AddCard appends a play to the trick.
func (t *Trick) AddCard(player *Player, card Card) {
	t.Cards = append(t.Cards, PlayedCard{PlayerID: player.ID, Name: player.Name, Card: card})
}

// HasPlayed reports whether the player already has a card in the trick.
func (t *Trick) HasPlayed(playerID string) bool {
	for _, pc := range t.Cards {
		if pc.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Remove drops the player's card from the trick, if any.
func (t *Trick) Remove(playerID string) bool {
	for i, pc := range t.Cards {
		if pc.PlayerID == playerID {
			t.Cards = append(t.Cards[:i], t.Cards[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of cards played.
func (t *Trick) Len() int {
	return len(t.Cards)
}

// Played returns a copy of the cards on the table.
func (t *Trick) Played() []PlayedCard {
	out := make([]PlayedCard, len(t.Cards))
	copy(out, t.Cards)
	return out
}

// Winner returns the play with the strictly highest rank. There is no trump
// and suit is ignored, so on equal ranks the earlier play keeps the trick.
func (t *Trick) Winner() (PlayedCard, bool) {
	if len(t.Cards) == 0 {
		return PlayedCard{}, false
	}
	winner := t.Cards[0]
	for _, pc := range t.Cards[1:] {
		if pc.Card.Rank > winner.Card.Rank {
			winner = pc
		}
	}
	return winner, true
}
