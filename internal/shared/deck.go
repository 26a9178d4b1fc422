package shared

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 40

var ErrNotEnoughCards = errors.New("not enough cards in deck")

// RandFunc returns uniformly distributed values in [0,1).
type RandFunc func() float64

// DefaultRand draws from the global math/rand/v2 source.
var DefaultRand RandFunc = rand.Float64

// Build returns the 40-card set in suit-major order.
func Build() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return cards
}

// Shuffle permutes cards in place with Fisher-Yates, walking from the last
// index down and swapping each position with a uniformly chosen index at or
// before it. The same slice is returned.
func Shuffle(cards []Card, rng RandFunc) []Card {
	if rng == nil {
		rng = DefaultRand
	}
	for i := len(cards) - 1; i > 0; i-- {
		j := int(rng() * float64(i+1))
		if j > i {
			j = i
		}
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards
}

// Deck represents a collection of cards.
type Deck struct {
	Cards []Card
}

// NewDeck creates a full deck in build order.
func NewDeck() *Deck {
	return &Deck{Cards: Build()}
}

// Shuffle randomizes the order of cards in the deck.
func (d *Deck) Shuffle(rng RandFunc) {
	Shuffle(d.Cards, rng)
}

// Deal hands out perPlayer cards to each of numPlayers seats, one card per
// seat per pass, taking from the end of the deck.
func (d *Deck) Deal(numPlayers, perPlayer int) ([][]Card, error) {
	needed := numPlayers * perPlayer
	if needed > len(d.Cards) {
		return nil, fmt.Errorf("deal %d cards to %d players from %d: %w", perPlayer, numPlayers, len(d.Cards), ErrNotEnoughCards)
	}

	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, perPlayer)
	}
	for pass := 0; pass < perPlayer; pass++ {
		for seat := 0; seat < numPlayers; seat++ {
			last := len(d.Cards) - 1
			hands[seat] = append(hands[seat], d.Cards[last])
			d.Cards = d.Cards[:last]
		}
	}
	return hands, nil
}
