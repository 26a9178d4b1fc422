package shared

import "fmt"

// Suit represents the suit of a card (Oros, Copas, Espadas, Bastos).
type Suit string

const (
	Oros    Suit = "oros"
	Copas   Suit = "copas"
	Espadas Suit = "espadas"
	Bastos  Suit = "bastos"
)

// Suits lists the four suits in deck order.
var Suits = []Suit{Oros, Copas, Espadas, Bastos}

// Ranks lists the ten ranks of the 40-card deck in ascending order.
// There are no 8s or 9s.
var Ranks = []int{1, 2, 3, 4, 5, 6, 7, 10, 11, 12}

// Card represents a single card. Two cards are equal when suit and rank match.
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

func (c Card) String() string {
	return fmt.Sprintf("%d de %s", c.Rank, c.Suit)
}

// Valid reports whether the card exists in the deck.
func (c Card) Valid() bool {
	return validSuit(c.Suit) && validRank(c.Rank)
}

func validSuit(s Suit) bool {
	for _, suit := range Suits {
		if suit == s {
			return true
		}
	}
	return false
}

func validRank(r int) bool {
	for _, rank := range Ranks {
		if rank == r {
			return true
		}
	}
	return false
}
