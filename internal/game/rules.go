package game

import (
	"fmt"
	"time"

	"bazas-game/internal/shared"
)

// EndPolicy selects how a game terminates.
type EndPolicy string

const (
	// EndAfterPattern ends the game once every round of the deal pattern has
	// been played. The highest score wins.
	EndAfterPattern EndPolicy = "rounds"
	// EndAtThreshold ends the game after the first round in which some player
	// reaches TargetScore.
	EndAtThreshold EndPolicy = "threshold"
	// EndPatternOrThreshold ends on whichever of the two happens first.
	EndPatternOrThreshold EndPolicy = "rounds-or-threshold"
)

// ParseEndPolicy converts a configuration string into an EndPolicy.
func ParseEndPolicy(s string) (EndPolicy, error) {
	switch p := EndPolicy(s); p {
	case EndAfterPattern, EndAtThreshold, EndPatternOrThreshold:
		return p, nil
	case "":
		return EndAfterPattern, nil
	}
	return "", fmt.Errorf("unknown end policy %q", s)
}

const (
	MinSeats = 2
	MaxSeats = 5

	// HitBonus is added to the tricks won when a bid is met. A missed bid scores zero.
	HitBonus = 5
)

// DefaultPattern is the number of cards dealt per round.
var DefaultPattern = []int{1, 3, 5, 7, 5, 3, 1}

// Rules holds the per-room game configuration.
type Rules struct {
	MaxSeats    int
	Pattern     []int
	EndPolicy   EndPolicy
	TargetScore int
	BidTimeout  time.Duration
}

// DefaultRules returns the standard configuration.
func DefaultRules() Rules {
	return Rules{
		MaxSeats:    MaxSeats,
		Pattern:     append([]int(nil), DefaultPattern...),
		EndPolicy:   EndAfterPattern,
		TargetScore: 101,
		BidTimeout:  10 * time.Second,
	}
}

// WithMaxSeats returns a copy of r using n seats, falling back to the
// current value when n is zero.
func (r Rules) WithMaxSeats(n int) Rules {
	if n != 0 {
		r.MaxSeats = n
	}
	return r
}

// Validate checks that every round of the pattern can be dealt to a full room.
func (r Rules) Validate() error {
	if r.MaxSeats < MinSeats || r.MaxSeats > MaxSeats {
		return fmt.Errorf("max seats %d outside %d..%d", r.MaxSeats, MinSeats, MaxSeats)
	}
	if len(r.Pattern) == 0 {
		return fmt.Errorf("empty deal pattern")
	}
	for i, n := range r.Pattern {
		if n <= 0 {
			return fmt.Errorf("pattern[%d] = %d must be positive", i, n)
		}
		if n*r.MaxSeats > shared.DeckSize {
			return fmt.Errorf("pattern[%d] = %d deals %d cards to %d seats, deck has %d", i, n, n*r.MaxSeats, r.MaxSeats, shared.DeckSize)
		}
	}
	if _, err := ParseEndPolicy(string(r.EndPolicy)); err != nil {
		return err
	}
	if r.EndPolicy != EndAfterPattern && r.TargetScore <= 0 {
		return fmt.Errorf("target score %d must be positive", r.TargetScore)
	}
	return nil
}
