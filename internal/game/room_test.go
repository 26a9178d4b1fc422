package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazas-game/internal/randutil"
	"bazas-game/internal/shared"
)

func card(rank int, suit shared.Suit) shared.Card {
	return shared.Card{Suit: suit, Rank: rank}
}

// newTestRoom seats players p0..p{n-1}; p0 is the host.
func newTestRoom(t *testing.T, n int, rules Rules) *Room {
	t.Helper()
	r := NewRoom("TEST01", "p0", "Player 0", rules, randutil.Float(randutil.New(1)))
	for i := 1; i < n; i++ {
		require.NoError(t, r.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i)))
	}
	return r
}

func TestRoom_AddPlayer(t *testing.T) {
	r := newTestRoom(t, 1, DefaultRules().WithMaxSeats(2))

	require.NoError(t, r.AddPlayer("p1", "Ana"))
	require.NoError(t, r.AddPlayer("p1", "Ana"), "seating twice is a no-op")
	assert.Len(t, r.Seats, 2)

	assert.ErrorIs(t, r.AddPlayer("p2", "Luis"), ErrRoomFull)
	assert.Len(t, r.Seats, 2)
}

func TestRoom_AddPlayerAfterStart(t *testing.T) {
	r := newTestRoom(t, 2, DefaultRules())
	require.NoError(t, r.StartGame("p0"))

	assert.ErrorIs(t, r.AddPlayer("late", "Late"), ErrGameInProgress)
	assert.NoError(t, r.AddPlayer("p1", "Player 1"), "already seated players are not rejected")
}

func TestRoom_StartGame(t *testing.T) {
	t.Run("needs two players", func(t *testing.T) {
		r := newTestRoom(t, 1, DefaultRules())
		assert.False(t, r.IsReady())
		assert.ErrorIs(t, r.StartGame("p0"), ErrNotEnoughPlayers)
		assert.Equal(t, PhaseLobby, r.Phase)
	})

	t.Run("only the host", func(t *testing.T) {
		r := newTestRoom(t, 3, DefaultRules())
		assert.ErrorIs(t, r.StartGame("p1"), ErrNotHost)
		assert.Equal(t, PhaseLobby, r.Phase)
	})

	t.Run("deals the first round", func(t *testing.T) {
		r := newTestRoom(t, 3, DefaultRules())
		require.NoError(t, r.StartGame("p0"))

		assert.Equal(t, PhaseBidding, r.Phase)
		assert.Equal(t, 1, r.RoundNumber)
		assert.Equal(t, 0, r.DealerIndex)
		assert.Equal(t, 2, r.BiddingTurnIndex)
		assert.Equal(t, 1, r.LeaderIndex)
		assert.Equal(t, 1, r.CurrentTurnIndex)
		for _, p := range r.Seats {
			assert.Len(t, p.Hand, 1)
			assert.False(t, p.HasBid())
		}
		assert.Len(t, r.Deck.Cards, shared.DeckSize-3)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		r := newTestRoom(t, 2, DefaultRules())
		require.NoError(t, r.StartGame("p0"))
		assert.ErrorIs(t, r.StartGame("p0"), ErrWrongPhase)
	})
}

func TestRoom_CardsThisRoundFollowsPattern(t *testing.T) {
	r := newTestRoom(t, 2, DefaultRules())
	assert.Equal(t, 0, r.CardsThisRound())

	want := []int{1, 3, 5, 7, 5, 3, 1, 1, 3}
	for i, n := range want {
		r.RoundNumber = i + 1
		assert.Equal(t, n, r.CardsThisRound(), "round %d", i+1)
	}
}

// Two players: the non-dealer bids first and the dealer may not make the
// bids add up to the single card dealt.
func TestRoom_TwoPlayerForbiddenBid(t *testing.T) {
	r := newTestRoom(t, 2, DefaultRules())
	require.NoError(t, r.StartGame("p0"))

	require.Equal(t, "p1", r.BiddingPlayer().ID)
	assert.Equal(t, []int{0, 1}, r.ValidBidOptions("p1"))

	_, err := r.PlaceBid("p0", 0)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	out, err := r.PlaceBid("p1", 0)
	require.NoError(t, err)
	assert.False(t, out.BiddingClosed)
	require.Equal(t, "p0", r.BiddingPlayer().ID)
	assert.Equal(t, []int{0}, r.ValidBidOptions("p0"))

	_, err = r.PlaceBid("p0", 1)
	assert.ErrorIs(t, err, ErrInvalidBid)
	assert.False(t, r.Seats[0].HasBid())

	out, err = r.PlaceBid("p0", 0)
	require.NoError(t, err)
	assert.True(t, out.BiddingClosed)
	assert.Equal(t, PhaseTrickPlay, r.Phase)
	assert.Equal(t, "p1", r.TurnPlayer().ID)
}

func TestRoom_BidOutOfRange(t *testing.T) {
	r := newTestRoom(t, 3, DefaultRules())
	require.NoError(t, r.StartGame("p0"))

	for _, v := range []int{-1, 2, 40} {
		_, err := r.PlaceBid("p2", v)
		assert.ErrorIs(t, err, ErrInvalidBid, "bid %d", v)
	}
	_, err := r.PlaceBid("ghost", 0)
	assert.ErrorIs(t, err, ErrPlayerNotSeated)
}

func TestRoom_ForbiddenValueOutsideRangeIsIgnored(t *testing.T) {
	r := newTestRoom(t, 3, DefaultRules())
	r.Rules.Pattern = []int{3}
	require.NoError(t, r.StartGame("p0"))

	_, err := r.PlaceBid("p2", 3)
	require.NoError(t, err)
	_, err = r.PlaceBid("p1", 2)
	require.NoError(t, err)

	// 3 - (3 + 2) is negative, so the dealer can bid anything.
	assert.Equal(t, []int{0, 1, 2, 3}, r.ValidBidOptions("p0"))
}

func TestRoom_PlayCardNotInHand(t *testing.T) {
	r := newTestRoom(t, 2, DefaultRules())
	require.NoError(t, r.StartGame("p0"))
	_, err := r.PlaceBid("p1", 1)
	require.NoError(t, err)
	_, err = r.PlaceBid("p0", 1)
	require.NoError(t, err)

	r.Seats[1].Hand = []shared.Card{card(4, shared.Oros)}
	hand := r.Hand("p1")

	_, err = r.PlayCard("p1", card(12, shared.Bastos))
	assert.ErrorIs(t, err, ErrCardNotInHand)
	assert.Equal(t, hand, r.Seats[1].Hand)
	assert.Zero(t, r.Trick.Len())
	assert.Equal(t, 1, r.CurrentTurnIndex)
}

func TestRoom_PlayValidation(t *testing.T) {
	r := newTestRoom(t, 3, DefaultRules())
	r.Rules.Pattern = []int{2}
	require.NoError(t, r.StartGame("p0"))
	r.Seats[0].SetBid(0)
	r.Seats[1].SetBid(0)
	r.Seats[2].SetBid(0)
	r.closeBidding()

	r.Seats[0].Hand = []shared.Card{card(1, shared.Oros), card(2, shared.Oros)}
	r.Seats[1].Hand = []shared.Card{card(3, shared.Oros), card(4, shared.Oros)}
	r.Seats[2].Hand = []shared.Card{card(5, shared.Oros), card(6, shared.Oros)}

	_, err := r.PlayCard("p0", card(1, shared.Oros))
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = r.PlayCard("p1", card(3, shared.Oros))
	require.NoError(t, err)
	_, err = r.PlayCard("p1", card(4, shared.Oros))
	assert.ErrorIs(t, err, ErrAlreadyPlayed)

	_, err = r.PlayCard("ghost", card(4, shared.Oros))
	assert.ErrorIs(t, err, ErrPlayerNotSeated)

	assert.Equal(t, 1, r.Trick.Len())
	assert.Equal(t, 2, r.CurrentTurnIndex)
}

func TestRoom_BidInWrongPhase(t *testing.T) {
	r := newTestRoom(t, 2, DefaultRules())
	_, err := r.PlaceBid("p1", 0)
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = r.PlayCard("p1", card(1, shared.Oros))
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.Nil(t, r.ValidBidOptions("p1"))
}

// Three players who all meet their bids score 5 plus their tricks.
func TestRoom_ScoresAllCorrectRound(t *testing.T) {
	rules := DefaultRules()
	rules.Pattern = []int{3, 1}
	r := newTestRoom(t, 3, rules)
	require.NoError(t, r.StartGame("p0"))

	for i, bid := range []int{1, 0, 2} {
		r.Seats[i].SetBid(bid)
	}
	r.closeBidding()
	r.Seats[0].Hand = []shared.Card{card(12, shared.Oros), card(1, shared.Copas), card(2, shared.Copas)}
	r.Seats[1].Hand = []shared.Card{card(3, shared.Oros), card(4, shared.Oros), card(5, shared.Oros)}
	r.Seats[2].Hand = []shared.Card{card(11, shared.Copas), card(11, shared.Espadas), card(1, shared.Bastos)}

	play := func(id string, c shared.Card) Outcome {
		t.Helper()
		out, err := r.PlayCard(id, c)
		require.NoError(t, err)
		return out
	}

	require.Equal(t, "p1", r.TurnPlayer().ID)
	play("p1", card(3, shared.Oros))
	play("p2", card(11, shared.Copas))
	out := play("p0", card(1, shared.Copas))
	require.NotNil(t, out.Trick)
	assert.Equal(t, "p2", out.Trick.Winner.PlayerID)
	assert.Equal(t, "p2", r.TurnPlayer().ID)

	play("p2", card(11, shared.Espadas))
	play("p0", card(2, shared.Copas))
	out = play("p1", card(4, shared.Oros))
	assert.Equal(t, "p2", out.Trick.Winner.PlayerID)

	play("p2", card(1, shared.Bastos))
	play("p0", card(12, shared.Oros))
	out = play("p1", card(5, shared.Oros))
	require.NotNil(t, out.Trick)
	assert.Equal(t, "p0", out.Trick.Winner.PlayerID)

	require.NotNil(t, out.Round)
	deltas := []int{}
	for _, e := range out.Round.Entries {
		assert.True(t, e.Hit, e.PlayerID)
		deltas = append(deltas, e.Delta)
	}
	assert.Equal(t, []int{6, 5, 7}, deltas)
	assert.Equal(t, 6, r.Seats[0].Score)
	assert.Equal(t, 5, r.Seats[1].Score)
	assert.Equal(t, 7, r.Seats[2].Score)

	assert.Nil(t, out.Game)
	assert.True(t, out.NextRound)
	assert.Equal(t, 2, r.RoundNumber)
	assert.Equal(t, 1, r.DealerIndex)
	assert.Equal(t, 0, r.BiddingTurnIndex)
	assert.Equal(t, 2, r.LeaderIndex)
	assert.Equal(t, PhaseBidding, r.Phase)
	for _, p := range r.Seats {
		assert.Len(t, p.Hand, 1)
		assert.Zero(t, p.TricksWon)
	}
}

func TestRoom_MissedBidScoresZero(t *testing.T) {
	r := newTestRoom(t, 2, DefaultRules())
	require.NoError(t, r.StartGame("p0"))
	r.Seats[0].SetBid(1)
	r.Seats[1].SetBid(1)
	r.Seats[0].TricksWon = 0
	r.Seats[1].TricksWon = 1
	r.Seats[0].Score = 12

	report := r.scoreRound()

	assert.Equal(t, 0, report.Entries[0].Delta)
	assert.False(t, report.Entries[0].Hit)
	assert.Equal(t, 12, report.Entries[0].Total)
	assert.Equal(t, HitBonus+1, report.Entries[1].Delta)
	assert.True(t, report.Entries[1].Hit)
}

func TestRoom_GameOverPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy EndPolicy
		round  int
		scores []int
		reason string
		done   bool
	}{
		{"rounds: mid pattern", EndAfterPattern, 3, []int{120, 0}, "", false},
		{"rounds: pattern done", EndAfterPattern, 7, []int{10, 20}, ReasonRoundsComplete, true},
		{"threshold: below target", EndAtThreshold, 7, []int{100, 99}, "", false},
		{"threshold: reached", EndAtThreshold, 2, []int{101, 0}, ReasonThreshold, true},
		{"either: threshold first", EndPatternOrThreshold, 2, []int{0, 105}, ReasonThreshold, true},
		{"either: pattern first", EndPatternOrThreshold, 7, []int{50, 60}, ReasonRoundsComplete, true},
		{"either: neither", EndPatternOrThreshold, 4, []int{50, 60}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.EndPolicy = tt.policy
			r := newTestRoom(t, 2, rules)
			r.RoundNumber = tt.round
			for i, s := range tt.scores {
				r.Seats[i].Score = s
			}
			reason, done := r.gameOver()
			assert.Equal(t, tt.done, done)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestRoom_FinishGameTieGoesToEarliestSeat(t *testing.T) {
	r := newTestRoom(t, 3, DefaultRules())
	r.Phase = PhaseRoundEnd
	r.Seats[0].Score = 10
	r.Seats[1].Score = 30
	r.Seats[2].Score = 30

	res := r.finishGame(ReasonRoundsComplete)

	assert.Equal(t, PhaseGameEnd, r.Phase)
	assert.Equal(t, "p1", res.WinnerID)
	assert.Len(t, res.FinalScores, 3)
	assert.Same(t, res, r.Result)
}

// Removing the dealer during bidding keeps the pointers on the same players.
func TestRoom_RemoveDealerMidBidding(t *testing.T) {
	r := newTestRoom(t, 4, DefaultRules())
	require.NoError(t, r.StartGame("p0"))

	require.Equal(t, "p3", r.BiddingPlayer().ID)
	_, err := r.PlaceBid("p3", 0)
	require.NoError(t, err)
	require.Equal(t, "p2", r.BiddingPlayer().ID)

	removed, out, ok := r.RemovePlayer("p0")
	require.True(t, ok)
	assert.Equal(t, "p0", removed.ID)
	assert.False(t, out.BiddingClosed)
	require.NoError(t, r.Check())

	assert.Len(t, r.Seats, 3)
	assert.Equal(t, "p1", r.HostID)
	assert.Equal(t, "p2", r.BiddingPlayer().ID)
	assert.Equal(t, "p3", r.Dealer().ID)

	_, err = r.PlaceBid("p2", 0)
	require.NoError(t, err)

	// p1 is now the only seat without a bid, so the forbidden value applies to them.
	require.Equal(t, "p1", r.BiddingPlayer().ID)
	assert.Equal(t, []int{0}, r.ValidBidOptions("p1"))

	out, err = r.PlaceBid("p1", 0)
	require.NoError(t, err)
	assert.True(t, out.BiddingClosed)
	assert.Equal(t, "p1", r.TurnPlayer().ID)
}

func TestRoom_RemoveBeforeDealerShiftsIndices(t *testing.T) {
	r := newTestRoom(t, 4, DefaultRules())
	require.NoError(t, r.StartGame("p0"))
	r.DealerIndex = 2
	r.BiddingTurnIndex = 1

	_, _, ok := r.RemovePlayer("p0")
	require.True(t, ok)

	assert.Equal(t, "p2", r.Dealer().ID)
	assert.Equal(t, "p1", r.BiddingPlayer().ID)
}

func TestRoom_RemoveCurrentBidderPassesTurn(t *testing.T) {
	r := newTestRoom(t, 3, DefaultRules())
	require.NoError(t, r.StartGame("p0"))
	require.Equal(t, "p2", r.BiddingPlayer().ID)

	_, _, ok := r.RemovePlayer("p2")
	require.True(t, ok)

	assert.Equal(t, "p1", r.BiddingPlayer().ID)
	assert.Equal(t, "p0", r.Dealer().ID)
}

func TestRoom_RemoveLastUnbidSeatClosesBidding(t *testing.T) {
	r := newTestRoom(t, 3, DefaultRules())
	require.NoError(t, r.StartGame("p0"))
	_, err := r.PlaceBid("p2", 0)
	require.NoError(t, err)
	_, err = r.PlaceBid("p1", 1)
	require.NoError(t, err)

	_, out, ok := r.RemovePlayer("p0")
	require.True(t, ok)

	assert.True(t, out.BiddingClosed)
	assert.Equal(t, PhaseTrickPlay, r.Phase)
	require.NoError(t, r.Check())
}

func TestRoom_RemoveDuringTrickPlay(t *testing.T) {
	setup := func(t *testing.T) *Room {
		r := newTestRoom(t, 3, DefaultRules())
		r.Rules.Pattern = []int{2}
		require.NoError(t, r.StartGame("p0"))
		for _, p := range r.Seats {
			p.SetBid(0)
		}
		r.closeBidding()
		r.Seats[0].Hand = []shared.Card{card(1, shared.Oros), card(2, shared.Oros)}
		r.Seats[1].Hand = []shared.Card{card(7, shared.Oros), card(4, shared.Oros)}
		r.Seats[2].Hand = []shared.Card{card(5, shared.Oros), card(6, shared.Oros)}
		return r
	}

	t.Run("player still to play leaves", func(t *testing.T) {
		r := setup(t)
		_, err := r.PlayCard("p1", card(7, shared.Oros))
		require.NoError(t, err)

		_, out, ok := r.RemovePlayer("p2")
		require.True(t, ok)
		assert.Nil(t, out.Trick)
		require.NoError(t, r.Check())
		assert.Equal(t, "p1", r.Seats[r.LeaderIndex].ID)
		assert.Equal(t, "p0", r.TurnPlayer().ID)

		out, err = r.PlayCard("p0", card(1, shared.Oros))
		require.NoError(t, err)
		require.NotNil(t, out.Trick)
		assert.Equal(t, "p1", out.Trick.Winner.PlayerID)
	})

	t.Run("leaving completes the trick", func(t *testing.T) {
		r := setup(t)
		_, err := r.PlayCard("p1", card(4, shared.Oros))
		require.NoError(t, err)
		_, err = r.PlayCard("p2", card(6, shared.Oros))
		require.NoError(t, err)

		_, out, ok := r.RemovePlayer("p0")
		require.True(t, ok)
		require.NotNil(t, out.Trick)
		assert.Equal(t, "p2", out.Trick.Winner.PlayerID)
		assert.Equal(t, "p2", r.TurnPlayer().ID)
		require.NoError(t, r.Check())
	})

	t.Run("leader leaves after playing", func(t *testing.T) {
		r := setup(t)
		_, err := r.PlayCard("p1", card(4, shared.Oros))
		require.NoError(t, err)

		_, out, ok := r.RemovePlayer("p1")
		require.True(t, ok)
		assert.Nil(t, out.Trick)
		assert.Zero(t, r.Trick.Len())
		assert.Equal(t, "p2", r.TurnPlayer().ID)
	})

	t.Run("down to one player abandons the game", func(t *testing.T) {
		r := setup(t)
		r.Seats[1].Score = 8
		_, _, ok := r.RemovePlayer("p0")
		require.True(t, ok)
		_, out, ok := r.RemovePlayer("p2")
		require.True(t, ok)

		require.NotNil(t, out.Game)
		assert.Equal(t, ReasonAbandoned, out.Game.Reason)
		assert.Equal(t, "p1", out.Game.WinnerID)
		assert.Equal(t, PhaseGameEnd, r.Phase)
		require.NoError(t, r.Check())
	})
}

func TestRoom_RemoveUnknownAndEmpty(t *testing.T) {
	r := newTestRoom(t, 1, DefaultRules())
	_, _, ok := r.RemovePlayer("ghost")
	assert.False(t, ok)

	_, _, ok = r.RemovePlayer("p0")
	require.True(t, ok)
	assert.Empty(t, r.Seats)
	assert.Empty(t, r.HostID)
	assert.NoError(t, r.Check())
	assert.Empty(t, r.Snapshot().Players)
}

func TestRoom_CheckDetectsCorruption(t *testing.T) {
	r := newTestRoom(t, 2, DefaultRules())
	require.NoError(t, r.StartGame("p0"))
	require.NoError(t, r.Check())

	r.Seats = nil
	assert.ErrorIs(t, r.Check(), ErrCorrupted)

	r = newTestRoom(t, 2, DefaultRules())
	require.NoError(t, r.StartGame("p0"))
	r.DealerIndex = 5
	assert.ErrorIs(t, r.Check(), ErrCorrupted)
}

func TestRoom_SnapshotHidesHands(t *testing.T) {
	r := newTestRoom(t, 3, DefaultRules())
	require.NoError(t, r.StartGame("p0"))

	st := r.Snapshot()
	assert.Equal(t, "bidding", st.Phase)
	assert.Equal(t, "p0", st.DealerID)
	assert.Equal(t, "p2", st.BiddingTurnID)
	assert.Empty(t, st.CurrentTurnID)
	for _, p := range st.Players {
		assert.Equal(t, 1, p.CardCount)
	}
	assert.True(t, st.Players[0].Host)
	assert.True(t, st.Players[0].Dealer)
}

// playFullGame drives a game with random legal moves and checks the round
// invariants along the way.
func playFullGame(t *testing.T, seats int, seed int64) *Room {
	t.Helper()
	rng := randutil.New(seed)
	rules := DefaultRules().WithMaxSeats(seats)
	require.NoError(t, rules.Validate())

	r := NewRoom("PROP01", "p0", "Player 0", rules, randutil.Float(rng))
	for i := 1; i < seats; i++ {
		require.NoError(t, r.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i)))
	}
	require.NoError(t, r.StartGame("p0"))

	scores := make([]int, seats)
	var bidOrder []string
	for steps := 0; r.Phase != PhaseGameEnd; steps++ {
		require.Less(t, steps, 10000, "game did not terminate")
		require.NoError(t, r.Check())

		switch r.Phase {
		case PhaseBidding:
			if len(bidOrder) == 0 {
				require.LessOrEqual(t, r.CardsThisRound()*seats, shared.DeckSize)
			}
			bidder := r.BiddingPlayer()
			options := r.ValidBidOptions(bidder.ID)
			require.NotEmpty(t, options)
			bidOrder = append(bidOrder, bidder.ID)

			out, err := r.PlaceBid(bidder.ID, options[rng.IntN(len(options))])
			require.NoError(t, err)
			if !out.BiddingClosed {
				continue
			}

			expected := make([]string, 0, seats)
			for k := 1; k <= seats; k++ {
				expected = append(expected, r.Seats[(r.DealerIndex-k+2*seats)%seats].ID)
			}
			require.Equal(t, expected, bidOrder, "round %d", r.RoundNumber)
			require.Equal(t, r.Dealer().ID, bidOrder[seats-1], "dealer bids last")

			sum := 0
			for _, p := range r.Seats {
				sum += p.BidValue()
			}
			require.NotEqual(t, r.CardsThisRound(), sum, "round %d", r.RoundNumber)
			bidOrder = nil

		case PhaseTrickPlay:
			p := r.TurnPlayer()
			c := p.Hand[rng.IntN(len(p.Hand))]
			out, err := r.PlayCard(p.ID, c)
			require.NoError(t, err)
			if out.Round == nil {
				require.NotContains(t, p.Hand, c)
			}

			if out.Trick != nil {
				for _, pc := range out.Trick.Cards {
					require.LessOrEqual(t, pc.Card.Rank, out.Trick.Winner.Card.Rank)
				}
			}
			if out.Round != nil {
				for i, e := range out.Round.Entries {
					want := 0
					if e.Bid == e.TricksWon {
						want = HitBonus + e.TricksWon
					}
					require.Equal(t, want, e.Delta)
					scores[i] += e.Delta
					require.Equal(t, scores[i], e.Total)
				}
			}

		default:
			t.Fatalf("unexpected phase %s", r.Phase)
		}
	}
	return r
}

func TestRoom_FullGameInvariants(t *testing.T) {
	for seats := MinSeats; seats <= MaxSeats; seats++ {
		for seed := int64(1); seed <= 5; seed++ {
			t.Run(fmt.Sprintf("%d seats seed %d", seats, seed), func(t *testing.T) {
				r := playFullGame(t, seats, seed)

				require.NotNil(t, r.Result)
				assert.Equal(t, ReasonRoundsComplete, r.Result.Reason)
				assert.Equal(t, len(DefaultPattern), r.Result.Rounds)

				best := 0
				for _, p := range r.Seats {
					if p.Score > best {
						best = p.Score
					}
				}
				assert.Equal(t, best, r.Player(r.Result.WinnerID).Score)
			})
		}
	}
}
