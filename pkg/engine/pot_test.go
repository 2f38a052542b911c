package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feltcloth/tablestakes/internal/handrank"
)

func seatWithInvestment(pos int, investment int64, folded bool, rank handrank.Value) *Seat {
	s := NewSeat("user", "user", pos, 0, false)
	s.Investment = investment
	if folded {
		s.SetState(Folded)
	} else {
		s.SetState(Called)
		v := rank
		s.HandValue = &v
	}
	return s
}

// TestSidePotScenarioA reproduces spec Scenario A — Simple side pot: three
// players A, B, C with stacks 50, 100, 100; everyone goes all-in
// pre-flop. A=pair of aces, B=pair of kings, C=high card.
func TestSidePotScenarioA(t *testing.T) {
	pairAces := handrank.Value{Category: handrank.OnePair, Tiebreakers: []int{14, 13, 12, 11}}
	pairKings := handrank.Value{Category: handrank.OnePair, Tiebreakers: []int{13, 12, 11, 10}}
	highCard := handrank.Value{Category: handrank.HighCard, Tiebreakers: []int{9, 8, 7, 6, 5}}

	a := seatWithInvestment(0, 50, false, pairAces)
	b := seatWithInvestment(1, 100, false, pairKings)
	c := seatWithInvestment(2, 100, false, highCard)
	seats := []*Seat{a, b, c}

	pm := NewPotManager()
	pm.BuildSidePots(seats)
	require.Len(t, pm.Pots, 2)
	require.Equal(t, int64(150), pm.Pots[0].Amount) // 50*3
	require.Equal(t, int64(100), pm.Pots[1].Amount) // 50*2

	byPos := map[int]*Seat{0: a, 1: b, 2: c}
	awards := pm.Distribute(byPos, 2 /* button at C */, 3)
	require.Len(t, awards, 2)

	require.Equal(t, int64(150), a.Stack) // main pot winner
	require.Equal(t, int64(100), b.Stack) // side pot winner
	require.Equal(t, int64(0), c.Stack)
}

// TestRemainderScenarioB reproduces spec Scenario B — Remainder
// distribution: a 100-chip pot with three identically ranked winners;
// each gets 33, the earliest-position winner gets the extra chip.
func TestRemainderScenarioB(t *testing.T) {
	tie := handrank.Value{Category: handrank.TwoPair, Tiebreakers: []int{10, 9, 8}}
	w1 := seatWithInvestment(0, 0, false, tie)
	w2 := seatWithInvestment(1, 0, false, tie)
	w3 := seatWithInvestment(2, 0, false, tie)

	pm := &PotManager{Pots: []*Pot{{
		Amount:   100,
		Eligible: map[int]bool{0: true, 1: true, 2: true},
	}}}
	byPos := map[int]*Seat{0: w1, 1: w2, 2: w3}

	// Button at seat 2: earliest position clockwise from the button is
	// seat 0.
	awards := pm.Distribute(byPos, 2, 3)
	require.Len(t, awards, 1)
	require.Equal(t, 0, awards[0].RemainderTo)
	require.Equal(t, int64(34), w1.Stack)
	require.Equal(t, int64(33), w2.Stack)
	require.Equal(t, int64(33), w3.Stack)
	require.Equal(t, int64(100), w1.Stack+w2.Stack+w3.Stack)
}

func TestBuildSidePotsFoldedContributesButIneligible(t *testing.T) {
	winner := seatWithInvestment(0, 100, false, handrank.Value{Category: handrank.OnePair})
	folded := seatWithInvestment(1, 100, true, handrank.Value{})

	pm := NewPotManager()
	pm.BuildSidePots([]*Seat{winner, folded})
	require.Len(t, pm.Pots, 1)
	require.Equal(t, int64(200), pm.Pots[0].Amount)
	require.True(t, pm.Pots[0].Eligible[0])
	require.False(t, pm.Pots[0].Eligible[1])
}
