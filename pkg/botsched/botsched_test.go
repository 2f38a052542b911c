package botsched

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feltcloth/tablestakes/pkg/engine"
)

func newSeededRNG(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func TestDecidePassiveNeverRaises(t *testing.T) {
	legal := []engine.ActionType{engine.ActionFold, engine.ActionCall, engine.ActionRaise, engine.ActionAllIn}
	for i := 0; i < 20; i++ {
		a := decide(Passive, 50, 100, legal, nil)
		require.NotEqual(t, engine.ActionRaise, a.Type)
	}
}

func TestDecideAggressiveSometimesRaises(t *testing.T) {
	legal := []engine.ActionType{engine.ActionFold, engine.ActionCall, engine.ActionRaise, engine.ActionAllIn}
	rng := newSeededRNG(1)
	sawRaise := false
	for i := 0; i < 50; i++ {
		a := decide(Aggressive, 10, 20, legal, rng)
		if a.Type == engine.ActionRaise {
			sawRaise = true
			require.Greater(t, a.Amount, int64(0))
		}
	}
	require.True(t, sawRaise)
}

func TestDecideAggressiveRaisesByTheMinimumLegalAmount(t *testing.T) {
	legal := []engine.ActionType{engine.ActionFold, engine.ActionCall, engine.ActionRaise, engine.ActionAllIn}
	rng := newSeededRNG(1)
	for i := 0; i < 50; i++ {
		a := decide(Aggressive, 10, 37, legal, rng)
		if a.Type == engine.ActionRaise {
			require.Equal(t, int64(37), a.Amount)
		}
	}
}

func TestDecideFallsBackToCallWhenMinRaiseUnaffordable(t *testing.T) {
	legal := []engine.ActionType{engine.ActionFold, engine.ActionCall, engine.ActionRaise, engine.ActionAllIn}
	rng := newSeededRNG(1)
	for i := 0; i < 50; i++ {
		a := decide(Aggressive, 10, 0, legal, rng)
		require.NotEqual(t, engine.ActionRaise, a.Type)
	}
}

func TestDecideFoldsWhenNothingElseLegal(t *testing.T) {
	a := decide(Passive, 0, 0, []engine.ActionType{engine.ActionFold, engine.ActionAllIn}, nil)
	require.Equal(t, engine.ActionFold, a.Type)
}

func TestDifficultyFromBotNameRoundTrips(t *testing.T) {
	require.Equal(t, Passive, difficultyFromBotName(botName(Passive, 1)))
	require.Equal(t, Aggressive, difficultyFromBotName(botName(Aggressive, 2)))
	require.Equal(t, Random, difficultyFromBotName(botName(Random, 3)))
	require.Equal(t, Random, difficultyFromBotName("whatever"))
}
