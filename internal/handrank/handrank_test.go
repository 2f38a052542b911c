package handrank_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feltcloth/tablestakes/internal/cards"
	"github.com/feltcloth/tablestakes/internal/handrank"
)

func c(rank cards.Rank, suit cards.Suit) cards.Card {
	return cards.Card{Rank: rank, Suit: suit}
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name string
		hand []cards.Card
		want handrank.Category
	}{
		{
			name: "royal flush",
			hand: []cards.Card{
				c(cards.Ace, cards.Hearts), c(cards.King, cards.Hearts),
				c(cards.Queen, cards.Hearts), c(cards.Jack, cards.Hearts),
				c(cards.Ten, cards.Hearts), c(cards.Three, cards.Clubs),
				c(cards.Four, cards.Diamonds),
			},
			want: handrank.StraightFlush,
		},
		{
			name: "wheel straight flush",
			hand: []cards.Card{
				c(cards.Ace, cards.Spades), c(cards.Two, cards.Spades),
				c(cards.Three, cards.Spades), c(cards.Four, cards.Spades),
				c(cards.Five, cards.Spades), c(cards.King, cards.Clubs),
				c(cards.Queen, cards.Diamonds),
			},
			want: handrank.StraightFlush,
		},
		{
			name: "four of a kind",
			hand: []cards.Card{
				c(cards.Nine, cards.Spades), c(cards.Nine, cards.Hearts),
				c(cards.Nine, cards.Diamonds), c(cards.Nine, cards.Clubs),
				c(cards.Two, cards.Clubs),
			},
			want: handrank.FourOfAKind,
		},
		{
			name: "full house from two trips",
			hand: []cards.Card{
				c(cards.King, cards.Spades), c(cards.King, cards.Hearts),
				c(cards.King, cards.Diamonds), c(cards.Seven, cards.Clubs),
				c(cards.Seven, cards.Spades), c(cards.Seven, cards.Hearts),
				c(cards.Two, cards.Clubs),
			},
			want: handrank.FullHouse,
		},
		{
			name: "flush",
			hand: []cards.Card{
				c(cards.Two, cards.Clubs), c(cards.Five, cards.Clubs),
				c(cards.Nine, cards.Clubs), c(cards.Jack, cards.Clubs),
				c(cards.King, cards.Clubs), c(cards.Ace, cards.Hearts),
			},
			want: handrank.Flush,
		},
		{
			name: "wheel straight",
			hand: []cards.Card{
				c(cards.Ace, cards.Hearts), c(cards.Two, cards.Clubs),
				c(cards.Three, cards.Diamonds), c(cards.Four, cards.Spades),
				c(cards.Five, cards.Hearts), c(cards.King, cards.Clubs),
			},
			want: handrank.Straight,
		},
		{
			name: "two pair",
			hand: []cards.Card{
				c(cards.Jack, cards.Spades), c(cards.Jack, cards.Hearts),
				c(cards.Four, cards.Diamonds), c(cards.Four, cards.Clubs),
				c(cards.Two, cards.Spades),
			},
			want: handrank.TwoPair,
		},
		{
			name: "high card",
			hand: []cards.Card{
				c(cards.Two, cards.Spades), c(cards.Five, cards.Hearts),
				c(cards.Nine, cards.Diamonds), c(cards.Jack, cards.Clubs),
				c(cards.King, cards.Spades),
			},
			want: handrank.HighCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := handrank.Evaluate(tt.hand)
			require.Equal(t, tt.want, v.Category)
		})
	}
}

func TestCompareOrdersCategoriesCorrectly(t *testing.T) {
	flush := handrank.Evaluate([]cards.Card{
		c(cards.Two, cards.Clubs), c(cards.Five, cards.Clubs),
		c(cards.Nine, cards.Clubs), c(cards.Jack, cards.Clubs),
		c(cards.King, cards.Clubs),
	})
	straight := handrank.Evaluate([]cards.Card{
		c(cards.Ace, cards.Hearts), c(cards.Two, cards.Clubs),
		c(cards.Three, cards.Diamonds), c(cards.Four, cards.Spades),
		c(cards.Five, cards.Hearts),
	})
	require.Positive(t, handrank.Compare(flush, straight))
	require.Negative(t, handrank.Compare(straight, flush))
}

func TestCompareBreaksTiesWithinCategory(t *testing.T) {
	acesUp := handrank.Evaluate([]cards.Card{
		c(cards.Ace, cards.Spades), c(cards.Ace, cards.Hearts),
		c(cards.King, cards.Diamonds), c(cards.Five, cards.Clubs),
		c(cards.Two, cards.Clubs),
	})
	kingsUp := handrank.Evaluate([]cards.Card{
		c(cards.King, cards.Spades), c(cards.King, cards.Hearts),
		c(cards.Ace, cards.Diamonds), c(cards.Five, cards.Clubs),
		c(cards.Two, cards.Clubs),
	})
	require.Equal(t, handrank.OnePair, acesUp.Category)
	require.Equal(t, handrank.OnePair, kingsUp.Category)
	require.Positive(t, handrank.Compare(acesUp, kingsUp))
}

func TestEvaluatePanicsOutsideCardRange(t *testing.T) {
	require.Panics(t, func() {
		handrank.Evaluate([]cards.Card{c(cards.Ace, cards.Spades)})
	})
}
