package handrank

import (
	"fmt"

	chehsunliu "github.com/chehsunliu/poker"

	"github.com/feltcloth/tablestakes/internal/cards"
)

// toChehsunliu converts a Card to the chehsunliu/poker representation that
// Evaluate feeds to chehsunliu.Evaluate for the actual raw hand ranking.
func toChehsunliu(c cards.Card) (chehsunliu.Card, error) {
	var rankChar byte
	switch c.Rank {
	case cards.Two:
		rankChar = '2'
	case cards.Three:
		rankChar = '3'
	case cards.Four:
		rankChar = '4'
	case cards.Five:
		rankChar = '5'
	case cards.Six:
		rankChar = '6'
	case cards.Seven:
		rankChar = '7'
	case cards.Eight:
		rankChar = '8'
	case cards.Nine:
		rankChar = '9'
	case cards.Ten:
		rankChar = 'T'
	case cards.Jack:
		rankChar = 'J'
	case cards.Queen:
		rankChar = 'Q'
	case cards.King:
		rankChar = 'K'
	case cards.Ace:
		rankChar = 'A'
	default:
		return chehsunliu.Card(0), fmt.Errorf("handrank: invalid rank %v", c.Rank)
	}

	var suitChar byte
	switch c.Suit {
	case cards.Spades:
		suitChar = 's'
	case cards.Hearts:
		suitChar = 'h'
	case cards.Diamonds:
		suitChar = 'd'
	case cards.Clubs:
		suitChar = 'c'
	default:
		return chehsunliu.Card(0), fmt.Errorf("handrank: invalid suit %v", c.Suit)
	}

	return chehsunliu.NewCard(string([]byte{rankChar, suitChar})), nil
}
