package cards

import "math/rand"

// Deck is a permutation of the 52 distinct cards with an index marking the
// next undealt position, per the spec's data model for Board/Deck.
type Deck struct {
	cards [52]Card
	next  int
	rng   *rand.Rand
}

// NewDeck builds a freshly shuffled deck using rng. Passing a seeded rng
// makes dealing deterministic, which the engine's tests rely on.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: All52(), rng: rng}
	d.Shuffle()
	return d
}

// Shuffle re-permutes the deck in place and resets the draw index to zero.
// This is also the defensive fallback the spec requires on deck exhaustion
// (§ Deck exhaustion): a reshuffle rather than a crash.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	d.next = 0
}

// Draw returns the next undealt card and advances the index. ok is false
// once all 52 cards have been dealt.
func (d *Deck) Draw() (card Card, ok bool) {
	if d.next >= len(d.cards) {
		return Card{}, false
	}
	card = d.cards[d.next]
	d.next++
	return card, true
}

// Remaining reports how many cards are left to deal.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}

// IsPermutation reports whether the deck's 52 cards are exactly the 52
// distinct cards with no duplicates — the invariant §8.9 requires every
// shuffle to preserve.
func (d *Deck) IsPermutation() bool {
	seen := make(map[Card]bool, 52)
	for _, c := range d.cards {
		if seen[c] {
			return false
		}
		seen[c] = true
	}
	return len(seen) == 52
}
