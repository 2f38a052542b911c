// Package handrank evaluates the best 5-card poker hand out of 2..7 cards
// and produces a totally ordered value comparable across hands, per the
// poker hand-ranking rules (straight flush down to high card, with the
// wheel as the lowest straight).
package handrank

import (
	"fmt"
	"sort"

	chehsunliu "github.com/chehsunliu/poker"

	"github.com/feltcloth/tablestakes/internal/cards"
)

// Category is a poker hand category, ordered from weakest to strongest so
// that int comparison between categories matches hand strength.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Value is a totally ordered poker hand rank: a category plus the
// tiebreaker rank sequence that matters for that category, in the order
// the rules compare them (e.g. TwoPair: [higher pair, lower pair, kicker]).
type Value struct {
	Category    Category
	Tiebreakers []int // ranks, most significant first
	Description string
}

// Compare returns <0 if a is weaker than b, 0 if equal, >0 if a is stronger.
func Compare(a, b Value) int {
	if a.Category != b.Category {
		return int(a.Category) - int(b.Category)
	}
	for i := 0; i < len(a.Tiebreakers) && i < len(b.Tiebreakers); i++ {
		if a.Tiebreakers[i] != b.Tiebreakers[i] {
			return a.Tiebreakers[i] - b.Tiebreakers[i]
		}
	}
	return 0
}

// Evaluate computes the best 5-card hand rank obtainable from 2..7 cards.
// For 5..7 cards — every real call in this repo, since a hand is only ever
// ranked once the board is complete — the category and its chehsunliu/poker
// rank number come straight out of that library's cactus-kev lookup table;
// this package only extracts, per category, the ordered tiebreaker ranks
// Compare needs and a human-readable description. chehsunliu's evaluator
// requires at least 5 cards, so 2..4-card hands (kept for API completeness;
// nothing in this repo evaluates an incomplete hand) fall back to this
// package's own category cascade restricted to the categories reachable
// with fewer than 5 cards. Any rank appearing more than four times is a
// programming error (it cannot arise from a validly seeded deck) and is a
// fatal invariant violation.
func Evaluate(hand []cards.Card) Value {
	if len(hand) < 2 || len(hand) > 7 {
		panic(fmt.Sprintf("handrank: Evaluate requires 2..7 cards, got %d", len(hand)))
	}

	rankCount := make(map[cards.Rank]int, 13)
	suitCards := make(map[cards.Suit][]cards.Rank, 4)
	for _, c := range hand {
		rankCount[c.Rank]++
		if rankCount[c.Rank] > 4 {
			panic(fmt.Sprintf("handrank: rank %v appears more than four times — invalid input", c.Rank))
		}
		suitCards[c.Suit] = append(suitCards[c.Suit], c.Rank)
	}

	if len(hand) < 5 {
		cat, tb := categorizeShortHand(rankCount)
		return Value{Category: cat, Tiebreakers: tb, Description: cat.String()}
	}

	conv := make([]chehsunliu.Card, len(hand))
	for i, c := range hand {
		cc, err := toChehsunliu(c)
		if err != nil {
			panic(fmt.Sprintf("handrank: %v", err))
		}
		conv[i] = cc
	}

	rank := chehsunliu.Evaluate(conv)
	cat := categoryFromRankClass(chehsunliu.RankClass(rank))

	return Value{
		Category:    cat,
		Tiebreakers: tiebreakers(cat, rankCount, suitCards),
		Description: chehsunliu.RankString(rank),
	}
}

// categorizeShortHand handles the 2..4-card hands chehsunliu can't
// evaluate. A straight, flush, straight flush, or full house all need at
// least 5 cards, so only four-of-a-kind down to high card are reachable.
func categorizeShortHand(rankCount map[cards.Rank]int) (Category, []int) {
	if v, ok := fourOfAKind(rankCount); ok {
		return FourOfAKind, v
	}
	if v, ok := threeOfAKind(rankCount); ok {
		return ThreeOfAKind, v
	}
	if v, ok := twoPair(rankCount); ok {
		return TwoPair, v
	}
	if v, ok := onePair(rankCount); ok {
		return OnePair, v
	}
	return HighCard, highCards(rankCount, 5)
}

// categoryFromRankClass maps chehsunliu/poker's 1 (best, straight flush)
// through 9 (worst, high card) rank class onto our own Category, which
// orders the other direction so int comparison matches hand strength.
func categoryFromRankClass(rc int32) Category {
	switch rc {
	case 1:
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return OnePair
	default:
		return HighCard
	}
}

// tiebreakers extracts the rank sequence Compare needs to break ties within
// a category, now that chehsunliu has already done the harder job of
// determining which category applies.
func tiebreakers(cat Category, rankCount map[cards.Rank]int, suitCards map[cards.Suit][]cards.Rank) []int {
	switch cat {
	case StraightFlush:
		v, _ := straightFlush(suitCards)
		return v
	case FourOfAKind:
		v, _ := fourOfAKind(rankCount)
		return v
	case FullHouse:
		v, _ := fullHouse(rankCount)
		return v
	case Flush:
		v, _ := flush(suitCards)
		return v
	case Straight:
		top, _ := straightTop(presentRanks(rankCount))
		return []int{top}
	case ThreeOfAKind:
		v, _ := threeOfAKind(rankCount)
		return v
	case TwoPair:
		v, _ := twoPair(rankCount)
		return v
	case OnePair:
		v, _ := onePair(rankCount)
		return v
	default:
		return highCards(rankCount, 5)
	}
}

// presentRanks returns the distinct ranks present, descending.
func presentRanks(rankCount map[cards.Rank]int) []int {
	out := make([]int, 0, len(rankCount))
	for r := range rankCount {
		out = append(out, int(r))
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// straightTop finds the highest 5-consecutive run in the given descending,
// duplicate-free rank list, including the wheel (A-2-3-4-5, reported as
// top=5 since the wheel's Ace counts low). Returns ok=false if no straight.
func straightTop(descRanks []int) (top int, ok bool) {
	present := make(map[int]bool, len(descRanks))
	for _, r := range descRanks {
		present[r] = true
	}
	for t := 14; t >= 6; t-- {
		if present[t] && present[t-1] && present[t-2] && present[t-3] && present[t-4] {
			return t, true
		}
	}
	if present[14] && present[5] && present[4] && present[3] && present[2] {
		return 5, true
	}
	return 0, false
}

func straightFlush(suitCards map[cards.Suit][]cards.Rank) ([]int, bool) {
	for _, ranks := range suitCards {
		if len(ranks) < 5 {
			continue
		}
		desc := make([]int, 0, len(ranks))
		seen := make(map[int]bool)
		for _, r := range ranks {
			if !seen[int(r)] {
				seen[int(r)] = true
				desc = append(desc, int(r))
			}
		}
		sort.Sort(sort.Reverse(sort.IntSlice(desc)))
		if top, ok := straightTop(desc); ok {
			return []int{top}, true
		}
	}
	return nil, false
}

func ranksWithCount(rankCount map[cards.Rank]int, count int) []int {
	var out []int
	for r, c := range rankCount {
		if c == count {
			out = append(out, int(r))
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func fourOfAKind(rankCount map[cards.Rank]int) ([]int, bool) {
	quads := ranksWithCount(rankCount, 4)
	if len(quads) == 0 {
		return nil, false
	}
	quad := quads[0]
	kicker := highCardsExcluding(rankCount, 1, quad)
	return append([]int{quad}, kicker...), true
}

func fullHouse(rankCount map[cards.Rank]int) ([]int, bool) {
	trips := ranksWithCount(rankCount, 3)
	if len(trips) == 0 {
		return nil, false
	}
	tripsRank := trips[0]
	var pairCandidates []int
	if len(trips) > 1 {
		pairCandidates = append(pairCandidates, trips[1:]...)
	}
	pairCandidates = append(pairCandidates, ranksWithCount(rankCount, 2)...)
	if len(pairCandidates) == 0 {
		return nil, false
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pairCandidates)))
	return []int{tripsRank, pairCandidates[0]}, true
}

func flush(suitCards map[cards.Suit][]cards.Rank) ([]int, bool) {
	for _, ranks := range suitCards {
		if len(ranks) < 5 {
			continue
		}
		desc := make([]int, len(ranks))
		for i, r := range ranks {
			desc[i] = int(r)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(desc)))
		return desc[:5], true
	}
	return nil, false
}

func threeOfAKind(rankCount map[cards.Rank]int) ([]int, bool) {
	trips := ranksWithCount(rankCount, 3)
	if len(trips) == 0 {
		return nil, false
	}
	tripsRank := trips[0]
	kickers := highCardsExcluding(rankCount, 2, tripsRank)
	return append([]int{tripsRank}, kickers...), true
}

func twoPair(rankCount map[cards.Rank]int) ([]int, bool) {
	pairs := ranksWithCount(rankCount, 2)
	if len(pairs) < 2 {
		return nil, false
	}
	hi, lo := pairs[0], pairs[1]
	kicker := highCardsExcluding(rankCount, 1, hi, lo)
	return append([]int{hi, lo}, kicker...), true
}

func onePair(rankCount map[cards.Rank]int) ([]int, bool) {
	pairs := ranksWithCount(rankCount, 2)
	if len(pairs) == 0 {
		return nil, false
	}
	pairRank := pairs[0]
	kickers := highCardsExcluding(rankCount, 3, pairRank)
	return append([]int{pairRank}, kickers...), true
}

func highCards(rankCount map[cards.Rank]int, n int) []int {
	return highCardsExcluding(rankCount, n)
}

// highCardsExcluding returns the n highest ranks present, excluding any
// rank listed in exclude (used to pick kickers around a pair/trips/quads).
func highCardsExcluding(rankCount map[cards.Rank]int, n int, exclude ...int) []int {
	excl := make(map[int]bool, len(exclude))
	for _, e := range exclude {
		excl[e] = true
	}
	var all []int
	for r := range rankCount {
		if !excl[int(r)] {
			all = append(all, int(r))
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(all)))
	if len(all) > n {
		all = all[:n]
	}
	return all
}
