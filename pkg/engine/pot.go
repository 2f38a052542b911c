package engine

import (
	"sort"

	"github.com/feltcloth/tablestakes/internal/handrank"
)

// Pot is a pool of chips with an eligible-winner set, addressed by seat
// position rather than map iteration so remainder distribution can be
// ordered deterministically.
type Pot struct {
	Amount    int64
	Eligible  map[int]bool // seat position -> eligible
	Investors map[int]bool // seat position -> contributed (incl. folded)
}

func newPot() *Pot {
	return &Pot{Eligible: make(map[int]bool), Investors: make(map[int]bool)}
}

// IsEligible reports whether the seat at position p can win this pot.
func (p *Pot) IsEligible(pos int) bool { return p.Eligible[pos] }

// PotManager builds and distributes pots from seat investments, per
// spec §4.1/§4.2's side-pot construction and multi-winner resolution.
type PotManager struct {
	Pots []*Pot
}

// NewPotManager starts a hand with a single empty main pot.
func NewPotManager() *PotManager {
	return &PotManager{Pots: []*Pot{newPot()}}
}

// BuildSidePots constructs the hand's final pot structure from each seat's
// total investment, per spec §4.2 "Side pot construction": sort the
// distinct positive investments ascending a_1 < a_2 < ... < a_k; pot j has
// amount (a_j - a_{j-1}) * |{p : I_p >= a_j}| and eligible set
// {p : I_p >= a_j and not folded}. Folded players contribute to pot
// amounts but are never eligible.
func (pm *PotManager) BuildSidePots(seats []*Seat) {
	distinct := make(map[int64]bool)
	for _, s := range seats {
		if s.Investment > 0 {
			distinct[s.Investment] = true
		}
	}
	if len(distinct) == 0 {
		pm.Pots = []*Pot{newPot()}
		return
	}

	levels := make([]int64, 0, len(distinct))
	for v := range distinct {
		levels = append(levels, v)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []*Pot
	var prev int64
	for _, level := range levels {
		pot := newPot()
		for _, s := range seats {
			if s.Investment <= prev {
				continue
			}
			contribution := s.Investment
			if contribution > level {
				contribution = level
			}
			contribution -= prev
			if contribution <= 0 {
				continue
			}
			pot.Amount += contribution
			pot.Investors[s.Position] = true
			if s.Investment >= level && s.State() != Folded {
				pot.Eligible[s.Position] = true
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}
	if len(pots) == 0 {
		pots = []*Pot{newPot()}
	}
	pm.Pots = pots
}

// TotalPot returns the sum of all pot amounts.
func (pm *PotManager) TotalPot() int64 {
	var total int64
	for _, p := range pm.Pots {
		total += p.Amount
	}
	return total
}

// Award is one pot's distribution outcome, reported back to the caller so
// it can emit a PotAwarded event per pot.
type Award struct {
	Pot         *Pot
	WinnerPos   []int
	PerWinner   int64
	RemainderTo int // first winner given a remainder chip; -1 if no remainder
}

// Distribute awards every pot to its winners, per spec §4.1's multi-winner
// resolution: ties split by integer division; the remainder is awarded one
// chip at a time to winners in earliest button-relative position order.
// buttonPos is the current dealer button seat position, used to compute
// "earliest position" as distance clockwise from the button. numSeats must
// be the table's position modulus (Config.MaxSeats), not the current
// occupant count — seat positions are sparse and a seat can sit empty
// between the button and the highest occupied position.
func (pm *PotManager) Distribute(seats map[int]*Seat, buttonPos, numSeats int) []Award {
	awards := make([]Award, 0, len(pm.Pots))
	for _, pot := range pm.Pots {
		var winners []int
		var best *handrank.Value
		for pos := range pot.Eligible {
			seat, ok := seats[pos]
			if !ok || seat.State() == Folded || seat.HandValue == nil {
				continue
			}
			switch {
			case best == nil:
				best = seat.HandValue
				winners = []int{pos}
			case handrank.Compare(*seat.HandValue, *best) > 0:
				best = seat.HandValue
				winners = []int{pos}
			case handrank.Compare(*seat.HandValue, *best) == 0:
				winners = append(winners, pos)
			}
		}
		if len(winners) == 0 {
			continue
		}
		sortByPositionFromButton(winners, buttonPos, numSeats)

		share := pot.Amount / int64(len(winners))
		remainder := pot.Amount % int64(len(winners))

		award := Award{Pot: pot, WinnerPos: winners, PerWinner: share, RemainderTo: -1}
		for _, pos := range winners {
			seats[pos].Stack += share
		}
		for i := int64(0); i < remainder; i++ {
			seats[winners[i]].Stack++
		}
		if remainder > 0 {
			award.RemainderTo = winners[0]
		}
		awards = append(awards, award)
	}
	return awards
}

// sortByPositionFromButton orders seat positions by clockwise distance from
// the button (the seat immediately left of the button is earliest),
// matching the spec's "earliest position order" remainder rule.
func sortByPositionFromButton(positions []int, buttonPos, numSeats int) {
	dist := func(pos int) int {
		d := pos - buttonPos
		if d <= 0 {
			d += numSeats
		}
		return d
	}
	sort.Slice(positions, func(i, j int) bool {
		return dist(positions[i]) < dist(positions[j])
	})
}
