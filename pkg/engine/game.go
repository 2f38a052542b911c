package engine

import (
	"fmt"
	"math/rand"

	"github.com/decred/slog"

	"github.com/feltcloth/tablestakes/internal/cards"
	"github.com/feltcloth/tablestakes/internal/handrank"
	"github.com/feltcloth/tablestakes/pkg/statemachine"
)

// GamePhaseFn follows the Rob Pike state-function pattern: each phase
// function performs its phase's work, then returns the function for the
// next phase. Betting phases (TakeAction) return themselves until the
// round is resolved by an external TakeAction call, which is the only
// suspension point in the FSM — §5 "No suspension occurs inside FSM
// step(); state transitions are synchronous from start to finish".
type GamePhaseFn = statemachine.StateFn[Game]

// Game is one table's FSM: deck, board, pots, seats, and the phase
// dispatch chain. Owned exclusively by its Table Actor — no lock is ever
// taken on a Game (§5 "No locks in game logic").
type Game struct {
	Config Config
	Phase  Phase

	Deck         *cards.Deck
	Board        []cards.Card
	Seats        map[int]*Seat // position -> seat
	ButtonPos    int
	CurrentActor int
	CurrentBet   int64
	LastRaise    int64 // last raise increment this round, for min-raise enforcement

	Pots       *PotManager
	HandNumber int

	PendingBoots    map[int]bool // seats flagged by AdminKick/VoteKick/timeout policy
	PendingRemovals map[int]bool // seats that left mid-hand, removed at RemovePlayers

	foldWin    bool // true if the hand ended by everyone-but-one folding
	foldWinPos int

	log slog.Logger
	rng *rand.Rand

	events []Event
	sm     *statemachine.StateMachine[Game]
}

// NewGame constructs a fresh table FSM parked in Lobby.
func NewGame(cfg Config, rng *rand.Rand, log slog.Logger) *Game {
	g := &Game{
		Config:          cfg,
		Phase:           PhaseLobby,
		Deck:            cards.NewDeck(rng),
		Seats:           make(map[int]*Seat),
		ButtonPos:       -1,
		PendingBoots:    make(map[int]bool),
		PendingRemovals: make(map[int]bool),
		rng:             rng,
		log:             log,
	}
	g.Pots = NewPotManager()
	g.sm = statemachine.NewStateMachine(g, phaseFn(PhaseLobby))
	return g
}

// Step advances the FSM one external tick: it dispatches phase functions
// until reaching a phase that requires external input (a TakeAction
// phase) or Lobby (the table is not ready, or a hand has just ended), so a
// caller gets a full automatic
// cascade (MoveButton -> CollectBlinds -> Deal -> TakeAction) per tick
// without needing to know the cascade's internal phase count.
func (g *Game) Step() {
	for i := 0; i < 32; i++ {
		before := g.Phase
		g.sm.Dispatch(nil)
		if g.Phase.IsTakeAction() || g.Phase == PhaseLobby {
			return
		}
		if g.Phase == before {
			// A phase function declined to advance; nothing more to do this
			// tick.
			return
		}
	}
	g.log.Criticalf("engine: phase dispatch did not settle after 32 steps, forcing Lobby")
	g.Phase = PhaseLobby
	g.sm.SetState(phaseFn(PhaseLobby))
}

// phaseFn is a table-driven dispatcher: it returns the Rob-Pike state
// function for a given phase, keeping the (large) phase-specific logic in
// ordinary methods below rather than seventeen near-identical closures.
func phaseFn(p Phase) GamePhaseFn {
	var fn GamePhaseFn
	fn = func(g *Game, cb func(string, statemachine.StateEvent)) GamePhaseFn {
		if cb != nil {
			cb(p.String(), statemachine.StateEntered)
		}
		next := g.runPhase(p)
		g.Phase = next
		if next != p {
			if cb != nil {
				cb(p.String(), statemachine.StateExited)
			}
			return phaseFn(next)
		}
		return fn
	}
	return fn
}

// runPhase executes one phase's obligations per the §4.2 table and
// returns the phase to transition to next.
func (g *Game) runPhase(p Phase) Phase {
	switch p {
	case PhaseLobby:
		return g.doLobby()
	case PhaseSeatPlayers:
		return g.doSeatPlayers()
	case PhaseMoveButton:
		return g.doMoveButton()
	case PhaseCollectBlinds:
		return g.doCollectBlinds()
	case PhaseDeal:
		return g.doDeal()
	case PhaseTakeActionPreflop, PhaseTakeActionFlop, PhaseTakeActionTurn, PhaseTakeActionRiver:
		return p // paused awaiting TakeAction
	case PhaseFlop:
		return g.doFlop()
	case PhaseTurn:
		return g.doTurn()
	case PhaseRiver:
		return g.doRiver()
	case PhaseShowHands:
		return g.doShowHands()
	case PhaseDistributePot:
		return g.doDistributePot()
	case PhaseRemovePlayers:
		return g.doRemovePlayers()
	case PhaseUpdateBlinds:
		return g.doUpdateBlinds()
	case PhaseBootPlayers:
		return g.doBootPlayers()
	default:
		panic(fmt.Sprintf("engine: unreachable phase %v", p))
	}
}

// activeSeatPositions returns seated, non-sitting-out positions in table
// order, the set that participates in SeatPlayers/MoveButton/blinds.
func (g *Game) activeSeatPositions() []int {
	var out []int
	for _, pos := range g.orderedPositions() {
		s := g.Seats[pos]
		if s.Stack > 0 && s.State() != SittingOut {
			out = append(out, pos)
		}
	}
	return out
}

// handSeatPositions returns positions still holding cards this hand
// (not folded), used for turn advancement and round-completion checks.
func (g *Game) handSeatPositions() []int {
	var out []int
	for _, pos := range g.orderedPositions() {
		if g.Seats[pos].State() != Folded {
			out = append(out, pos)
		}
	}
	return out
}

func (g *Game) doLobby() Phase {
	ready := 0
	for _, pos := range g.orderedPositions() {
		if g.Seats[pos].Stack >= g.Config.BigBlind {
			ready++
		}
	}
	if ready < 2 {
		return PhaseLobby
	}
	return PhaseSeatPlayers
}

func (g *Game) doSeatPlayers() Phase {
	for _, pos := range g.orderedPositions() {
		s := g.Seats[pos]
		if s.Stack > 0 {
			s.ResetForNewHand()
		} else {
			s.SetState(SittingOut)
		}
	}
	g.Board = nil
	g.CurrentBet = 0
	g.LastRaise = 0
	g.foldWin = false
	return PhaseMoveButton
}

func (g *Game) doMoveButton() Phase {
	active := g.activeSeatPositions()
	if len(active) == 0 {
		return PhaseLobby
	}
	if g.ButtonPos < 0 {
		g.ButtonPos = active[0]
	} else {
		g.ButtonPos = nextPosition(active, g.ButtonPos)
	}
	for _, pos := range g.orderedPositions() {
		g.Seats[pos].IsDealer = pos == g.ButtonPos
	}
	return PhaseCollectBlinds
}

func (g *Game) doCollectBlinds() Phase {
	active := g.activeSeatPositions()
	var sbPos, bbPos int
	if len(active) == 2 {
		// Heads-up: the button posts the small blind.
		sbPos = g.ButtonPos
		bbPos = nextPosition(active, g.ButtonPos)
	} else {
		sbPos = nextPosition(active, g.ButtonPos)
		bbPos = nextPosition(active, sbPos)
	}
	if g.Config.Ante > 0 {
		for _, pos := range active {
			g.Seats[pos].Debit(min64(g.Config.Ante, g.Seats[pos].Stack))
		}
	}
	g.Seats[sbPos].Debit(g.Config.SmallBlind)
	g.Seats[bbPos].Debit(g.Config.BigBlind)
	for _, pos := range []int{sbPos, bbPos} {
		if g.Seats[pos].Stack == 0 {
			g.Seats[pos].SetState(AllIn)
		} else {
			g.Seats[pos].SetState(Raised)
		}
	}
	g.CurrentBet = g.Config.BigBlind
	g.LastRaise = g.Config.BigBlind
	g.CurrentActor = nextPosition(active, bbPos)
	g.emit(Event{Kind: EventHandStarted, SeatPos: -1})
	return PhaseDeal
}

func (g *Game) doDeal() Phase {
	g.Deck.Shuffle()
	for _, pos := range g.activeSeatPositions() {
		s := g.Seats[pos]
		s.HoleCards = make([]cards.Card, 0, 2)
		for i := 0; i < 2; i++ {
			c, ok := g.Deck.Draw()
			if !ok {
				g.log.Criticalf("engine: deck exhausted dealing hole cards, reshuffling")
				g.Deck.Shuffle()
				c, _ = g.Deck.Draw()
			}
			s.HoleCards = append(s.HoleCards, c)
		}
	}
	return PhaseTakeActionPreflop
}

// burnAndDeal discards one card then deals n community cards, per §4.2's
// Flop/Turn/River obligations.
func (g *Game) burnAndDeal(n int) {
	if _, ok := g.Deck.Draw(); !ok {
		g.log.Criticalf("engine: deck exhausted on burn, reshuffling")
		g.Deck.Shuffle()
		g.Deck.Draw()
	}
	for i := 0; i < n; i++ {
		c, ok := g.Deck.Draw()
		if !ok {
			g.log.Criticalf("engine: deck exhausted dealing board, reshuffling")
			g.Deck.Shuffle()
			c, _ = g.Deck.Draw()
		}
		g.Board = append(g.Board, c)
	}
	g.emit(Event{Kind: EventBoardRevealed, SeatPos: -1, BoardCard: len(g.Board)})
}

// startBettingRound resets per-round commitments and picks the first actor
// to the left of the button among hands still live; if every live hand is
// already all-in, betting is skipped and the remaining streets are dealt
// straight through to ShowHands, per §4.2 "all non-folded players are
// all-in".
func (g *Game) startBettingRound(next Phase) Phase {
	g.CurrentBet = 0
	g.LastRaise = g.Config.BigBlind
	for _, pos := range g.handSeatPositions() {
		s := g.Seats[pos]
		s.RoundCommit = 0
		if s.State() != AllIn {
			s.SetState(Waiting)
		}
	}
	if g.allLiveAllIn() {
		switch next {
		case PhaseTakeActionFlop:
			return PhaseTurn
		case PhaseTakeActionTurn:
			return PhaseRiver
		default:
			return PhaseShowHands
		}
	}
	active := g.handSeatPositions()
	first := nextPosition(active, g.ButtonPos)
	for !g.Seats[first].CanAct() {
		first = nextPosition(active, first)
	}
	g.CurrentActor = first
	return next
}

func (g *Game) allLiveAllIn() bool {
	live := g.handSeatPositions()
	if len(live) < 2 {
		return false
	}
	for _, pos := range live {
		if g.Seats[pos].State() == Waiting || g.Seats[pos].State() == Checked ||
			g.Seats[pos].State() == Called || g.Seats[pos].State() == Raised {
			if g.Seats[pos].Stack > 0 {
				return false
			}
		}
	}
	return true
}

func (g *Game) doFlop() Phase {
	g.burnAndDeal(3)
	return g.startBettingRound(PhaseTakeActionFlop)
}

func (g *Game) doTurn() Phase {
	g.burnAndDeal(1)
	return g.startBettingRound(PhaseTakeActionTurn)
}

func (g *Game) doRiver() Phase {
	g.burnAndDeal(1)
	return g.startBettingRound(PhaseTakeActionRiver)
}

func (g *Game) doShowHands() Phase {
	for _, pos := range g.handSeatPositions() {
		s := g.Seats[pos]
		v := handrank.Evaluate(append(append([]cards.Card{}, s.HoleCards...), g.Board...))
		s.HandValue = &v
	}
	return PhaseDistributePot
}

func (g *Game) doDistributePot() Phase {
	seats := make([]*Seat, 0, len(g.Seats))
	for _, pos := range g.orderedPositions() {
		seats = append(seats, g.Seats[pos])
	}
	g.Pots.BuildSidePots(seats)
	if g.foldWin {
		total := g.Pots.TotalPot()
		g.Seats[g.foldWinPos].Stack += total
		g.emit(Event{Kind: EventPotAwarded, SeatPos: g.foldWinPos, Amount: total})
	} else {
		awards := g.Pots.Distribute(g.Seats, g.ButtonPos, g.Config.MaxSeats)
		for i := range awards {
			g.emit(Event{Kind: EventPotAwarded, PotIndex: i, Awards: awards[i : i+1]})
		}
	}
	// Every committed chip now sits in a winner's stack.
	for _, s := range seats {
		s.RoundCommit = 0
	}
	g.Pots = NewPotManager()
	g.emit(Event{Kind: EventHandEnded, SeatPos: -1})
	return PhaseRemovePlayers
}

func (g *Game) doRemovePlayers() Phase {
	for pos := range g.PendingRemovals {
		delete(g.Seats, pos)
		delete(g.PendingRemovals, pos)
	}
	for _, pos := range g.orderedPositions() {
		if g.Seats[pos].Stack == 0 {
			g.Seats[pos].SetState(SittingOut)
		}
	}
	g.HandNumber++
	return PhaseUpdateBlinds
}

// doUpdateBlinds is a pass-through: tournament blind-level scheduling is
// out of scope (spec §1); this phase exists so a future scheduler has a
// defined insertion point without reshaping the FSM.
func (g *Game) doUpdateBlinds() Phase {
	return PhaseBootPlayers
}

func (g *Game) doBootPlayers() Phase {
	for pos := range g.PendingBoots {
		if s, ok := g.Seats[pos]; ok {
			s.SetState(SittingOut)
		}
		delete(g.PendingBoots, pos)
	}
	return PhaseLobby
}

// nextPosition returns the seat after from in the clockwise ordering
// active (which must be sorted ascending); it wraps around.
func nextPosition(active []int, from int) int {
	for i, pos := range active {
		if pos == from {
			return active[(i+1)%len(active)]
		}
	}
	// from not present (e.g. button seat removed); fall back to first.
	return active[0]
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
