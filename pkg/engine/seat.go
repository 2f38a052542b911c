package engine

import (
	"time"

	"github.com/feltcloth/tablestakes/internal/cards"
	"github.com/feltcloth/tablestakes/internal/handrank"
	"github.com/feltcloth/tablestakes/pkg/statemachine"
)

// SeatState is one of a seat's discrete per-hand states, per the spec's
// Player Seat data model.
type SeatState int

const (
	Waiting SeatState = iota
	Checked
	Called
	Raised
	Folded
	AllIn
	SittingOut
)

func (s SeatState) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Checked:
		return "CHECKED"
	case Called:
		return "CALLED"
	case Raised:
		return "RAISED"
	case Folded:
		return "FOLDED"
	case AllIn:
		return "ALL_IN"
	case SittingOut:
		return "SITTING_OUT"
	default:
		return "UNKNOWN"
	}
}

// SeatStateFn follows the Rob Pike state-function pattern used throughout
// this module's statemachine package: each function enters its state,
// firing the optional callback, and stays there until SetState drives an
// external transition.
type SeatStateFn = statemachine.StateFn[Seat]

// Seat is one occupied position at a table. Fields mirror the spec's
// Player Seat data model: stack, round_commit, investment (total committed
// across the hand), hole cards, and discrete state.
type Seat struct {
	UserID      string
	Name        string
	IsBot       bool
	Position    int // table seat index, fixed for the session
	Stack       int64
	RoundCommit int64
	Investment  int64
	HoleCards   []cards.Card
	LastAction  time.Time
	IsDealer    bool
	HandValue   *handrank.Value

	lastTopUpHand int

	state SeatState
	sm    *statemachine.StateMachine[Seat]
}

// NewSeat seats a fresh player with the given buy-in.
func NewSeat(userID, name string, position int, buyIn int64, isBot bool) *Seat {
	s := &Seat{
		UserID:     userID,
		Name:       name,
		Position:   position,
		Stack:      buyIn,
		IsBot:      isBot,
		LastAction: time.Now(),
		state:      Waiting,
	}
	s.sm = statemachine.NewStateMachine(s, seatStateFn(Waiting))
	return s
}

// seatStateFn returns the Rob-Pike state function for a given discrete
// state — a thin, table-driven wrapper so all seven states share one
// implementation instead of seven near-identical functions.
func seatStateFn(want SeatState) SeatStateFn {
	var fn SeatStateFn
	fn = func(s *Seat, cb func(string, statemachine.StateEvent)) SeatStateFn {
		if cb != nil {
			cb(want.String(), statemachine.StateEntered)
		}
		if s.state != want {
			if cb != nil {
				cb(want.String(), statemachine.StateExited)
			}
			return seatStateFn(s.state)
		}
		return fn
	}
	return fn
}

// SetState transitions the seat to a new discrete state via the state
// machine, keeping the fast-read `state` field and the Rob Pike dispatch
// chain in lockstep.
func (s *Seat) SetState(next SeatState) {
	s.state = next
	s.sm.SetState(seatStateFn(next))
}

// State reports the seat's current discrete state.
func (s *Seat) State() SeatState {
	return s.state
}

// ResetForNewHand clears per-hand fields while preserving table-level
// identity (UserID, Name, Position, Stack carries over as the player's
// continuing bankroll).
func (s *Seat) ResetForNewHand() {
	s.RoundCommit = 0
	s.Investment = 0
	s.HoleCards = nil
	s.IsDealer = false
	s.HandValue = nil
	s.LastAction = time.Now()
	if s.Stack > 0 {
		s.SetState(Waiting)
	} else {
		s.SetState(SittingOut)
	}
}

// CanAct reports whether the seat can still act this betting round.
func (s *Seat) CanAct() bool {
	switch s.state {
	case Folded, AllIn, SittingOut:
		return false
	default:
		return true
	}
}

// Debit moves up to amount chips from stack into round_commit/investment,
// capping at the stack, and returns the amount actually moved. It does not
// change the seat's state: callers set AllIn themselves once the stack
// reaches zero.
func (s *Seat) Debit(amount int64) (debited int64) {
	if amount >= s.Stack {
		debited = s.Stack
		s.Stack = 0
	} else {
		debited = amount
		s.Stack -= amount
	}
	s.RoundCommit += debited
	s.Investment += debited
	return debited
}
