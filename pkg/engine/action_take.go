package engine

import "time"

// TakeAction applies a player's requested move, per §4.2 "Action legality
// in TakeAction". It is the only external mutation accepted while the FSM
// is parked in a TakeAction phase; all other phases run to completion
// synchronously inside Step.
func (g *Game) TakeAction(pos int, action Action) error {
	if !g.Phase.IsTakeAction() {
		return ErrIllegalAction
	}
	if pos != g.CurrentActor {
		return ErrNotYourTurn
	}
	seat, ok := g.Seats[pos]
	if !ok {
		return ErrSeatNotFound
	}
	if !seat.CanAct() {
		return ErrSeatFolded
	}

	switch action.Type {
	case ActionFold:
		seat.SetState(Folded)

	case ActionCheck:
		if seat.RoundCommit != g.CurrentBet {
			return ErrIllegalAction
		}
		seat.SetState(Checked)

	case ActionCall:
		if seat.RoundCommit >= g.CurrentBet {
			return ErrIllegalAction
		}
		seat.Debit(g.CurrentBet - seat.RoundCommit)
		if seat.Stack == 0 {
			seat.SetState(AllIn)
		} else {
			seat.SetState(Called)
		}

	case ActionRaise:
		if action.Amount <= 0 || action.Amount > seat.Stack {
			return ErrIllegalAction
		}
		newCommit := seat.RoundCommit + action.Amount
		if newCommit <= g.CurrentBet {
			return ErrIllegalAction
		}
		increment := newCommit - g.CurrentBet
		minIncrement := g.LastRaise
		if minIncrement == 0 {
			minIncrement = g.Config.BigBlind
		}
		isAllIn := action.Amount == seat.Stack
		if increment < minIncrement && !isAllIn {
			return ErrRaiseTooSmall
		}
		seat.Debit(action.Amount)
		g.CurrentBet = seat.RoundCommit
		g.LastRaise = increment
		if seat.Stack == 0 {
			seat.SetState(AllIn)
		} else {
			seat.SetState(Raised)
		}

	case ActionAllIn:
		amount := seat.Stack
		seat.Debit(amount)
		if seat.RoundCommit > g.CurrentBet {
			increment := seat.RoundCommit - g.CurrentBet
			if increment > g.LastRaise {
				g.LastRaise = increment
			}
			g.CurrentBet = seat.RoundCommit
		}
		seat.SetState(AllIn)

	default:
		return ErrIllegalAction
	}

	seat.LastAction = time.Now()
	g.emit(Event{Kind: EventActionTaken, SeatPos: pos, Action: action, Amount: action.Amount})

	live := g.handSeatPositions()
	if len(live) == 1 {
		g.foldWin = true
		g.foldWinPos = live[0]
		g.sm.SetState(phaseFn(PhaseDistributePot))
		g.Step()
		return nil
	}

	if g.roundComplete() {
		g.sm.SetState(phaseFn(g.nextStreet()))
		g.Step()
		return nil
	}

	active := live
	nxt := nextPosition(active, pos)
	for !g.Seats[nxt].CanAct() {
		nxt = nextPosition(active, nxt)
	}
	g.CurrentActor = nxt
	return nil
}

// roundComplete reports whether every live (non-folded) seat has either
// gone all-in or acted (left Waiting) to match the current bet — the §4.2
// end-of-round condition. A simplification versus live poker rules: the
// big blind's option to raise when action folds/calls back around to them
// unraised is not separately modeled (treated as already "acted" by their
// blind post); this is a deliberate simplification, not covered by any of
// the spec's testable properties.
func (g *Game) roundComplete() bool {
	for _, pos := range g.handSeatPositions() {
		s := g.Seats[pos]
		if s.State() == AllIn {
			continue
		}
		if s.State() == Waiting || s.RoundCommit != g.CurrentBet {
			return false
		}
	}
	return true
}

// nextStreet maps the current TakeAction phase to the phase that follows
// once its betting round completes.
func (g *Game) nextStreet() Phase {
	switch g.Phase {
	case PhaseTakeActionPreflop:
		return PhaseFlop
	case PhaseTakeActionFlop:
		return PhaseTurn
	case PhaseTakeActionTurn:
		return PhaseRiver
	case PhaseTakeActionRiver:
		return PhaseShowHands
	default:
		return g.Phase
	}
}
