package engine

// ActionType is one of the five legal player actions in TakeAction.
type ActionType int

const (
	ActionFold ActionType = iota
	ActionCheck
	ActionCall
	ActionRaise
	ActionAllIn
)

func (a ActionType) String() string {
	switch a {
	case ActionFold:
		return "Fold"
	case ActionCheck:
		return "Check"
	case ActionCall:
		return "Call"
	case ActionRaise:
		return "Raise"
	case ActionAllIn:
		return "AllIn"
	default:
		return "Unknown"
	}
}

// Action is a player's requested move; Amount is only meaningful for Raise
// (the chips added on top of the player's current round_commit, not the
// raise-to total).
type Action struct {
	Type   ActionType
	Amount int64
}

// LegalActions returns the actions currently legal for pos, per §4.2
// "Action legality in TakeAction" — used both to validate TakeAction calls
// and so the Table Actor can hand bots/clients a legal action set.
func (g *Game) LegalActions(pos int) []ActionType {
	seat, ok := g.Seats[pos]
	if !ok || !seat.CanAct() {
		return nil
	}
	legal := []ActionType{ActionFold, ActionAllIn}
	if seat.RoundCommit == g.CurrentBet {
		legal = append(legal, ActionCheck)
	} else {
		legal = append(legal, ActionCall)
	}
	if seat.Stack > 0 {
		legal = append(legal, ActionRaise)
	}
	return legal
}

// MinRaiseAmount returns the smallest Action.Amount that TakeAction will
// accept for an ActionRaise at pos without it being rejected as
// ErrRaiseTooSmall — the increment rule in TakeAction's ActionRaise case,
// solved for Amount. ok is false if pos isn't seated or can't cover even
// that minimum (the seat can still go ActionAllIn for less, per the
// increment rule's all-in exception).
func (g *Game) MinRaiseAmount(pos int) (amount int64, ok bool) {
	seat, exists := g.Seats[pos]
	if !exists {
		return 0, false
	}
	minIncrement := g.LastRaise
	if minIncrement == 0 {
		minIncrement = g.Config.BigBlind
	}
	needed := g.CurrentBet + minIncrement - seat.RoundCommit
	if needed <= 0 {
		needed = minIncrement
	}
	if needed > seat.Stack {
		return 0, false
	}
	return needed, true
}
