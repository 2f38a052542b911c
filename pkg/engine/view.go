package engine

import "github.com/feltcloth/tablestakes/internal/cards"

// PublicSeatView is a seat's publicly observable state: no hole cards
// unless revealed at showdown.
type PublicSeatView struct {
	UserID       string
	Name         string
	Position     int
	Stack        int64
	RoundCommit  int64
	Investment   int64
	State        SeatState
	IsDealer     bool
	IsBot        bool
	RevealedHand []cards.Card // non-nil only at/after ShowHands for non-folded seats
	HandDesc     string       // chehsunliu/poker's description of RevealedHand, e.g. "Full House, Sevens over Fours"
}

// PotView is the public view of one pot's amount (eligible set is not
// exposed; it's derivable from who is still in the hand).
type PotView struct {
	Amount int64
}

// sharedView holds the fields that are identical for every recipient of a
// given Step — shared by pointer across all per-player GameViews, per
// spec §4.2 "Views are structurally shared".
type sharedView struct {
	Phase        Phase
	HandNumber   int
	Board        []cards.Card
	Pots         []PotView
	CurrentBet   int64
	ButtonPos    int
	CurrentActor int
	Seats        []PublicSeatView
}

// GameView is the per-recipient snapshot the Table Actor hands to one
// subscriber: everything in sharedView, plus that recipient's own hole
// cards if seated.
type GameView struct {
	shared    *sharedView
	HoleCards []cards.Card
}

func (v *GameView) Phase() Phase            { return v.shared.Phase }
func (v *GameView) HandNumber() int         { return v.shared.HandNumber }
func (v *GameView) Board() []cards.Card     { return v.shared.Board }
func (v *GameView) Pots() []PotView         { return v.shared.Pots }
func (v *GameView) CurrentBet() int64       { return v.shared.CurrentBet }
func (v *GameView) ButtonPos() int          { return v.shared.ButtonPos }
func (v *GameView) CurrentActor() int       { return v.shared.CurrentActor }
func (v *GameView) Seats() []PublicSeatView { return v.shared.Seats }

// buildShared assembles the fields identical for every recipient of the
// current Step, shared by pointer across every per-player GameView plus
// the spectator view, per spec §4.2 "Views are structurally shared".
func (g *Game) buildShared() *sharedView {
	shared := &sharedView{
		Phase:        g.Phase,
		HandNumber:   g.HandNumber,
		Board:        g.Board,
		CurrentBet:   g.CurrentBet,
		ButtonPos:    g.ButtonPos,
		CurrentActor: g.CurrentActor,
	}
	for _, p := range g.Pots.Pots {
		shared.Pots = append(shared.Pots, PotView{Amount: p.Amount})
	}

	revealing := g.Phase == PhaseShowHands || g.Phase == PhaseDistributePot
	for _, pos := range g.orderedPositions() {
		s := g.Seats[pos]
		sv := PublicSeatView{
			UserID:      s.UserID,
			Name:        s.Name,
			Position:    s.Position,
			Stack:       s.Stack,
			RoundCommit: s.RoundCommit,
			Investment:  s.Investment,
			State:       s.State(),
			IsDealer:    s.IsDealer,
			IsBot:       s.IsBot,
		}
		if revealing && s.State() != Folded {
			sv.RevealedHand = s.HoleCards
			if s.HandValue != nil {
				sv.HandDesc = s.HandValue.Description
			}
		}
		shared.Seats = append(shared.Seats, sv)
	}
	return shared
}

// Views builds one GameView per seated user, each carrying that seat's own
// hole cards. Use SpectatorView for a non-seated subscriber (§6 Spectate:
// "throttled view updates, no hole cards").
func (g *Game) Views() map[string]*GameView {
	shared := g.buildShared()
	out := make(map[string]*GameView, len(g.Seats))
	for pos := range g.Seats {
		s := g.Seats[pos]
		out[s.UserID] = &GameView{shared: shared, HoleCards: s.HoleCards}
	}
	return out
}

// SpectatorView returns the same shared snapshot any seated player would
// see, with no hole cards attached — valid even at zero seats, unlike
// indexing into Views() by a userID that was never seated.
func (g *Game) SpectatorView() *GameView {
	return &GameView{shared: g.buildShared()}
}

func (g *Game) orderedPositions() []int {
	out := make([]int, 0, len(g.Seats))
	for pos := range g.Seats {
		out = append(out, pos)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
