// Package tableactor runs one table's Game as a single cooperative
// goroutine reading off a bounded inbox channel, per spec §4.4/§5/§9: no
// mutex ever guards engine.Game, only serialized message processing does.
package tableactor

import (
	"time"

	"github.com/feltcloth/tablestakes/pkg/engine"
)

// Join seats a player, escrowing amount from their wallet first.
type Join struct {
	UserID     string
	Name       string
	BuyIn      int64
	Passphrase string
	Reply      chan<- error
}

// Leave removes a player, folding them first if it is mid-hand, and
// returns their escrow chips to their wallet.
type Leave struct {
	UserID string
	Reply  chan<- LeaveResult
}

// LeaveResult is what Leave reports back.
type LeaveResult struct {
	FinalStack int64
	Err        error
}

// TakeAction relays a player's action into the FSM.
type TakeAction struct {
	UserID string
	Action engine.Action
	Reply  chan<- error
}

// Chat relays a rate-limited chat line.
type Chat struct {
	UserID string
	Text   string
	Reply  chan<- error
}

// Spectate/StopSpectate toggle a non-seated observer.
type Spectate struct {
	UserID string
	Reply  chan<- error
}
type StopSpectate struct {
	UserID string
	Reply  chan<- error
}

// GetView requests a single subscriber's current GameView.
type GetView struct {
	UserID string
	Reply  chan<- *engine.GameView
}

// TopUp requests a mid-session stack increase, subject to the top-up
// cooldown and the absolute chip cap (spec Open Question 1).
type TopUp struct {
	UserID string
	Amount int64
	Reply  chan<- error
}

// AdminKick force-removes a seat; VoteKick is the player-initiated variant
// the actor resolves the same way once a quorum decision is made upstream
// (quorum counting is a registry/API concern, out of scope here).
type AdminKick struct {
	UserID string
	Reply  chan<- error
}
type VoteKick struct {
	UserID string
	Reply  chan<- error
}

// Tick is the internal periodic message driving turn-timeout checks and
// bot-turn orchestration.
type Tick struct {
	At time.Time
}

// Shutdown asks the actor to drain its inbox and exit; used by the
// Registry during reap.
type Shutdown struct {
	Reply chan<- error
}

// AddBot seats a synthetic bot player. Bots never transact through the
// ledger (§4.6 "Bots use infinite (synthetic) chips"), so AddBot skips
// the escrow step Join performs for humans.
type AddBot struct {
	Name  string
	Stack int64
	Reply chan<- error
}

// RemoveBot despawns one bot, identified by name, without any wallet
// transfer.
type RemoveBot struct {
	Name  string
	Reply chan<- error
}

// PeekSeats returns the table's public seat list, for callers (the Bot
// Scheduler) that need to pick a bot to despawn but are not themselves a
// subscriber with a GameView.
type PeekSeats struct {
	Reply chan<- []engine.PublicSeatView
}
