package tableactor

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
	"github.com/feltcloth/tablestakes/pkg/engine"
)

// Ledger is the subset of *ledger.Ledger the actor needs. Declared as an
// interface here (rather than importing the concrete type) keeps the
// actor testable against a fake and makes the wallet boundary explicit:
// the actor never touches a *sql.DB directly, only this contract.
type Ledger interface {
	TransferWalletToEscrow(userID, tableID string, amount int64, idempotencyKey string) (int64, error)
	TransferEscrowToWallet(userID, tableID string, amount int64, idempotencyKey string) (int64, error)
	Compensate(userID, tableID string, amount int64, freshKey string) (int64, error)
}

// BotRebalancer is the hook into the Bot Scheduler an actor calls after a
// human joins or leaves (§4.4 step 6, "request the Bot Scheduler to
// rebalance"). Implemented by pkg/botsched.
type BotRebalancer interface {
	Rebalance(tableID string, humanCount, botCount, maxSeats int)
}

// BotDecider is the Bot Scheduler's per-turn decision contract (§4.6
// "decide(table_snapshot, seat) -> (delay, action)"). minRaise is the
// smallest Action.Amount TakeAction will accept for ActionRaise right now,
// or 0 if the seat can't cover even that minimum (see engine.MinRaiseAmount)
// — querying it here, not inside Decide, keeps the interface's only
// dependency on *engine.Game confined to the actor. Implemented by
// pkg/botsched.
type BotDecider interface {
	Decide(view *engine.GameView, callAmount, minRaise int64, legal []engine.ActionType) (time.Duration, engine.Action)
}

const inboxCapacity = 256

// Actor owns one table's Game and processes commands off a single
// channel, one at a time — the only concurrency model permitted for
// mutating game state (spec §4.4/§5).
type Actor struct {
	TableID string
	Config  engine.Config

	game    *engine.Game
	ledger  Ledger
	bots    BotRebalancer
	decider BotDecider
	log     slog.Logger

	inbox chan any
	done  chan struct{}

	spectators   map[string]bool
	turnDeadline time.Time
	turnPos      int
	turnValid    bool

	keyCounter uint64
}

// New constructs an Actor. Call Run in its own goroutine to start it.
func New(tableID string, cfg engine.Config, game *engine.Game, l Ledger, bots BotRebalancer, decider BotDecider, log slog.Logger) *Actor {
	return &Actor{
		TableID:    tableID,
		Config:     cfg,
		game:       game,
		ledger:     l,
		bots:       bots,
		decider:    decider,
		log:        log,
		inbox:      make(chan any, inboxCapacity),
		done:       make(chan struct{}),
		spectators: make(map[string]bool),
	}
}

// Inbox exposes the send side of the actor's channel. Senders that find it
// full must treat that as explicit backpressure (§5 "Inbox full") — never
// block forever and never drop silently; Send below enforces this.
func (a *Actor) Inbox() chan<- any { return a.inbox }

// Send enqueues msg, returning an error immediately if the inbox is full
// rather than blocking the caller indefinitely.
func (a *Actor) Send(msg any) error {
	select {
	case a.inbox <- msg:
		return nil
	default:
		return fmt.Errorf("tableactor %s: inbox full", a.TableID)
	}
}

// Done is closed once the actor's Run loop has exited.
func (a *Actor) Done() <-chan struct{} { return a.done }

// Seats is a synchronous convenience wrapper over PeekSeats, for external
// callers (the Bot Scheduler) that need the table's current seat list
// without holding a subscriber GameView of their own. Blocks until the
// actor processes the request or the inbox is full.
func (a *Actor) Seats() ([]engine.PublicSeatView, error) {
	reply := make(chan []engine.PublicSeatView, 1)
	if err := a.Send(PeekSeats{Reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// freshIdempotencyKey builds a collision-resistant key from a monotonic
// per-actor counter, the wall clock, and eight bytes of crypto/rand —
// millisecond-timestamp-plus-random-suffix, the spec's "or equivalent"
// (§4.3 Idempotency).
func (a *Actor) freshIdempotencyKey(intent string) string {
	n := atomic.AddUint64(&a.keyCounter, 1)
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("%s:%s:%d:%d:%s", a.TableID, intent, time.Now().UnixMilli(), n, hex.EncodeToString(buf[:]))
}

// Run is the actor's cooperative loop: read one message, handle it fully,
// repeat. No suspension happens inside engine.Game.Step (synchronous
// start-to-finish per §5); the only yield points are the channel receive,
// the ledger call, and the bot-decision sleep.
func (a *Actor) Run() {
	defer close(a.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-a.inbox:
			if !ok {
				return
			}
			if a.handle(msg) {
				return
			}
		case now := <-ticker.C:
			a.handleTick(Tick{At: now})
		}
	}
}

func (a *Actor) handle(msg any) (shutdown bool) {
	switch m := msg.(type) {
	case Join:
		m.Reply <- a.handleJoin(m)
	case Leave:
		m.Reply <- a.handleLeave(m)
	case TakeAction:
		m.Reply <- a.handleTakeAction(m)
	case Chat:
		m.Reply <- a.handleChat(m)
	case Spectate:
		a.spectators[m.UserID] = true
		m.Reply <- nil
	case StopSpectate:
		delete(a.spectators, m.UserID)
		m.Reply <- nil
	case GetView:
		m.Reply <- a.handleGetView(m.UserID)
	case PeekSeats:
		m.Reply <- a.handlePeekSeats()
	case TopUp:
		m.Reply <- a.handleTopUp(m)
	case AdminKick:
		m.Reply <- a.handleKick(m.UserID)
	case VoteKick:
		m.Reply <- a.handleKick(m.UserID)
	case AddBot:
		m.Reply <- a.handleAddBot(m)
	case RemoveBot:
		m.Reply <- a.handleRemoveBot(m)
	case Tick:
		a.handleTick(m)
	case Shutdown:
		err := a.handleShutdown()
		m.Reply <- err
		return true
	default:
		a.log.Warnf("tableactor %s: unrecognized message %T", a.TableID, msg)
	}
	return false
}
