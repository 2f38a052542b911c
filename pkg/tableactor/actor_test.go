package tableactor

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/feltcloth/tablestakes/pkg/engine"
	"github.com/stretchr/testify/require"
)

// fakeLedger is an in-memory stand-in for *ledger.Ledger, letting these
// tests exercise join/leave escrow flow without sqlite.
type fakeLedger struct {
	wallets map[string]int64
	escrow  map[string]int64
	used    map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{wallets: make(map[string]int64), escrow: make(map[string]int64), used: make(map[string]bool)}
}

func (f *fakeLedger) TransferWalletToEscrow(userID, tableID string, amount int64, key string) (int64, error) {
	if f.used[key] {
		return 0, errDuplicateKey
	}
	if f.wallets[userID] < amount {
		return 0, errInsufficientFunds
	}
	f.used[key] = true
	f.wallets[userID] -= amount
	f.escrow[tableID] += amount
	return f.wallets[userID], nil
}

func (f *fakeLedger) TransferEscrowToWallet(userID, tableID string, amount int64, key string) (int64, error) {
	if f.used[key] {
		return 0, errDuplicateKey
	}
	if f.escrow[tableID] < amount {
		return 0, errInsufficientFunds
	}
	f.used[key] = true
	f.escrow[tableID] -= amount
	f.wallets[userID] += amount
	return f.wallets[userID], nil
}

func (f *fakeLedger) Compensate(userID, tableID string, amount int64, freshKey string) (int64, error) {
	return f.TransferEscrowToWallet(userID, tableID, amount, freshKey)
}

type stubDecider struct{}

func (stubDecider) Decide(view *engine.GameView, callAmount, minRaise int64, legal []engine.ActionType) (time.Duration, engine.Action) {
	for _, a := range legal {
		if a == engine.ActionCheck {
			return 0, engine.Action{Type: engine.ActionCheck}
		}
	}
	return 0, engine.Action{Type: engine.ActionFold}
}

var (
	errDuplicateKey      = errors.New("fakeledger: duplicate idempotency key")
	errInsufficientFunds = errors.New("fakeledger: insufficient funds")
)

func newTestActor(t *testing.T) (*Actor, *fakeLedger) {
	t.Helper()
	cfg := engine.Config{
		Name:              "test",
		MaxSeats:          4,
		SmallBlind:        5,
		BigBlind:          10,
		MinBuyInBB:        10,
		MaxBuyInBB:        200,
		AbsoluteChipCap:   100000,
		TopUpCooldownHand: 2,
	}
	game := engine.NewGame(cfg, rand.New(rand.NewSource(1)), slog.Disabled)
	fl := newFakeLedger()
	a := New("T1", cfg, game, fl, nil, stubDecider{}, slog.Disabled)
	return a, fl
}

func TestJoinEscrowsFromWallet(t *testing.T) {
	a, fl := newTestActor(t)
	fl.wallets["alice"] = 1000

	err := a.handleJoin(Join{UserID: "alice", Name: "alice", BuyIn: 500})
	require.NoError(t, err)
	require.Equal(t, int64(500), fl.wallets["alice"])
	require.Equal(t, int64(500), fl.escrow["T1"])

	pos, ok := a.game.SeatPosByUserID("alice")
	require.True(t, ok)
	require.Equal(t, int64(500), a.game.Seats[pos].Stack)
}

func TestJoinRejectsBelowMinBuyIn(t *testing.T) {
	a, fl := newTestActor(t)
	fl.wallets["alice"] = 1000

	err := a.handleJoin(Join{UserID: "alice", Name: "alice", BuyIn: 5})
	require.Error(t, err)
	require.Equal(t, int64(1000), fl.wallets["alice"])
}

func TestLeaveReturnsStackToWallet(t *testing.T) {
	a, fl := newTestActor(t)
	fl.wallets["alice"] = 1000
	require.NoError(t, a.handleJoin(Join{UserID: "alice", Name: "alice", BuyIn: 500}))

	result := a.handleLeave(Leave{UserID: "alice"})
	require.NoError(t, result.Err)
	require.Equal(t, int64(500), result.FinalStack)
	require.Equal(t, int64(1000), fl.wallets["alice"])
	require.Equal(t, int64(0), fl.escrow["T1"])
}

func TestLeaveIsIdempotentForAlreadyGoneUser(t *testing.T) {
	a, _ := newTestActor(t)
	result := a.handleLeave(Leave{UserID: "ghost"})
	require.NoError(t, result.Err)
	require.Equal(t, int64(0), result.FinalStack)
}

func TestTopUpRejectedDuringCooldown(t *testing.T) {
	a, fl := newTestActor(t)
	fl.wallets["alice"] = 2000
	require.NoError(t, a.handleJoin(Join{UserID: "alice", Name: "alice", BuyIn: 500}))

	err := a.handleTopUp(TopUp{UserID: "alice", Amount: 100})
	require.Error(t, err)
}

func TestTakeActionRejectsUnseatedUser(t *testing.T) {
	a, _ := newTestActor(t)
	err := a.handleTakeAction(TakeAction{UserID: "nobody", Action: engine.Action{Type: engine.ActionFold}})
	require.ErrorIs(t, err, engine.ErrSeatNotFound)
}

func TestGetViewForSpectatorHasNoHoleCards(t *testing.T) {
	a, fl := newTestActor(t)
	fl.wallets["alice"] = 1000
	require.NoError(t, a.handleJoin(Join{UserID: "alice", Name: "alice", BuyIn: 500}))

	view := a.handleGetView("someone-watching")
	require.NotNil(t, view)
	require.Empty(t, view.HoleCards)
	require.Len(t, view.Seats(), 1)
}

func TestRunProcessesJoinOverChannel(t *testing.T) {
	a, fl := newTestActor(t)
	fl.wallets["alice"] = 1000
	go a.Run()
	t.Cleanup(func() {
		reply := make(chan error, 1)
		a.Send(Shutdown{Reply: reply})
		<-reply
	})

	reply := make(chan error, 1)
	require.NoError(t, a.Send(Join{UserID: "alice", Name: "alice", BuyIn: 500, Reply: reply}))
	require.NoError(t, <-reply)
}
