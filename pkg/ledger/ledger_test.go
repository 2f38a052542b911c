package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	l, err := Open(path, slog.Disabled)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestTransferWalletToEscrowMovesBalance(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AdminAdjust("alice", 1000, "seed-alice")
	require.NoError(t, err)

	newBalance, err := l.TransferWalletToEscrow("alice", "T1", 300, "join-1")
	require.NoError(t, err)
	require.Equal(t, int64(700), newBalance)

	escrow, err := l.EscrowBalance("T1")
	require.NoError(t, err)
	require.Equal(t, int64(300), escrow)
}

// TestLedgerIdempotencyScenarioC reproduces spec Scenario C: two concurrent
// calls with the same idempotency key against a 1000-balance wallet.
// Exactly one succeeds with new_balance=400; the other returns
// ErrDuplicateKey; exactly two ledger entries exist for the key, summing to
// zero.
func TestLedgerIdempotencyScenarioC(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AdminAdjust("u", 1000, "seed-u")
	require.NoError(t, err)

	const key = "K"
	var wg sync.WaitGroup
	results := make([]int64, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.TransferWalletToEscrow("u", "T", 600, key)
		}(i)
	}
	wg.Wait()

	successes, dupes := 0, 0
	for i := 0; i < 2; i++ {
		switch {
		case errs[i] == nil:
			successes++
			require.Equal(t, int64(400), results[i])
		case errs[i] == ErrDuplicateKey:
			dupes++
		default:
			t.Fatalf("unexpected error: %v", errs[i])
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, dupes)

	var count int
	var sum int64
	require.NoError(t, l.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM wallet_entries WHERE idempotency_key = ?`, key,
	).Scan(&count, &sum))
	require.Equal(t, 2, count)
	require.Equal(t, int64(0), sum)
}

// TestConditionalDebitUnderConcurrencyScenarioD reproduces spec Scenario D:
// U has 100; two concurrent 80-chip transfers with distinct keys. Exactly
// one succeeds (returning 20), the other fails with ErrInsufficientFunds.
// Wallet balance ends at 20.
func TestConditionalDebitUnderConcurrencyScenarioD(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AdminAdjust("u", 100, "seed-u")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]int64, 2)
	errs := make([]error, 2)
	keys := []string{"X", "Y"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.TransferWalletToEscrow("u", "T", 80, keys[i])
		}(i)
	}
	wg.Wait()

	successes, failures := 0, 0
	for i := 0; i < 2; i++ {
		switch {
		case errs[i] == nil:
			successes++
			require.Equal(t, int64(20), results[i])
		case errs[i] == ErrInsufficientFunds:
			failures++
		default:
			t.Fatalf("unexpected error: %v", errs[i])
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, failures)

	balance, err := l.Balance("u")
	require.NoError(t, err)
	require.Equal(t, int64(20), balance)
}

func TestTransferEscrowToWalletRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AdminAdjust("alice", 500, "seed-alice")
	require.NoError(t, err)
	_, err = l.TransferWalletToEscrow("alice", "T1", 500, "join-1")
	require.NoError(t, err)

	balance, err := l.TransferEscrowToWallet("alice", "T1", 500, "leave-1")
	require.NoError(t, err)
	require.Equal(t, int64(500), balance)

	escrow, err := l.EscrowBalance("T1")
	require.NoError(t, err)
	require.Equal(t, int64(0), escrow)
}

func TestClaimFaucetCreditsWallet(t *testing.T) {
	l := newTestLedger(t)
	balance, err := l.ClaimFaucet("bob", 200, "faucet-1")
	require.NoError(t, err)
	require.Equal(t, int64(200), balance)
}

func TestAdminAdjustNegativeRequiresFunds(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AdminAdjust("carol", 50, "seed-carol")
	require.NoError(t, err)

	_, err = l.AdminAdjust("carol", -100, "adjust-1")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	balance, err := l.AdminAdjust("carol", -30, "adjust-2")
	require.NoError(t, err)
	require.Equal(t, int64(20), balance)
}

func TestReconcileReportsBalancedLedger(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.ClaimFaucet("alice", 1000, "faucet-alice")
	require.NoError(t, err)
	_, err = l.TransferWalletToEscrow("alice", "T1", 400, "join-1")
	require.NoError(t, err)
	_, err = l.AdminAdjust("alice", -50, "rake-ish")
	require.NoError(t, err)

	report, err := l.Reconcile()
	require.NoError(t, err)
	require.True(t, report.DebitsBalance)
	require.True(t, report.ChipsConserved)
	require.Equal(t, int64(550), report.TotalWallets)
	require.Equal(t, int64(400), report.TotalEscrows)
}
