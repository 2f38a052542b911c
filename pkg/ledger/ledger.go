// Package ledger implements the wallet/escrow double-entry accounting
// system: atomic conditional debits, idempotent transfers, and periodic
// reconciliation, backed by github.com/mattn/go-sqlite3.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/slog"
	_ "github.com/mattn/go-sqlite3"
)

// EntryType classifies a ledger entry, per spec §3 "Ledger Entry".
type EntryType string

const (
	EntryBuyIn      EntryType = "BuyIn"
	EntryCashOut    EntryType = "CashOut"
	EntryRake       EntryType = "Rake"
	EntryBonus      EntryType = "Bonus"
	EntryAdminAdjst EntryType = "AdminAdjust"
	EntryTransfer   EntryType = "Transfer"
)

// Ledger is the wallet/escrow accounting store. Safe for concurrent use by
// many Table Actors: concurrency is delegated to sqlite's transactional
// isolation plus the conditional-update debit, per spec §5 "The Wallet
// Ledger is backed by a connection-pooled transactional store".
type Ledger struct {
	db  *sql.DB
	log slog.Logger
}

// Open connects to (and, if needed, initializes) the sqlite-backed ledger
// at path. Use "file:<name>?mode=memory&cache=shared" for tests.
func Open(path string, log slog.Logger) (*Ledger, error) {
	dsn := path + "?_busy_timeout=5000"
	if strings.Contains(path, "?") {
		dsn = path + "&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	// sqlite allows only one writer at a time; serializing connections here
	// turns concurrent callers into queued transactions instead of racy
	// SQLITE_BUSY errors, and makes the conditional-debit race in transfer
	// resolve deterministically (one commits, one observes the other's
	// committed balance).
	db.SetMaxOpenConns(1)
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &Ledger{db: db, log: log}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// DB returns the underlying connection pool, so other components backed by
// the same sqlite file (the Table Registry's table metadata) can share one
// pool instead of opening a second, separately-serialized connection to the
// same database.
func (l *Ledger) DB() *sql.DB { return l.db }

// escrowAccount maps a table identifier to its reserved escrow account id,
// the string analogue of the spec's negative-user-id convention (see
// DESIGN.md Open Question 2 — table ids here are strings, not ints, so the
// "negative" distinguishing marker is a leading '-' rather than sign bit).
func escrowAccount(tableID string) string { return "-" + tableID }

// isMintAccount reports whether accountID is a system mint/sink account
// ("-faucet", "-admin") rather than a real user wallet or table escrow.
// Table escrow ids are also "-"-prefixed, so the prefix alone would not
// tell them apart; only these two exact ids bypass the balance check.
func isMintAccount(accountID string) bool {
	return accountID == "-faucet" || accountID == "-admin"
}

// Balance returns an account's current balance, or zero if the account has
// no wallet row yet (the row is not created by this read).
func (l *Ledger) Balance(userID string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(`SELECT balance FROM wallets WHERE user_id = ?`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: balance %s: %w", userID, err)
	}
	return balance, nil
}

// EscrowBalance returns a table escrow's current balance. Escrow accounts
// are wallets rows under the table's escrowAccount id, not a separate
// ledger — see escrowAccount.
func (l *Ledger) EscrowBalance(tableID string) (int64, error) {
	return l.Balance(escrowAccount(tableID))
}

// transfer moves amount from src to dst atomically: a conditional debit
// (UPDATE ... WHERE balance >= amount) on src, a credit on dst, and two
// ledger entries sharing idempotencyKey, all inside one serializable
// transaction. Per spec §4.3: if the idempotency key has been used, the
// call is a no-op returning ErrDuplicateKey; if the debit affects zero
// rows, the call fails with ErrInsufficientFunds and nothing is written.
func (l *Ledger) transfer(src, dst, tableID string, amount int64, key string, entryType EntryType) (newSrcBalance int64, err error) {
	if amount <= 0 {
		return 0, fmt.Errorf("ledger: transfer amount must be positive, got %d", amount)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("ledger: begin transfer: %w", err)
	}
	defer tx.Rollback()

	var used int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM wallet_entries WHERE idempotency_key = ?`, key).Scan(&used); err != nil {
		return 0, fmt.Errorf("ledger: check idempotency key: %w", err)
	}
	if used > 0 {
		return 0, ErrDuplicateKey
	}

	ensureAccount(tx, src)
	ensureAccount(tx, dst)

	// Mint/sink accounts ("-faucet", "-admin") fund and absorb chips out of
	// thin air and are not bound by the non-negative balance invariant that
	// governs real user wallets and table escrows — only they may go
	// negative, which is exactly what lets Reconcile compute total minted
	// minus total burned from their balances.
	var srcBalance int64
	if isMintAccount(src) {
		err = tx.QueryRow(
			`UPDATE wallets SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
			 WHERE user_id = ? RETURNING balance`,
			amount, src,
		).Scan(&srcBalance)
	} else {
		err = tx.QueryRow(
			`UPDATE wallets SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
			 WHERE user_id = ? AND balance >= ? RETURNING balance`,
			amount, src, amount,
		).Scan(&srcBalance)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: debit %s: %w", src, err)
	}

	var dstBalance int64
	err = tx.QueryRow(
		`UPDATE wallets SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? RETURNING balance`,
		amount, dst,
	).Scan(&dstBalance)
	if err != nil {
		return 0, fmt.Errorf("ledger: credit %s: %w", dst, err)
	}

	_, err = tx.Exec(
		`INSERT INTO wallet_entries (account_id, table_id, amount, direction, entry_type, idempotency_key, balance_after)
		 VALUES (?, ?, ?, 'debit', ?, ?, ?)`,
		src, nullableTableID(tableID), -amount, string(entryType), key, srcBalance,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("ledger: write debit entry: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO wallet_entries (account_id, table_id, amount, direction, entry_type, idempotency_key, balance_after)
		 VALUES (?, ?, ?, 'credit', ?, ?, ?)`,
		dst, nullableTableID(tableID), amount, string(entryType), key, dstBalance,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("ledger: write credit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ledger: commit transfer: %w", err)
	}
	return srcBalance, nil
}

// nullableTableID lets non-table transfers (faucet claims) store a NULL
// table_id instead of an empty string.
func nullableTableID(tableID string) interface{} {
	if tableID == "" {
		return nil
	}
	return tableID
}

// ensureAccount creates a zero-balance wallet row if one does not exist,
// so transfer's conditional UPDATE always has a row to match against.
func ensureAccount(tx *sql.Tx, accountID string) {
	tx.Exec(`INSERT OR IGNORE INTO wallets (user_id, balance) VALUES (?, 0)`, accountID)
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure — the signal that this idempotency_key has already been used.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// TransferWalletToEscrow moves amount from a user's wallet into a table's
// escrow, e.g. on Join. idempotencyKey must be unique per logical intent.
func (l *Ledger) TransferWalletToEscrow(userID, tableID string, amount int64, idempotencyKey string) (int64, error) {
	balance, err := l.transfer(userID, escrowAccount(tableID), tableID, amount, idempotencyKey, EntryBuyIn)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return 0, err
		}
		if errors.Is(err, ErrDuplicateKey) {
			l.log.Debugf("ledger: duplicate wallet->escrow transfer key=%s user=%s", idempotencyKey, userID)
			return 0, err
		}
		l.log.Errorf("ledger: wallet->escrow transfer failed: %v", err)
		return 0, err
	}
	return balance, nil
}

// TransferEscrowToWallet is the inverse of TransferWalletToEscrow, e.g. on
// Leave/CashOut.
func (l *Ledger) TransferEscrowToWallet(userID, tableID string, amount int64, idempotencyKey string) (int64, error) {
	_, err := l.transfer(escrowAccount(tableID), userID, tableID, amount, idempotencyKey, EntryCashOut)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			l.log.Criticalf("ledger: escrow %s has insufficient balance to pay out %d — chip conservation bug", tableID, amount)
		}
		return 0, err
	}
	return l.Balance(userID)
}

// ClaimFaucet credits amount to a user's wallet from the mint account
// "-faucet", rate-limited by the caller (external, out of scope per §1).
func (l *Ledger) ClaimFaucet(userID string, amount int64, idempotencyKey string) (int64, error) {
	if _, err := l.transfer("-faucet", userID, "", amount, idempotencyKey, EntryBonus); err != nil {
		return 0, err
	}
	return l.Balance(userID)
}

// AdminAdjust applies a signed adjustment to a user's wallet from the
// "-admin" mint/sink account, for operator-initiated corrections.
func (l *Ledger) AdminAdjust(userID string, amount int64, idempotencyKey string) (int64, error) {
	var err error
	if amount >= 0 {
		_, err = l.transfer("-admin", userID, "", amount, idempotencyKey, EntryAdminAdjst)
	} else {
		_, err = l.transfer(userID, "-admin", "", -amount, idempotencyKey, EntryAdminAdjst)
	}
	if err != nil {
		return 0, err
	}
	return l.Balance(userID)
}

// Compensate posts a fresh offsetting escrow-to-wallet transfer with a new
// idempotency key when a Table Actor debited a wallet but the subsequent
// game-state update failed — per §4.3 "Rollback on compound failure": it
// never "undoes" the original entry, it records a new, independent one.
func (l *Ledger) Compensate(userID, tableID string, amount int64, freshKey string) (int64, error) {
	balance, err := l.TransferEscrowToWallet(userID, tableID, amount, freshKey)
	if err != nil {
		l.log.Criticalf("ledger: compensating transfer failed for user=%s table=%s amount=%d key=%s: %v — chips stuck in escrow, needs manual reconciliation", userID, tableID, amount, freshKey, err)
	}
	return balance, err
}
