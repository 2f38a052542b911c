package ledger

import "errors"

// Sentinel errors the wallet ledger returns, per spec §4.3/§7's error
// taxonomy: Resource (insufficient funds), Contention (duplicate key).
var (
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	ErrDuplicateKey      = errors.New("ledger: idempotency key already used")
	ErrAccountNotFound   = errors.New("ledger: account not found")
)
