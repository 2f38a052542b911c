package engine

import "errors"

// Sentinel errors callers distinguish with errors.Is, mirroring the
// taxonomy of validation/authorization/resource errors the wallet ledger
// and table actor need to report distinctly to callers.
var (
	ErrIllegalAction   = errors.New("engine: action not legal in current phase")
	ErrNotYourTurn     = errors.New("engine: not this seat's turn")
	ErrSeatNotFound    = errors.New("engine: seat not found")
	ErrSeatFolded      = errors.New("engine: seat has folded")
	ErrTableFull       = errors.New("engine: table is full")
	ErrRaiseTooSmall   = errors.New("engine: raise increment below minimum")
	ErrInsufficientBuy = errors.New("engine: buy-in out of configured range")
	ErrDeckExhausted   = errors.New("engine: deck exhausted mid-hand")
)
