package engine

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"time"
)

// Speed controls the turn deadline, per table.
type Speed int

const (
	Normal Speed = iota
	Turbo
	Hyper
)

// TurnTimeout returns the per-action deadline for this speed, matching the
// defaults of 30s/15s/10s.
func (s Speed) TurnTimeout() int {
	switch s {
	case Turbo:
		return 15
	case Hyper:
		return 10
	default:
		return 30
	}
}

// BotPolicy configures whether and how many bots the registry/scheduler
// should maintain on a table.
type BotPolicy struct {
	Enabled    bool
	TargetSeat int
	Difficulty string
}

// Privacy is a table's join-gating mode.
type Privacy int

const (
	Public Privacy = iota
	PassphraseHashed
	InviteToken
)

// Config is a validated table configuration, built once by the Table
// Registry from a creation request and handed to NewGame.
type Config struct {
	Name              string
	MaxSeats          int
	SmallBlind        int64
	BigBlind          int64
	MinBuyInBB        int64
	MaxBuyInBB        int64
	AbsoluteChipCap   int64
	TopUpCooldownHand int
	Speed             Speed
	Bots              BotPolicy
	Privacy           Privacy
	PassphraseHash    string
	InviteToken       string
	InviteTokenExpiry time.Time
	Ante              int64
}

// MinBuyIn and MaxBuyIn express the buy-in bounds in chips.
func (c Config) MinBuyIn() int64 { return c.MinBuyInBB * c.BigBlind }
func (c Config) MaxBuyIn() int64 {
	max := c.MaxBuyInBB * c.BigBlind
	if c.AbsoluteChipCap > 0 && max > c.AbsoluteChipCap {
		return c.AbsoluteChipCap
	}
	return max
}

// ValidateBuyIn enforces §4.4 Join semantics step 1.
func (c Config) ValidateBuyIn(amount int64) error {
	if amount < c.BigBlind || amount < c.MinBuyIn() || amount > c.MaxBuyIn() {
		return ErrInsufficientBuy
	}
	if c.AbsoluteChipCap > 0 && amount > c.AbsoluteChipCap {
		return ErrInsufficientBuy
	}
	return nil
}

// VerifyPassphrase checks a candidate passphrase against the table's
// stored hash using a constant-time comparison, so join attempts can't
// learn anything from response-time variance (§4.4 Join semantics step 2).
func (c Config) VerifyPassphrase(candidate string) bool {
	if c.PassphraseHash == "" {
		return false
	}
	sum := sha256.Sum256([]byte(candidate))
	candidateHash := fmt.Sprintf("%x", sum)
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(c.PassphraseHash)) == 1
}

// VerifyInviteToken checks a candidate invite token for exact match and
// expiry.
func (c Config) VerifyInviteToken(candidate string) bool {
	if c.InviteToken == "" {
		return false
	}
	if !c.InviteTokenExpiry.IsZero() && time.Now().After(c.InviteTokenExpiry) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(c.InviteToken)) == 1
}

// RequiresAccessCheck reports whether Join must verify a passphrase or
// invite token before seating a player.
func (c Config) RequiresAccessCheck() bool {
	return c.Privacy != Public
}
