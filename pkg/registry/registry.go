// Package registry spawns, addresses, and reaps Table Actors, and caches
// per-table public metadata for list queries, per spec §4.5.
package registry

import (
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/pbnjay/memory"

	"github.com/feltcloth/tablestakes/pkg/engine"
	"github.com/feltcloth/tablestakes/pkg/tableactor"
)

// MaxBotsPerTable is the hard per-table bot ceiling regardless of any
// table's configured bot policy (§4.5 "Bot cap"). The registry does not
// apply it itself; pkg/botsched keeps an identical constant and clamps each
// table's bot target to it in Rebalance.
const MaxBotsPerTable = 8

// bytesPerTableEstimate sizes the soft table-count ceiling off available
// host memory (§ domain stack wiring for github.com/pbnjay/memory) — a
// deliberately conservative per-table footprint (deck + seats + event
// backlog + inbox buffer) used only to keep the registry from
// oversubscribing a host, not a hard limit.
const bytesPerTableEstimate = 4 << 20 // 4 MiB/table headroom

// Ledger is the subset of *ledger.Ledger the registry needs directly (to
// verify an escrow is zero before reaping).
type Ledger interface {
	EscrowBalance(tableID string) (int64, error)
}

// handle is everything the registry tracks about one live table.
type handle struct {
	actor      *tableactor.Actor
	cfg        engine.Config
	createdAt  time.Time
	lastActive time.Time
	spectators int
	waitlist   int
}

// cacheEntry is the denormalized, read-optimized row backing ListTables —
// updated by join/leave handlers instead of polling every actor (§4.5
// "This is a required optimization: the alternative is unacceptable at
// N > ~50 tables").
type cacheEntry struct {
	TableInfo
}

// TableInfo is what a list query returns per table.
type TableInfo struct {
	ID                 string
	Name               string
	MaxSeats           int
	PlayerCount        int
	WaitlistLen        int
	PassphraseRequired bool
	SmallBlind         int64
	BigBlind           int64
}

// Registry owns the table_id -> handle map and the list cache.
type Registry struct {
	db  *sql.DB
	log slog.Logger

	ledger Ledger

	mu      sync.Mutex // guards handles and nextID
	handles map[string]*handle
	nextID  int64

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry

	idlePeriod time.Duration
	softCap    int

	spawnWindow     time.Duration
	spawnDedupe     map[string]dedupeEntry // (name, creator) -> (tableID, time), for idempotent double-click spawns
	spawnDedupeLock sync.Mutex

	pendingRecovery []recoveredTable
}

// New constructs a Registry backed by db (shared with the wallet ledger,
// per SPEC_FULL.md's persistence supplement) and recovers any tables
// persisted from a prior run via LoadAll.
func New(db *sql.DB, ledger Ledger, log slog.Logger) (*Registry, error) {
	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("registry: create schema: %w", err)
	}
	r := &Registry{
		db:          db,
		log:         log,
		ledger:      ledger,
		handles:     make(map[string]*handle),
		cache:       make(map[string]cacheEntry),
		idlePeriod:  10 * time.Minute,
		softCap:     softTableCap(),
		spawnWindow: 5 * time.Second,
		spawnDedupe: make(map[string]dedupeEntry),
	}
	if err := r.LoadAll(); err != nil {
		return nil, err
	}
	return r, nil
}

// softTableCap derives a soft ceiling on concurrently hosted tables from
// total host memory, the mechanism the spec's §4.5 bot cap generalizes to
// table capacity: a defensive upper bound on resource consumption.
func softTableCap() int {
	total := memory.TotalMemory()
	if total == 0 {
		return 1000 // unknown host memory: don't refuse to start
	}
	ceiling := int(total / 4 / bytesPerTableEstimate) // reserve 3/4 of RAM for everything else
	if ceiling < 1 {
		ceiling = 1
	}
	return ceiling
}

func randomSuffix() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 6)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
