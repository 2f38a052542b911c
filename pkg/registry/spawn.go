package registry

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/feltcloth/tablestakes/pkg/engine"
	"github.com/feltcloth/tablestakes/pkg/tableactor"
)

// CreateTable validates and persists a new table, allocates its
// identifier, spawns its actor goroutine, and records the handle (§4.5
// Spawning). Spawning is idempotent on (name, creator) for spawnWindow, to
// tolerate a double-click retry: a second call within the window returns
// the id from the first, without spawning a second actor.
func (r *Registry) CreateTable(name, creator string, cfg engine.Config, l tableactor.Ledger, bots tableactor.BotRebalancer, decider tableactor.BotDecider) (string, error) {
	dedupeKey := name + "\x00" + creator
	r.spawnDedupeLock.Lock()
	if entry, ok := r.spawnDedupe[dedupeKey]; ok && time.Since(entry.at) < r.spawnWindow {
		r.spawnDedupeLock.Unlock()
		return entry.tableID, nil
	}
	r.spawnDedupeLock.Unlock()

	r.mu.Lock()
	if len(r.handles) >= r.softCap {
		r.mu.Unlock()
		return "", fmt.Errorf("registry: at soft table capacity (%d)", r.softCap)
	}
	r.nextID++
	numericID := r.nextID
	r.mu.Unlock()

	tableID := fmt.Sprintf("table_%d_%s", numericID, randomSuffix())

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("registry: marshal config: %w", err)
	}
	if _, err := r.db.Exec(
		`INSERT INTO tables (id, numeric_id, name, creator, config_json) VALUES (?, ?, ?, ?, ?)`,
		tableID, numericID, name, creator, string(cfgJSON),
	); err != nil {
		return "", fmt.Errorf("registry: persist table: %w", err)
	}

	r.spawn(tableID, cfg, l, bots, decider)

	r.spawnDedupeLock.Lock()
	r.spawnDedupe[dedupeKey] = dedupeEntry{tableID: tableID, at: time.Now()}
	r.spawnDedupeLock.Unlock()

	return tableID, nil
}

type dedupeEntry struct {
	tableID string
	at      time.Time
}

// spawn constructs the Game and Actor and starts the actor's goroutine,
// recording a handle and an initial cache row. Callers hold no lock when
// calling spawn; it acquires its own.
func (r *Registry) spawn(tableID string, cfg engine.Config, l tableactor.Ledger, bots tableactor.BotRebalancer, decider tableactor.BotDecider) {
	game := engine.NewGame(cfg, rand.New(rand.NewSource(time.Now().UnixNano())), r.log)
	actor := tableactor.New(tableID, cfg, game, l, bots, decider, r.log)
	go actor.Run()

	h := &handle{actor: actor, cfg: cfg, createdAt: time.Now(), lastActive: time.Now()}

	r.mu.Lock()
	r.handles[tableID] = h
	r.mu.Unlock()

	r.cacheMu.Lock()
	r.cache[tableID] = cacheEntry{TableInfo{
		ID:                 tableID,
		Name:               cfg.Name,
		MaxSeats:           cfg.MaxSeats,
		PassphraseRequired: cfg.RequiresAccessCheck(),
		SmallBlind:         cfg.SmallBlind,
		BigBlind:           cfg.BigBlind,
	}}
	r.cacheMu.Unlock()
}

// Config returns a live table's current Config, for the Bot Scheduler's
// target-count/difficulty lookups.
func (r *Registry) Config(tableID string) (engine.Config, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[tableID]
	if !ok {
		return engine.Config{}, false
	}
	return h.cfg, true
}

// Lookup returns a live actor's inbox handle by table id.
func (r *Registry) Lookup(tableID string) (*tableactor.Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[tableID]
	if !ok {
		return nil, false
	}
	h.lastActive = time.Now()
	return h.actor, true
}

// UpdateOccupancy is called by the actor-facing layer after a join/leave
// completes, keeping the list cache current without asking the actor
// (§4.5 Listing).
func (r *Registry) UpdateOccupancy(tableID string, playerCount, waitlistLen int) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	entry, ok := r.cache[tableID]
	if !ok {
		return
	}
	entry.PlayerCount = playerCount
	entry.WaitlistLen = waitlistLen
	r.cache[tableID] = entry

	r.mu.Lock()
	if h, ok := r.handles[tableID]; ok {
		h.lastActive = time.Now()
		h.waitlist = waitlistLen
	}
	r.mu.Unlock()
}

// LoadAll recovers every persisted, active table row on startup, spawning
// a fresh actor parked in Lobby for each — generalizing the teacher's
// loadAllTables/loadTableFromDatabase (pkg/server/db.go) onto this
// config-only persistence model. Hands in flight at the moment of a crash
// are not replayed; chips already escrowed are untouched and players
// simply rejoin the recovered table.
func (r *Registry) LoadAll() error {
	rows, err := r.db.Query(`SELECT id, numeric_id, config_json FROM tables WHERE active = 1`)
	if err != nil {
		return fmt.Errorf("registry: load tables: %w", err)
	}
	defer rows.Close()

	var maxID int64
	type row struct {
		id, cfgJSON string
		numericID   int64
	}
	var loaded []row
	for rows.Next() {
		var rr row
		if err := rows.Scan(&rr.id, &rr.numericID, &rr.cfgJSON); err != nil {
			return fmt.Errorf("registry: scan table row: %w", err)
		}
		loaded = append(loaded, rr)
		if rr.numericID > maxID {
			maxID = rr.numericID
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.nextID = maxID
	r.mu.Unlock()

	for _, rr := range loaded {
		var cfg engine.Config
		if err := json.Unmarshal([]byte(rr.cfgJSON), &cfg); err != nil {
			r.log.Errorf("registry: failed to unmarshal config for table %s: %v", rr.id, err)
			continue
		}
		r.log.Infof("registry: recovered table %s (%s) from persistent storage", rr.id, cfg.Name)
		// Ledger/bots/decider are wired in by the composition root after
		// LoadAll returns, via RewireRecovered — recovery itself only needs
		// to reserve the id and cache row.
		r.cacheMu.Lock()
		r.cache[rr.id] = cacheEntry{TableInfo{ID: rr.id, Name: cfg.Name, MaxSeats: cfg.MaxSeats, PassphraseRequired: cfg.RequiresAccessCheck(), SmallBlind: cfg.SmallBlind, BigBlind: cfg.BigBlind}}
		r.cacheMu.Unlock()
		r.pendingRecovery = append(r.pendingRecovery, recoveredTable{id: rr.id, cfg: cfg})
	}
	return nil
}

type recoveredTable struct {
	id  string
	cfg engine.Config
}

// RewireRecovered spawns actors for every table LoadAll reserved but could
// not start on its own (it has no ledger/bot wiring yet). The composition
// root calls this once, right after constructing its Ledger and Bot
// Scheduler.
func (r *Registry) RewireRecovered(l tableactor.Ledger, bots tableactor.BotRebalancer, decider tableactor.BotDecider) {
	for _, rt := range r.pendingRecovery {
		r.spawn(rt.id, rt.cfg, l, bots, decider)
	}
	r.pendingRecovery = nil
}
