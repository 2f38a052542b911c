package registry

import (
	"time"

	"github.com/feltcloth/tablestakes/pkg/tableactor"
)

// UpdateSpectatorCount lets the actor-facing layer report spectator
// churn, which (along with player count) determines reap eligibility.
func (r *Registry) UpdateSpectatorCount(tableID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[tableID]; ok {
		h.spectators = n
		h.lastActive = time.Now()
	}
}

// Reap stops every table that has had zero players and zero spectators
// for at least idlePeriod, after verifying its escrow balance is zero
// (§4.5 Reaping: "Escrow MUST be verified zero before reap; otherwise
// alert").
func (r *Registry) Reap() {
	now := time.Now()

	r.mu.Lock()
	var candidates []string
	for id, h := range r.handles {
		r.cacheMu.RLock()
		playerCount := r.cache[id].PlayerCount
		r.cacheMu.RUnlock()
		if playerCount == 0 && h.spectators == 0 && now.Sub(h.lastActive) >= r.idlePeriod {
			candidates = append(candidates, id)
		}
	}
	r.mu.Unlock()

	for _, id := range candidates {
		r.reapOne(id)
	}
}

func (r *Registry) reapOne(tableID string) {
	if r.ledger != nil {
		balance, err := r.ledger.EscrowBalance(tableID)
		if err != nil {
			r.log.Errorf("registry: could not verify escrow for %s before reap: %v", tableID, err)
			return
		}
		if balance != 0 {
			r.log.Criticalf("registry: refusing to reap table %s — escrow balance is %d, not zero", tableID, balance)
			return
		}
	}

	r.mu.Lock()
	h, ok := r.handles[tableID]
	if ok {
		delete(r.handles, tableID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	reply := make(chan error, 1)
	if err := h.actor.Send(tableactor.Shutdown{Reply: reply}); err == nil {
		select {
		case <-reply:
		case <-time.After(5 * time.Second):
			r.log.Warnf("registry: table %s shutdown did not acknowledge in time", tableID)
		}
	}

	r.cacheMu.Lock()
	delete(r.cache, tableID)
	r.cacheMu.Unlock()

	if _, err := r.db.Exec(`UPDATE tables SET active = 0 WHERE id = ?`, tableID); err != nil {
		r.log.Errorf("registry: failed to mark table %s inactive: %v", tableID, err)
	}
	r.log.Infof("registry: reaped idle table %s", tableID)
}

// RunReaper periodically calls Reap until stop is closed, for the
// composition root to launch as a background goroutine.
func (r *Registry) RunReaper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Reap()
		case <-stop:
			return
		}
	}
}
