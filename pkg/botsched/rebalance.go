package botsched

import (
	"github.com/feltcloth/tablestakes/pkg/tableactor"
)

// ActorLookup resolves a table id to its live actor, satisfied by
// *registry.Registry.Lookup. Bound after construction to avoid a
// registry<->botsched import cycle at the composition root.
type ActorLookup func(tableID string) (*tableactor.Actor, bool)

// BindLookup wires the scheduler to the registry's actor handles. Must be
// called once before Rebalance/AddBot/RemoveBot are used.
func (s *Scheduler) BindLookup(lookup ActorLookup) {
	s.lookupActor = lookup
}

// Rebalance implements tableactor.BotRebalancer: spawn a bot if the table
// is under its target and has room, or despawn one if over (e.g. a human
// just joined and displaced a bot seat), per §4.6 "Contract with Table
// Actor" and "Bounds".
func (s *Scheduler) Rebalance(tableID string, humanCount, botCount, maxSeats int) {
	cfg, ok := s.lookupConfig(tableID)
	if !ok || !cfg.Bots.Enabled {
		if botCount > 0 {
			s.despawnOne(tableID)
		}
		return
	}

	target := cfg.Bots.TargetSeat
	if target > MaxBotsPerTable {
		target = MaxBotsPerTable
	}
	emptySeats := maxSeats - humanCount - botCount

	switch {
	case botCount < target && emptySeats > 0:
		s.spawnOne(tableID, Difficulty(cfg.Bots.Difficulty), botCount)
	case botCount > target || humanCount+botCount > maxSeats:
		s.despawnOne(tableID)
	}
}

func (s *Scheduler) spawnOne(tableID string, difficulty Difficulty, existingBotCount int) {
	actor, ok := s.actor(tableID)
	if !ok {
		return
	}
	if difficulty == "" {
		difficulty = Random
	}
	reply := make(chan error, 1)
	name := botName(difficulty, existingBotCount+1)
	if err := actor.Send(tableactor.AddBot{Name: name, Stack: syntheticBotStack, Reply: reply}); err != nil {
		s.log.Warnf("botsched: could not enqueue AddBot for table %s: %v", tableID, err)
		return
	}
	if err := <-reply; err != nil {
		s.log.Errorf("botsched: AddBot failed for table %s: %v", tableID, err)
	}
}

func (s *Scheduler) despawnOne(tableID string) {
	actor, ok := s.actor(tableID)
	if !ok {
		return
	}
	seats, err := actor.Seats()
	if err != nil {
		s.log.Warnf("botsched: could not read seats for table %s: %v", tableID, err)
		return
	}
	var victim string
	for _, seat := range seats {
		if seat.IsBot {
			victim = seat.Name
		}
	}
	if victim == "" {
		return
	}
	reply := make(chan error, 1)
	if err := actor.Send(tableactor.RemoveBot{Name: victim, Reply: reply}); err != nil {
		s.log.Warnf("botsched: could not enqueue RemoveBot for table %s: %v", tableID, err)
		return
	}
	if err := <-reply; err != nil {
		s.log.Errorf("botsched: RemoveBot failed for table %s: %v", tableID, err)
	}
}

func (s *Scheduler) actor(tableID string) (*tableactor.Actor, bool) {
	if s.lookupActor == nil {
		return nil, false
	}
	return s.lookupActor(tableID)
}

// syntheticBotStack is the fixed "infinite" starting stack bots play
// with; it never transacts through the ledger.
const syntheticBotStack = 1_000_000
