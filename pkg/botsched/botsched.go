// Package botsched implements the Bot Scheduler: the decide() contract
// used by a Table Actor to resolve a bot's turn, and spawn/despawn
// rebalancing, per spec §4.6.
package botsched

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/decred/slog"

	"github.com/feltcloth/tablestakes/pkg/engine"
)

// MaxBotsPerTable mirrors registry.MaxBotsPerTable; kept as an independent
// constant here so this package has no import-time dependency on the
// registry (only a Rebalance target callback).
const MaxBotsPerTable = 8

// Difficulty names the three supplemented decision tiers (SPEC_FULL.md
// supplemented feature 3). These are intentionally crude — uniform random,
// always-passive, and a fixed aggression threshold — not a poker-strength
// heuristic engine.
type Difficulty string

const (
	Random     Difficulty = "random"
	Passive    Difficulty = "passive"
	Aggressive Difficulty = "aggressive"
)

// minDelay/maxDelay bound the randomized "thinking time" before a bot acts
// (§4.4 "Bot turns... after a randomized delay in [min_delay, max_delay]
// bounded by a timeout").
const (
	minDelay = 400 * time.Millisecond
	maxDelay = 1800 * time.Millisecond
)

// Scheduler implements tableactor.BotDecider and tableactor.BotRebalancer.
// One Scheduler instance is shared across every table; it holds no
// per-table mutable state itself — difficulty and target count live in
// engine.Config.Bots, read fresh each call.
type Scheduler struct {
	log          slog.Logger
	rng          *rand.Rand
	lookupActor  ActorLookup
	lookupConfig func(tableID string) (engine.Config, bool)
}

// BindConfigLookup wires the scheduler to a table id -> current Config
// resolver, satisfied by a thin closure over *registry.Registry in the
// composition root.
func (s *Scheduler) BindConfigLookup(lookup func(tableID string) (engine.Config, bool)) {
	s.lookupConfig = lookup
}

// New constructs a Scheduler with its own rng seeded from seed. The actor
// lookup (for AddBot/RemoveBot requests) and the config lookup (for the bot
// policy's target count and difficulty) are bound afterwards with
// BindLookup and BindConfigLookup; both are satisfied by
// *registry.Registry in the composition root.
func New(log slog.Logger, seed int64) *Scheduler {
	return &Scheduler{log: log, rng: rand.New(rand.NewSource(seed))}
}

// Decide implements tableactor.BotDecider: given a bot's view of the
// table, its call amount, and the minimum legal raise amount, return a
// thinking delay and a legal action.
func (s *Scheduler) Decide(view *engine.GameView, callAmount, minRaise int64, legal []engine.ActionType) (time.Duration, engine.Action) {
	delay := minDelay + time.Duration(s.rng.Int63n(int64(maxDelay-minDelay)))
	difficulty := Random
	// The bot's own difficulty tag travels with it via the seat name
	// convention set by AddBot (see botName, used by spawnOne in
	// rebalance.go); fall back to Random if
	// unrecognized so an unset difficulty never panics or stalls.
	if view != nil {
		difficulty = difficultyFromBotName(botNameOf(view))
	}
	return delay, decide(difficulty, callAmount, minRaise, legal, s.rng)
}

func decide(d Difficulty, callAmount, minRaise int64, legal []engine.ActionType, rng *rand.Rand) engine.Action {
	has := func(want engine.ActionType) bool {
		for _, a := range legal {
			if a == want {
				return true
			}
		}
		return false
	}
	// canRaise reports whether minRaise is a real, affordable raise size —
	// engine.MinRaiseAmount reports 0 when the seat can't cover even the
	// minimum legal increment, in which case raising isn't actually an
	// option even though LegalActions still lists ActionRaise (the seat
	// could still go all-in, just not via a sized raise).
	canRaise := func() bool { return has(engine.ActionRaise) && minRaise > 0 }

	switch d {
	case Passive:
		// Calling station: check or call whenever possible, fold only when
		// neither is legal (i.e. facing an all-in decision of its own).
		if has(engine.ActionCheck) {
			return engine.Action{Type: engine.ActionCheck}
		}
		if has(engine.ActionCall) {
			return engine.Action{Type: engine.ActionCall}
		}
		return engine.Action{Type: engine.ActionFold}

	case Aggressive:
		// Raises 70% of the time when a sized raise is affordable, otherwise
		// calls/checks.
		if canRaise() && rng.Float64() < 0.7 {
			return engine.Action{Type: engine.ActionRaise, Amount: minRaise}
		}
		if has(engine.ActionCheck) {
			return engine.Action{Type: engine.ActionCheck}
		}
		if has(engine.ActionCall) {
			return engine.Action{Type: engine.ActionCall}
		}
		return engine.Action{Type: engine.ActionFold}

	default: // Random
		if len(legal) == 0 {
			return engine.Action{Type: engine.ActionFold}
		}
		choice := legal[rng.Intn(len(legal))]
		if choice == engine.ActionRaise && !canRaise() {
			// LegalActions said Raise was on the table, but the sized
			// minimum isn't affordable right now; fall back the same way
			// Aggressive does instead of sending an undersized amount.
			switch {
			case has(engine.ActionCheck):
				choice = engine.ActionCheck
			case has(engine.ActionCall):
				choice = engine.ActionCall
			default:
				choice = engine.ActionFold
			}
		}
		amount := int64(0)
		if choice == engine.ActionRaise {
			amount = minRaise
		}
		return engine.Action{Type: choice, Amount: amount}
	}
}

// botNameOf returns the name of the seat currently on the clock — the
// bot this Decide call is actually deciding for, not just any bot at the
// table.
func botNameOf(view *engine.GameView) string {
	pos := view.CurrentActor()
	for _, seat := range view.Seats() {
		if seat.Position == pos {
			return seat.Name
		}
	}
	return ""
}

// difficultyFromBotName recovers the tier a bot was spawned with from its
// synthetic name, formatted "Bot-<difficulty>-<suffix>" by AddBot.
func difficultyFromBotName(name string) Difficulty {
	switch {
	case strings.HasPrefix(name, "Bot-passive"):
		return Passive
	case strings.HasPrefix(name, "Bot-aggressive"):
		return Aggressive
	default:
		return Random
	}
}

// botName builds a fresh, clearly-labeled synthetic bot username.
func botName(difficulty Difficulty, suffix int) string {
	return fmt.Sprintf("Bot-%s-%d", difficulty, suffix)
}
