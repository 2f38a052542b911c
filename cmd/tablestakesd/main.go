// Command tablestakesd is the composition root: it wires the Wallet
// Ledger, Table Registry, and Bot Scheduler together, recovers any tables
// persisted from a prior run, seeds a couple of demo tables, and runs the
// registry's reaper loop until interrupted.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/decred/slog"

	"github.com/feltcloth/tablestakes/pkg/botsched"
	"github.com/feltcloth/tablestakes/pkg/engine"
	"github.com/feltcloth/tablestakes/pkg/ledger"
	"github.com/feltcloth/tablestakes/pkg/registry"
	"github.com/feltcloth/tablestakes/pkg/utils"
)

func main() {
	var (
		dataDir      string
		debugLevel   string
		reapInterval time.Duration
		seed         int64
		demoTables   bool
	)
	flag.StringVar(&dataDir, "datadir", "", "Directory for the sqlite database and logs (defaults to a temp dir)")
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error, critical")
	flag.DurationVar(&reapInterval, "reapinterval", time.Minute, "How often to sweep for idle empty tables")
	flag.Int64Var(&seed, "seed", 0, "Bot scheduler RNG seed (0 = time-derived)")
	flag.BoolVar(&demoTables, "demo", true, "Spawn a couple of demo tables with bots enabled on startup")
	flag.Parse()

	if dataDir == "" {
		dataDir = filepath.Join(os.TempDir(), "tablestakesd")
	}
	if err := utils.EnsureDataDirExists(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "tablestakesd: %v\n", err)
		os.Exit(1)
	}

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("TABLESTAKESD")
	level, ok := slog.LevelFromString(debugLevel)
	if !ok {
		level = slog.LevelInfo
	}
	log.SetLevel(level)

	dbPath := filepath.Join(dataDir, "tablestakes.sqlite")
	l, err := ledger.Open(dbPath, backend.Logger("LEDGER"))
	if err != nil {
		log.Errorf("open ledger: %v", err)
		os.Exit(1)
	}
	defer l.Close()

	reg, err := registry.New(l.DB(), l, backend.Logger("REGISTRY"))
	if err != nil {
		log.Errorf("open registry: %v", err)
		os.Exit(1)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sched := botsched.New(backend.Logger("BOTSCHED"), seed)
	sched.BindLookup(reg.Lookup)
	sched.BindConfigLookup(reg.Config)

	// Tables recovered from a prior run (LoadAll ran inside registry.New)
	// couldn't be spawned until the ledger and scheduler existed; do that now.
	reg.RewireRecovered(l, sched, sched)

	if demoTables {
		seedDemoTables(reg, l, sched, log)
	}

	stop := make(chan struct{})
	go reg.RunReaper(reapInterval, stop)

	log.Infof("tablestakesd running (datadir=%s, tables=%d)", dataDir, reg.TableCount())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Infof("shutting down")
	close(stop)
}

func seedDemoTables(reg *registry.Registry, l *ledger.Ledger, sched *botsched.Scheduler, log slog.Logger) {
	demo := []struct {
		name       string
		smallBlind int64
		bigBlind   int64
		bots       int
		difficulty string
	}{
		{name: "Beginner's Table", smallBlind: 1, bigBlind: 2, bots: 3, difficulty: string(botsched.Passive)},
		{name: "High Stakes", smallBlind: 50, bigBlind: 100, bots: 2, difficulty: string(botsched.Aggressive)},
	}

	for _, d := range demo {
		cfg := engine.Config{
			Name:              d.name,
			MaxSeats:          6,
			SmallBlind:        d.smallBlind,
			BigBlind:          d.bigBlind,
			MinBuyInBB:        20,
			MaxBuyInBB:        200,
			TopUpCooldownHand: 1,
			Speed:             engine.Normal,
			Bots: engine.BotPolicy{
				Enabled:    d.bots > 0,
				TargetSeat: d.bots,
				Difficulty: d.difficulty,
			},
			Privacy: engine.Public,
		}
		tableID, err := reg.CreateTable(d.name, "system", cfg, l, sched, sched)
		if err != nil {
			log.Errorf("seed demo table %q: %v", d.name, err)
			continue
		}
		sched.Rebalance(tableID, 0, 0, cfg.MaxSeats)
		log.Infof("seeded demo table %s (%s)", tableID, d.name)
	}
}
