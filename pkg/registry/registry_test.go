package registry

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/decred/slog"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/feltcloth/tablestakes/pkg/engine"
)

type fakeLedger struct{ escrow map[string]int64 }

func (f *fakeLedger) EscrowBalance(tableID string) (int64, error) { return f.escrow[tableID], nil }

type nopDecider struct{}

func (nopDecider) Decide(view *engine.GameView, callAmount, minRaise int64, legal []engine.ActionType) (time.Duration, engine.Action) {
	return 0, engine.Action{Type: engine.ActionFold}
}

func newTestRegistry(t *testing.T) (*Registry, *fakeLedger) {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fl := &fakeLedger{escrow: make(map[string]int64)}
	r, err := New(db, fl, slog.Disabled)
	require.NoError(t, err)
	return r, fl
}

func testConfig(name string) engine.Config {
	return engine.Config{
		Name:            name,
		MaxSeats:        6,
		SmallBlind:      5,
		BigBlind:        10,
		MinBuyInBB:      10,
		MaxBuyInBB:      200,
		AbsoluteChipCap: 100000,
	}
}

func TestCreateTableSpawnsAndLists(t *testing.T) {
	r, _ := newTestRegistry(t)
	id, err := r.CreateTable("table1", "alice", testConfig("table1"), nil, nil, nopDecider{})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, ok := r.Lookup(id)
	require.True(t, ok)

	infos := r.ListTables(nil)
	require.Len(t, infos, 1)
	require.Equal(t, "table1", infos[0].Name)
}

func TestCreateTableIsIdempotentOnNameAndCreator(t *testing.T) {
	r, _ := newTestRegistry(t)
	id1, err := r.CreateTable("dup", "alice", testConfig("dup"), nil, nil, nopDecider{})
	require.NoError(t, err)
	id2, err := r.CreateTable("dup", "alice", testConfig("dup"), nil, nil, nopDecider{})
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.Equal(t, 1, r.TableCount())
}

func TestReapRefusesWhenEscrowNonZero(t *testing.T) {
	r, fl := newTestRegistry(t)
	id, err := r.CreateTable("tX", "alice", testConfig("tX"), nil, nil, nopDecider{})
	require.NoError(t, err)
	fl.escrow[id] = 500

	r.mu.Lock()
	r.handles[id].lastActive = time.Now().Add(-time.Hour)
	r.mu.Unlock()
	r.idlePeriod = time.Minute

	r.Reap()
	require.Equal(t, 1, r.TableCount())
}

func TestReapRemovesIdleEmptyTable(t *testing.T) {
	r, _ := newTestRegistry(t)
	id, err := r.CreateTable("tY", "alice", testConfig("tY"), nil, nil, nopDecider{})
	require.NoError(t, err)

	r.mu.Lock()
	r.handles[id].lastActive = time.Now().Add(-time.Hour)
	r.mu.Unlock()
	r.idlePeriod = time.Minute

	r.Reap()
	require.Equal(t, 0, r.TableCount())
}

func TestLoadAllRecoversTablesOnRestart(t *testing.T) {
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	fl := &fakeLedger{escrow: make(map[string]int64)}
	r1, err := New(db, fl, slog.Disabled)
	require.NoError(t, err)
	id, err := r1.CreateTable("persisted", "bob", testConfig("persisted"), nil, nil, nopDecider{})
	require.NoError(t, err)

	r2, err := New(db, fl, slog.Disabled)
	require.NoError(t, err)
	infos := r2.ListTables(nil)
	require.Len(t, infos, 1)
	require.Equal(t, id, infos[0].ID)

	r2.RewireRecovered(nil, nil, nopDecider{})
	_, ok := r2.Lookup(id)
	require.True(t, ok)
}
