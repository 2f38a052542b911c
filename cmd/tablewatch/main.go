// Command tablewatch is a read-only operator dashboard: it recovers the
// tables persisted in a data directory into its own in-process registry
// and renders one table's spectator GameView via a bubbletea TUI, polling
// GetView on a short interval. It never sends a TakeAction or a Spectate,
// and it does not connect to the actors of a running daemon.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/decred/slog"

	"github.com/feltcloth/tablestakes/internal/cards"
	"github.com/feltcloth/tablestakes/pkg/botsched"
	"github.com/feltcloth/tablestakes/pkg/engine"
	"github.com/feltcloth/tablestakes/pkg/ledger"
	"github.com/feltcloth/tablestakes/pkg/registry"
	"github.com/feltcloth/tablestakes/pkg/tableactor"
)

const pollInterval = 500 * time.Millisecond

func main() {
	var (
		dataDir    string
		tableID    string
		debugLevel string
	)
	flag.StringVar(&dataDir, "datadir", filepath.Join(os.TempDir(), "tablestakesd"), "Directory holding the running daemon's sqlite database")
	flag.StringVar(&tableID, "table", "", "Table id to watch (defaults to the first table listed)")
	flag.StringVar(&debugLevel, "debuglevel", "error", "Logging level: trace, debug, info, warn, error, critical")
	flag.Parse()

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("TABLEWATCH")
	if level, ok := slog.LevelFromString(debugLevel); ok {
		log.SetLevel(level)
	}

	dbPath := filepath.Join(dataDir, "tablestakes.sqlite")
	l, err := ledger.Open(dbPath, backend.Logger("LEDGER"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tablewatch: open ledger at %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer l.Close()

	reg, err := registry.New(l.DB(), l, backend.Logger("REGISTRY"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tablewatch: open registry: %v\n", err)
		os.Exit(1)
	}
	sched := botsched.New(backend.Logger("BOTSCHED"), time.Now().UnixNano())
	sched.BindLookup(reg.Lookup)
	sched.BindConfigLookup(reg.Config)
	reg.RewireRecovered(l, sched, sched)

	if tableID == "" {
		tables := reg.ListTables(nil)
		if len(tables) == 0 {
			fmt.Fprintln(os.Stderr, "tablewatch: no tables found; start tablestakesd first or pass -table")
			os.Exit(1)
		}
		tableID = tables[0].ID
	}
	actor, ok := reg.Lookup(tableID)
	if !ok {
		fmt.Fprintf(os.Stderr, "tablewatch: table %s not found\n", tableID)
		os.Exit(1)
	}

	m := model{actor: actor, tableID: tableID}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tablewatch: %v\n", err)
		os.Exit(1)
	}
}

type model struct {
	actor   *tableactor.Actor
	tableID string
	view    *engine.GameView
	err     error
}

type viewMsg struct {
	view *engine.GameView
	err  error
}

func (m model) Init() tea.Cmd {
	return m.poll()
}

func (m model) poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		reply := make(chan *engine.GameView, 1)
		if err := m.actor.Send(tableactor.GetView{UserID: "", Reply: reply}); err != nil {
			return viewMsg{err: err}
		}
		return viewMsg{view: <-reply}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case viewMsg:
		m.view, m.err = msg.view, msg.err
		return m, m.poll()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("tablewatch — %s", m.tableID)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	if m.view == nil {
		b.WriteString("waiting for a snapshot...\n")
		return b.String()
	}

	header := fmt.Sprintf("Hand #%d  Phase: %s  Pot: %s  Board: %s",
		m.view.HandNumber(), m.view.Phase(), renderPot(m.view.Pots()), renderCards(m.view.Board()))
	b.WriteString(tableStyle.Render(header))
	b.WriteString("\n\n")

	for _, seat := range m.view.Seats() {
		b.WriteString(renderSeat(seat, m.view.CurrentActor()))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("q to quit"))
	return b.String()
}

func renderPot(pots []engine.PotView) string {
	total := int64(0)
	for _, p := range pots {
		total += p.Amount
	}
	return potStyle.Render(fmt.Sprintf("%d", total))
}

func renderCards(hand []cards.Card) string {
	if len(hand) == 0 {
		return "—"
	}
	parts := make([]string, len(hand))
	for i, c := range hand {
		style := cardStyle
		if c.Suit == cards.Hearts || c.Suit == cards.Diamonds {
			style = redCardStyle
		}
		parts[i] = style.Render(c.String())
	}
	return strings.Join(parts, "")
}

func renderSeat(seat engine.PublicSeatView, currentActor int) string {
	label := fmt.Sprintf("#%d %s%s — %s\nstack %d  committed %d  %s",
		seat.Position, seat.Name, dealerTag(seat.IsDealer), seat.State, seat.Stack, seat.RoundCommit, handTag(seat))

	style := seatStyle
	switch {
	case seat.State == engine.Folded:
		style = foldedSeatStyle
	case seat.Position == currentActor:
		style = actingSeatStyle
	}
	return style.Render(label)
}

func dealerTag(isDealer bool) string {
	if isDealer {
		return " (D)"
	}
	return ""
}

func handTag(seat engine.PublicSeatView) string {
	if seat.IsBot {
		return "[bot]"
	}
	if len(seat.RevealedHand) > 0 {
		if seat.HandDesc != "" {
			return fmt.Sprintf("%s %s", renderCards(seat.RevealedHand), seat.HandDesc)
		}
		return renderCards(seat.RevealedHand)
	}
	return ""
}
