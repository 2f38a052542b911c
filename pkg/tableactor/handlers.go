package tableactor

import (
	"time"

	"github.com/feltcloth/tablestakes/pkg/engine"
)

// handleJoin implements §4.4 Join semantics steps 1-6.
func (a *Actor) handleJoin(m Join) error {
	if err := a.Config.ValidateBuyIn(m.BuyIn); err != nil {
		return err
	}
	if a.Config.RequiresAccessCheck() {
		ok := false
		switch a.Config.Privacy {
		case engine.PassphraseHashed:
			ok = a.Config.VerifyPassphrase(m.Passphrase)
		case engine.InviteToken:
			ok = a.Config.VerifyInviteToken(m.Passphrase)
		}
		if !ok {
			return engine.ErrIllegalAction
		}
	}

	key := a.freshIdempotencyKey("join:" + m.UserID)
	if _, err := a.ledger.TransferWalletToEscrow(m.UserID, a.TableID, m.BuyIn, key); err != nil {
		return err
	}

	if _, err := a.game.AddSeat(m.UserID, m.Name, m.BuyIn, false); err != nil {
		// Table-full-after-a-serialized-dequeue is a bug path per the spec's
		// own admission it is "actually impossible given serialization" —
		// compensate anyway, because a ledger debit must never survive an
		// aborted game-state change.
		compKey := a.freshIdempotencyKey("join-compensate:" + m.UserID)
		if _, cerr := a.ledger.Compensate(m.UserID, a.TableID, m.BuyIn, compKey); cerr != nil {
			a.log.Criticalf("tableactor %s: join compensation failed for %s: %v — chips stuck in escrow", a.TableID, m.UserID, cerr)
		}
		return err
	}

	a.game.Step()
	if a.Config.Bots.Enabled {
		a.rebalanceBots()
	}
	return nil
}

// handleLeave implements §4.4 Leave/Disconnect semantics: fold first if
// mid-turn, then escrow -> wallet, idempotently.
func (a *Actor) handleLeave(m Leave) LeaveResult {
	pos, ok := a.game.SeatPosByUserID(m.UserID)
	if !ok {
		// Already gone: a second Leave for a departed user is success, not
		// an error (§4.4 Disconnect semantics).
		return LeaveResult{}
	}

	if a.game.Phase.IsTakeAction() && a.game.CurrentActor == pos {
		_ = a.game.TakeAction(pos, engine.Action{Type: engine.ActionFold})
	}

	var finalStack int64
	if a.game.Phase.IsTakeAction() {
		// Still mid-hand: fold the seat and keep it (with its investment in
		// the pots) until RemovePlayers drops it.
		seat := a.game.Seats[pos]
		seat.SetState(engine.Folded)
		finalStack = seat.Stack
		seat.Stack = 0
		a.game.QueueRemoval(pos)
	} else {
		seat, _ := a.game.RemoveSeatNow(pos)
		finalStack = seat.Stack
	}

	key := a.freshIdempotencyKey("leave:" + m.UserID)
	if _, err := a.ledger.TransferEscrowToWallet(m.UserID, a.TableID, finalStack, key); err != nil {
		return LeaveResult{Err: err}
	}

	if a.Config.Bots.Enabled {
		a.rebalanceBots()
	}
	return LeaveResult{FinalStack: finalStack}
}

// handleTakeAction enforces §4.4 Authorization: seated, their turn, not
// folded. Spectators are rejected transparently by SeatPosByUserID failing.
func (a *Actor) handleTakeAction(m TakeAction) error {
	pos, ok := a.game.SeatPosByUserID(m.UserID)
	if !ok {
		return engine.ErrSeatNotFound
	}
	if err := a.game.TakeAction(pos, m.Action); err != nil {
		return err
	}
	a.turnValid = false
	a.advanceBotsAndDeadline()
	return nil
}

func (a *Actor) handleChat(m Chat) error {
	// Rate limiting (one message / 3s / user) and length enforcement are an
	// API-layer concern (§6); the actor only relays, carrying no chat
	// history of its own.
	if len(m.Text) > 500 {
		return engine.ErrIllegalAction
	}
	return nil
}

// handleGetView serves a seated player their own view (with hole cards) or
// a spectator's view (without) for anyone not currently seated, including
// declared spectators and plain lookups from outside the table.
func (a *Actor) handleGetView(userID string) *engine.GameView {
	if view, seated := a.game.Views()[userID]; seated {
		return view
	}
	return a.game.SpectatorView()
}

func (a *Actor) handlePeekSeats() []engine.PublicSeatView {
	return a.game.SpectatorView().Seats()
}

// handleTopUp enforces the top-up cooldown and the absolute chip cap,
// issuing a compensating transfer for any refused overflow (Open
// Question 1).
func (a *Actor) handleTopUp(m TopUp) error {
	pos, ok := a.game.SeatPosByUserID(m.UserID)
	if !ok {
		return engine.ErrSeatNotFound
	}
	if a.game.HandsSinceTopUp(pos) < a.Config.TopUpCooldownHand {
		return engine.ErrIllegalAction
	}

	key := a.freshIdempotencyKey("topup:" + m.UserID)
	if _, err := a.ledger.TransferWalletToEscrow(m.UserID, a.TableID, m.Amount, key); err != nil {
		return err
	}

	applied, refunded, err := a.game.TopUp(pos, m.Amount)
	if err != nil {
		compKey := a.freshIdempotencyKey("topup-compensate:" + m.UserID)
		a.ledger.Compensate(m.UserID, a.TableID, m.Amount, compKey)
		return err
	}
	if refunded > 0 {
		refundKey := a.freshIdempotencyKey("topup-refund:" + m.UserID)
		if _, err := a.ledger.TransferEscrowToWallet(m.UserID, a.TableID, refunded, refundKey); err != nil {
			a.log.Criticalf("tableactor %s: top-up overflow refund failed for %s: %v", a.TableID, m.UserID, err)
		}
	}
	_ = applied
	return nil
}

func (a *Actor) handleKick(userID string) error {
	pos, ok := a.game.SeatPosByUserID(userID)
	if !ok {
		return engine.ErrSeatNotFound
	}
	if a.game.Phase.IsTakeAction() && a.game.CurrentActor == pos {
		_ = a.game.TakeAction(pos, engine.Action{Type: engine.ActionFold})
	}
	a.game.QueueBoot(pos)
	return nil
}

// handleAddBot seats a bot directly, bypassing the ledger (§4.6).
func (a *Actor) handleAddBot(m AddBot) error {
	_, err := a.game.AddSeat(m.Name, m.Name, m.Stack, true)
	if err != nil {
		return err
	}
	a.game.Step()
	return nil
}

// handleRemoveBot despawns a bot by name, no wallet transfer involved.
func (a *Actor) handleRemoveBot(m RemoveBot) error {
	pos, ok := a.game.SeatPosByUserID(m.Name)
	if !ok {
		return engine.ErrSeatNotFound
	}
	if a.game.Phase.IsTakeAction() && a.game.CurrentActor == pos {
		_ = a.game.TakeAction(pos, engine.Action{Type: engine.ActionFold})
	}
	if a.game.Phase.IsTakeAction() {
		a.game.Seats[pos].SetState(engine.Folded)
		a.game.QueueRemoval(pos)
	} else {
		a.game.RemoveSeatNow(pos)
	}
	return nil
}

// handleTick drives both the turn-timeout auto-fold and bot-turn
// orchestration (§4.4 Turn timeout / Bot turns).
func (a *Actor) handleTick(_ Tick) {
	if !a.game.Phase.IsTakeAction() {
		return
	}
	pos := a.game.CurrentActor
	if !a.turnValid || a.turnPos != pos {
		a.startTurnDeadline(pos)
	}
	if time.Now().After(a.turnDeadline) {
		a.log.Infof("tableactor %s: turn timeout for seat %d, auto-folding", a.TableID, pos)
		_ = a.game.TakeAction(pos, engine.Action{Type: engine.ActionFold})
		a.turnValid = false
	}
	a.advanceBotsAndDeadline()
}

func (a *Actor) startTurnDeadline(pos int) {
	a.turnPos = pos
	a.turnValid = true
	a.turnDeadline = time.Now().Add(time.Duration(a.Config.Speed.TurnTimeout()) * time.Second)
}

// advanceBotsAndDeadline resolves a bot's turn synchronously via the
// decider's returned delay, then re-arms the human turn deadline if
// control has passed to a human. It loops because one bot action can hand
// the turn straight to another bot.
func (a *Actor) advanceBotsAndDeadline() {
	for a.game.Phase.IsTakeAction() {
		pos := a.game.CurrentActor
		seat, ok := a.game.Seats[pos]
		if !ok || !seat.IsBot {
			a.startTurnDeadline(pos)
			return
		}
		views := a.game.Views()
		view := views[seat.UserID]
		callAmount := a.game.CurrentBet - seat.RoundCommit
		legal := a.game.LegalActions(pos)
		minRaise, _ := a.game.MinRaiseAmount(pos)
		delay, action := a.decider.Decide(view, callAmount, minRaise, legal)
		if delay > 0 {
			time.Sleep(delay)
		}
		if err := a.game.TakeAction(pos, action); err != nil {
			// An illegal bot decision defaults to Fold/Check per §4.4 Bot
			// turns' timeout fallback; treat a rejected action the same way.
			fallback := engine.Action{Type: engine.ActionFold}
			for _, la := range legal {
				if la == engine.ActionCheck {
					fallback = engine.Action{Type: engine.ActionCheck}
					break
				}
			}
			_ = a.game.TakeAction(pos, fallback)
		}
	}
}

func (a *Actor) rebalanceBots() {
	if a.bots == nil {
		return
	}
	humans, botsCount := 0, 0
	for _, s := range a.game.Seats {
		if s.IsBot {
			botsCount++
		} else {
			humans++
		}
	}
	// Rebalance talks back to this actor through its inbox (PeekSeats,
	// AddBot, RemoveBot) and waits for the replies, so it must not run on
	// the actor's own goroutine.
	go a.bots.Rebalance(a.TableID, humans, botsCount, a.Config.MaxSeats)
}

// handleShutdown drains the inbox, settling any further in-flight messages
// as no-ops to fail fast, then exits (§5 Cancellation).
func (a *Actor) handleShutdown() error {
	for {
		select {
		case msg := <-a.inbox:
			failInFlight(msg)
		default:
			return nil
		}
	}
}

// failInFlight rejects a message drained during shutdown rather than
// silently swallowing it, so callers blocked on a reply channel unblock.
func failInFlight(msg any) {
	switch m := msg.(type) {
	case Join:
		m.Reply <- engine.ErrTableFull
	case Leave:
		m.Reply <- LeaveResult{Err: engine.ErrIllegalAction}
	case TakeAction:
		m.Reply <- engine.ErrIllegalAction
	case Chat:
		m.Reply <- engine.ErrIllegalAction
	case Spectate:
		m.Reply <- engine.ErrIllegalAction
	case StopSpectate:
		m.Reply <- engine.ErrIllegalAction
	case GetView:
		m.Reply <- nil
	case PeekSeats:
		m.Reply <- nil
	case TopUp:
		m.Reply <- engine.ErrIllegalAction
	case AdminKick:
		m.Reply <- engine.ErrIllegalAction
	case VoteKick:
		m.Reply <- engine.ErrIllegalAction
	case AddBot:
		m.Reply <- engine.ErrIllegalAction
	case RemoveBot:
		m.Reply <- engine.ErrIllegalAction
	case Shutdown:
		m.Reply <- nil
	}
}
