package engine

// AddSeat occupies the lowest free position with a new seat, returning its
// position. Returns ErrTableFull if every position up to MaxSeats is taken.
func (g *Game) AddSeat(userID, name string, buyIn int64, isBot bool) (int, error) {
	for pos := 0; pos < g.Config.MaxSeats; pos++ {
		if _, taken := g.Seats[pos]; !taken {
			g.Seats[pos] = NewSeat(userID, name, pos, buyIn, isBot)
			g.emit(Event{Kind: EventPlayerJoined, SeatPos: pos, Amount: buyIn})
			return pos, nil
		}
	}
	return -1, ErrTableFull
}

// RemoveSeatNow removes a seat immediately (used when a player leaves
// between hands). Mid-hand leaves should fold first via TakeAction(Fold)
// and then queue via QueueRemoval so the FSM only drops the seat at
// RemovePlayers, never mid-computation.
func (g *Game) RemoveSeatNow(pos int) (*Seat, bool) {
	s, ok := g.Seats[pos]
	if !ok {
		return nil, false
	}
	delete(g.Seats, pos)
	g.emit(Event{Kind: EventPlayerLeft, SeatPos: pos})
	return s, true
}

// QueueRemoval marks a seat for removal at the next RemovePlayers phase —
// used when a player leaves mid-hand, after having been folded.
func (g *Game) QueueRemoval(pos int) {
	g.PendingRemovals[pos] = true
}

// QueueBoot marks a seat for eviction at the next BootPlayers phase —
// AdminKick, VoteKick, or an inactivity policy the actor enforces.
func (g *Game) QueueBoot(pos int) {
	g.PendingBoots[pos] = true
}

// TopUp adds chips to a seated player's stack, capping at the configured
// absolute chip cap and reporting the refunded overflow — per the Open
// Question decision in SPEC_FULL.md: cap at the limit, refund the
// difference via a compensating ledger transfer the caller issues.
func (g *Game) TopUp(pos int, amount int64) (applied, refunded int64, err error) {
	s, ok := g.Seats[pos]
	if !ok {
		return 0, 0, ErrSeatNotFound
	}
	if g.Config.AbsoluteChipCap <= 0 {
		s.Stack += amount
		s.lastTopUpHand = g.HandNumber
		return amount, 0, nil
	}
	room := g.Config.AbsoluteChipCap - (s.Stack + s.RoundCommit)
	if room <= 0 {
		return 0, amount, nil
	}
	if amount > room {
		applied = room
		refunded = amount - room
	} else {
		applied = amount
	}
	s.Stack += applied
	s.lastTopUpHand = g.HandNumber
	return applied, refunded, nil
}

// HandsSinceTopUp reports how many hands have elapsed since pos's last
// top-up, for the actor's top-up cooldown enforcement (§4.4).
func (g *Game) HandsSinceTopUp(pos int) int {
	s, ok := g.Seats[pos]
	if !ok {
		return 0
	}
	return g.HandNumber - s.lastTopUpHand
}

// SeatPosByUserID finds a seated player's position by user id, for actors
// that address players by id rather than position.
func (g *Game) SeatPosByUserID(userID string) (int, bool) {
	for pos, s := range g.Seats {
		if s.UserID == userID {
			return pos, true
		}
	}
	return 0, false
}
