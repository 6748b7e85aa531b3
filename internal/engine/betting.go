package engine

import "fmt"

// Round represents a betting round.
type Round int

const (
	Preflop Round = iota
	Flop
	Turn
	River
	Showdown
)

func (r Round) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[r]
}

// ActionKind represents a player betting action.
type ActionKind string

const (
	Fold  ActionKind = "fold"
	Check ActionKind = "check"
	Call  ActionKind = "call"
	Bet   ActionKind = "bet"
	Raise ActionKind = "raise"
	AllIn ActionKind = "all_in"
)

// commit moves n chips from the seat into the pot.
func (h *Hand) commit(pos, n int) {
	s := h.Seats[pos]
	s.Chips -= n
	s.CurrentBet += n
	s.TotalBet += n
	h.Pot += n
}

// applyAction validates and applies one betting action, mutating seat and
// hand fields. It does not advance the turn or emit events.
func (h *Hand) applyAction(pos int, action ActionKind, amount int) error {
	s := h.Seats[pos]

	switch action {
	case Fold:
		s.Status = StatusFolded

	case Check:
		if s.CurrentBet != h.CurrentBet {
			return fmt.Errorf("%w: cannot check, %d to call", ErrIllegalAction, h.CurrentBet-s.CurrentBet)
		}

	case Call:
		if h.CurrentBet <= s.CurrentBet {
			return fmt.Errorf("%w: nothing to call", ErrIllegalAction)
		}
		if s.Chips == 0 {
			return ErrInsufficientChips
		}
		// Short-stack rule: a call may consume the whole stack even when
		// that is less than the full call amount.
		toCall := min(s.Chips, h.CurrentBet-s.CurrentBet)
		h.commit(pos, toCall)

	case Bet:
		if h.CurrentBet != 0 {
			return fmt.Errorf("%w: there is a bet to call, raise instead", ErrIllegalAction)
		}
		if amount > s.Chips {
			return fmt.Errorf("%w: bet %d with %d behind", ErrAmountExceedsStack, amount, s.Chips)
		}
		if amount <= 0 || (amount < h.BigBlind && amount != s.Chips) {
			return fmt.Errorf("%w: minimum bet %d", ErrAmountBelowMinimum, h.BigBlind)
		}
		h.commit(pos, amount)
		h.CurrentBet = s.CurrentBet
		h.LastRaise = amount
		h.raiseSeq++

	case Raise:
		if h.CurrentBet == 0 {
			return fmt.Errorf("%w: nothing to raise, bet instead", ErrIllegalAction)
		}
		if s.LastAction != "" && h.seatRaiseSeq[pos] == h.raiseSeq {
			// No full raise since this seat last acted: action is not
			// reopened, the seat may only call or fold.
			return fmt.Errorf("%w: action not reopened", ErrIllegalAction)
		}
		callPortion := h.CurrentBet - s.CurrentBet
		if callPortion+amount > s.Chips {
			return fmt.Errorf("%w: raise needs %d with %d behind", ErrAmountExceedsStack, callPortion+amount, s.Chips)
		}
		if amount <= 0 {
			return fmt.Errorf("%w: minimum raise %d", ErrAmountBelowMinimum, h.LastRaise)
		}
		fullRaise := amount >= h.LastRaise
		if !fullRaise && callPortion+amount != s.Chips {
			return fmt.Errorf("%w: minimum raise %d", ErrAmountBelowMinimum, h.LastRaise)
		}
		h.commit(pos, callPortion+amount)
		h.CurrentBet = s.CurrentBet
		if fullRaise {
			// An all-in under-raise leaves LastRaise alone and does not
			// reopen action for seats that already acted.
			h.LastRaise = amount
			h.raiseSeq++
		}

	case AllIn:
		if s.Chips == 0 {
			return ErrInsufficientChips
		}
		toCall := h.CurrentBet - s.CurrentBet
		if s.Chips > toCall && s.LastAction != "" && h.seatRaiseSeq[pos] == h.raiseSeq {
			// A shove above the call amount is a raise; the same
			// reopening rule applies as for Raise.
			return fmt.Errorf("%w: action not reopened", ErrIllegalAction)
		}
		switch {
		case s.Chips <= toCall:
			// All-in call for less than the full amount.
		case h.CurrentBet == 0:
			h.LastRaise = s.Chips
			h.raiseSeq++
		default:
			raiseBy := s.Chips - toCall
			if raiseBy >= h.LastRaise {
				h.LastRaise = raiseBy
				h.raiseSeq++
			}
		}
		if s.Chips > toCall {
			h.commit(pos, s.Chips)
			h.CurrentBet = s.CurrentBet
		} else {
			h.commit(pos, s.Chips)
		}

	default:
		return fmt.Errorf("%w: unknown action %q", ErrIllegalAction, action)
	}

	s.LastAction = string(action)
	if s.Status == StatusActive && s.Chips == 0 {
		s.Status = StatusAllIn
	}
	h.seatRaiseSeq[pos] = h.raiseSeq
	return nil
}

// nextActor returns the next seat index clockwise from "from" that can
// act, or -1 if none exists.
func (h *Hand) nextActor(from int) int {
	n := len(h.Seats)
	for i := 0; i < n; i++ {
		pos := (from + i) % n
		if h.Seats[pos].CanAct() {
			return pos
		}
	}
	return -1
}

// inHandCount returns how many seats still contest the hand.
func (h *Hand) inHandCount() int {
	n := 0
	for _, s := range h.Seats {
		if s.InHand() {
			n++
		}
	}
	return n
}

// actorCount returns how many seats can still make decisions.
func (h *Hand) actorCount() int {
	n := 0
	for _, s := range h.Seats {
		if s.CanAct() {
			n++
		}
	}
	return n
}

// soleActor returns the only seat able to act, or -1 if there are zero or
// several.
func (h *Hand) soleActor() int {
	sole := -1
	for i, s := range h.Seats {
		if s.CanAct() {
			if sole >= 0 {
				return -1
			}
			sole = i
		}
	}
	return sole
}

// roundComplete reports whether the current betting round is finished:
// every active seat has acted and matched the current bet, or fewer than
// two seats remain in the hand.
func (h *Hand) roundComplete() bool {
	if h.inHandCount() < 2 {
		return true
	}
	for _, s := range h.Seats {
		if s.Status != StatusActive {
			continue
		}
		if s.LastAction == "" || s.CurrentBet != h.CurrentBet {
			return false
		}
	}
	return true
}

// shouldAutoAdvance reports whether no further player decisions are
// possible on this or any future street.
func (h *Hand) shouldAutoAdvance() bool {
	if h.inHandCount() < 2 {
		return true
	}
	switch h.actorCount() {
	case 0:
		return true
	case 1:
		sole := h.soleActor()
		return h.Seats[sole].CurrentBet == h.CurrentBet
	default:
		return false
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
