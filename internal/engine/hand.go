package engine

import (
	"fmt"

	"github.com/wbruntra/texas-holdem/poker"
)

// Hand is a hand of no-limit Texas Hold'em in progress. All mutation goes
// through NewHand, Apply and AdvanceRunout; the table serializer guarantees
// those are never called concurrently for one table.
type Hand struct {
	HandNumber int
	DealerPos  int
	SmallBlind int
	BigBlind   int

	Seats     []*Seat
	Deck      *poker.Deck
	Community []poker.Card

	Pot        int
	Pots       []PotResult // settled breakdown, populated at showdown
	Round      Round
	CurrentBet int
	LastRaise  int
	Current    int // seat index to act, -1 when none
	Winners    []int

	ShowdownDone bool
	Events       []Event

	seq          int
	raiseSeq     int
	seatRaiseSeq []int
	startTotal   int
}

// NewHand starts a hand: resets per-hand seat state, posts blinds capped by
// the posters' stacks, deals hole cards two passes from dealer+1 and sets
// the first player to act.
func NewHand(seats []*Seat, handNumber, dealerPos, smallBlind, bigBlind int, seed []byte) (*Hand, error) {
	h := &Hand{
		HandNumber:   handNumber,
		DealerPos:    dealerPos,
		SmallBlind:   smallBlind,
		BigBlind:     bigBlind,
		Seats:        seats,
		Deck:         poker.NewDeck(seed),
		Round:        Preflop,
		Current:      -1,
		seatRaiseSeq: make([]int, len(seats)),
	}

	for _, s := range seats {
		s.resetForHand()
	}
	if h.inHandCount() < 2 {
		return nil, ErrNotEnoughPlayers
	}
	for _, s := range seats {
		h.startTotal += s.Chips
	}

	starts := make([]SeatStart, len(seats))
	for i, s := range seats {
		starts[i] = SeatStart{ID: s.ID, Name: s.Name, Position: i, Chips: s.Chips}
	}
	h.appendEvent(&HandStartEvent{
		HandNumber: handNumber,
		DealerPos:  dealerPos,
		DeckSeed:   seed,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		Seats:      starts,
	})

	h.Seats[dealerPos].Dealer = true
	sbPos, bbPos := h.blindPositions()
	h.postBlind(sbPos, smallBlind, "small")
	h.postBlind(bbPos, bigBlind, "big")
	h.Seats[sbPos].SmallBlind = true
	h.Seats[bbPos].BigBlind = true

	// The price of entry preflop is the full big blind even when the big
	// blind seat posted short.
	h.CurrentBet = bigBlind
	h.LastRaise = bigBlind

	h.dealHoleCards()

	// Preflop: first to act is the seat after the big blind; heads-up the
	// dealer posted small and acts first, which the rotation yields too.
	h.Current = h.nextActor((bbPos + 1) % len(h.Seats))
	if h.shouldAutoAdvance() {
		h.autoCheckIfPending()
		h.Current = -1
	}
	return h, nil
}

// blindPositions returns the small and big blind seat indexes. Heads-up
// the dealer posts the small blind.
func (h *Hand) blindPositions() (int, int) {
	if h.inHandCount() == 2 {
		sb := h.DealerPos
		if !h.Seats[sb].InHand() {
			sb = h.nextInHand(sb + 1)
		}
		return sb, h.nextInHand(sb + 1)
	}
	sb := h.nextInHand(h.DealerPos + 1)
	return sb, h.nextInHand(sb + 1)
}

// nextInHand returns the next seat index clockwise still in the hand.
func (h *Hand) nextInHand(from int) int {
	n := len(h.Seats)
	for i := 0; i < n; i++ {
		pos := (from + i) % n
		if h.Seats[pos].InHand() {
			return pos
		}
	}
	return -1
}

func (h *Hand) postBlind(pos, amount int, blind string) {
	s := h.Seats[pos]
	posted := min(amount, s.Chips)
	h.commit(pos, posted)
	if s.Chips == 0 {
		s.Status = StatusAllIn
	}
	h.appendEvent(&PostBlindEvent{Seat: pos, Amount: posted, Blind: blind})
}

// dealHoleCards deals one card per seat per pass, two passes, starting at
// dealer+1, to every seat in the hand.
func (h *Hand) dealHoleCards() {
	n := len(h.Seats)
	for pass := 0; pass < 2; pass++ {
		for i := 1; i <= n; i++ {
			pos := (h.DealerPos + i) % n
			s := h.Seats[pos]
			if !s.InHand() {
				continue
			}
			s.HoleCards = append(s.HoleCards, h.Deck.DealOne())
		}
	}
	for pos, s := range h.Seats {
		if s.InHand() {
			h.appendEvent(&DealEvent{Seat: pos, Cards: append([]poker.Card(nil), s.HoleCards...)})
		}
	}
}

// Complete reports whether the hand has finished.
func (h *Hand) Complete() bool {
	return h.ShowdownDone
}

// Apply validates and applies one player action, then advances the turn,
// the street, or the whole hand as far as the rules dictate.
func (h *Hand) Apply(pos int, action ActionKind, amount int) error {
	if h.Complete() {
		return ErrHandNotActive
	}
	if pos != h.Current {
		return ErrNotYourTurn
	}
	if err := h.applyAction(pos, action, amount); err != nil {
		return err
	}
	h.appendEvent(&ActionEvent{Seat: pos, Action: action, Amount: amount, Round: h.Round})
	if err := h.checkConservation(); err != nil {
		return err
	}
	return h.progress(pos)
}

// progress decides what follows an applied action: fold-win, runout pause,
// street advance or simply the next player's turn.
func (h *Hand) progress(lastPos int) error {
	if h.inHandCount() < 2 {
		return h.finishFoldWin()
	}

	h.Current = h.nextActor(lastPos + 1)

	if !h.roundComplete() && h.shouldAutoAdvance() {
		h.autoCheckIfPending()
	}
	if h.roundComplete() {
		if h.shouldAutoAdvance() {
			// All-in runout: community cards are dealt one street per
			// explicit advance so observers can pace the reveal.
			h.Current = -1
			return nil
		}
		return h.advanceStreet(true)
	}
	return nil
}

// autoCheckIfPending applies a synthetic check when exactly one seat could
// act, faces no bet and has not acted. It keeps the event log faithful
// without waiting for a meaningless decision.
func (h *Hand) autoCheckIfPending() {
	pos := h.soleActor()
	if pos < 0 {
		return
	}
	s := h.Seats[pos]
	if s.LastAction != "" || s.CurrentBet != h.CurrentBet {
		return
	}
	s.LastAction = string(Check)
	h.seatRaiseSeq[pos] = h.raiseSeq
	h.appendEvent(&ActionEvent{Seat: pos, Action: Check, Round: h.Round, Auto: true})
}

// AdvanceRunout deals the next street during an all-in runout. Once the
// showdown has been processed there is nothing left to advance.
func (h *Hand) AdvanceRunout() error {
	if h.Complete() {
		return ErrNotAutoAdvanceable
	}
	if h.Current != -1 || !h.shouldAutoAdvance() {
		return ErrNotAutoAdvanceable
	}
	return h.advanceStreet(false)
}

// advanceStreet moves to the next street: resets per-street betting
// state, deals community cards and seats the first post-flop actor, or
// processes the showdown after the river.
func (h *Hand) advanceStreet(auto bool) error {
	from := h.Round

	if from == River {
		h.Round = Showdown
		h.appendEvent(&AdvanceRoundEvent{From: from, To: Showdown, Auto: auto})
		h.Current = -1
		return h.ProcessShowdown()
	}

	for _, s := range h.Seats {
		s.CurrentBet = 0
		if s.Status == StatusActive {
			s.LastAction = ""
		}
	}
	h.CurrentBet = 0
	h.LastRaise = 0
	h.raiseSeq++

	h.Round = from + 1
	h.appendEvent(&AdvanceRoundEvent{From: from, To: h.Round, Auto: auto})

	var dealt []poker.Card
	if h.Round == Flop {
		dealt = h.Deck.Deal(3)
	} else {
		dealt = h.Deck.Deal(1)
	}
	h.Community = append(h.Community, dealt...)
	h.appendEvent(&DealCommunityEvent{Round: h.Round, Cards: dealt})

	h.Current = h.nextActor((h.DealerPos + 1) % len(h.Seats))
	if h.shouldAutoAdvance() {
		h.autoCheckIfPending()
		h.Current = -1
	}
	return h.checkConservation()
}

// finishFoldWin ends the hand when a single seat remains unfolded: the
// survivor takes the whole pot, uncalled chips included.
func (h *Hand) finishFoldWin() error {
	winner := -1
	for i, s := range h.Seats {
		if s.InHand() {
			winner = i
			break
		}
	}
	if winner < 0 {
		return fmt.Errorf("%w: no seats left in hand", ErrConservation)
	}

	h.Pots = []PotResult{{
		Amount:   h.Pot,
		Eligible: []int{winner},
		Winners:  []int{winner},
	}}
	h.Seats[winner].Chips += h.Pot
	h.Pot = 0
	h.Winners = []int{winner}
	h.Current = -1
	h.ShowdownDone = true

	h.appendEvent(&ShowdownEvent{Pots: h.Pots})
	h.appendEvent(&HandCompleteEvent{Stacks: h.stacks(), Winners: h.Winners})
	return h.checkConservation()
}

func (h *Hand) stacks() []int {
	out := make([]int, len(h.Seats))
	for i, s := range h.Seats {
		out[i] = s.Chips
	}
	return out
}

// checkConservation verifies that chips plus pot still sum to the stacks
// at hand start. A violation poisons the table.
func (h *Hand) checkConservation() error {
	total := h.Pot
	for _, s := range h.Seats {
		total += s.Chips
	}
	if total != h.startTotal {
		return fmt.Errorf("%w: have %d, want %d", ErrConservation, total, h.startTotal)
	}
	return nil
}

// Clone returns a deep copy of the hand sharing no mutable state. Events
// are immutable once appended and are shared.
func (h *Hand) Clone() *Hand {
	c := *h
	c.Seats = make([]*Seat, len(h.Seats))
	for i, s := range h.Seats {
		c.Seats[i] = s.Clone()
	}
	c.Community = append([]poker.Card(nil), h.Community...)
	c.Pots = append([]PotResult(nil), h.Pots...)
	c.Winners = append([]int(nil), h.Winners...)
	c.Events = append([]Event(nil), h.Events...)
	c.seatRaiseSeq = append([]int(nil), h.seatRaiseSeq...)
	c.Deck = h.Deck.Clone()
	return &c
}
