package engine

import (
	"github.com/wbruntra/texas-holdem/poker"
)

// Status describes a seat's participation in the current hand.
type Status string

const (
	StatusActive Status = "active"
	StatusFolded Status = "folded"
	StatusAllIn  Status = "all_in"
	StatusOut    Status = "out"
)

// Seat is a seat at a table. Seats persist across hands; the per-hand
// fields are reset by each new hand.
type Seat struct {
	ID           string
	Name         string
	CredentialFP string
	Chips        int

	HoleCards  []poker.Card
	Status     Status
	CurrentBet int    // chips committed this street
	TotalBet   int    // chips committed this hand
	LastAction string // last completed betting action, "" if none this street
	ShowCards  bool
	Connected  bool

	Dealer     bool
	SmallBlind bool
	BigBlind   bool
}

// InHand reports whether the seat still contests the current hand.
func (s *Seat) InHand() bool {
	return s.Status == StatusActive || s.Status == StatusAllIn
}

// CanAct reports whether the seat can make a betting decision.
func (s *Seat) CanAct() bool {
	return s.Status == StatusActive && s.Chips > 0
}

// resetForHand clears the per-hand state. Seats without chips sit out.
func (s *Seat) resetForHand() {
	s.HoleCards = nil
	s.CurrentBet = 0
	s.TotalBet = 0
	s.LastAction = ""
	s.ShowCards = false
	s.Dealer = false
	s.SmallBlind = false
	s.BigBlind = false
	if s.Chips > 0 {
		s.Status = StatusActive
	} else {
		s.Status = StatusOut
	}
}

// Clone returns a deep copy of the seat.
func (s *Seat) Clone() *Seat {
	c := *s
	c.HoleCards = append([]poker.Card(nil), s.HoleCards...)
	return &c
}
