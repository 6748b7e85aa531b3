// Package view projects table snapshots into what observers and players
// are allowed to see. The engine keeps every hole card in its state and
// event log; visibility rules live here and only here.
package view

import (
	"github.com/wbruntra/texas-holdem/internal/engine"
	"github.com/wbruntra/texas-holdem/poker"
)

// SeatView is one seat as shown to a viewer. HoleCards is nil whenever
// the viewer is not allowed to see them.
type SeatView struct {
	Position   int          `json:"position"`
	Name       string       `json:"name"`
	Chips      int          `json:"chips"`
	Status     string       `json:"status"`
	CurrentBet int          `json:"current_bet"`
	TotalBet   int          `json:"total_bet"`
	LastAction string       `json:"last_action,omitempty"`
	HoleCards  []poker.Card `json:"hole_cards,omitempty"`
	Dealer     bool         `json:"dealer,omitempty"`
	SmallBlind bool         `json:"small_blind,omitempty"`
	BigBlind   bool         `json:"big_blind,omitempty"`
	Connected  bool         `json:"connected"`
}

// PotView is one settled pot layer.
type PotView struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
	Winners  []int `json:"winners,omitempty"`
	Returned bool  `json:"returned,omitempty"`
}

// HandView is the hand in progress. Current is nil when no seat is to
// act rather than an in-band sentinel.
type HandView struct {
	HandNumber int          `json:"hand_number"`
	Round      string       `json:"round"`
	Community  []poker.Card `json:"community"`
	Pot        int          `json:"pot"`
	CurrentBet int          `json:"current_bet"`
	MinRaise   int          `json:"min_raise"`
	Current    *int         `json:"current"`
	Complete   bool         `json:"complete"`
	Pots       []PotView    `json:"pots,omitempty"`
	Winners    []int        `json:"winners,omitempty"`
}

// TableView is the full projection for one viewer.
type TableView struct {
	TableID    string     `json:"table_id"`
	RoomCode   string     `json:"room_code"`
	Status     string     `json:"status"`
	Revision   uint64     `json:"revision"`
	HandNumber int        `json:"hand_number"`
	SmallBlind int        `json:"small_blind"`
	BigBlind   int        `json:"big_blind"`
	Seats      []SeatView `json:"seats"`
	Hand       *HandView  `json:"hand"`
}

// Table builds the public observer projection. Hole cards appear for a
// seat only when the seat chose to show them, the hand reached a
// contested showdown, or the hand is running out with no action left.
func Table(t *engine.Table, revision uint64) TableView {
	tv := TableView{
		TableID:    t.ID,
		RoomCode:   t.RoomCode,
		Status:     string(t.Status),
		Revision:   revision,
		HandNumber: t.HandNumber,
		SmallBlind: t.Config.SmallBlind,
		BigBlind:   t.Config.BigBlind,
		Seats:      make([]SeatView, len(t.Seats)),
	}

	reveal := revealAll(t.Hand)
	for i, s := range t.Seats {
		sv := SeatView{
			Position:   i,
			Name:       s.Name,
			Chips:      s.Chips,
			Status:     string(s.Status),
			CurrentBet: s.CurrentBet,
			TotalBet:   s.TotalBet,
			LastAction: s.LastAction,
			Dealer:     s.Dealer,
			SmallBlind: s.SmallBlind,
			BigBlind:   s.BigBlind,
			Connected:  s.Connected,
		}
		if s.ShowCards || (reveal && s.InHand()) {
			sv.HoleCards = append([]poker.Card(nil), s.HoleCards...)
		}
		tv.Seats[i] = sv
	}

	if h := t.Hand; h != nil {
		hv := &HandView{
			HandNumber: h.HandNumber,
			Round:      h.Round.String(),
			Community:  append([]poker.Card(nil), h.Community...),
			Pot:        h.Pot,
			CurrentBet: h.CurrentBet,
			MinRaise:   h.LastRaise,
			Complete:   h.Complete(),
			Winners:    append([]int(nil), h.Winners...),
		}
		if h.Current >= 0 {
			pos := h.Current
			hv.Current = &pos
		}
		for _, p := range h.Pots {
			hv.Pots = append(hv.Pots, PotView{
				Amount:   p.Amount,
				Eligible: p.Eligible,
				Winners:  p.Winners,
				Returned: p.Returned,
			})
		}
		tv.Hand = hv
	}
	return tv
}

// Player builds the projection for the seat identified by seatID: the
// table view plus the player's own hole cards.
func Player(t *engine.Table, revision uint64, seatID string) TableView {
	tv := Table(t, revision)
	for i, s := range t.Seats {
		if s.ID == seatID {
			tv.Seats[i].HoleCards = append([]poker.Card(nil), s.HoleCards...)
		}
	}
	return tv
}

// revealAll reports whether every contesting seat's hole cards are public:
// a showdown reached by at least two seats, or an all-in run-out where no
// further action is possible. A win by folding reveals nothing.
func revealAll(h *engine.Hand) bool {
	if h == nil {
		return false
	}
	contesting := 0
	for _, s := range h.Seats {
		if s.InHand() {
			contesting++
		}
	}
	if contesting < 2 {
		return false
	}
	return h.Complete() || h.Current == -1
}
