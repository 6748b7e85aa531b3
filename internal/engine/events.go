package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wbruntra/texas-holdem/poker"
)

// EventKind identifies the type of a hand event.
type EventKind string

const (
	EventHandStart     EventKind = "hand_start"
	EventPostBlind     EventKind = "post_blind"
	EventDeal          EventKind = "deal"
	EventAction        EventKind = "action"
	EventAdvanceRound  EventKind = "advance_round"
	EventDealCommunity EventKind = "deal_community"
	EventShowdown      EventKind = "showdown"
	EventHandComplete  EventKind = "hand_complete"
)

// Event is a record appended once per applied mutation. Sequence numbers
// are monotonic within a hand; the ordered event list reconstructs the
// hand's state exactly (see Replay).
type Event interface {
	Kind() EventKind
	Sequence() int
	Time() time.Time
	stamp(seq int, at time.Time)
}

// Meta carries the fields shared by every event.
type Meta struct {
	Seq int       `json:"seq"`
	At  time.Time `json:"at"`
}

func (m Meta) Sequence() int   { return m.Seq }
func (m Meta) Time() time.Time { return m.At }

func (m *Meta) stamp(seq int, at time.Time) {
	m.Seq = seq
	m.At = at
}

// SeatStart records one seat's identity and stack at hand start. Together
// with the deck seed this makes the event log self-contained.
type SeatStart struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Chips    int    `json:"chips"`
}

// HandStartEvent opens a hand.
type HandStartEvent struct {
	Meta
	HandNumber int         `json:"hand_number"`
	DealerPos  int         `json:"dealer_pos"`
	DeckSeed   []byte      `json:"deck_seed"`
	SmallBlind int         `json:"small_blind"`
	BigBlind   int         `json:"big_blind"`
	Seats      []SeatStart `json:"seats"`
}

func (HandStartEvent) Kind() EventKind { return EventHandStart }

// PostBlindEvent records a forced blind, capped by the poster's stack.
type PostBlindEvent struct {
	Meta
	Seat   int    `json:"seat"`
	Amount int    `json:"amount"`
	Blind  string `json:"blind"` // "small" or "big"
}

func (PostBlindEvent) Kind() EventKind { return EventPostBlind }

// DealEvent records the hole cards dealt to one seat.
type DealEvent struct {
	Meta
	Seat  int          `json:"seat"`
	Cards []poker.Card `json:"cards"`
}

func (DealEvent) Kind() EventKind { return EventDeal }

// ActionEvent records a betting action. Auto marks actions synthesized by
// the engine (auto-checks); replay skips those since applying the
// preceding player action regenerates them.
type ActionEvent struct {
	Meta
	Seat   int        `json:"seat"`
	Action ActionKind `json:"action"`
	Amount int        `json:"amount"`
	Round  Round      `json:"round"`
	Auto   bool       `json:"auto,omitempty"`
}

func (ActionEvent) Kind() EventKind { return EventAction }

// AdvanceRoundEvent records a street transition. Auto marks transitions
// triggered by betting-round completion as opposed to an explicit
// advance request during an all-in run-out.
type AdvanceRoundEvent struct {
	Meta
	From Round `json:"from"`
	To   Round `json:"to"`
	Auto bool  `json:"auto,omitempty"`
}

func (AdvanceRoundEvent) Kind() EventKind { return EventAdvanceRound }

// DealCommunityEvent records community cards dealt for a street.
type DealCommunityEvent struct {
	Meta
	Round Round        `json:"round"`
	Cards []poker.Card `json:"cards"`
}

func (DealCommunityEvent) Kind() EventKind { return EventDealCommunity }

// PotResult describes how one pot layer was settled.
type PotResult struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
	Winners  []int `json:"winners,omitempty"`
	Returned bool  `json:"returned,omitempty"` // uncontested layer handed back
}

// ShowdownEvent records the pot breakdown and winners per pot.
type ShowdownEvent struct {
	Meta
	Pots []PotResult `json:"pots"`
}

func (ShowdownEvent) Kind() EventKind { return EventShowdown }

// HandCompleteEvent closes a hand with the final stacks.
type HandCompleteEvent struct {
	Meta
	Stacks  []int `json:"stacks"`
	Winners []int `json:"winners"`
}

func (HandCompleteEvent) Kind() EventKind { return EventHandComplete }

// MarshalEvent encodes an event payload for storage.
func MarshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// UnmarshalEvent decodes a stored event payload by kind.
func UnmarshalEvent(kind EventKind, data []byte) (Event, error) {
	var ev Event
	switch kind {
	case EventHandStart:
		ev = &HandStartEvent{}
	case EventPostBlind:
		ev = &PostBlindEvent{}
	case EventDeal:
		ev = &DealEvent{}
	case EventAction:
		ev = &ActionEvent{}
	case EventAdvanceRound:
		ev = &AdvanceRoundEvent{}
	case EventDealCommunity:
		ev = &DealCommunityEvent{}
	case EventShowdown:
		ev = &ShowdownEvent{}
	case EventHandComplete:
		ev = &HandCompleteEvent{}
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// appendEvent stamps and records an event on the hand log.
func (h *Hand) appendEvent(ev Event) {
	h.seq++
	ev.stamp(h.seq, time.Now().UTC())
	h.Events = append(h.Events, ev)
}
