package engine

import "fmt"

// Replay reconstructs a hand from its event log. The hand start event
// carries the deck seed and starting stacks, so blinds, hole cards and
// community cards regenerate deterministically; only player decisions and
// runout advances are re-applied. Events the engine synthesized itself are
// skipped because re-application produces them again.
func Replay(events []Event) (*Hand, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("replay: empty event log")
	}
	start, ok := events[0].(*HandStartEvent)
	if !ok {
		return nil, fmt.Errorf("replay: first event is %s, want %s", events[0].Kind(), EventHandStart)
	}

	seats := make([]*Seat, len(start.Seats))
	for i, ss := range start.Seats {
		if ss.Position != i {
			return nil, fmt.Errorf("replay: seat %q recorded at position %d, want %d", ss.Name, ss.Position, i)
		}
		seats[i] = &Seat{
			ID:     ss.ID,
			Name:   ss.Name,
			Chips:  ss.Chips,
			Status: StatusActive,
		}
	}

	h, err := NewHand(seats, start.HandNumber, start.DealerPos, start.SmallBlind, start.BigBlind, start.DeckSeed)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	for _, ev := range events[1:] {
		switch e := ev.(type) {
		case *ActionEvent:
			if e.Auto {
				continue
			}
			if err := h.Apply(e.Seat, e.Action, e.Amount); err != nil {
				return nil, fmt.Errorf("replay: seat %d %s at seq %d: %w", e.Seat, e.Action, e.Sequence(), err)
			}
		case *AdvanceRoundEvent:
			if e.Auto {
				continue
			}
			if err := h.AdvanceRunout(); err != nil {
				return nil, fmt.Errorf("replay: advance to %s at seq %d: %w", e.To, e.Sequence(), err)
			}
		}
	}
	return h, nil
}
