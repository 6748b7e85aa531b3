package engine

import (
	"github.com/wbruntra/texas-holdem/poker"
)

// ProcessShowdown settles the hand: builds the pot layers from total bets,
// awards each contested layer to the comparator-best eligible hands and
// hands uncontested layers back without recording a win. It is idempotent.
func (h *Hand) ProcessShowdown() error {
	if h.ShowdownDone {
		return nil
	}

	pots := BuildPots(h.Seats)
	results := make([]PotResult, 0, len(pots))
	winnerSet := map[int]bool{}

	for _, pot := range pots {
		res := PotResult{Amount: pot.Amount, Eligible: pot.Eligible}

		if len(pot.Eligible) == 1 {
			// Uncalled portion: returned, not won.
			res.Returned = true
			h.Seats[pot.Eligible[0]].Chips += pot.Amount
			h.Pot -= pot.Amount
			results = append(results, res)
			continue
		}

		var best poker.HandValue
		var winners []int
		for _, pos := range pot.Eligible {
			hv := poker.Evaluate(append(append([]poker.Card(nil), h.Seats[pos].HoleCards...), h.Community...))
			switch {
			case len(winners) == 0 || poker.Compare(hv, best) > 0:
				best = hv
				winners = []int{pos}
			case poker.Compare(hv, best) == 0:
				winners = append(winners, pos)
			}
		}

		// Split as evenly as possible; the odd chip goes to the earliest
		// winner clockwise from the dealer.
		winners = h.clockwiseFromDealer(winners)
		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for i, pos := range winners {
			award := share
			if i == 0 {
				award += remainder
			}
			h.Seats[pos].Chips += award
			h.Pot -= award
			winnerSet[pos] = true
		}
		res.Winners = winners
		results = append(results, res)
	}

	h.Pots = results
	h.Winners = h.clockwiseFromDealer(keys(winnerSet))
	h.Current = -1
	h.Round = Showdown
	h.ShowdownDone = true

	h.appendEvent(&ShowdownEvent{Pots: results})
	h.appendEvent(&HandCompleteEvent{Stacks: h.stacks(), Winners: h.Winners})
	return h.checkConservation()
}

// clockwiseFromDealer orders seat indexes by distance clockwise from the
// seat after the dealer.
func (h *Hand) clockwiseFromDealer(positions []int) []int {
	n := len(h.Seats)
	ordered := make([]int, 0, len(positions))
	for i := 1; i <= n; i++ {
		pos := (h.DealerPos + i) % n
		for _, p := range positions {
			if p == pos {
				ordered = append(ordered, pos)
			}
		}
	}
	return ordered
}

func keys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
