package engine

import "sort"

// Pot is one layer of the pot with the seats eligible to win it.
type Pot struct {
	Amount   int
	Eligible []int
}

// BuildPots computes the main and side pots from the seats' total bets.
// Levels come only from seats still in the hand; folded seats contribute
// chips to each layer they reach but are never eligible. The layers'
// amounts always sum to the seats' total bets, and each layer's
// eligibility is a superset of the next layer's.
func BuildPots(seats []*Seat) []Pot {
	levelSet := map[int]bool{}
	for _, s := range seats {
		if s.InHand() && s.TotalBet > 0 {
			levelSet[s.TotalBet] = true
		}
	}
	levels := make([]int, 0, len(levelSet))
	for l := range levelSet {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	pots := make([]Pot, 0, len(levels))
	prev := 0
	for _, level := range levels {
		pot := Pot{}
		for i, s := range seats {
			contribution := min(s.TotalBet, level) - min(s.TotalBet, prev)
			pot.Amount += contribution
			if s.InHand() && s.TotalBet >= level {
				pot.Eligible = append(pot.Eligible, i)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}

	// Chips from folded seats above the highest surviving level would be
	// orphaned; fold them into the last layer.
	orphaned := 0
	for _, s := range seats {
		if s.TotalBet > prev {
			orphaned += s.TotalBet - prev
		}
	}
	if orphaned > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += orphaned
	}

	return pots
}
