package poker

import "sort"

// HandRank enumerates the hand categories from weakest to strongest.
type HandRank int

const (
	HighCard HandRank = iota + 1
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns a human-readable hand description.
func (hr HandRank) String() string {
	switch hr {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandValue is the result of evaluating a hand: the category plus a
// lexicographically comparable tuple of descending tiebreak ranks.
// Comparison must always go through Compare; the tiebreak tuple on its own
// cannot order hands of different categories.
type HandValue struct {
	Rank     HandRank
	Tiebreak []int
	Best     []Card // the five cards forming the best hand
}

// Compare orders two hand values. It returns a negative number if a is
// weaker than b, zero if they tie, and a positive number if a is stronger.
// The category dominates; the tiebreak tuple only breaks ties within one.
func Compare(a, b HandValue) int {
	if a.Rank != b.Rank {
		return int(a.Rank) - int(b.Rank)
	}
	for i := 0; i < len(a.Tiebreak) && i < len(b.Tiebreak); i++ {
		if a.Tiebreak[i] != b.Tiebreak[i] {
			return a.Tiebreak[i] - b.Tiebreak[i]
		}
	}
	return len(a.Tiebreak) - len(b.Tiebreak)
}

// Evaluate returns the best five-card hand value from the given cards.
// It accepts five to seven cards.
func Evaluate(cards []Card) HandValue {
	if len(cards) <= 5 {
		return evaluate5(cards)
	}

	var best HandValue
	idx := make([]int, 5)
	pick := make([]Card, 5)
	n := len(cards)

	// Walk every 5-card combination (21 for seven cards).
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			for i, j := range idx {
				pick[i] = cards[j]
			}
			hv := evaluate5(pick)
			if best.Rank == 0 || Compare(hv, best) > 0 {
				hv.Best = append([]Card(nil), pick...)
				best = hv
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			idx[depth] = i
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return best
}

// evaluate5 categorizes exactly five cards.
func evaluate5(cards []Card) HandValue {
	values := make([]int, len(cards))
	for i, c := range cards {
		values[i] = c.Value()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	counts := map[int]int{}
	for _, v := range values {
		counts[v]++
	}
	suited := len(cards) == 5
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			suited = false
			break
		}
	}
	straightHigh, isStraight := straightHighCard(values)

	switch {
	case suited && isStraight && straightHigh == int(Ace):
		return HandValue{Rank: RoyalFlush, Tiebreak: []int{straightHigh}, Best: five(cards)}
	case suited && isStraight:
		return HandValue{Rank: StraightFlush, Tiebreak: []int{straightHigh}, Best: five(cards)}
	}

	// Group values by multiplicity, strongest groups first.
	type group struct{ value, count int }
	groups := make([]group, 0, len(counts))
	for v, n := range counts {
		groups = append(groups, group{v, n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].value > groups[j].value
	})

	switch {
	case groups[0].count == 4:
		return HandValue{Rank: FourOfAKind, Tiebreak: []int{groups[0].value, groups[1].value}, Best: five(cards)}
	case groups[0].count == 3 && len(groups) > 1 && groups[1].count >= 2:
		return HandValue{Rank: FullHouse, Tiebreak: []int{groups[0].value, groups[1].value}, Best: five(cards)}
	case suited:
		return HandValue{Rank: Flush, Tiebreak: values, Best: five(cards)}
	case isStraight:
		return HandValue{Rank: Straight, Tiebreak: []int{straightHigh}, Best: five(cards)}
	case groups[0].count == 3:
		tb := []int{groups[0].value}
		for _, g := range groups[1:] {
			tb = append(tb, g.value)
		}
		return HandValue{Rank: ThreeOfAKind, Tiebreak: tb, Best: five(cards)}
	case groups[0].count == 2 && len(groups) > 1 && groups[1].count == 2:
		return HandValue{Rank: TwoPair, Tiebreak: []int{groups[0].value, groups[1].value, groups[2].value}, Best: five(cards)}
	case groups[0].count == 2:
		tb := []int{groups[0].value}
		for _, g := range groups[1:] {
			tb = append(tb, g.value)
		}
		return HandValue{Rank: Pair, Tiebreak: tb, Best: five(cards)}
	default:
		return HandValue{Rank: HighCard, Tiebreak: values, Best: five(cards)}
	}
}

// straightHighCard reports whether the (descending) values form a straight
// and returns its high card. The wheel A-2-3-4-5 counts with high card 5.
func straightHighCard(desc []int) (int, bool) {
	if len(desc) != 5 {
		return 0, false
	}
	run := true
	for i := 1; i < 5; i++ {
		if desc[i] != desc[i-1]-1 {
			run = false
			break
		}
	}
	if run {
		return desc[0], true
	}
	// Wheel: A,5,4,3,2 sorted descending.
	if desc[0] == int(Ace) && desc[1] == 5 && desc[2] == 4 && desc[3] == 3 && desc[4] == 2 {
		return 5, true
	}
	return 0, false
}

func five(cards []Card) []Card {
	return append([]Card(nil), cards...)
}
