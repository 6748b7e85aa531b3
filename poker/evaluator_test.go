package poker

import (
	"fmt"
	"testing"

	chehsunliu "github.com/chehsunliu/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, cards string) HandValue {
	t.Helper()
	cs, err := ParseAll(cards)
	require.NoError(t, err)
	return Evaluate(cs)
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		rank  HandRank
	}{
		{"royal flush", "As Ks Qs Js Ts 2h 3d", RoyalFlush},
		{"straight flush", "9s 8s 7s 6s 5s Ad Kd", StraightFlush},
		{"four of a kind", "As Ah Ad Ac Ks 2h 3d", FourOfAKind},
		{"full house", "As Ah Ad Ks Kh 2h 3d", FullHouse},
		{"flush", "As Qs 9s 6s 3s Kd 2h", Flush},
		{"straight", "9s 8h 7d 6c 5s Ad Kd", Straight},
		{"wheel straight", "As 2h 3d 4c 5s 9d Kd", Straight},
		{"three of a kind", "As Ah Ad Ks Qh 2h 3d", ThreeOfAKind},
		{"two pair", "As Ah Ks Kh Qd 2h 3d", TwoPair},
		{"pair", "As Ah Ks Qh Jd 2h 3d", Pair},
		{"high card", "As Kh Qs Jh 9d 2h 3d", HighCard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rank, eval(t, tt.cards).Rank)
		})
	}
}

func TestWheelStraightHighCardIsFive(t *testing.T) {
	hv := eval(t, "As 2h 3d 4c 5s 9d Kd")
	require.Equal(t, Straight, hv.Rank)
	assert.Equal(t, 5, hv.Tiebreak[0])

	// A six-high straight beats the wheel.
	six := eval(t, "2s 3h 4d 5c 6s 9d Kd")
	assert.Positive(t, Compare(six, hv))
}

// Guards the historical defect where pot distribution compared raw card
// values across categories: a jack-high board must not beat a pair of nines.
func TestPairBeatsHighCardRegardlessOfValues(t *testing.T) {
	board := "3s Js Tc 4h 9s"
	alice := eval(t, board+" 6d 9c") // pair of nines
	bob := eval(t, board+" 5d 7c")  // jack high

	require.Equal(t, Pair, alice.Rank)
	require.Equal(t, HighCard, bob.Rank)
	assert.Positive(t, Compare(alice, bob))
}

func TestCompareRankDominatesTiebreak(t *testing.T) {
	pairOfTwos := eval(t, "2s 2h As Kh Qd 8c 4d")
	aceHigh := eval(t, "As Kh Qd Jc 9s 8c 4d")
	require.Equal(t, Pair, pairOfTwos.Rank)
	require.Equal(t, HighCard, aceHigh.Rank)
	assert.Positive(t, Compare(pairOfTwos, aceHigh))
}

func TestCompareKickers(t *testing.T) {
	a := eval(t, "As Ah Ks Qh Jd 2h 3d")
	b := eval(t, "Ad Ac Ks Qh Td 2h 3d")
	// Same pair of aces, K Q kickers equal, jack beats ten.
	assert.Positive(t, Compare(a, b))

	c := eval(t, "Ad Ac Kd Qc Jh 2s 3s")
	assert.Zero(t, Compare(a, c))
}

func TestFullHouseBestTripsAndPair(t *testing.T) {
	// Two sets of trips: use the higher as trips, the lower as the pair.
	hv := eval(t, "As Ah Ad Ks Kh Kd 2c")
	require.Equal(t, FullHouse, hv.Rank)
	assert.Equal(t, []int{14, 13}, hv.Tiebreak[:2])
}

func TestFlushPicksFiveHighestOfSuit(t *testing.T) {
	hv := eval(t, "As Qs 9s 6s 3s 2s Kd")
	require.Equal(t, Flush, hv.Rank)
	assert.Equal(t, []int{14, 12, 9, 6, 3}, hv.Tiebreak)
}

func TestEvaluateBestReturnsFiveCards(t *testing.T) {
	hv := eval(t, "As Ah Ad Ks Kh 2h 3d")
	assert.Len(t, hv.Best, 5)
}

// Cross-check our ordering against the chehsunliu evaluator on a spread of
// seven-card hands. Their scale inverts (lower is stronger).
func TestCompareAgainstOracle(t *testing.T) {
	hands := []string{
		"As Ks Qs Js Ts 2h 3d",
		"9s 8s 7s 6s 5s Ad Kd",
		"As Ah Ad Ac Ks 2h 3d",
		"As Ah Ad Ks Kh 2h 3d",
		"As Qs 9s 6s 3s Kd 2h",
		"9s 8h 7d 6c 5s Ad Kd",
		"As 2h 3d 4c 5s 9d Kd",
		"As Ah Ad Ks Qh 2h 3d",
		"As Ah Ks Kh Qd 2h 3d",
		"As Ah Ks Qh Jd 2h 3d",
		"Ad Ac Ks Qh Td 2h 3d",
		"As Kh Qs Jh 9d 2h 3d",
		"3s Js Tc 4h 9s 6d 9c",
		"3s Js Tc 4h 9s 5d 7c",
		"2s 3h 4d 5c 6s 9d Kd",
		"7s 7h 7d 2s 2h 9c Kd",
	}

	oracle := func(s string) int32 {
		cs, err := ParseAll(s)
		require.NoError(t, err)
		conv := make([]chehsunliu.Card, len(cs))
		for i, c := range cs {
			label := c.Rank.String()
			if c.Rank == Ten {
				label = "T"
			}
			conv[i] = chehsunliu.NewCard(label + string(c.Suit.Name()[0]))
		}
		return chehsunliu.Evaluate(conv)
	}

	for i := range hands {
		for j := range hands {
			a, b := eval(t, hands[i]), eval(t, hands[j])
			got := sign(Compare(a, b))
			want := sign(int(oracle(hands[j]) - oracle(hands[i])))
			assert.Equal(t, want, got,
				fmt.Sprintf("ordering mismatch between %q and %q", hands[i], hands[j]))
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
