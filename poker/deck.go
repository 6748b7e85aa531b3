package poker

import (
	"crypto/sha256"
	rand "math/rand/v2"
)

// Deck is an ordered sequence of the 52 distinct cards. The order is fully
// determined by the seed passed to NewDeck, so recording the seed alongside
// a hand is enough to reconstruct the deal.
type Deck struct {
	cards [52]Card
	next  int
	seed  []byte
}

// NewDeck creates a deck shuffled deterministically from seed. The seed is
// hashed to key a ChaCha8 generator which drives a Fisher-Yates shuffle;
// equal seeds always produce equal permutations.
func NewDeck(seed []byte) *Deck {
	d := &Deck{seed: append([]byte(nil), seed...)}

	i := 0
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}

	d.shuffle()
	return d
}

// Seed returns the seed the deck was shuffled with.
func (d *Deck) Seed() []byte {
	return append([]byte(nil), d.seed...)
}

func (d *Deck) shuffle() {
	d.next = 0
	rng := rand.New(rand.NewChaCha8(sha256.Sum256(d.seed)))
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Clone returns an independent copy of the deck at the same position.
func (d *Deck) Clone() *Deck {
	c := *d
	c.seed = append([]byte(nil), d.seed...)
	return &c
}

// Deal deals n cards from the top of the deck. It returns nil if fewer than
// n cards remain.
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards
}

// DealOne deals a single card from the top of the deck.
func (d *Deck) DealOne() Card {
	return d.Deal(1)[0]
}

// CardsRemaining returns the number of cards left in the deck.
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}

// Cursor returns how many cards have been dealt so far.
func (d *Deck) Cursor() int {
	return d.next
}

// Skip advances the deal cursor without returning cards, as if n cards
// had been burned.
func (d *Deck) Skip(n int) {
	d.next += n
	if d.next > len(d.cards) {
		d.next = len(d.cards)
	}
}
