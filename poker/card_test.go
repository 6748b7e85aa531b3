package poker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♠", NewCard(Ace, Spades).String())
	assert.Equal(t, "10♥", NewCard(Ten, Hearts).String())
	assert.Equal(t, "2♣", NewCard(Two, Clubs).String())
}

func TestCardValue(t *testing.T) {
	assert.Equal(t, 14, NewCard(Ace, Spades).Value())
	assert.Equal(t, 11, NewCard(Jack, Diamonds).Value())
	assert.Equal(t, 2, NewCard(Two, Hearts).Value())
}

func TestCardWireFormat(t *testing.T) {
	data, err := json.Marshal(NewCard(Ace, Hearts))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":"A","suit":"hearts","value":14}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, NewCard(Ace, Hearts), c)
}

func TestCardWireFormatTen(t *testing.T) {
	data, err := json.Marshal(NewCard(Ten, Spades))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":"10","suit":"spades","value":10}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, NewCard(Ten, Spades), c)
}

func TestParse(t *testing.T) {
	assert.Equal(t, NewCard(Ace, Spades), MustParse("As"))
	assert.Equal(t, NewCard(Ten, Diamonds), MustParse("Td"))
	assert.Equal(t, NewCard(Nine, Hearts), MustParse("9h"))

	_, err := Parse("Xx")
	assert.Error(t, err)
	_, err = Parse("A")
	assert.Error(t, err)
}

func TestParseAll(t *testing.T) {
	cards, err := ParseAll("As Kd 2c")
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, NewCard(King, Diamonds), cards[1])
}
