package deck

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	text := "1 Llanowar Elves\n2 Forest\n1 Fable of the Mirror-Breaker // Reflection of Kiki-Jiki\n\n1 Omnath, Locus of Mana\n"

	d, err := Parse(text)
	require.NoError(t, err)

	require.NotNil(t, d.Commander)
	assert.Equal(t, DeckCard{Quantity: 1, Name: "Omnath, Locus of Mana"}, *d.Commander)
	assert.Equal(t, []DeckCard{
		{Quantity: 1, Name: "Llanowar Elves"},
		{Quantity: 2, Name: "Forest"},
		{Quantity: 1, Name: "Fable of the Mirror-Breaker // Reflection of Kiki-Jiki"},
	}, d.MainDeck)
	assert.Equal(t, 5, d.Size())
}

func TestParse_WindowsLineEndings(t *testing.T) {
	d, err := Parse("1 Island\r\n\r\n1 Talrand, Sky Summoner\r\n")
	require.NoError(t, err)
	assert.Equal(t, "Talrand, Sky Summoner", d.Commander.Name)
	assert.Equal(t, "Island", d.MainDeck[0].Name)
}

func TestParse_Errors(t *testing.T) {
	t.Run("no separator", func(t *testing.T) {
		_, err := Parse("1 Island\n1 Swamp")
		assert.ErrorIs(t, err, ErrNoSeparator)
	})

	t.Run("no commander", func(t *testing.T) {
		_, err := Parse("1 Island\n\n")
		assert.ErrorIs(t, err, ErrNoCommander)
	})

	t.Run("non-numeric quantity", func(t *testing.T) {
		_, err := Parse("one Island\n\n1 Talrand, Sky Summoner")
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 1, parseErr.Line)
		assert.Contains(t, parseErr.Error(), "not a number")
	})

	t.Run("zero quantity commander", func(t *testing.T) {
		_, err := Parse("1 Island\n\n0 Talrand, Sky Summoner")
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 3, parseErr.Line)
		assert.Equal(t, "quantity must be positive", parseErr.Reason)
	})

	t.Run("negative quantity", func(t *testing.T) {
		_, err := Parse("-2 Island\n\n1 Talrand, Sky Summoner")
		var parseErr *ParseError
		assert.True(t, errors.As(err, &parseErr))
	})
}

func TestDecklist_StringRoundTrip(t *testing.T) {
	d := &Decklist{
		MainDeck:  []DeckCard{{Quantity: 1, Name: "Opt"}, {Quantity: 3, Name: "Island"}},
		Commander: &DeckCard{Quantity: 1, Name: "Talrand, Sky Summoner"},
	}
	parsed, err := Parse(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestDecklist_Validate(t *testing.T) {
	valid := func() *Decklist {
		return &Decklist{
			MainDeck:  []DeckCard{{Quantity: 1, Name: "Opt"}},
			Commander: &DeckCard{Quantity: 1, Name: "Talrand, Sky Summoner"},
		}
	}

	assert.NoError(t, valid().Validate())

	d := valid()
	d.Commander = nil
	assert.ErrorIs(t, d.Validate(), ErrNoCommander)

	// an empty main deck is evaluated, not rejected
	d = valid()
	d.MainDeck = nil
	assert.NoError(t, d.Validate())

	d = valid()
	d.MainDeck[0].Quantity = 0
	var cardErr *CardError
	require.ErrorAs(t, d.Validate(), &cardErr)
	assert.Equal(t, "card in mainDeck", cardErr.Field)

	d = valid()
	d.Commander.Name = strings.Repeat("x", MaxCardNameLength+1)
	require.ErrorAs(t, d.Validate(), &cardErr)
	assert.Equal(t, "commander", cardErr.Field)

	d = valid()
	d.Commander.Quantity = MaxCardQuantity + 1
	assert.Error(t, d.Validate())

	d = valid()
	for i := 0; i < MaxMainDeckCards; i++ {
		d.MainDeck = append(d.MainDeck, DeckCard{Quantity: 1, Name: "Opt"})
	}
	assert.ErrorIs(t, d.Validate(), ErrTooManyCards)
}
