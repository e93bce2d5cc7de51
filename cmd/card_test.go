package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{""}, wrapText("   ", 20))
	assert.Equal(t,
		[]string{"Flying, vigilance", "When this creature", "enters, draw a card."},
		wrapText("Flying, vigilance When this creature enters, draw a card.", 20))
	// a single word longer than the width stays whole
	assert.Equal(t, []string{"Hullbreaker", "Horror"}, wrapText("Hullbreaker Horror", 10))
}

func TestColorIdentityString(t *testing.T) {
	assert.Equal(t, "colorless", colorIdentityString(nil))
	assert.Contains(t, colorIdentityString([]string{"W", "U"}), "W")
	assert.Contains(t, colorIdentityString([]string{"W", "U"}), "U")
}
