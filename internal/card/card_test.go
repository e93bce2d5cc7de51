package card

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paperCard(name, layout, typeLine string) *Card {
	return &Card{
		Name:     name,
		Layout:   layout,
		TypeLine: typeLine,
		SetType:  "expansion",
		Games:    []string{"paper", "mtgo"},
	}
}

func TestCard_IsEligible(t *testing.T) {
	tests := []struct {
		name string
		card *Card
		want bool
	}{
		{"plain creature", paperCard("Llanowar Elves", "normal", "Creature — Elf Druid"), true},
		{"planeswalker is not a plane", paperCard("Nissa, Who Shakes the World", "normal", "Legendary Planeswalker — Nissa"), true},
		{"digital only", &Card{Name: "Davriel's Withering", Layout: "normal", Games: []string{"arena"}}, false},
		{"no games at all", &Card{Name: "Nameless", Layout: "normal"}, false},
		{"token layout", paperCard("Goblin", "token", "Token Creature — Goblin"), false},
		{"double faced token", paperCard("Incubator // Phyrexian", "double_faced_token", "Token Artifact"), false},
		{"art series", paperCard("Lathliss", "art_series", "Card"), false},
		{"reversible", paperCard("Zndrsplt", "reversible_card", "Legendary Creature"), false},
		{"memorabilia set", &Card{Name: "Gold Border", Layout: "normal", SetType: "memorabilia", Games: []string{"paper"}}, false},
		{"token set", &Card{Name: "Helper", Layout: "normal", SetType: "token", Games: []string{"paper"}}, false},
		{"emblem by name", paperCard("Emblem of Nobody", "normal", "Card"), false},
		{"emblem by type", paperCard("Chandra", "normal", "Emblem — Chandra"), false},
		{"conspiracy", paperCard("Backup Plan", "normal", "Conspiracy"), false},
		{"phenomenon", paperCard("Chaotic Aether", "normal", "Phenomenon"), false},
		{"plane", paperCard("Naya", "normal", "Plane — Alara"), false},
		{"scheme type", paperCard("Behold the Power", "normal", "Scheme"), false},
		{"vanguard layout", paperCard("Akroma", "vanguard", "Vanguard"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.card.IsEligible())
		})
	}
}

func TestCard_IsEligible_MultiFace(t *testing.T) {
	dfc := paperCard("Delver of Secrets // Insectile Aberration", "transform", "Creature — Human Wizard // Creature — Human Insect")
	dfc.CardFaces = []Face{{Name: "Delver of Secrets"}, {Name: "Insectile Aberration"}}
	assert.True(t, dfc.IsEligible())
	assert.True(t, dfc.IsMultiFace())

	odd := paperCard("Oddity // Other", "normal", "Creature")
	odd.CardFaces = []Face{{Name: "Oddity"}, {Name: "Other"}}
	assert.False(t, odd.IsEligible())
	assert.False(t, odd.IsMultiFace())

	for _, layout := range []string{"transform", "modal_dfc", "meld", "split", "flip", "adventure"} {
		assert.True(t, IsMultiFaceLayout(layout), layout)
	}
	assert.True(t, IsMultiFaceLayout("MODAL_DFC"))
	assert.False(t, IsMultiFaceLayout("normal"))
}

func TestCard_IsToken(t *testing.T) {
	assert.True(t, paperCard("Soldier", "token", "Token Creature — Soldier").IsToken())
	assert.True(t, paperCard("Soldier", "normal", "Token Creature — Soldier").IsToken())
	assert.True(t, (&Card{Name: "Soldier", SetType: "token"}).IsToken())
	assert.False(t, paperCard("Soldier of Fortune", "normal", "Creature — Human Mercenary").IsToken())
}

func TestCard_Types(t *testing.T) {
	c := paperCard("Isamaru, Hound of Konda", "normal", "Legendary Creature — Dog")
	assert.True(t, c.IsCreature())
	assert.True(t, c.IsLegendary())

	c = paperCard("Bloodghast", "normal", "Creature — Vampire Spirit")
	assert.True(t, c.IsCreature())
	assert.False(t, c.IsLegendary())
}

func TestCard_ImageURI(t *testing.T) {
	c := &Card{ImageURIs: map[string]string{"small": "front.jpg"}}
	assert.Equal(t, "front.jpg", c.ImageURI("small"))

	dfc := &Card{CardFaces: []Face{
		{Name: "A", ImageURIs: map[string]string{"small": "a.jpg"}},
		{Name: "B", ImageURIs: map[string]string{"small": "b.jpg"}},
	}}
	assert.Equal(t, "a.jpg", dfc.ImageURI("small"))
	assert.Equal(t, "", dfc.ImageURI("large"))
}

func TestCard_Clone(t *testing.T) {
	c := &Card{
		Name:          "Brazen Borrower // Petty Theft",
		Legalities:    map[string]string{"pioneer": "legal"},
		ColorIdentity: []string{"U"},
		CardFaces:     []Face{{Name: "Brazen Borrower", ImageURIs: map[string]string{"small": "x"}}},
	}
	clone := c.Clone()
	clone.Legalities["pioneer"] = "not_legal"
	clone.CardFaces[0].ImageURIs["small"] = "y"
	clone.ColorIdentity[0] = "R"

	assert.Equal(t, "legal", c.Legalities["pioneer"])
	assert.Equal(t, "x", c.CardFaces[0].ImageURIs["small"])
	assert.Equal(t, "U", c.ColorIdentity[0])
}

func TestCard_MarshalKeepsOnlyTrimmedFields(t *testing.T) {
	c := &Card{
		Name:          "Fable of the Mirror-Breaker // Reflection of Kiki-Jiki",
		Layout:        "transform",
		Games:         []string{"paper"},
		Legalities:    map[string]string{"pioneer": "legal"},
		ColorIdentity: []string{"R"},
		CardFaces:     []Face{{Name: "Fable of the Mirror-Breaker"}},
		ImageURIs:     map[string]string{"small": "s"},
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, TrimmedFields, keys)
}

func TestNormalizeColorIdentity(t *testing.T) {
	assert.Equal(t, []string{"W", "B", "G"}, NormalizeColorIdentity([]string{"g", "W", "B", "X", "G"}))
	assert.Equal(t, []string{}, NormalizeColorIdentity(nil))
}

func TestWithinIdentity(t *testing.T) {
	assert.True(t, WithinIdentity([]string{"U"}, []string{"W", "U"}))
	assert.False(t, WithinIdentity([]string{"U", "R"}, []string{"W", "U"}))
	assert.True(t, WithinIdentity(nil, nil))
	assert.True(t, WithinIdentity([]string{}, []string{"B"}))
}
