package card

import (
	"strings"
)

// Card represents a card record as kept in the local catalog cache.
// Only these fields survive trimming of the upstream catalog objects.
type Card struct {
	Name          string            `json:"name"`
	ImageURIs     map[string]string `json:"image_uris,omitempty"`
	OracleID      string            `json:"oracle_id"`
	Legalities    map[string]string `json:"legalities"`
	Games         []string          `json:"games"`
	Layout        string            `json:"layout"`
	TypeLine      string            `json:"type_line"`
	SetType       string            `json:"set_type"`
	CardFaces     []Face            `json:"card_faces,omitempty"`
	ColorIdentity []string          `json:"color_identity"`
	GameChanger   bool              `json:"game_changer"`
	ScryfallURI   string            `json:"scryfall_uri"`
}

// Face is one face of a multi-faced card
type Face struct {
	Name       string            `json:"name"`
	ManaCost   string            `json:"mana_cost,omitempty"`
	TypeLine   string            `json:"type_line,omitempty"`
	OracleText string            `json:"oracle_text,omitempty"`
	ImageURIs  map[string]string `json:"image_uris,omitempty"`
}

// TrimmedFields lists the JSON keys a cached card may carry.
var TrimmedFields = []string{
	"name",
	"image_uris",
	"oracle_id",
	"legalities",
	"games",
	"layout",
	"type_line",
	"set_type",
	"card_faces",
	"color_identity",
	"game_changer",
	"scryfall_uri",
}

// Legality status values used by the catalog
const (
	StatusLegal    = "legal"
	StatusNotLegal = "not_legal"
	StatusBanned   = "banned"
)

var multiFaceLayouts = map[string]bool{
	"transform": true,
	"modal_dfc": true,
	"meld":      true,
	"split":     true,
	"flip":      true,
	"adventure": true,
}

// Layouts that never describe a playable card
var excludedLayouts = map[string]bool{
	"token":              true,
	"double_faced_token": true,
	"emblem":             true,
	"art_series":         true,
	"reversible_card":    true,
	"planar":             true,
	"scheme":             true,
	"vanguard":           true,
}

// "plane " keeps its trailing space so planeswalkers are not caught.
var excludedTypes = []string{
	"conspiracy",
	"phenomenon",
	"plane ",
	"scheme",
	"vanguard",
}

// IsMultiFaceLayout reports whether layout is a recognized multi-face layout
func IsMultiFaceLayout(layout string) bool {
	return multiFaceLayouts[strings.ToLower(layout)]
}

// IsMultiFace reports whether the card has faces that may be referenced by name
func (c *Card) IsMultiFace() bool {
	return len(c.CardFaces) > 0 && IsMultiFaceLayout(c.Layout)
}

// IsPaper reports whether the card is distributed in paper
func (c *Card) IsPaper() bool {
	for _, g := range c.Games {
		if g == "paper" {
			return true
		}
	}
	return false
}

// IsEligible decides whether an upstream catalog object is kept in the cache.
func (c *Card) IsEligible() bool {
	if !c.IsPaper() {
		return false
	}

	layout := strings.ToLower(c.Layout)
	typeLine := strings.ToLower(c.TypeLine)
	setType := strings.ToLower(c.SetType)
	name := strings.ToLower(c.Name)

	if c.CardFaces != nil && !multiFaceLayouts[layout] {
		return false
	}

	if excludedLayouts[layout] {
		return false
	}

	if strings.Contains(setType, "memorabilia") || strings.Contains(setType, "token") {
		return false
	}

	if strings.Contains(name, "emblem") || strings.Contains(typeLine, "emblem") {
		return false
	}

	for _, t := range excludedTypes {
		if strings.Contains(typeLine, t) {
			return false
		}
	}

	return true
}

// IsToken reports whether the card is a token printing
func (c *Card) IsToken() bool {
	layout := strings.ToLower(c.Layout)
	if layout == "token" || layout == "double_faced_token" {
		return true
	}
	if strings.Contains(strings.ToLower(c.TypeLine), "token") {
		return true
	}
	return strings.Contains(strings.ToLower(c.SetType), "token")
}

// IsCreature reports whether the type line names a creature
func (c *Card) IsCreature() bool {
	return strings.Contains(strings.ToLower(c.TypeLine), "creature")
}

// IsLegendary reports whether the type line names a legendary permanent
func (c *Card) IsLegendary() bool {
	return strings.Contains(strings.ToLower(c.TypeLine), "legendary")
}

// Legality returns the catalog's legality status for the given format
func (c *Card) Legality(format string) string {
	if c.Legalities == nil {
		return ""
	}
	return c.Legalities[format]
}

// FaceNames returns the names of all faces, in order
func (c *Card) FaceNames() []string {
	names := make([]string, 0, len(c.CardFaces))
	for _, f := range c.CardFaces {
		names = append(names, f.Name)
	}
	return names
}

// ImageURI returns the image of the given size, falling back to the front face.
func (c *Card) ImageURI(size string) string {
	if uri := c.ImageURIs[size]; uri != "" {
		return uri
	}
	for _, f := range c.CardFaces {
		if uri := f.ImageURIs[size]; uri != "" {
			return uri
		}
	}
	return ""
}

// Clone returns a deep copy of the card
func (c *Card) Clone() *Card {
	clone := *c
	clone.ImageURIs = cloneMap(c.ImageURIs)
	clone.Legalities = cloneMap(c.Legalities)
	if c.Games != nil {
		clone.Games = append([]string(nil), c.Games...)
	}
	if c.ColorIdentity != nil {
		clone.ColorIdentity = append([]string(nil), c.ColorIdentity...)
	}
	if c.CardFaces != nil {
		clone.CardFaces = make([]Face, len(c.CardFaces))
		for i, f := range c.CardFaces {
			f.ImageURIs = cloneMap(f.ImageURIs)
			clone.CardFaces[i] = f
		}
	}
	return &clone
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
