package validator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/arcanaland/highlander/internal/card"
	"github.com/arcanaland/highlander/internal/catalog"
	"github.com/arcanaland/highlander/internal/deck"
	"github.com/arcanaland/highlander/internal/metrics"
	"github.com/arcanaland/highlander/internal/rulelists"
)

// RequiredDeckSize is the exact number of cards a deck must contain,
// commander included.
const RequiredDeckSize = 100

// Reasons reported in LegalIssues
const (
	ReasonCommanderNotFound     = "Commander not found in catalog"
	ReasonCommanderNotCreature  = "Commander must be a creature"
	ReasonCommanderNotLegendary = "Commander must be legendary"
	ReasonColorIdentity         = "Cards outside commander's color identity"
	ReasonSingleton             = "Deck contains multiple copies of non-basic land cards that aren't allowed to break the singleton rule"
	ReasonIllegalCards          = "Deck contains cards that aren't legal in the format"
)

var basicLands = map[string]bool{
	"Plains":   true,
	"Island":   true,
	"Swamp":    true,
	"Mountain": true,
	"Forest":   true,
	"Wastes":   true,
}

// IsBasicLand reports whether name is a basic land, which is exempt from the
// singleton rule.
func IsBasicLand(name string) bool {
	return basicLands[name]
}

// LegalIssues holds one human readable reason per failed rule; a nil field
// means the rule passed.
type LegalIssues struct {
	Size          *string `json:"size"`
	Commander     *string `json:"commander"`
	CommanderType *string `json:"commanderType"`
	ColorIdentity *string `json:"colorIdentity"`
	Singleton     *string `json:"singleton"`
	IllegalCards  *string `json:"illegalCards"`
}

// ValidationResult is the outcome of checking one decklist
type ValidationResult struct {
	Legal                   bool              `json:"legal"`
	Commander               string            `json:"commander"`
	CommanderImageURIs      map[string]string `json:"commanderImageUris,omitempty"`
	ColorIdentity           []string          `json:"colorIdentity"`
	DeckSize                int               `json:"deckSize"`
	RequiredSize            int               `json:"requiredSize"`
	IllegalCards            []string          `json:"illegalCards"`
	ColorIdentityViolations []string          `json:"colorIdentityViolations"`
	NonSingletonCards       []string          `json:"nonSingletonCards"`
	LegalIssues             LegalIssues       `json:"legalIssues"`

	// CommanderNotCreature and CommanderNotLegendary are both reported even
	// though LegalIssues carries only the first.
	CommanderNotCreature  bool `json:"-"`
	CommanderNotLegendary bool `json:"-"`
	// LegalCards counts resolved legal copies, commander included
	LegalCards int `json:"-"`
}

// Engine evaluates decklists against a catalog and the rule lists
type Engine struct {
	store  *catalog.Store
	lists  *rulelists.Lists
	format string
	logger *zap.Logger
}

// NewEngine creates an engine reading cards from store. The rule lists and
// format are taken from the store.
func NewEngine(store *catalog.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		lists:  store.Lists(),
		format: store.Format(),
		logger: logger,
	}
}

// CheckContext waits for the catalog to be loaded, then runs Check.
func (e *Engine) CheckContext(ctx context.Context, d *deck.Decklist) (*ValidationResult, error) {
	if err := e.store.WaitReady(ctx); err != nil {
		return nil, err
	}
	return e.Check(d)
}

// Check evaluates d. Only a structurally invalid decklist is an error;
// unknown or illegal cards are reported in the result.
func (e *Engine) Check(d *deck.Decklist) (*ValidationResult, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Commander:               d.Commander.Name,
		ColorIdentity:           []string{},
		DeckSize:                d.Size(),
		RequiredSize:            RequiredDeckSize,
		IllegalCards:            []string{},
		ColorIdentityViolations: []string{},
		NonSingletonCards:       []string{},
	}

	illegal := newNameSet()
	commander := e.store.Resolve(d.Commander.Name)
	commanderLegal := e.checkCommander(result, d.Commander, commander, illegal)
	e.checkCards(result, d.MainDeck, illegal)
	e.checkSingleton(result, d.MainDeck)
	if commander != nil {
		e.checkColorIdentity(result, d.MainDeck, commander)
	}
	e.checkSize(result)

	result.IllegalCards = illegal.names
	if len(result.IllegalCards) > 0 {
		result.LegalIssues.IllegalCards = reason(ReasonIllegalCards)
	}

	result.Legal = result.LegalIssues.Size == nil &&
		commanderLegal &&
		len(result.ColorIdentityViolations) == 0 &&
		len(result.NonSingletonCards) == 0 &&
		len(result.IllegalCards) == 0

	metrics.Validations.WithLabelValues(strconv.FormatBool(result.Legal)).Inc()
	e.logger.Debug("deck checked",
		zap.String("commander", result.Commander),
		zap.Bool("legal", result.Legal),
		zap.Int("deck_size", result.DeckSize),
		zap.Int("illegal_cards", len(result.IllegalCards)))
	return result, nil
}

// checkCommander records the commander's identity and type problems. It
// reports whether the commander itself is legal.
func (e *Engine) checkCommander(result *ValidationResult, entry *deck.DeckCard, commander *card.Card, illegal *nameSet) bool {
	if commander == nil {
		result.LegalIssues.Commander = reason(ReasonCommanderNotFound)
		illegal.add(entry.Name)
		return false
	}

	result.CommanderImageURIs = commander.ImageURIs
	result.ColorIdentity = card.NormalizeColorIdentity(commander.ColorIdentity)

	legal := true
	if !e.isLegal(entry.Name, commander) {
		result.LegalIssues.Commander = reason(fmt.Sprintf("Commander not legal in %s", formatTitle(e.format)))
		illegal.add(entry.Name)
		legal = false
	} else {
		result.LegalCards += entry.Quantity
	}

	result.CommanderNotCreature = !commander.IsCreature()
	result.CommanderNotLegendary = !commander.IsLegendary()
	switch {
	case result.CommanderNotCreature:
		result.LegalIssues.CommanderType = reason(ReasonCommanderNotCreature)
		legal = false
	case result.CommanderNotLegendary:
		result.LegalIssues.CommanderType = reason(ReasonCommanderNotLegendary)
		legal = false
	}
	return legal
}

// checkCards resolves every main deck entry on its own
func (e *Engine) checkCards(result *ValidationResult, entries []deck.DeckCard, illegal *nameSet) {
	for _, entry := range entries {
		c := e.store.Resolve(entry.Name)
		if c == nil || !e.isLegal(entry.Name, c) {
			illegal.add(entry.Name)
			continue
		}
		result.LegalCards += entry.Quantity
	}
}

// checkSingleton sums quantities per name across all main deck entries
func (e *Engine) checkSingleton(result *ValidationResult, entries []deck.DeckCard) {
	counts := make(map[string]int)
	flagged := newNameSet()
	for _, entry := range entries {
		if IsBasicLand(entry.Name) || e.lists.IsSingletonException(entry.Name) {
			continue
		}
		counts[entry.Name] += entry.Quantity
		if counts[entry.Name] > 1 {
			flagged.add(entry.Name)
		}
	}
	result.NonSingletonCards = flagged.names
	if len(flagged.names) > 0 {
		result.LegalIssues.Singleton = reason(ReasonSingleton)
	}
}

// checkColorIdentity flags resolved cards whose identity escapes the commander's.
// Unresolved cards are already illegal and are not checked here.
func (e *Engine) checkColorIdentity(result *ValidationResult, entries []deck.DeckCard, commander *card.Card) {
	governing := card.NormalizeColorIdentity(commander.ColorIdentity)
	flagged := newNameSet()
	for _, entry := range entries {
		c := e.store.Resolve(entry.Name)
		if c == nil {
			continue
		}
		if !card.WithinIdentity(card.NormalizeColorIdentity(c.ColorIdentity), governing) {
			flagged.add(entry.Name)
		}
	}
	result.ColorIdentityViolations = flagged.names
	if len(flagged.names) > 0 {
		result.LegalIssues.ColorIdentity = reason(ReasonColorIdentity)
	}
}

func (e *Engine) checkSize(result *ValidationResult) {
	if result.DeckSize != RequiredDeckSize {
		result.LegalIssues.Size = reason(fmt.Sprintf("Deck size incorrect: has %d cards, needs %d", result.DeckSize, RequiredDeckSize))
	}
}

// isLegal applies the card level rule. The allowed list wins over the
// banned list; both are consulted under the requested and the catalog name.
func (e *Engine) isLegal(requested string, c *card.Card) bool {
	if c == nil {
		return false
	}
	if e.lists.IsAllowed(requested) || e.lists.IsAllowed(c.Name) {
		return true
	}
	if e.lists.IsBanned(requested) || e.lists.IsBanned(c.Name) {
		return false
	}
	return c.Legality(e.format) == card.StatusLegal
}

// IsCardLegal reports whether name resolves to a card that may be played
func (e *Engine) IsCardLegal(name string) bool {
	return e.isLegal(name, e.store.Resolve(name))
}

// Lookup resolves name and returns a copy of the record whose legality for
// the engine's format is rewritten to "legal" or "not_legal". It returns nil
// when the name does not resolve.
func (e *Engine) Lookup(name string) *card.Card {
	c := e.store.Resolve(name)
	if c == nil {
		return nil
	}
	out := c.Clone()
	if out.Legalities == nil {
		out.Legalities = make(map[string]string, 1)
	}
	if e.isLegal(name, c) {
		out.Legalities[e.format] = card.StatusLegal
	} else {
		out.Legalities[e.format] = card.StatusNotLegal
	}
	return out
}

// nameSet keeps the first occurrence of each name, in order
type nameSet struct {
	seen  map[string]bool
	names []string
}

func newNameSet() *nameSet {
	return &nameSet{seen: make(map[string]bool), names: []string{}}
}

func (s *nameSet) add(name string) {
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	s.names = append(s.names, name)
}

func reason(text string) *string {
	return &text
}

func formatTitle(format string) string {
	if format == "" {
		return format
	}
	return strings.ToUpper(format[:1]) + format[1:]
}
