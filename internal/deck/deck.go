package deck

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Limits applied to submitted decklists before they are evaluated
const (
	MaxCardNameLength = 200
	MinCardQuantity   = 1
	MaxCardQuantity   = 100
	MaxMainDeckCards  = 100
)

// DeckCard is one line of a decklist
type DeckCard struct {
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// Decklist is a commander plus the main deck
type Decklist struct {
	MainDeck  []DeckCard `json:"mainDeck"`
	Commander *DeckCard  `json:"commander"`
}

var (
	ErrNoSeparator  = errors.New("invalid deck list format: no separator line found")
	ErrNoCommander  = errors.New("invalid deck list format: no commander found")
	ErrTooManyCards = errors.New("main deck exceeds maximum allowed cards")
)

// ParseError describes a decklist line that could not be read
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
}

// CardError describes an entry that fails structural validation
type CardError struct {
	Field  string
	Name   string
	Reason string
}

func (e *CardError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s (%s)", e.Field, e.Reason, e.Name)
}

// Parse reads a plain text decklist. Each line is "<quantity> <name>"; the
// first blank line separates the main deck from the commander line.
func Parse(text string) (*Decklist, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	separator := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			separator = i
			break
		}
	}
	if separator == -1 {
		return nil, ErrNoSeparator
	}

	if separator+1 >= len(lines) || strings.TrimSpace(lines[separator+1]) == "" {
		return nil, ErrNoCommander
	}

	commander, err := parseLine(separator+2, strings.TrimSpace(lines[separator+1]))
	if err != nil {
		return nil, err
	}

	mainDeck := make([]DeckCard, 0, separator)
	for i, line := range lines[:separator] {
		entry, err := parseLine(i+1, strings.TrimSpace(line))
		if err != nil {
			return nil, err
		}
		mainDeck = append(mainDeck, entry)
	}

	return &Decklist{MainDeck: mainDeck, Commander: &commander}, nil
}

// parseLine splits "<quantity> <name>"
func parseLine(number int, line string) (DeckCard, error) {
	quantityText, name, _ := strings.Cut(line, " ")
	quantity, err := strconv.Atoi(quantityText)
	if err != nil {
		return DeckCard{}, &ParseError{Line: number, Text: line, Reason: "quantity is not a number"}
	}
	if quantity < MinCardQuantity {
		return DeckCard{}, &ParseError{Line: number, Text: line, Reason: "quantity must be positive"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return DeckCard{}, &ParseError{Line: number, Text: line, Reason: "card name is missing"}
	}
	return DeckCard{Quantity: quantity, Name: name}, nil
}

// Validate checks the structural shape of a decklist. Whether the cards are
// legal is decided elsewhere; this only rejects input that cannot be evaluated.
func (d *Decklist) Validate() error {
	if d.Commander == nil {
		return ErrNoCommander
	}
	if err := d.Commander.validate("commander"); err != nil {
		return err
	}

	if len(d.MainDeck) > MaxMainDeckCards {
		return ErrTooManyCards
	}
	for _, entry := range d.MainDeck {
		if err := entry.validate("card in mainDeck"); err != nil {
			return err
		}
	}
	return nil
}

func (c DeckCard) validate(field string) error {
	if strings.TrimSpace(c.Name) == "" {
		return &CardError{Field: field, Reason: "card name must be a non-empty string"}
	}
	if len(c.Name) > MaxCardNameLength {
		return &CardError{Field: field, Name: c.Name[:MaxCardNameLength], Reason: "card name exceeds maximum length"}
	}
	if c.Quantity < MinCardQuantity || c.Quantity > MaxCardQuantity {
		return &CardError{
			Field:  field,
			Name:   c.Name,
			Reason: fmt.Sprintf("card quantity must be between %d and %d", MinCardQuantity, MaxCardQuantity),
		}
	}
	return nil
}

// Size returns the total requested quantity, commander included
func (d *Decklist) Size() int {
	total := 0
	if d.Commander != nil {
		total += d.Commander.Quantity
	}
	for _, entry := range d.MainDeck {
		total += entry.Quantity
	}
	return total
}

// String renders the decklist in the text format accepted by Parse
func (d *Decklist) String() string {
	var b strings.Builder
	for _, entry := range d.MainDeck {
		fmt.Fprintf(&b, "%d %s\n", entry.Quantity, entry.Name)
	}
	b.WriteString("\n")
	if d.Commander != nil {
		fmt.Fprintf(&b, "%d %s\n", d.Commander.Quantity, d.Commander.Name)
	}
	return b.String()
}
