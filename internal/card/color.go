package card

import "strings"

// Colors is the canonical WUBRG order of color symbols.
var Colors = []string{"W", "U", "B", "R", "G"}

// NormalizeColorIdentity upper-cases symbols, drops anything outside WUBRG
// and returns the remaining symbols in WUBRG order without duplicates.
func NormalizeColorIdentity(identity []string) []string {
	seen := make(map[string]bool, len(identity))
	for _, symbol := range identity {
		seen[strings.ToUpper(strings.TrimSpace(symbol))] = true
	}

	out := make([]string, 0, len(identity))
	for _, symbol := range Colors {
		if seen[symbol] {
			out = append(out, symbol)
		}
	}
	return out
}

// WithinIdentity reports whether every symbol of identity is in governing.
// A colorless identity is within any governing identity.
func WithinIdentity(identity, governing []string) bool {
	allowed := make(map[string]bool, len(governing))
	for _, symbol := range governing {
		allowed[symbol] = true
	}
	for _, symbol := range identity {
		if !allowed[symbol] {
			return false
		}
	}
	return true
}
