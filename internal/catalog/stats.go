package catalog

import (
	"github.com/arcanaland/highlander/internal/card"
	"github.com/arcanaland/highlander/internal/rulelists"
)

// Stats are coarse counts over a freshly parsed catalog
type Stats struct {
	Total       int `json:"total"`
	FormatLegal int `json:"formatLegal"`
	Banned      int `json:"banned"`
	Allowed     int `json:"allowed"`
}

// ComputeStats counts format-legal cards and cards on the banned and allowed lists
func ComputeStats(cards []*card.Card, format string, lists *rulelists.Lists) Stats {
	stats := Stats{Total: len(cards)}
	for _, c := range cards {
		if c.Legality(format) == card.StatusLegal {
			stats.FormatLegal++
		}
		if lists == nil {
			continue
		}
		if lists.IsBanned(c.Name) {
			stats.Banned++
		}
		if lists.IsAllowed(c.Name) {
			stats.Allowed++
		}
	}
	return stats
}
