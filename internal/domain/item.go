package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Item is a single catalog record. The core only reads items; the catalog
// store owns their lifecycle.
type Item struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Tier     string            `json:"tier"`
	Price    float64           `json:"price"`
	Specs    map[string]string `json:"specs,omitempty"`
}

// SearchText builds the deterministic text representation used for embedding.
// Spec keys are emitted in sorted order so the same item always embeds the
// same string.
func (i Item) SearchText() string {
	var b strings.Builder
	b.WriteString(i.Name)
	b.WriteString(". Category: ")
	b.WriteString(i.Category)
	b.WriteString(". Tier: ")
	b.WriteString(i.Tier)
	b.WriteString(". Price: ")
	b.WriteString(strconv.FormatFloat(i.Price, 'f', 2, 64))

	if len(i.Specs) > 0 {
		keys := make([]string, 0, len(i.Specs))
		for k := range i.Specs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(". Specs:")
		for _, k := range keys {
			b.WriteString(" ")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(i.Specs[k])
			b.WriteString(";")
		}
	}

	return b.String()
}
