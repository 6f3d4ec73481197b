package domain

import (
	"strconv"
	"strings"
)

// Filter restricts the eligible catalog subset before similarity scoring.
// A nil field means no constraint on that attribute.
type Filter struct {
	Category *string  `json:"category,omitempty"`
	Tier     *string  `json:"tier,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// IsEmpty reports whether the filter places no constraints.
func (f Filter) IsEmpty() bool {
	return f.Category == nil && f.Tier == nil && f.MinPrice == nil && f.MaxPrice == nil
}

// Matches reports whether the item satisfies every set predicate.
func (f Filter) Matches(item Item) bool {
	if f.Category != nil && !strings.EqualFold(item.Category, *f.Category) {
		return false
	}
	if f.Tier != nil && !strings.EqualFold(item.Tier, *f.Tier) {
		return false
	}
	if f.MinPrice != nil && item.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && item.Price > *f.MaxPrice {
		return false
	}
	return true
}

// CanonicalString renders the filter deterministically for cache keying.
func (f Filter) CanonicalString() string {
	var b strings.Builder
	if f.Category != nil {
		b.WriteString("category=")
		b.WriteString(strings.ToLower(*f.Category))
		b.WriteString(";")
	}
	if f.Tier != nil {
		b.WriteString("tier=")
		b.WriteString(strings.ToLower(*f.Tier))
		b.WriteString(";")
	}
	if f.MinPrice != nil {
		b.WriteString("min_price=")
		b.WriteString(strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
		b.WriteString(";")
	}
	if f.MaxPrice != nil {
		b.WriteString("max_price=")
		b.WriteString(strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
		b.WriteString(";")
	}
	return b.String()
}
