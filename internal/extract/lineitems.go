package extract

import (
	"iter"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/attest-tracker/internal/entity"
)

var (
	reServicesHeader = regexp.MustCompile(`\bservicos?\b`)
	// code, description, unit, quantity
	reLineItem = regexp.MustCompile(
		`(\d{2}\s+\d{2}\s+\d{2})\s+([^\d\p{P}\p{S}]+)\s+([A-Z]{1,5})\s+((?:\d{1,3}(?:\.\d{3})+|\d+),\d{2})\b`)
)

// TableOptions bound the region scanned for line items.
type TableOptions struct {
	// EndMarkers are canonical (accent-free, lower-case) tokens; the first one
	// found after the header ends the region. Empty means "to end of text".
	EndMarkers []string
}

type TableOption func(*TableOptions)

// WithRegionEnd stops the table region at the first of markers.
func WithRegionEnd(markers ...string) TableOption {
	return func(o *TableOptions) {
		for _, m := range markers {
			if m = Normalize(strings.TrimSpace(m)); m != "" {
				o.EndMarkers = append(o.EndMarkers, m)
			}
		}
	}
}

// ExtractLineItems yields the rows of the first "serviços" table. The region
// runs from the header to the end of the text unless WithRegionEnd is given.
// Text without a header yields nothing.
func ExtractLineItems(raw string, opts ...TableOption) iter.Seq[entity.LineItem] {
	var o TableOptions
	for _, fn := range opts {
		fn(&o)
	}
	return func(yield func(entity.LineItem) bool) {
		region, ok := tableRegion(raw, o)
		if !ok {
			return
		}
		pos := 0
		for _, g := range reLineItem.FindAllStringSubmatch(region, -1) {
			qty, err := entity.ParseLocaleQuantity(g[4])
			if err != nil {
				continue
			}
			desc := CollapseSpaces(g[2])
			if desc == "" {
				continue
			}
			item := entity.LineItem{
				Position:    pos,
				Code:        CollapseSpaces(g[1]),
				Description: desc,
				Unit:        g[3],
				Quantity:    qty,
			}
			pos++
			if !yield(item) {
				return
			}
		}
	}
}

// tableRegion locates the header in canonical text and returns the matching
// suffix of the original text, so units keep their case.
func tableRegion(raw string, o TableOptions) (string, bool) {
	f := Fold(raw)
	loc := reServicesHeader.FindStringIndex(f.Canonical)
	if loc == nil {
		return "", false
	}
	from, to := loc[1], len(f.Canonical)
	for _, m := range o.EndMarkers {
		if i := strings.Index(f.Canonical[from:], m); i >= 0 && from+i < to {
			to = from + i
		}
	}
	return raw[f.OriginalOffset(from):f.OriginalOffset(to)], true
}
