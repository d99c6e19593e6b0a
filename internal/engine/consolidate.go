package engine

import (
	"strings"

	"kabs/internal"
)

// Consolidate merges candidates that normalize to the same code. The first
// occurrence keeps its position, raw code, description and type; later ones
// only add their quantity.
func Consolidate(candidates []internal.RawCandidate) []internal.ConsolidatedItem {
	out := make([]internal.ConsolidatedItem, 0, len(candidates))
	byKey := make(map[string]int, len(candidates))

	for _, c := range candidates {
		item := toItem(c)

		key := item.NormalizedCode
		if key == "" {
			// keep unreadable labels apart from each other, grouped by what was written
			key = "\x00" + strings.ToUpper(strings.TrimSpace(labelText(c)))
		}

		if i, ok := byKey[key]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		byKey[key] = len(out)
		out = append(out, item)
	}
	return out
}

func toItem(c internal.RawCandidate) internal.ConsolidatedItem {
	code := Normalize(labelText(c))
	item := internal.ConsolidatedItem{RawCandidate: c, SKU: code, NormalizedCode: code}
	item.Quantity = clampQty(c.Quantity)
	return item
}

// labelText is the text a code is read from: the raw code, or the
// description when no code was extracted.
func labelText(c internal.RawCandidate) string {
	if strings.TrimSpace(c.RawCode) != "" {
		return c.RawCode
	}
	return c.Description
}

func clampQty(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
