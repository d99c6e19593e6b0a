package engine

import (
	"kabs/internal"
)

// ValidateBOM prices every candidate against the line's table. Candidates
// are not grouped; call PriceBOM for that. Inputs are never modified, so the
// same slice can be validated against several lines.
func ValidateBOM(candidates []internal.RawCandidate, table internal.PricingTable, line internal.ManufacturerLine, opts Options) []internal.PricedBOMItem {
	m := NewMatcher(table[line.ID], opts)
	out := make([]internal.PricedBOMItem, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, priceItem(m, toItem(c), line, opts))
	}
	return out
}

// PriceBOM consolidates the candidates and prices the result.
func PriceBOM(candidates []internal.RawCandidate, table internal.PricingTable, line internal.ManufacturerLine, opts Options) []internal.PricedBOMItem {
	return priceItems(Consolidate(candidates), table, line, opts)
}

func priceItems(items []internal.ConsolidatedItem, table internal.PricingTable, line internal.ManufacturerLine, opts Options) []internal.PricedBOMItem {
	m := NewMatcher(table[line.ID], opts)
	out := make([]internal.PricedBOMItem, 0, len(items))
	for _, item := range items {
		out = append(out, priceItem(m, item, line, opts))
	}
	return out
}

func priceItem(m *Matcher, item internal.ConsolidatedItem, line internal.ManufacturerLine, opts Options) internal.PricedBOMItem {
	dims := ParseDimensions(item.NormalizedCode)

	var match *internal.MatchResult
	if res, ok := m.Match(item.NormalizedCode, labelText(item.RawCandidate)); ok {
		match = &res
	}

	r := ResolvePrice(item, dims, match, line, opts)

	sku := item.NormalizedCode
	if match != nil && match.Entry.SKU != "" {
		sku = match.Entry.SKU
	}
	d := internal.CabinetDimensions{Type: internal.CabinetUnknown}
	if dims != nil {
		d = *dims
	}

	return internal.PricedBOMItem{
		RawCandidate:       item.RawCandidate,
		SKU:                sku,
		NormalizedCode:     item.NormalizedCode,
		Dimensions:         d,
		UnitPrice:          r.UnitPrice,
		TotalPrice:         round2(r.UnitPrice * float64(item.Quantity)),
		VerificationStatus: r.Status,
		VerificationProof:  r.Proof,
	}
}

func Summarize(items []internal.PricedBOMItem) internal.VerificationStats {
	stats := internal.VerificationStats{Total: len(items)}
	for _, it := range items {
		switch it.VerificationStatus {
		case internal.StatusVerified:
			stats.Verified++
		case internal.StatusEstimate:
			stats.Estimate++
		default:
			stats.Missing++
		}
	}
	return stats
}

// CompareLines prices one consolidated BOM against every line. TotalPrice
// sums verified items only, the same set a quote would order.
func CompareLines(candidates []internal.RawCandidate, table internal.PricingTable, lines []internal.ManufacturerLine, opts Options) []internal.LineComparison {
	items := Consolidate(candidates)
	out := make([]internal.LineComparison, 0, len(lines))
	for _, line := range lines {
		priced := priceItems(items, table, line, opts)
		out = append(out, internal.LineComparison{
			Line:       line,
			Items:      priced,
			Stats:      Summarize(priced),
			TotalPrice: VerifiedTotal(priced),
		})
	}
	return out
}

// VerifiedTotal sums the totals of verified items.
func VerifiedTotal(items []internal.PricedBOMItem) float64 {
	total := 0.0
	for _, it := range items {
		if it.VerificationStatus == internal.StatusVerified {
			total += it.TotalPrice
		}
	}
	return round2(total)
}
