package engine

import (
	"fmt"
	"math"
	"strconv"

	"kabs/internal"
)

// Resolution is the priced outcome for one item together with its proof.
type Resolution struct {
	UnitPrice float64
	Status    internal.VerificationStatus
	Proof     internal.VerificationProof
}

// ResolvePrice turns a matcher result into a unit price. A nil match means
// the catalog had nothing; the line's size rates are tried next and the item
// ends up missing with a zero price when they cannot apply either.
func ResolvePrice(item internal.ConsolidatedItem, dims *internal.CabinetDimensions, match *internal.MatchResult, line internal.ManufacturerLine, opts Options) Resolution {
	dimLabel := ""
	if dims != nil {
		dimLabel = DimensionLabel(*dims)
	}

	if match != nil {
		multiplier := lineMultiplier(line)
		matched := match.Entry.SKU
		if matched == "" {
			matched = match.MatchedKey
		}
		return Resolution{
			UnitPrice: round2(match.Entry.Price * multiplier),
			Status:    internal.StatusVerified,
			Proof: internal.VerificationProof{
				MatchType:          match.MatchType,
				MatchedCode:        matched,
				MatchedDimensions:  dimLabel,
				PricingMethod:      internal.MethodCatalog,
				CalculationDetails: fmt.Sprintf("Unit Price %s × Multiplier %s", money(match.Entry.Price), number(multiplier)),
				IsQuoted:           true,
			},
		}
	}

	if r, ok := sizeBased(dims, line, opts); ok {
		r.Proof.MatchedDimensions = dimLabel
		return r
	}

	details := fmt.Sprintf("No catalog entry for %q", item.NormalizedCode)
	if line.Rates != nil {
		details = fmt.Sprintf("No catalog entry or size rate for %q", item.NormalizedCode)
	}
	return Resolution{
		UnitPrice: 0,
		Status:    internal.StatusMissing,
		Proof: internal.VerificationProof{
			MatchType:          internal.MatchNone,
			MatchedDimensions:  dimLabel,
			PricingMethod:      internal.MethodNone,
			CalculationDetails: details,
		},
	}
}

func sizeBased(dims *internal.CabinetDimensions, line internal.ManufacturerLine, opts Options) (Resolution, bool) {
	if dims == nil || line.Rates == nil {
		return Resolution{}, false
	}
	rates := line.Rates

	switch dims.Type {
	case internal.CabinetBase, internal.CabinetVanity:
		return perFoot(dims, rates.BasePerFoot)
	case internal.CabinetWall:
		return perFoot(dims, rates.WallPerFoot)
	case internal.CabinetAccessory:
		return perFoot(dims, rates.AccessoryPerFoot)
	case internal.CabinetTall:
		if rates.TallPerUnit <= 0 {
			return Resolution{}, false
		}
		return Resolution{
			UnitPrice: round2(rates.TallPerUnit),
			Status:    internal.StatusVerified,
			Proof: internal.VerificationProof{
				MatchType:          internal.MatchSizeBased,
				MatchedCode:        dims.Code,
				PricingMethod:      internal.MethodPerUnit,
				CalculationDetails: fmt.Sprintf("Tall unit rate %s", money(rates.TallPerUnit)),
				IsQuoted:           true,
			},
		}, true
	case internal.CabinetHardware:
		if opts.HardwareFlatRate <= 0 {
			return Resolution{}, false
		}
		return Resolution{
			UnitPrice: round2(opts.HardwareFlatRate),
			Status:    internal.StatusEstimate,
			Proof: internal.VerificationProof{
				MatchType:          internal.MatchSizeBased,
				MatchedCode:        dims.Code,
				PricingMethod:      internal.MethodFlatEstimate,
				CalculationDetails: fmt.Sprintf("Hardware flat estimate %s", money(opts.HardwareFlatRate)),
			},
		}, true
	}
	return Resolution{}, false
}

func perFoot(dims *internal.CabinetDimensions, rate float64) (Resolution, bool) {
	if dims.Width <= 0 || rate <= 0 {
		return Resolution{}, false
	}
	linearFeet := dims.Width / 12
	return Resolution{
		UnitPrice: round2(linearFeet * rate),
		Status:    internal.StatusVerified,
		Proof: internal.VerificationProof{
			MatchType:     internal.MatchSizeBased,
			MatchedCode:   dims.Code,
			PricingMethod: internal.MethodLinearFoot,
			CalculationDetails: fmt.Sprintf("%s\" / 12 = %s LF × %s/LF",
				number(dims.Width), strconv.FormatFloat(linearFeet, 'f', 2, 64), money(rate)),
			IsQuoted: true,
		},
	}, true
}

// lineMultiplier treats an unset multiplier as list price.
func lineMultiplier(line internal.ManufacturerLine) float64 {
	if line.Multiplier <= 0 {
		return 1
	}
	return line.Multiplier
}

// round2 rounds to cents, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
