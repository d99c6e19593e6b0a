package engine

import (
	"kabs/internal"
)

// QuoteRates are the dealer-level charges applied on top of a line's
// verified subtotal.
type QuoteRates struct {
	SurchargeRate float64
	TaxRate       float64
}

func DefaultQuoteRates() QuoteRates {
	return QuoteRates{SurchargeRate: 0.015, TaxRate: 0.07}
}

// BuildQuote totals the verified items of a priced BOM. Estimates and
// missing items are counted as excluded and never reach the order.
func BuildQuote(items []internal.PricedBOMItem, line internal.ManufacturerLine, rates QuoteRates) internal.QuoteSummary {
	var q internal.QuoteSummary
	for _, it := range items {
		if it.VerificationStatus != internal.StatusVerified {
			q.ExcludedItems++
			continue
		}
		q.IncludedItems++
		q.Subtotal += it.TotalPrice
	}

	q.Subtotal = round2(q.Subtotal)
	q.FinishPremium = round2(q.Subtotal * line.FinishPremium)
	q.Shipping = round2(q.Subtotal * line.ShippingFactor)
	q.Surcharge = round2(q.Subtotal * rates.SurchargeRate)
	q.Tax = round2((q.Subtotal + q.FinishPremium + q.Shipping + q.Surcharge) * rates.TaxRate)
	q.GrandTotal = round2(q.Subtotal + q.FinishPremium + q.Shipping + q.Surcharge + q.Tax)
	return q
}

// BOM review groups, in display order.
const (
	CategoryBaseVanity = "Cabinets (Base/Vanity)"
	CategoryWalls      = "Walls"
	CategoryTall       = "Cabinets (Tall)"
	CategoryComponents = "Components (Doors/Panels)"
	CategoryHardware   = "Hardware"
	CategoryOther      = "Other"
)

var CategoryOrder = []string{
	CategoryBaseVanity, CategoryWalls, CategoryTall, CategoryComponents, CategoryHardware, CategoryOther,
}

func CategoryOf(t internal.CabinetType) string {
	switch t {
	case internal.CabinetBase, internal.CabinetVanity:
		return CategoryBaseVanity
	case internal.CabinetWall:
		return CategoryWalls
	case internal.CabinetTall:
		return CategoryTall
	case internal.CabinetAccessory:
		return CategoryComponents
	case internal.CabinetHardware:
		return CategoryHardware
	default:
		return CategoryOther
	}
}

// GroupByCategory buckets items by CategoryOf, keeping input order inside a
// bucket. Empty buckets are omitted.
func GroupByCategory(items []internal.PricedBOMItem) map[string][]internal.PricedBOMItem {
	out := map[string][]internal.PricedBOMItem{}
	for _, it := range items {
		c := CategoryOf(it.Dimensions.Type)
		out[c] = append(out[c], it)
	}
	return out
}
