package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"kabs/internal"
)

var tierMultipliers = map[internal.LineTier]float64{
	internal.TierBudget:   1.0,
	internal.TierMidRange: 1.6,
	internal.TierPremium:  2.5,
}

// starterPrices seeds a new line with one list price per category, so that
// the category fallback can price it before a real sheet is imported.
var starterPrices = []struct {
	key   string
	label string
	price float64
}{
	{"B", "BASE", 220},
	{"W", "WALL", 180},
	{"SB", "SINK", 280},
	{"DB", "DRAWER", 350},
	{"BBC", "CORNER", 450},
	{"LS", "CORNER", 450},
	{"U", "TALL", 650},
	{"REP", "REFRIGERATOR", 150},
	{"DWP", "DISHWASHER", 90},
}

func ParseTier(s string) (internal.LineTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "budget":
		return internal.TierBudget, nil
	case "mid-range", "midrange", "mid":
		return internal.TierMidRange, nil
	case "premium":
		return internal.TierPremium, nil
	}
	return "", fmt.Errorf("unknown tier %q (want Budget, Mid-Range or Premium)", s)
}

// NewLine builds a manufacturer line with the defaults for its tier.
func NewLine(name string, tier internal.LineTier) internal.ManufacturerLine {
	multiplier, ok := tierMultipliers[tier]
	if !ok {
		multiplier = 1.0
	}
	return internal.ManufacturerLine{
		ID:             "line_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Name:           strings.TrimSpace(name),
		Tier:           tier,
		Description:    fmt.Sprintf("New %s collection.", tier),
		Finish:         "Standard",
		Multiplier:     multiplier,
		FinishPremium:  0,
		ShippingFactor: 0.05,
	}
}

// StarterPricing returns the category list prices for a new line. SKUs carry
// the first three letters of the line name.
func StarterPricing(line internal.ManufacturerLine) internal.LineTable {
	prefix := []rune(strings.ToUpper(strings.ReplaceAll(line.Name, " ", "")))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	skuPrefix := string(prefix)
	if skuPrefix == "" {
		skuPrefix = "GEN"
	}

	table := internal.LineTable{}
	for _, p := range starterPrices {
		table[p.key] = internal.CatalogEntry{SKU: skuPrefix + "-" + p.label, Price: p.price}
	}
	return table
}
