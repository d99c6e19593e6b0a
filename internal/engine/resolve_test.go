package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kabs/internal"
)

func itemFor(code string) internal.ConsolidatedItem {
	return internal.ConsolidatedItem{
		RawCandidate:   internal.RawCandidate{RawCode: code, Quantity: 1},
		SKU:            code,
		NormalizedCode: code,
	}
}

func TestResolvePriceAppliesMultiplier(t *testing.T) {
	line := internal.ManufacturerLine{ID: "l1", Multiplier: 1.45}
	match := &internal.MatchResult{Entry: entry("B30", 200), MatchType: internal.MatchExact, MatchedKey: "B30"}

	r := ResolvePrice(itemFor("B30"), ParseDimensions("B30"), match, line, DefaultOptions())

	assert.Equal(t, 290.00, r.UnitPrice)
	assert.Equal(t, internal.StatusVerified, r.Status)
	assert.Equal(t, internal.MethodCatalog, r.Proof.PricingMethod)
	assert.Equal(t, internal.MatchExact, r.Proof.MatchType)
	assert.Equal(t, "B30", r.Proof.MatchedCode)
	assert.True(t, r.Proof.IsQuoted)
	assert.Equal(t, "Unit Price $200.00 × Multiplier 1.45", r.Proof.CalculationDetails)
	assert.Equal(t, `30"W x 34.5"H x 24"D`, r.Proof.MatchedDimensions)
}

func TestResolvePriceUnsetMultiplierIsListPrice(t *testing.T) {
	match := &internal.MatchResult{Entry: entry("B30", 210), MatchType: internal.MatchExact, MatchedKey: "B30"}
	r := ResolvePrice(itemFor("B30"), ParseDimensions("B30"), match, internal.ManufacturerLine{}, DefaultOptions())
	assert.Equal(t, 210.0, r.UnitPrice)
}

func TestResolvePriceSizeBased(t *testing.T) {
	rates := &internal.LineRates{BasePerFoot: 150, WallPerFoot: 190, TallPerUnit: 550, AccessoryPerFoot: 40}
	line := internal.ManufacturerLine{ID: "l1", Multiplier: 1.6, Rates: rates}

	cases := []struct {
		code    string
		price   float64
		status  internal.VerificationStatus
		method  internal.PricingMethod
		details string
	}{
		{"W2430", 380, internal.StatusVerified, internal.MethodLinearFoot, `24" / 12 = 2.00 LF × $190.00/LF`},
		{"B15", 187.5, internal.StatusVerified, internal.MethodLinearFoot, `15" / 12 = 1.25 LF × $150.00/LF`},
		{"V30", 375, internal.StatusVerified, internal.MethodLinearFoot, `30" / 12 = 2.50 LF × $150.00/LF`},
		{"U2484", 550, internal.StatusVerified, internal.MethodPerUnit, "Tall unit rate $550.00"},
		{"BF3", 10, internal.StatusVerified, internal.MethodLinearFoot, `3" / 12 = 0.25 LF × $40.00/LF`},
		{"HINGESOFTCLOSE", 15, internal.StatusEstimate, internal.MethodFlatEstimate, "Hardware flat estimate $15.00"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			r := ResolvePrice(itemFor(tc.code), ParseDimensions(tc.code), nil, line, DefaultOptions())
			assert.Equal(t, tc.price, r.UnitPrice)
			assert.Equal(t, tc.status, r.Status)
			assert.Equal(t, tc.method, r.Proof.PricingMethod)
			assert.Equal(t, internal.MatchSizeBased, r.Proof.MatchType)
			assert.Equal(t, tc.code, r.Proof.MatchedCode)
			assert.Equal(t, tc.details, r.Proof.CalculationDetails)
		})
	}
}

func TestResolvePriceNeverInventsAPrice(t *testing.T) {
	cases := []struct {
		name string
		code string
		line internal.ManufacturerLine
	}{
		{"no rates", "W2430", internal.ManufacturerLine{Multiplier: 1}},
		{"hardware without rates", "HINGESOFTCLOSE", internal.ManufacturerLine{Multiplier: 1}},
		{"unknown type", "GEN", internal.ManufacturerLine{Rates: &internal.LineRates{BasePerFoot: 100, WallPerFoot: 100, TallPerUnit: 100, AccessoryPerFoot: 100}}},
		{"zero rate", "W2430", internal.ManufacturerLine{Rates: &internal.LineRates{BasePerFoot: 100}}},
		{"empty code", "", internal.ManufacturerLine{Rates: &internal.LineRates{BasePerFoot: 100}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ResolvePrice(itemFor(tc.code), ParseDimensions(tc.code), nil, tc.line, DefaultOptions())
			assert.Equal(t, 0.0, r.UnitPrice)
			assert.Equal(t, internal.StatusMissing, r.Status)
			assert.Equal(t, internal.MethodNone, r.Proof.PricingMethod)
			assert.Equal(t, internal.MatchNone, r.Proof.MatchType)
			assert.False(t, r.Proof.IsQuoted)
		})
	}
}

func TestResolvePriceHardwareFlatRateDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.HardwareFlatRate = 0
	line := internal.ManufacturerLine{Rates: &internal.LineRates{BasePerFoot: 100}}

	r := ResolvePrice(itemFor("KNOB"), ParseDimensions("KNOB"), nil, line, opts)
	assert.Equal(t, internal.StatusMissing, r.Status)
	assert.Equal(t, 0.0, r.UnitPrice)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, round2(1.005000001))
	assert.Equal(t, 290.0, round2(200*1.45))
	assert.Equal(t, 0.0, round2(0.004))
}
