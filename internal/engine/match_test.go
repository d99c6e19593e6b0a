package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabs/internal"
)

func entry(sku string, price float64) internal.CatalogEntry {
	return internal.CatalogEntry{SKU: sku, Price: price}
}

func TestFindMatchTiers(t *testing.T) {
	cases := []struct {
		name     string
		table    internal.LineTable
		code     string
		raw      string
		wantType internal.MatchType
		wantKey  string
	}{
		{
			name:     "exact",
			table:    internal.LineTable{"B30": entry("B30", 210), "B30L": entry("B30L", 200), "B": entry("B", 100)},
			code:     "B30",
			raw:      "Base Cabinet 30",
			wantType: internal.MatchExact,
			wantKey:  "B30",
		},
		{
			name:     "raw sku",
			table:    internal.LineTable{"B30 BUTT": entry("B30 BUTT", 230)},
			code:     "B30",
			raw:      " b30 butt ",
			wantType: internal.MatchExactRaw,
			wantKey:  "B30 BUTT",
		},
		{
			name:     "orientation variant",
			table:    internal.LineTable{"B18L": entry("B18L", 165)},
			code:     "B18",
			raw:      "B18",
			wantType: internal.MatchVariant,
			wantKey:  "B18L",
		},
		{
			name:     "spaced orientation variant",
			table:    internal.LineTable{"B18 R": entry("B18 R", 165)},
			code:     "B18",
			wantType: internal.MatchVariant,
			wantKey:  "B18 R",
		},
		{
			name:     "category",
			table:    internal.LineTable{"BF": entry("BF", 50)},
			code:     "BF3",
			raw:      "BF3",
			wantType: internal.MatchCategoryFallback,
			wantKey:  "BF",
		},
		{
			name:     "nearest size",
			table:    internal.LineTable{"B33": entry("B33", 200)},
			code:     "B30",
			wantType: internal.MatchNearestSize,
			wantKey:  "B33",
		},
		{
			name:     "fuzzy prefix",
			table:    internal.LineTable{"DWR": entry("DWR", 60)},
			code:     "DWRX",
			wantType: internal.MatchFuzzyPrefix,
			wantKey:  "DWR",
		},
		{
			name:     "suffixed code falls through to fuzzy prefix",
			table:    internal.LineTable{"B30": entry("B30", 210), "B33": entry("B33", 230)},
			code:     "B30X",
			wantType: internal.MatchFuzzyPrefix,
			wantKey:  "B30",
		},
		{
			name:     "fuzzy prefix prefers longest key",
			table:    internal.LineTable{"HING": entry("HING", 1), "HINGE": entry("HINGE", 2)},
			code:     "HINGESC",
			wantType: internal.MatchFuzzyPrefix,
			wantKey:  "HINGE",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FindMatch(tc.code, tc.raw, tc.table, DefaultOptions())
			require.True(t, ok)
			assert.Equal(t, tc.wantType, got.MatchType)
			assert.Equal(t, tc.wantKey, got.MatchedKey)
			assert.Equal(t, tc.table[tc.wantKey], got.Entry)
		})
	}
}

func TestFindMatchNearestSizeBound(t *testing.T) {
	table := internal.LineTable{"B24": entry("B24", 180)}

	got, ok := FindMatch("B30", "B30", table, DefaultOptions())
	require.True(t, ok, "exactly 6 away must match")
	assert.Equal(t, internal.MatchNearestSize, got.MatchType)
	assert.Equal(t, "B24", got.MatchedKey)

	got, ok = FindMatch("B31", "B31", table, DefaultOptions())
	assert.False(t, ok, "7 away must not match")
	assert.NotEqual(t, internal.MatchNearestSize, got.MatchType)
	assert.Equal(t, internal.MatchNone, got.MatchType)
}

func TestFindMatchNearestSizeTieBreak(t *testing.T) {
	table := internal.LineTable{"B24": entry("B24", 180), "B36": entry("B36", 240)}

	got, ok := FindMatch("B30", "B30", table, DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, "B36", got.MatchedKey)

	opts := DefaultOptions()
	opts.NearestSizePreferLarger = false
	got, ok = FindMatch("B30", "B30", table, opts)
	require.True(t, ok)
	assert.Equal(t, "B24", got.MatchedKey)
}

func TestFindMatchNearestSizeIgnoresOtherPrefixes(t *testing.T) {
	table := internal.LineTable{"SB30": entry("SB30", 250), "W30": entry("W30", 100)}
	_, ok := FindMatch("B30", "B30", table, DefaultOptions())
	assert.False(t, ok)
}

func TestFindMatchFuzzyPrefixLengthBound(t *testing.T) {
	table := internal.LineTable{"HINGE": entry("HINGE", 5)}
	_, ok := FindMatch("HINGESOFTCLOSE", "HINGE-SOFTCLOSE", table, DefaultOptions())
	assert.False(t, ok)

	opts := DefaultOptions()
	opts.FuzzyPrefixMaxExtra = 20
	got, ok := FindMatch("HINGESOFTCLOSE", "HINGE-SOFTCLOSE", table, opts)
	require.True(t, ok)
	assert.Equal(t, internal.MatchFuzzyPrefix, got.MatchType)
}

func TestFindMatchEmptyInputs(t *testing.T) {
	table := internal.LineTable{"L": entry("L", 1), "B30": entry("B30", 210)}

	_, ok := FindMatch("", "", table, DefaultOptions())
	assert.False(t, ok)

	_, ok = FindMatch("B30", "B30", nil, DefaultOptions())
	assert.False(t, ok)
}

func TestMatcherReusableAcrossCodes(t *testing.T) {
	m := NewMatcher(internal.LineTable{"B30": entry("B30", 210), "BF": entry("BF", 50)}, DefaultOptions())

	got, ok := m.Match("B30", "B30")
	require.True(t, ok)
	assert.Equal(t, internal.MatchExact, got.MatchType)

	got, ok = m.Match("BF6", "BF6")
	require.True(t, ok)
	assert.Equal(t, internal.MatchCategoryFallback, got.MatchType)

	_, ok = m.Match("GEN", "GEN")
	assert.False(t, ok)
}
