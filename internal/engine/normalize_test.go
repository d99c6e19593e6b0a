package engine

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`Base Cabinet 30" Wide`, "B30"},
		{`BASE CABINET 30"`, "B30"},
		{`base cabinet 30 inch`, "B30"},
		{"B30IN", "B30"},
		{"  b30  ", "B30"},
		{"SINK BASE 36", "SB36"},
		{"Sink Base 33\"", "SB33"},
		{"Drawer Base 18", "DB18"},
		{"Blind Base Corner 42", "BBC42"},
		{"Lazy Susan 36", "LS36"},
		{"Wall Cabinet 30 x 30", "W3030"},
		{"W2430 X 24 DP", "W2430"},
		{"W2430 24 DEPTH", "W2430"},
		{"Pantry 24x84", "U2484"},
		{"Tall Utility 24 X 84", "U2484"},
		{"B30 BUTT", "B30"},
		{"B30-BUTT-L", "B30"},
		{"B30.1", "B30"},
		{"B30.2 ET", "B30"},
		{"B30-2-L", "B30"},
		{"B18L", "B18"},
		{"B18 R", "B18"},
		{"W3630 LEFT", "W3630"},
		{"30 B", "B30"},
		{"36 SB", "SB36"},
		{"DWR", "DWR"},
		{"DWR3", "DWR3"},
		{"TK 8", "TK8"},
		{"Toe Kick 96", "TK96"},
		{"Base Filler 3", "BF3"},
		{"Refrigerator Panel 24", "REP24"},
		{"Vanity Sink Base 30", "VSB30"},
		{"HINGE-SOFTCLOSE", "HINGESOFTCLOSE"},
		{"Ｂ３０", "B30"},
		{"", ""},
		{"   ", ""},
		{`""`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeSinkBaseDoesNotSplitPrefix(t *testing.T) {
	got := Normalize("SINK BASE 36")
	assert.NotContains(t, got, "ASE")
	assert.Equal(t, "SB36", got)
}

func TestNormalizeKeepsDigitsInsideOptionLikeTokens(t *testing.T) {
	// L and R are only removed as whole tokens, never from inside a code.
	assert.Equal(t, "LS36", Normalize("LS36"))
	assert.Equal(t, "REP24", Normalize("REP24"))
}

func TestNormalizeIdempotent(t *testing.T) {
	samples := []string{
		`Base Cabinet 30" Wide`, "W2430 X 24 DP", "B30-2-L", "30 B", "x 24 dp 24",
		"30IN X", "SINK SINK BASE", "1 - 2 L R", "TALL 24 X 84 DEPTH", "..1.2.3",
		"WALL\tCORNER 24\n30", "Ⅻ ½ ﬁ", "BASE30 INCH", "B 3 0 - 1",
	}
	for _, s := range samples {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}

	prop := func(s string) bool {
		once := Normalize(s)
		return Normalize(once) == once
	}
	require.NoError(t, quick.Check(prop, &quick.Config{MaxCount: 2000}))
}

func TestNormalizeOutputAlphabet(t *testing.T) {
	prop := func(s string) bool {
		for _, r := range Normalize(s) {
			if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(prop, nil))
}

func TestNormalizeRulesInIsolation(t *testing.T) {
	assert.Equal(t, "B30", foldCase("  b30 "))
	assert.Equal(t, "B 30 ", stripInchMarkers(`B 30"IN`))
	assert.Equal(t, "B30 ET", stripDotTags("B30.1 ET"))
	assert.Equal(t, "SB  36", replaceTypeWords("SINK BASE 36"))
	assert.Equal(t, "W2430  ", stripDepth("W2430 X 24 DP"))
	assert.Equal(t, "U 2484", stripDepth("U 24 X 84"))
	assert.Equal(t, "B30 HALF", stripOptionTokens("B30 BUTT HALF L"))
	assert.Equal(t, "TK 8", stripOptionTokens("TK 8"))
	assert.Equal(t, "B30", swapReversed(" 30 B "))
	assert.Equal(t, "B30", stripTrailingSuffix("B30-2-L"))
	assert.Equal(t, "B18", stripTrailingSuffix("B18L"))
	assert.Equal(t, "DWR", stripTrailingSuffix("DWR"))
	assert.Equal(t, "B30", collapse("B-3 0"))
}

func TestTraceNormalize(t *testing.T) {
	trace := TraceNormalize(`Base Cabinet 30" Wide`)
	require.Len(t, trace, len(normalizeRules))
	assert.Equal(t, "fold", trace[0].Rule)
	assert.Equal(t, "collapse", trace[len(trace)-1].Rule)
	assert.Equal(t, "B30", trace[len(trace)-1].Output)
}
