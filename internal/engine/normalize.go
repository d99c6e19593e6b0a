package engine

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeRule is one step of code normalization. Rules run in order and
// each one sees the output of the previous rule.
type normalizeRule struct {
	name  string
	apply func(string) string
}

var normalizeRules = []normalizeRule{
	{name: "fold", apply: foldCase},
	{name: "inch_markers", apply: stripInchMarkers},
	{name: "tag_suffix", apply: stripDotTags},
	{name: "type_words", apply: replaceTypeWords},
	{name: "depth", apply: stripDepth},
	{name: "options", apply: stripOptionTokens},
	{name: "reversed", apply: swapReversed},
	{name: "trailing_suffix", apply: stripTrailingSuffix},
	{name: "collapse", apply: collapse},
}

// Normalize turns a free-text cabinet label into its canonical short code
// (`Base Cabinet 30" Wide` -> `B30`). The rule chain is repeated until the
// output stops changing, so Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := normalizeOnce(raw)
	// From the second pass on every rule either leaves an [A-Z0-9] string
	// alone or shortens it, so len(s)+1 passes always reach the fixpoint.
	for i := 0; i <= len(s); i++ {
		next := normalizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func normalizeOnce(s string) string {
	for _, rule := range normalizeRules {
		s = rule.apply(s)
	}
	return s
}

// RuleTrace records the output of a single normalization rule.
type RuleTrace struct {
	Rule   string
	Output string
}

// TraceNormalize runs one pass of the rule chain and returns every
// intermediate result.
func TraceNormalize(raw string) []RuleTrace {
	out := make([]RuleTrace, 0, len(normalizeRules))
	s := raw
	for _, rule := range normalizeRules {
		s = rule.apply(s)
		out = append(out, RuleTrace{Rule: rule.name, Output: s})
	}
	return out
}

var (
	reInchAfterNumber = regexp.MustCompile(`(\d)\s*(?:INCHES|INCH|IN)\b`)
	reInchWord        = regexp.MustCompile(`\b(?:INCHES|INCH|IN)\b`)
	reDotTag          = regexp.MustCompile(`\.\d+(\s|$)`)
	reDepthCross      = regexp.MustCompile(`X\s*\d+\s*(?:DP|DEPTH)\b`)
	reDepthPlain      = regexp.MustCompile(`\b\d+\s*(?:DP|DEPTH)\b`)
	reDimensionCross  = regexp.MustCompile(`(\d)\s*X\s*(\d)`)
	reReversed        = regexp.MustCompile(`^(\d+)\s+([A-Z]{1,4})$`)
	reHyphenTag       = regexp.MustCompile(`(\d)[.\-]\d(?:[\s.\-]*[LR])?\s*$`)
	reOrientation     = regexp.MustCompile(`(\d)\s*[LR]$`)
	reNonCode         = regexp.MustCompile(`[^A-Z0-9]+`)
	reCodeToken       = regexp.MustCompile(`[A-Z0-9]+`)
)

var quoteMarks = strings.NewReplacer(
	`"`, " ", `'`, " ", "`", " ",
	"′", " ", "″", " ", "‶", " ",
	"“", " ", "”", " ", "‘", " ", "’", " ",
	"×", "X",
)

func foldCase(s string) string {
	return strings.TrimSpace(strings.ToUpper(norm.NFKC.String(s)))
}

func stripInchMarkers(s string) string {
	s = quoteMarks.Replace(s)
	s = reInchAfterNumber.ReplaceAllString(s, "$1 ")
	return reInchWord.ReplaceAllString(s, " ")
}

func stripDotTags(s string) string {
	return reDotTag.ReplaceAllString(s, "$1")
}

type typeWord struct {
	re     *regexp.Regexp
	prefix string
}

func wordRule(words, prefix string) typeWord {
	alternation := strings.ReplaceAll(words, " ", `\s+`)
	return typeWord{
		re:     regexp.MustCompile(`\b(?:` + alternation + `)(\b|\d)`),
		prefix: prefix,
	}
}

// Most specific phrases first: SINK BASE has to be consumed before BASE.
var typeWords = []typeWord{
	wordRule("VANITY SINK BASE|VANITY SINK", "VSB"),
	wordRule("SINK BASE", "SB"),
	wordRule("DRAWER BASE", "DB"),
	wordRule("BLIND BASE CORNER|BLIND CORNER BASE|BASE BLIND CORNER", "BBC"),
	wordRule("LAZY SUSAN", "LS"),
	wordRule("WALL DIAGONAL CORNER|DIAGONAL WALL CORNER|DIAGONAL CORNER WALL", "WDC"),
	wordRule("WALL BLIND CORNER|BLIND WALL CORNER", "WBC"),
	wordRule("WALL CORNER", "WC"),
	wordRule("BASE CORNER", "BC"),
	wordRule("BASE FILLER", "BF"),
	wordRule("WALL FILLER", "WF"),
	wordRule("TOE KICK", "TK"),
	wordRule("CROWN MOLDING|CROWN MOULDING", "CM"),
	wordRule("REFRIGERATOR PANEL|REF PANEL|FRIDGE PANEL", "REP"),
	wordRule("DISHWASHER PANEL|DW PANEL", "DWP"),
	wordRule("DISHWASHER RETURN", "DWR"),
	wordRule("TALL PANTRY|TALL UTILITY", "U"),
	wordRule("PANTRY|UTILITY|TALL", "U"),
	wordRule("VANITY", "V"),
	wordRule("SINK", "SB"),
	wordRule("DRAWER", "DB"),
	wordRule("FILLER", "BF"),
	wordRule("BASE", "B"),
	wordRule("WALL", "W"),
	wordRule("CABINETS|CABINET|CAB|WIDE|WIDTH|HIGH|HEIGHT", ""),
}

func replaceTypeWords(s string) string {
	for _, tw := range typeWords {
		s = tw.re.ReplaceAllString(s, tw.prefix+" ${1}")
	}
	return s
}

func stripDepth(s string) string {
	s = reDepthCross.ReplaceAllString(s, " ")
	s = reDepthPlain.ReplaceAllString(s, " ")
	return reDimensionCross.ReplaceAllString(s, "$1$2")
}

var optionTokens = map[string]struct{}{
	"BUTT": {}, "ET": {}, "AO": {}, "1TD": {}, "2TD": {}, "3TD": {}, "ROT": {}, "VAL": {},
	"TK": {}, "CM": {}, "DEP": {}, "WF": {}, "HINGE": {}, "LEFT": {}, "RIGHT": {}, "STD": {},
	"L": {}, "R": {},
}

// stripOptionTokens drops option tokens together with the separator in
// front of them. The first token is the cabinet itself and always stays.
func stripOptionTokens(s string) string {
	locs := reCodeToken.FindAllStringIndex(s, -1)
	if len(locs) < 2 {
		return s
	}

	var b strings.Builder
	b.WriteString(s[:locs[0][1]])
	prevEnd := locs[0][1]
	for _, loc := range locs[1:] {
		if _, ok := optionTokens[s[loc[0]:loc[1]]]; ok {
			prevEnd = loc[1]
			continue
		}
		b.WriteString(s[prevEnd:loc[1]])
		prevEnd = loc[1]
	}
	b.WriteString(s[prevEnd:])
	return b.String()
}

func swapReversed(s string) string {
	return reReversed.ReplaceAllString(strings.TrimSpace(s), "$2$1")
}

func stripTrailingSuffix(s string) string {
	s = strings.TrimSpace(s)
	s = reHyphenTag.ReplaceAllString(s, "$1")
	return reOrientation.ReplaceAllString(s, "$1")
}

func collapse(s string) string {
	return reNonCode.ReplaceAllString(s, "")
}
