package pipeline

import (
	"regexp"
	"strings"

	"kabs/internal"
)

// Words that mark a label as an appliance, fixture or trade item rather than
// a cabinet. Matched as whole words so that CABINET does not hit BIN.
var exclusionKeywords = wordSet(
	"FAUCET", "HOOD", "RANGE", "FRIDGE", "REFRIGERATOR", "DISHWASHER", "DW", "MW", "MICROWAVE", "OVEN", "COOKTOP", "WINE",
	"LIGHT", "LED", "SWITCH", "OUTLET", "ELECTRICAL", "JBOX",
	"STEEL", "BRACKET", "SUPPORT", "PIPE", "PLUMBING",
	"TRASH", "BIN", "WASTE", "RECYCLE",
	"CEILING", "ELEC", "PLUMB",
)

// Appliance panels and returns are cabinetry: "Dishwasher Panel" stays in.
var panelWords = wordSet("PANEL", "PANELS", "FILLER", "SKIN", "RETURN")

var excludedPrefixes = []string{"K-", "RG-", "BAR-"}

var roomWords = wordSet(
	"KITCHEN", "ISLAND", "DINING", "LIVING", "FAMILY", "ROOM", "AREA",
	"BATH", "BATHROOM", "POWDER", "LAUNDRY", "MUDROOM", "NOOK", "FOYER",
	"GARAGE", "OFFICE", "MASTER", "GUEST", "BUTLER", "BUTLERS", "WET", "BAR",
)

var (
	reWordBreaks = regexp.MustCompile(`[^A-Z0-9]+`)
	reJBox       = regexp.MustCompile(`\bJ-BOX\b`)
)

// isExcluded reports whether a label names something that is not priced as
// cabinetry: an appliance or fixture keyword, a non-cabinet code prefix, or a
// room name standing alone.
func isExcluded(code, description string) bool {
	upperCode := strings.ToUpper(strings.TrimSpace(code))
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(upperCode, p) {
			return true
		}
	}

	for _, text := range []string{upperCode, strings.ToUpper(description)} {
		words := reWordBreaks.Split(reJBox.ReplaceAllString(text, "JBOX"), -1)
		if hasAny(words, panelWords) {
			continue
		}
		if hasAny(words, exclusionKeywords) {
			return true
		}
	}

	return isRoomLabel(upperCode)
}

func isRoomLabel(code string) bool {
	words := reWordBreaks.Split(code, -1)
	n := 0
	for _, w := range words {
		if w == "" {
			continue
		}
		if _, ok := roomWords[w]; !ok {
			return false
		}
		n++
	}
	return n > 0
}

func filterExcluded(records []internal.LabelRecord) []internal.LabelRecord {
	out := records[:0]
	for _, rec := range records {
		if isExcluded(rec.RawCode, rec.Description) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func wordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

func hasAny(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
