package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingQty  = regexp.MustCompile(`^(\d{1,3})\s*[xX×]\s*([A-Za-z].*)$`)
	trailingQty = regexp.MustCompile(`^(.*\S)\s+[xX×](\d{1,3})$`)
	parenQty    = regexp.MustCompile(`(?i)^(.*\S)\s*\((?:QTY[:\s]*)?(\d{1,3})\)$`)
	keywordQty  = regexp.MustCompile(`(?i)\bQTY\b[:\s]*(\d{1,3})\b`)
)

// ParsedQty is a label with its quantity hint split off.
type ParsedQty struct {
	Qty    *int
	Label  string
	QtyRaw *string
}

// ParseQty recognizes the quantity hints found on plan labels and in
// request bodies: "2x B30", "B30 x2", "B30 (2)" and "B30 QTY 2". Qty is nil
// when the label carries no hint.
func ParseQty(input string) ParsedQty {
	line := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))

	if m := leadingQty.FindStringSubmatch(line); m != nil {
		return parsed(m[1], strings.TrimSpace(m[2]), m[1]+"x")
	}
	if m := trailingQty.FindStringSubmatch(line); m != nil {
		return parsed(m[2], m[1], "x"+m[2])
	}
	if m := parenQty.FindStringSubmatch(line); m != nil {
		return parsed(m[2], m[1], "("+m[2]+")")
	}
	if loc := keywordQty.FindStringSubmatchIndex(line); loc != nil {
		raw := line[loc[0]:loc[1]]
		rest := strings.TrimSpace(line[:loc[0]] + " " + line[loc[1]:])
		return parsed(line[loc[2]:loc[3]], reSpaces.ReplaceAllString(rest, " "), raw)
	}

	return ParsedQty{Label: line}
}

func parsed(num, label, raw string) ParsedQty {
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return ParsedQty{Label: label}
	}
	return ParsedQty{Qty: IntPtr(n), Label: label, QtyRaw: StringPtr(raw)}
}
