package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reQuotes     = regexp.MustCompile(`["'` + "`" + `«»“”]`)
	reNonAllowed = regexp.MustCompile(`[^A-Z0-9X\-/\s.#]`)
	reSpaces     = regexp.MustCompile(`\s+`)
	rePriceJunk  = regexp.MustCompile(`[^0-9.]`)
)

// NormalizeHeader uppercases a table header or free-text cell and reduces it
// to plain ASCII words separated by single spaces.
func NormalizeHeader(input string) string {
	s := strings.ToUpper(input)
	repl := strings.NewReplacer("×", "X", "*", "X", "\u00A0", " ")
	s = repl.Replace(s)
	s = reQuotes.ReplaceAllString(s, " ")
	s = reNonAllowed.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// LooksLikeCode reports whether input reads like a cabinet code: short,
// with at least one letter and one digit.
func LooksLikeCode(input string) bool {
	s := strings.TrimSpace(input)
	if len(s) < 2 || len(s) > 24 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			hasLetter = true
		}
		if r >= '0' && r <= '9' {
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// ParsePrice reads a price cell such as "$1,234.50" or "USD 99". Anything
// but digits and dots is dropped.
func ParsePrice(input string) (float64, bool) {
	s := rePriceJunk.ReplaceAllString(input, "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
