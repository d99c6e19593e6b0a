package engine

import (
	"strings"

	"kabs/internal"
)

// matchStrategy returns the catalog key it resolved, if any.
type matchStrategy struct {
	matchType internal.MatchType
	find      func(idx *Index, code, raw string, opts Options) (string, bool)
}

// First success wins.
var matchStrategies = []matchStrategy{
	{matchType: internal.MatchExact, find: matchExact},
	{matchType: internal.MatchExactRaw, find: matchExactRaw},
	{matchType: internal.MatchVariant, find: matchVariant},
	{matchType: internal.MatchCategoryFallback, find: matchCategory},
	{matchType: internal.MatchNearestSize, find: matchNearestSize},
	{matchType: internal.MatchFuzzyPrefix, find: matchFuzzyPrefix},
}

var orientationVariants = []string{"L", "R", " L", " R"}

// Matcher resolves codes against one line's price table. It never prices
// anything itself; a miss is reported as ok == false.
type Matcher struct {
	idx  *Index
	opts Options
}

func NewMatcher(table internal.LineTable, opts Options) *Matcher {
	return &Matcher{idx: BuildIndex(table), opts: opts}
}

func (m *Matcher) Match(code, raw string) (internal.MatchResult, bool) {
	for _, s := range matchStrategies {
		key, ok := s.find(m.idx, code, raw, m.opts)
		if !ok {
			continue
		}
		return internal.MatchResult{
			Entry:      m.idx.table[key],
			MatchType:  s.matchType,
			MatchedKey: key,
		}, true
	}
	return internal.MatchResult{MatchType: internal.MatchNone}, false
}

// FindMatch is the one-shot form of Matcher.Match.
func FindMatch(code, raw string, table internal.LineTable, opts Options) (internal.MatchResult, bool) {
	return NewMatcher(table, opts).Match(code, raw)
}

func matchExact(idx *Index, code, _ string, _ Options) (string, bool) {
	_, ok := idx.lookup(code)
	return code, ok
}

func matchExactRaw(idx *Index, _, raw string, _ Options) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	_, ok := idx.lookup(key)
	return key, ok
}

func matchVariant(idx *Index, code, _ string, _ Options) (string, bool) {
	if code == "" {
		return "", false
	}
	for _, v := range orientationVariants {
		if _, ok := idx.lookup(code + v); ok {
			return code + v, true
		}
	}
	return "", false
}

func matchCategory(idx *Index, code, _ string, _ Options) (string, bool) {
	bare := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, code)
	if bare == code {
		return "", false
	}
	_, ok := idx.lookup(bare)
	return bare, ok
}

func matchNearestSize(idx *Index, code, _ string, opts Options) (string, bool) {
	m := reSizedKey.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	target := int(atof(m[2]))

	best, bestDiff, bestSize := "", -1, 0
	for _, sk := range idx.sized[m[1]] {
		diff := abs(sk.size - target)
		switch {
		case bestDiff < 0 || diff < bestDiff:
			best, bestDiff, bestSize = sk.key, diff, sk.size
		case diff == bestDiff && opts.NearestSizePreferLarger && sk.size > bestSize:
			best, bestSize = sk.key, sk.size
		}
	}
	if bestDiff < 0 || bestDiff > opts.NearestSizeMaxDiff {
		return "", false
	}
	return best, true
}

func matchFuzzyPrefix(idx *Index, code, _ string, opts Options) (string, bool) {
	for _, key := range idx.byLength {
		if key == "" || len(key) >= len(code) {
			continue
		}
		if len(code)-len(key) >= opts.FuzzyPrefixMaxExtra {
			// byLength is ordered longest first; shorter keys only get worse
			return "", false
		}
		if strings.HasPrefix(code, key) {
			return key, true
		}
	}
	return "", false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
