package engine

// Options carries the heuristic constants of the matcher and the resolver.
type Options struct {
	// NearestSizeMaxDiff is the largest accepted |size difference| for a
	// nearest_size match (inclusive).
	NearestSizeMaxDiff int
	// NearestSizePreferLarger picks the larger size when two candidates are
	// equally close.
	NearestSizePreferLarger bool
	// FuzzyPrefixMaxExtra bounds how many characters a code may carry beyond
	// a catalog key for a fuzzy_prefix match (exclusive).
	FuzzyPrefixMaxExtra int
	// HardwareFlatRate is the per-unit estimate for hardware without a
	// catalog price on lines that publish size rates.
	HardwareFlatRate float64
}

func DefaultOptions() Options {
	return Options{
		NearestSizeMaxDiff:      6,
		NearestSizePreferLarger: true,
		FuzzyPrefixMaxExtra:     3,
		HardwareFlatRate:        15,
	}
}
