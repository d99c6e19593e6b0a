package engine

import (
	"regexp"
	"sort"
	"strconv"

	"kabs/internal"
)

// reSizedKey matches PREFIX+digits keys and codes. Codes with a trailing
// suffix are left to the fuzzy prefix tier.
var reSizedKey = regexp.MustCompile(`^([A-Z]+)(\d+)$`)

type sizedKey struct {
	key  string
	size int
}

// Index is a read-only view of one line's price table, prepared once per
// validation pass for the strategies that scan keys.
type Index struct {
	table internal.LineTable
	// letter prefix -> keys shaped PREFIX+digits, ordered by size then key
	sized map[string][]sizedKey
	// all keys, longest first then lexical
	byLength []string
}

func BuildIndex(table internal.LineTable) *Index {
	idx := &Index{
		table:    table,
		sized:    map[string][]sizedKey{},
		byLength: make([]string, 0, len(table)),
	}

	for key := range table {
		idx.byLength = append(idx.byLength, key)

		m := reSizedKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		size, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		idx.sized[m[1]] = append(idx.sized[m[1]], sizedKey{key: key, size: size})
	}

	for prefix := range idx.sized {
		keys := idx.sized[prefix]
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].size != keys[j].size {
				return keys[i].size < keys[j].size
			}
			return keys[i].key < keys[j].key
		})
	}
	sort.Slice(idx.byLength, func(i, j int) bool {
		a, b := idx.byLength[i], idx.byLength[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	return idx
}

func (idx *Index) lookup(key string) (internal.CatalogEntry, bool) {
	if key == "" {
		return internal.CatalogEntry{}, false
	}
	entry, ok := idx.table[key]
	return entry, ok
}
