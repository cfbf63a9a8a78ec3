package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/ratings-cli/internal/model"
)

// prefixKeyRunes is the length of the extra short key indexed for long
// names, so that truncated external names still hit the cache.
const prefixKeyRunes = 30

// NameIndex is a run-scoped cache of university names. Keys keep insertion
// order so substring scans are deterministic. A key seen twice keeps the
// first university.
type NameIndex struct {
	keys  []string
	byKey map[string]*model.University
}

// NewNameIndex indexes unis by full name and, for names longer than 30
// runes, by their first 30 runes.
func NewNameIndex(unis []model.University) *NameIndex {
	ix := &NameIndex{byKey: make(map[string]*model.University, len(unis))}
	for i := range unis {
		ix.Add(&unis[i])
	}
	return ix
}

// Add indexes one university.
func (ix *NameIndex) Add(u *model.University) {
	ix.put(u.Name, u)
	if utf8.RuneCountInString(u.Name) > prefixKeyRunes {
		ix.put(truncateRunes(u.Name, prefixKeyRunes), u)
	}
}

func (ix *NameIndex) put(key string, u *model.University) {
	if key == "" {
		return
	}
	if _, ok := ix.byKey[key]; ok {
		return
	}
	ix.byKey[key] = u
	ix.keys = append(ix.keys, key)
}

// Len returns the number of keys.
func (ix *NameIndex) Len() int { return len(ix.keys) }

// Exact looks name up as a key.
func (ix *NameIndex) Exact(name string) (*model.University, bool) {
	u, ok := ix.byKey[name]
	return u, ok
}

// Containing returns the first key, in insertion order, that contains name
// or is contained in it.
func (ix *NameIndex) Containing(name string) (*model.University, bool) {
	if name == "" {
		return nil, false
	}
	for _, k := range ix.keys {
		if strings.Contains(name, k) || strings.Contains(k, name) {
			return ix.byKey[k], true
		}
	}
	return nil, false
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
