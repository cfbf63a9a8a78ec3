// Package similarity scores how alike two free-text names are.
//
// Every metric folds case with Unicode rules before comparing, so Cyrillic
// and Latin names behave the same way. Scores are in [0, 1] and symmetric.
package similarity

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Metric scores two strings in [0, 1].
type Metric func(a, b string) float64

// Metric names accepted by ByName.
const (
	MetricRatio       = "ratio"
	MetricJaroWinkler = "jaro-winkler"
)

// Fold returns s in NFC form with Unicode case folding applied. It is the
// key used for case-insensitive comparisons and for the store's
// name_folded column.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Ratio returns the longest-matching-blocks ratio 2*M/T of the folded
// inputs, where M is the number of matched runes and T the total rune count.
// Two empty strings are identical; one empty side scores 0.
func Ratio(a, b string) float64 {
	fa, fb := Fold(a), Fold(b)
	if s, ok := emptyScore(fa, fb); ok {
		return s
	}
	if fa == fb {
		return 1
	}
	ra, rb := runes(fa), runes(fb)
	// The matcher's block search is not strictly order-independent on ties.
	return max(sequenceRatio(ra, rb), sequenceRatio(rb, ra))
}

// JaroWinkler returns the Jaro-Winkler similarity of the folded inputs.
func JaroWinkler(a, b string) float64 {
	fa, fb := Fold(a), Fold(b)
	if s, ok := emptyScore(fa, fb); ok {
		return s
	}
	jw := metrics.NewJaroWinkler()
	return max(strutil.Similarity(fa, fb, jw), strutil.Similarity(fb, fa, jw))
}

// ByName resolves a metric by its configuration name. An empty name selects
// Ratio.
func ByName(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MetricRatio:
		return Ratio, nil
	case MetricJaroWinkler, "jarowinkler", "jaro_winkler":
		return JaroWinkler, nil
	default:
		return nil, eris.Errorf("similarity: unknown metric %q (valid: %s, %s)", name, MetricRatio, MetricJaroWinkler)
	}
}

func emptyScore(a, b string) (float64, bool) {
	switch {
	case a == "" && b == "":
		return 1, true
	case a == "" || b == "":
		return 0, true
	}
	return 0, false
}

func sequenceRatio(a, b []string) float64 {
	return difflib.NewMatcherWithJunk(a, b, false, nil).Ratio()
}

// runes splits s into one-rune strings, the unit the sequence matcher
// compares.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
