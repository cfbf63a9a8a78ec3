// Package extract turns fetched leaderboard markup into rating records.
//
// The source markup is not a stable contract. Extraction degrades to
// dropping a single record rather than failing the page.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sells-group/ratings-cli/internal/model"
)

// Default plausible range for leaderboard scores.
const (
	DefaultMinRating = 10.0
	DefaultMaxRating = 200.0
)

const (
	maxBareRank  = 1000
	minNameRunes = 2
)

var (
	rankTokenRe = regexp.MustCompile(`#(\d+)`)
	rankOnlyRe  = regexp.MustCompile(`^#(\d+)$`)
	signedNumRe = regexp.MustCompile(`^[#+\-]\d+$`)
	numberRe    = regexp.MustCompile(`^\d+\.?\d*$`)
	integerRe   = regexp.MustCompile(`^\d+$`)
	decimalRe   = regexp.MustCompile(`^\d+\.\d+$`)
	categoryRe  = regexp.MustCompile(`^[A-Z][+\-]?$`)
)

// Record is one row extracted from a leaderboard page.
type Record struct {
	Name     string
	Rating   *float64
	Rank     *int
	Category string
}

// Candidate converts the record into a candidate for src.
func (r Record) Candidate(src model.Source) model.Candidate {
	return model.Candidate{
		Source:   src,
		Name:     r.Name,
		Rating:   r.Rating,
		Rank:     r.Rank,
		Category: r.Category,
	}
}

// usable reports whether the record carries enough to be worth matching.
func (r Record) usable() bool {
	return r.Name != "" && (r.Rating != nil || r.Rank != nil)
}

// strippedText mirrors how a human reads a cell: every text fragment is
// trimmed and the fragments are concatenated.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, frag := range textFragments(sel) {
		b.WriteString(frag)
	}
	return b.String()
}

// textFragments returns the trimmed, non-empty text nodes under sel in
// document order.
func textFragments(sel *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

func parseRank(s string) *int {
	m := rankTokenRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
