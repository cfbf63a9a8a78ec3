package extract

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ratings-cli/internal/similarity"
)

// FindRow scans every table row with at least three cells for one that
// names the university, then reads rank, rating and category from that
// row's cells in order. A row qualifies only when it yields a rating or a
// rank. It returns nil when no row qualifies.
func FindRow(r io.Reader, name string) (*Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse rating page")
	}

	target := similarity.Fold(strings.TrimSpace(name))
	if target == "" {
		return nil, nil
	}

	var found *Record
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		tbl.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.Find("td, th")
			if cells.Length() < minCells {
				return true
			}
			matched, ok := matchingCell(cells, target)
			if !ok {
				return true
			}
			rec := scanRow(cells)
			rec.Name = matched
			if rec.Rating == nil && rec.Rank == nil {
				return true
			}
			found = &rec
			return false
		})
		return found == nil
	})
	return found, nil
}

// matchingCell returns the text of the first name-like cell whose folded
// text contains, or is contained in, target.
func matchingCell(cells *goquery.Selection, target string) (string, bool) {
	var text string
	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		t := strippedText(cell)
		if !nameLike(t) {
			return true
		}
		folded := similarity.Fold(t)
		if strings.Contains(folded, target) || strings.Contains(target, folded) {
			text = t
			return false
		}
		return true
	})
	return text, text != ""
}

// scanRow reads typed tokens from a row. First match wins per field.
// "#N" and bare integers below 1000 are ranks, decimals are ratings, and a
// bare integer seen after the rank is taken is the rating.
func scanRow(cells *goquery.Selection) Record {
	var rec Record
	cells.Each(func(_ int, cell *goquery.Selection) {
		t := strippedText(cell)
		switch {
		case rankOnlyRe.MatchString(t):
			if rec.Rank == nil {
				rec.Rank = parseRank(t)
			}
		case integerRe.MatchString(t):
			n, err := strconv.Atoi(t)
			if err != nil {
				return
			}
			switch {
			case rec.Rank == nil && n < maxBareRank:
				rec.Rank = &n
			case rec.Rating == nil:
				v := float64(n)
				rec.Rating = &v
			}
		case decimalRe.MatchString(t):
			if rec.Rating == nil {
				if v, ok := parseFloat(t); ok {
					rec.Rating = &v
				}
			}
		case categoryRe.MatchString(t):
			if rec.Category == "" {
				rec.Category = t
			}
		}
	})
	return rec
}

// nameLike reports whether a cell can hold a name. Rank, number and
// category cells are the row's data, never its name.
func nameLike(t string) bool {
	if utf8.RuneCountInString(t) < minNameRunes {
		return false
	}
	for _, re := range []*regexp.Regexp{rankOnlyRe, integerRe, decimalRe, categoryRe} {
		if re.MatchString(t) {
			return false
		}
	}
	return true
}
