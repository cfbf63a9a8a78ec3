package extract

import (
	"io"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Cell positions inside one leaderboard record.
const (
	cellRank     = 0
	cellName     = 2
	cellRating   = 3
	cellCategory = 4
	minCells     = 3
)

// LeaderboardOptions bounds what counts as a plausible score.
type LeaderboardOptions struct {
	MinRating float64
	MaxRating float64
}

// DefaultLeaderboardOptions returns the 10-200 score range.
func DefaultLeaderboardOptions() LeaderboardOptions {
	return LeaderboardOptions{MinRating: DefaultMinRating, MaxRating: DefaultMaxRating}
}

func (o LeaderboardOptions) inRange(v float64) bool {
	return v >= o.MinRating && v <= o.MaxRating
}

// ParseLeaderboard extracts every usable record from a leaderboard page.
// Each record lives in its own table.listtop100; malformed records are
// dropped. Only a document that cannot be read at all is an error.
func ParseLeaderboard(r io.Reader, opts LeaderboardOptions) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse leaderboard document")
	}

	var records []Record
	dropped := 0
	doc.Find("table.listtop100").Each(func(i int, tbl *goquery.Selection) {
		row := tbl.Find("tr").First()
		if row.Length() == 0 {
			return
		}
		cells := row.ChildrenFiltered("td.tdtop100")
		if cells.Length() < minCells {
			dropped++
			return
		}

		rec := parseLeaderboardCells(cells, opts)
		if !rec.usable() {
			dropped++
			zap.L().Debug("extract: dropped leaderboard record",
				zap.Int("index", i),
				zap.String("name", rec.Name),
			)
			return
		}
		records = append(records, rec)
	})

	zap.L().Debug("extract: parsed leaderboard",
		zap.Int("records", len(records)),
		zap.Int("dropped", dropped),
	)
	return records, nil
}

func parseLeaderboardCells(cells *goquery.Selection, opts LeaderboardOptions) Record {
	var rec Record

	first := cells.Eq(cellRank)
	if b := first.Find("span.font2").First().Find("b").First(); b.Length() > 0 {
		rec.Rank = parseRank(strippedText(b))
	}
	if rec.Rank == nil {
		rec.Rank = parseRank(strippedText(first))
	}

	if cells.Length() > cellName {
		rec.Name = leaderboardName(cells.Eq(cellName))
	}

	if cells.Length() > cellRating {
		if v, ok := parseFloat(fontText(cells.Eq(cellRating))); ok && opts.inRange(v) {
			rec.Rating = &v
		}
	}

	if cells.Length() > cellCategory {
		if cat := fontText(cells.Eq(cellCategory)); categoryRe.MatchString(cat) {
			rec.Category = cat
		}
	}
	return rec
}

// leaderboardName picks the display name out of the name cell. The cell
// repeats the rank as "#N" for narrow screens; that fragment is skipped.
func leaderboardName(cell *goquery.Selection) string {
	var name string
	cell.Find("span.font2").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		b := span.Find("b").First()
		if b.Length() == 0 {
			return true
		}
		text := strippedText(b)
		if rankOnlyRe.MatchString(text) || utf8.RuneCountInString(text) < minNameRunes {
			return true
		}
		name = text
		return false
	})
	if name != "" {
		return name
	}

	for _, frag := range textFragments(cell) {
		if utf8.RuneCountInString(frag) <= minNameRunes {
			continue
		}
		if signedNumRe.MatchString(frag) || numberRe.MatchString(frag) {
			continue
		}
		return frag
	}
	return ""
}

// fontText returns the bold text of the cell's first span.font2, or the
// span's own text when it has no bold child.
func fontText(cell *goquery.Selection) string {
	span := cell.Find("span.font2").First()
	if span.Length() == 0 {
		return ""
	}
	if b := span.Find("b").First(); b.Length() > 0 {
		return strippedText(b)
	}
	return strippedText(span)
}
