// Package matcher pairs external records with universities by name.
package matcher

import (
	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/internal/similarity"
)

// DefaultThreshold is the minimum similarity a batch match must exceed.
const DefaultThreshold = 0.7

// Match is an accepted candidate and its score.
type Match struct {
	Candidate model.Candidate
	Score     float64
	Index     int // position in the candidate list
}

// BestMatch returns the candidate whose name is most similar to name. The
// best score must strictly exceed threshold; ties keep the earliest
// candidate. A nil metric means similarity.Ratio.
//
// Every candidate is scored, so a batch run costs entities x candidates
// comparisons. That is fine for a single leaderboard page and nothing larger.
func BestMatch(name string, candidates []model.Candidate, threshold float64, metric similarity.Metric) (Match, bool) {
	if metric == nil {
		metric = similarity.Ratio
	}

	best := Match{Index: -1}
	for i, c := range candidates {
		score := metric(name, c.Name)
		if score > threshold && score > best.Score {
			best = Match{Candidate: c, Score: score, Index: i}
		}
	}
	if best.Index < 0 {
		return Match{}, false
	}
	return best, true
}
