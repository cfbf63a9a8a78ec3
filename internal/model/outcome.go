package model

// OutcomeKind is the per-university result of one reconciliation attempt.
type OutcomeKind string

const (
	OutcomeUpdated  OutcomeKind = "updated"
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

// Outcome records what happened to one university during a run.
type Outcome struct {
	UniversityID int64       `json:"university_id" yaml:"university_id"`
	Name         string      `json:"name" yaml:"name"`
	Kind         OutcomeKind `json:"kind" yaml:"kind"`
	Reason       string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	MatchedName  string      `json:"matched_name,omitempty" yaml:"matched_name,omitempty"`
	Score        float64     `json:"score,omitempty" yaml:"score,omitempty"`
}

// Summary aggregates outcome counts for a run.
type Summary struct {
	Updated  int `json:"updated" yaml:"updated"`
	Failed   int `json:"failed" yaml:"failed"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	NotFound int `json:"not_found" yaml:"not_found"`
	Total    int `json:"total" yaml:"total"`
}

// Add tallies one outcome.
func (s *Summary) Add(o Outcome) {
	switch o.Kind {
	case OutcomeUpdated:
		s.Updated++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}
