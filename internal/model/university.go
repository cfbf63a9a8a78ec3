package model

import "time"

// University is the internal entity enriched with external rating signals.
type University struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	ShortName   string            `json:"short_name,omitempty"`
	City        string            `json:"city,omitempty"`
	Address     string            `json:"address,omitempty"`
	Google      PlacesRating      `json:"google"`
	Yandex      PlacesRating      `json:"yandex"`
	Tabiturient LeaderboardRating `json:"tabiturient"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// PlacesRating holds the result of a places-style provider lookup.
type PlacesRating struct {
	Rating       *float64 `json:"rating,omitempty"`
	ReviewsCount int      `json:"reviews_count"`
	PlaceID      string   `json:"place_id,omitempty"`
}

// Complete reports whether the group already carries a usable result.
func (p PlacesRating) Complete() bool {
	return p.Rating != nil && p.PlaceID != ""
}

// LeaderboardRating holds the result of the leaderboard source.
type LeaderboardRating struct {
	Rating   *float64 `json:"rating,omitempty"`
	Rank     *int     `json:"rank,omitempty"`
	Category *string  `json:"category,omitempty"`
}

// Complete reports whether both the score and the rank are known.
func (l LeaderboardRating) Complete() bool {
	return l.Rating != nil && l.Rank != nil
}

// HasResult reports whether the university already carries a complete
// result for the given source.
func (u *University) HasResult(src Source) bool {
	switch src {
	case SourceGoogle:
		return u.Google.Complete()
	case SourceYandex:
		return u.Yandex.Complete()
	case SourceTabiturient:
		return u.Tabiturient.Complete()
	default:
		return false
	}
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
