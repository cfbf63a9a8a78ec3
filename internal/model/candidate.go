package model

// Candidate is a transient record parsed from an external source, not yet
// matched to a university.
type Candidate struct {
	Source       Source   `json:"source"`
	Name         string   `json:"name"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewsCount int      `json:"reviews_count,omitempty"`
	PlaceID      string   `json:"place_id,omitempty"`
	Rank         *int     `json:"rank,omitempty"`
	Category     string   `json:"category,omitempty"`
}

// FieldMap returns the complete update group for the candidate's source.
func (c Candidate) FieldMap() FieldMap {
	switch c.Source {
	case SourceGoogle:
		return FieldMap{
			FieldGoogleRating:       c.Rating,
			FieldGoogleReviewsCount: c.ReviewsCount,
			FieldGooglePlaceID:      c.PlaceID,
		}
	case SourceYandex:
		return FieldMap{
			FieldYandexRating:       c.Rating,
			FieldYandexReviewsCount: c.ReviewsCount,
			FieldYandexPlaceID:      c.PlaceID,
		}
	case SourceTabiturient:
		var category *string
		if c.Category != "" {
			category = StringPtr(c.Category)
		}
		return FieldMap{
			FieldTabiturientRating:   c.Rating,
			FieldTabiturientRank:     c.Rank,
			FieldTabiturientCategory: category,
		}
	default:
		return nil
	}
}

// Apply copies the candidate's group onto u, mirroring a successful write.
func (c Candidate) Apply(u *University) {
	switch c.Source {
	case SourceGoogle:
		u.Google = PlacesRating{Rating: c.Rating, ReviewsCount: c.ReviewsCount, PlaceID: c.PlaceID}
	case SourceYandex:
		u.Yandex = PlacesRating{Rating: c.Rating, ReviewsCount: c.ReviewsCount, PlaceID: c.PlaceID}
	case SourceTabiturient:
		var category *string
		if c.Category != "" {
			category = StringPtr(c.Category)
		}
		u.Tabiturient = LeaderboardRating{Rating: c.Rating, Rank: c.Rank, Category: category}
	}
}
