package model

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Column names of the per-source result groups.
const (
	FieldGoogleRating       = "google_rating"
	FieldGoogleReviewsCount = "google_reviews_count"
	FieldGooglePlaceID      = "google_place_id"

	FieldYandexRating       = "yandex_rating"
	FieldYandexReviewsCount = "yandex_reviews_count"
	FieldYandexPlaceID      = "yandex_place_id"

	FieldTabiturientRating   = "tabiturient_rating"
	FieldTabiturientRank     = "tabiturient_rank"
	FieldTabiturientCategory = "tabiturient_category"
)

// fieldGroups lists the columns each source owns. A write must always cover
// exactly one whole group.
var fieldGroups = map[Source][]string{
	SourceGoogle:      {FieldGoogleRating, FieldGoogleReviewsCount, FieldGooglePlaceID},
	SourceYandex:      {FieldYandexRating, FieldYandexReviewsCount, FieldYandexPlaceID},
	SourceTabiturient: {FieldTabiturientRating, FieldTabiturientRank, FieldTabiturientCategory},
}

var fieldOwner = func() map[string]Source {
	m := make(map[string]Source)
	for src, cols := range fieldGroups {
		for _, c := range cols {
			m[c] = src
		}
	}
	return m
}()

// FieldMap is a partial update keyed by column name.
type FieldMap map[string]any

// Keys returns the map's column names sorted alphabetically.
func (f FieldMap) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FieldGroup returns the columns owned by src.
func FieldGroup(src Source) []string {
	cols := fieldGroups[src]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// ValidateFieldMap checks that fields is a complete update of a single
// source's group and returns that source.
func ValidateFieldMap(fields FieldMap) (Source, error) {
	if len(fields) == 0 {
		return "", eris.New("fields: empty update")
	}

	var src Source
	for _, key := range fields.Keys() {
		owner, ok := fieldOwner[key]
		if !ok {
			return "", eris.Errorf("fields: unknown field %q", key)
		}
		if src == "" {
			src = owner
			continue
		}
		if owner != src {
			return "", eris.Errorf("fields: cross-source update (%s and %s)", src, owner)
		}
	}

	for _, col := range fieldGroups[src] {
		if _, ok := fields[col]; !ok {
			return "", eris.Errorf("fields: partial %s update, missing %q", src, col)
		}
	}
	return src, nil
}
