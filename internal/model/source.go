package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Source identifies one external rating provider.
type Source string

const (
	SourceGoogle      Source = "google"
	SourceYandex      Source = "yandex"
	SourceTabiturient Source = "tabiturient"
)

// SourceKind groups sources by the shape of the data they produce.
type SourceKind string

const (
	KindPlaces      SourceKind = "places"      // rating + review count + place id
	KindLeaderboard SourceKind = "leaderboard" // rating + rank + category
)

// AllSources returns every supported source in a stable order.
func AllSources() []Source {
	return []Source{SourceGoogle, SourceYandex, SourceTabiturient}
}

// Kind returns the data shape produced by the source.
func (s Source) Kind() SourceKind {
	if s == SourceTabiturient {
		return KindLeaderboard
	}
	return KindPlaces
}

// ParseSource converts a string into a Source. Case and surrounding space
// are ignored.
func ParseSource(s string) (Source, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, src := range AllSources() {
		if string(src) == norm {
			return src, nil
		}
	}
	return "", eris.Errorf("unknown source: %q (valid: google, yandex, tabiturient)", s)
}
