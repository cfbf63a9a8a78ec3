// Package source fetches rating candidates for universities from the
// external providers: Google Places, Yandex Maps and the tabiturient.ru
// leaderboard.
//
// A fetch has three results. A candidate with a nil error means data was
// found. A nil candidate with a nil error means the provider had nothing
// for the university. A *FetchError means the attempt itself failed.
package source

import (
	"context"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/ratings-cli/internal/model"
)

// Fetcher looks up one university at a provider.
type Fetcher interface {
	Source() model.Source
	// Available reports whether the provider is configured. An unavailable
	// fetcher returns no data without making calls.
	Available() bool
	FetchSingle(ctx context.Context, u model.University) (*model.Candidate, error)
}

// BatchFetcher can also pull the provider's whole dataset in one call.
type BatchFetcher interface {
	Fetcher
	FetchAll(ctx context.Context) ([]model.Candidate, error)
}

// searchRadiusMeters biases place searches toward the geocoded address.
const searchRadiusMeters = 5000

// newPoint builds a lon/lat point.
func newPoint(lon, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}

// addressQuery is the geocoder query for the university's street address:
// "city, address", or whichever of the two is set.
func addressQuery(u model.University) string {
	city, addr := strings.TrimSpace(u.City), strings.TrimSpace(u.Address)
	switch {
	case city != "" && addr != "":
		return city + ", " + addr
	case addr != "":
		return addr
	default:
		return city
	}
}

// nameQuery is the geocoder fallback query: "name, city".
func nameQuery(u model.University) string {
	name, city := strings.TrimSpace(u.Name), strings.TrimSpace(u.City)
	if city == "" {
		return name
	}
	return name + ", " + city
}

// placeInput is the free-text place query: "name [city] [address]".
func placeInput(u model.University) string {
	parts := []string{strings.TrimSpace(u.Name)}
	for _, p := range []string{u.City, u.Address} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
