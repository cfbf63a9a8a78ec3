package source

import (
	"context"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/pkg/google"
)

// GoogleFetcher resolves a university through the Google Maps chain:
// geocode the address, Find Place biased toward it, fall back to Text
// Search, and read Place Details when the rating is missing.
type GoogleFetcher struct {
	client google.Client
}

// NewGoogleFetcher wraps client. A nil client means no API key is
// configured.
func NewGoogleFetcher(client google.Client) *GoogleFetcher {
	return &GoogleFetcher{client: client}
}

// Source implements Fetcher.
func (g *GoogleFetcher) Source() model.Source { return model.SourceGoogle }

// Available implements Fetcher.
func (g *GoogleFetcher) Available() bool { return g.client != nil }

// FetchSingle implements Fetcher. A result needs both a place id and a rating.
func (g *GoogleFetcher) FetchSingle(ctx context.Context, u model.University) (*model.Candidate, error) {
	if !g.Available() {
		return nil, nil
	}
	log := zap.L().With(zap.String("source", string(model.SourceGoogle)), zap.Int64("university_id", u.ID))

	center := g.locate(ctx, u, log)
	input := placeInput(u)

	findReq := google.FindPlaceRequest{Input: input}
	if center != nil {
		findReq.LocationBias = &google.Circle{Center: latLng(center), RadiusMeters: searchRadiusMeters}
	}
	found, err := g.client.FindPlace(ctx, findReq)
	if err != nil {
		return nil, classify(model.SourceGoogle, err)
	}

	place, ok := found.First()
	if !ok {
		logStatus(log, "find place", found.Status, found.ErrorMessage)
	}

	if place.PlaceID == "" {
		searchReq := google.TextSearchRequest{Query: input}
		if center != nil {
			loc := latLng(center)
			searchReq.Location = &loc
			searchReq.RadiusMeters = searchRadiusMeters
		}
		searched, err := g.client.TextSearch(ctx, searchReq)
		if err != nil {
			return nil, classify(model.SourceGoogle, err)
		}
		if place, ok = searched.First(); !ok {
			logStatus(log, "text search", searched.Status, searched.ErrorMessage)
		}
	}

	if place.PlaceID != "" && place.Rating == nil {
		details, err := g.client.Details(ctx, place.PlaceID)
		if err != nil {
			return nil, classify(model.SourceGoogle, err)
		}
		if details.Status == google.StatusOK {
			place.Rating = details.Result.Rating
			place.UserRatingsTotal = details.Result.UserRatingsTotal
			if place.Name == "" {
				place.Name = details.Result.Name
			}
		} else {
			logStatus(log, "place details", details.Status, details.ErrorMessage)
		}
	}

	if place.PlaceID == "" || place.Rating == nil {
		return nil, nil
	}

	name := place.Name
	if name == "" {
		name = u.Name
	}
	return &model.Candidate{
		Source:       model.SourceGoogle,
		Name:         name,
		Rating:       place.Rating,
		ReviewsCount: place.UserRatingsTotal,
		PlaceID:      place.PlaceID,
	}, nil
}

// locate geocodes the university's address, then its name. Failures only
// cost the location bias.
func (g *GoogleFetcher) locate(ctx context.Context, u model.University, log *zap.Logger) *geom.Point {
	for _, q := range []string{addressQuery(u), nameQuery(u)} {
		if q == "" {
			continue
		}
		resp, err := g.client.Geocode(ctx, q)
		if err != nil {
			log.Debug("source: geocode failed", zap.String("query", q), zap.Error(err))
			continue
		}
		if loc, ok := resp.Location(); ok {
			log.Debug("source: geocoded", zap.String("query", q), zap.Float64("lat", loc.Lat), zap.Float64("lng", loc.Lng))
			return newPoint(loc.Lng, loc.Lat)
		}
	}
	return nil
}

func latLng(p *geom.Point) google.LatLng {
	return google.LatLng{Lat: p.Y(), Lng: p.X()}
}

func logStatus(log *zap.Logger, call, status, message string) {
	if status == "" || status == google.StatusOK || status == google.StatusZeroResults {
		log.Debug("source: no result", zap.String("call", call), zap.String("status", status))
		return
	}
	log.Warn("source: api returned non-OK status",
		zap.String("call", call),
		zap.String("status", status),
		zap.String("error_message", message),
	)
}
