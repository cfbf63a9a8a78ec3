package source

import (
	"context"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/pkg/yandex"
)

// YandexFetcher resolves a university through Yandex Maps: geocode the
// address (or the name), search organizations around that point, and look
// the organization up by id when the search hit carries no rating.
type YandexFetcher struct {
	client yandex.Client
}

// NewYandexFetcher wraps client. A nil client means no API key is
// configured.
func NewYandexFetcher(client yandex.Client) *YandexFetcher {
	return &YandexFetcher{client: client}
}

// Source implements Fetcher.
func (y *YandexFetcher) Source() model.Source { return model.SourceYandex }

// Available implements Fetcher.
func (y *YandexFetcher) Available() bool { return y.client != nil }

// FetchSingle implements Fetcher. Without coordinates there is nothing to
// search around, so the result is no data.
func (y *YandexFetcher) FetchSingle(ctx context.Context, u model.University) (*model.Candidate, error) {
	if !y.Available() {
		return nil, nil
	}
	log := zap.L().With(zap.String("source", string(model.SourceYandex)), zap.Int64("university_id", u.ID))

	point, err := y.locate(ctx, u, log)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, nil
	}

	resp, err := y.client.Search(ctx, yandex.SearchRequest{
		Text: u.Name,
		Lon:  point.X(),
		Lat:  point.Y(),
	})
	if err != nil {
		return nil, classify(model.SourceYandex, err)
	}
	org, ok := resp.First()
	if !ok {
		log.Debug("source: no organization found")
		return nil, nil
	}

	meta := org.Properties.CompanyMetaData
	if meta.Rating == nil && org.OrgID() != "" {
		details, err := y.client.Lookup(ctx, org.OrgID())
		if err != nil {
			return nil, classify(model.SourceYandex, err)
		}
		if d, ok := details.First(); ok {
			meta.Rating = d.Properties.CompanyMetaData.Rating
			meta.Reviews = d.Properties.CompanyMetaData.Reviews
		}
	}
	if meta.Rating == nil {
		return nil, nil
	}

	name := meta.Name
	if name == "" {
		name = org.Properties.Name
	}
	return &model.Candidate{
		Source:       model.SourceYandex,
		Name:         name,
		Rating:       meta.Rating,
		ReviewsCount: meta.Reviews,
		PlaceID:      org.OrgID(),
	}, nil
}

// locate tries the address first and the name second. A geocoder error is
// returned only when no query produced coordinates.
func (y *YandexFetcher) locate(ctx context.Context, u model.University, log *zap.Logger) (*geom.Point, error) {
	var lastErr error
	for _, q := range []string{addressQuery(u), nameQuery(u)} {
		if q == "" {
			continue
		}
		resp, err := y.client.Geocode(ctx, q)
		if err != nil {
			log.Debug("source: geocode failed", zap.String("query", q), zap.Error(err))
			lastErr = err
			continue
		}
		if lon, lat, ok := resp.Position(); ok {
			return newPoint(lon, lat), nil
		}
	}
	if lastErr != nil {
		return nil, classify(model.SourceYandex, lastErr)
	}
	return nil, nil
}
