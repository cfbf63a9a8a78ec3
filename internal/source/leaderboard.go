package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/ratings-cli/internal/extract"
	"github.com/sells-group/ratings-cli/internal/fetcher"
	"github.com/sells-group/ratings-cli/internal/model"
)

// DefaultLeaderboardURL is the public university rating page.
const DefaultLeaderboardURL = "https://tabiturient.ru/globalrating/"

// LeaderboardOptions configures the leaderboard fetcher.
type LeaderboardOptions struct {
	URL     string // default DefaultLeaderboardURL
	Extract extract.LeaderboardOptions
}

// LeaderboardFetcher reads ratings from the tabiturient.ru leaderboard page.
type LeaderboardFetcher struct {
	pages fetcher.Fetcher
	opts  LeaderboardOptions
}

// NewLeaderboardFetcher creates a fetcher that downloads pages through pages.
func NewLeaderboardFetcher(pages fetcher.Fetcher, opts LeaderboardOptions) *LeaderboardFetcher {
	if opts.URL == "" {
		opts.URL = DefaultLeaderboardURL
	}
	if opts.Extract == (extract.LeaderboardOptions{}) {
		opts.Extract = extract.DefaultLeaderboardOptions()
	}
	return &LeaderboardFetcher{pages: pages, opts: opts}
}

// Source implements Fetcher.
func (l *LeaderboardFetcher) Source() model.Source { return model.SourceTabiturient }

// Available implements Fetcher. The page is public.
func (l *LeaderboardFetcher) Available() bool { return true }

// FetchAll implements BatchFetcher. It downloads the page once and returns
// every usable record on it.
func (l *LeaderboardFetcher) FetchAll(ctx context.Context) ([]model.Candidate, error) {
	body, err := l.pages.DownloadPage(ctx, l.opts.URL)
	if err != nil {
		return nil, networkError(model.SourceTabiturient, err)
	}
	defer body.Close() //nolint:errcheck

	records, err := extract.ParseLeaderboard(body, l.opts.Extract)
	if err != nil {
		return nil, parseError(model.SourceTabiturient, err)
	}

	out := make([]model.Candidate, 0, len(records))
	for _, r := range records {
		out = append(out, r.Candidate(model.SourceTabiturient))
	}
	zap.L().Info("source: leaderboard loaded",
		zap.String("url", l.opts.URL),
		zap.Int("records", len(out)),
	)
	return out, nil
}

// FetchSingle implements Fetcher. It downloads the page and looks for the
// row that names the university.
func (l *LeaderboardFetcher) FetchSingle(ctx context.Context, u model.University) (*model.Candidate, error) {
	body, err := l.pages.DownloadPage(ctx, l.opts.URL)
	if err != nil {
		return nil, networkError(model.SourceTabiturient, err)
	}
	defer body.Close() //nolint:errcheck

	rec, err := extract.FindRow(body, u.Name)
	if err != nil {
		return nil, parseError(model.SourceTabiturient, err)
	}
	if rec == nil {
		return nil, nil
	}
	c := rec.Candidate(model.SourceTabiturient)
	return &c, nil
}
