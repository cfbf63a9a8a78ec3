// Package yandex is a client for the Yandex Maps HTTP Geocoder and the
// organization search API.
package yandex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultGeocoderURL = "https://geocode-maps.yandex.ru/1.x/"
	defaultSearchURL   = "https://search-maps.yandex.ru/v1/"
	defaultLang        = "ru_RU"

	// DefaultSpan is the search window around the bias point, in degrees.
	DefaultSpan = "0.1,0.1"
)

// Client performs Yandex Maps operations.
type Client interface {
	Geocode(ctx context.Context, query string) (*GeocodeResponse, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	Lookup(ctx context.Context, orgID string) (*SearchResponse, error)
}

// GeocodeResponse is the JSON response of the HTTP Geocoder.
type GeocodeResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []FeatureMember `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// FeatureMember wraps one geocoder hit.
type FeatureMember struct {
	GeoObject GeoObject `json:"GeoObject"`
}

// GeoObject is a geocoded toponym.
type GeoObject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Point       struct {
		Pos string `json:"pos"` // "lon lat"
	} `json:"Point"`
}

// Position returns the first hit's longitude and latitude.
func (r *GeocodeResponse) Position() (lon, lat float64, ok bool) {
	if r == nil {
		return 0, 0, false
	}
	members := r.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return 0, 0, false
	}
	parts := strings.Fields(members[0].GeoObject.Point.Pos)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lon, errLon := strconv.ParseFloat(parts[0], 64)
	lat, errLat := strconv.ParseFloat(parts[1], 64)
	if errLon != nil || errLat != nil {
		return 0, 0, false
	}
	return lon, lat, true
}

// SearchRequest is an organization search biased toward a point.
type SearchRequest struct {
	Text string
	Lon  float64
	Lat  float64
	Span string // default DefaultSpan
}

// SearchResponse is the GeoJSON response of the organization search.
type SearchResponse struct {
	Features []Feature `json:"features"`
}

// Feature is one organization.
type Feature struct {
	ID         string `json:"id,omitempty"`
	Properties struct {
		Name            string          `json:"name"`
		Description     string          `json:"description"`
		CompanyMetaData CompanyMetaData `json:"CompanyMetaData"`
	} `json:"properties"`
}

// CompanyMetaData carries an organization's identity and rating.
type CompanyMetaData struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Rating  *float64 `json:"rating,omitempty"`
	Reviews int      `json:"reviews,omitempty"`
}

// OrgID returns the organization id, preferring the feature id.
func (f Feature) OrgID() string {
	if f.ID != "" {
		return f.ID
	}
	return f.Properties.CompanyMetaData.ID
}

// First returns the top organization, if any.
func (r *SearchResponse) First() (Feature, bool) {
	if r == nil || len(r.Features) == 0 {
		return Feature{}, false
	}
	return r.Features[0], true
}

// Option configures the client.
type Option func(*httpClient)

// WithGeocoderURL overrides the geocoder endpoint.
func WithGeocoderURL(u string) Option {
	return func(c *httpClient) {
		c.geocoderURL = u
	}
}

// WithSearchURL overrides the organization search endpoint.
func WithSearchURL(u string) Option {
	return func(c *httpClient) {
		c.searchURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second. Zero or negative disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

type httpClient struct {
	apiKey      string
	geocoderURL string
	searchURL   string
	http        *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a Yandex Maps client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:      apiKey,
		geocoderURL: defaultGeocoderURL,
		searchURL:   defaultSearchURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Geocode(ctx context.Context, query string) (*GeocodeResponse, error) {
	params := url.Values{
		"geocode": {query},
		"format":  {"json"},
		"results": {"1"},
	}
	var out GeocodeResponse
	if err := c.get(ctx, c.geocoderURL, params, &out); err != nil {
		return nil, eris.Wrap(err, "yandex: geocode")
	}
	return &out, nil
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	span := req.Span
	if span == "" {
		span = DefaultSpan
	}
	params := url.Values{
		"text":    {req.Text},
		"ll":      {formatCoord(req.Lon) + "," + formatCoord(req.Lat)},
		"spn":     {span},
		"type":    {"biz"},
		"lang":    {defaultLang},
		"results": {"1"},
	}
	var out SearchResponse
	if err := c.get(ctx, c.searchURL, params, &out); err != nil {
		return nil, eris.Wrap(err, "yandex: search")
	}
	return &out, nil
}

func (c *httpClient) Lookup(ctx context.Context, orgID string) (*SearchResponse, error) {
	params := url.Values{
		"uri":     {"ymapsbm1://org?oid=" + orgID},
		"lang":    {defaultLang},
		"results": {"1"},
	}
	var out SearchResponse
	if err := c.get(ctx, c.searchURL, params, &out); err != nil {
		return nil, eris.Wrap(err, "yandex: lookup")
	}
	return &out, nil
}

func (c *httpClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit")
	}

	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
