// Package google is a small client for the Google Maps Platform web
// services used to look up a place's rating: Geocoding, Find Place, Text
// Search and Place Details.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://maps.googleapis.com/maps/api"
	defaultLanguage = "ru"

	placeFields   = "place_id,rating,user_ratings_total,name,geometry"
	detailsFields = "rating,user_ratings_total,place_id,name"
)

// Response statuses returned in the body of every Maps web service call.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
	StatusDenied      = "REQUEST_DENIED"
)

// Client performs Google Maps Platform operations.
type Client interface {
	Geocode(ctx context.Context, address string) (*GeocodeResponse, error)
	FindPlace(ctx context.Context, req FindPlaceRequest) (*PlacesResponse, error)
	TextSearch(ctx context.Context, req TextSearchRequest) (*PlacesResponse, error)
	Details(ctx context.Context, placeID string) (*DetailsResponse, error)
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// Geometry holds a result's location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// GeocodeResponse is the response from the Geocoding API.
type GeocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []GeocodeResult `json:"results"`
}

// GeocodeResult is one geocoded address.
type GeocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
}

// Location returns the first result's coordinates when the call succeeded.
func (r *GeocodeResponse) Location() (LatLng, bool) {
	if r == nil || r.Status != StatusOK || len(r.Results) == 0 {
		return LatLng{}, false
	}
	return r.Results[0].Geometry.Location, true
}

// Place is a place candidate. Rating is nil when the place has no rating.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Geometry         Geometry `json:"geometry"`
}

// PlacesResponse is the response of Find Place and Text Search. Find Place
// fills Candidates, Text Search fills Results.
type PlacesResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Candidates   []Place `json:"candidates,omitempty"`
	Results      []Place `json:"results,omitempty"`
}

// First returns the top place when the call succeeded.
func (r *PlacesResponse) First() (Place, bool) {
	if r == nil || r.Status != StatusOK {
		return Place{}, false
	}
	switch {
	case len(r.Candidates) > 0:
		return r.Candidates[0], true
	case len(r.Results) > 0:
		return r.Results[0], true
	}
	return Place{}, false
}

// DetailsResponse is the response from Place Details.
type DetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Result       Place  `json:"result"`
}

// Circle biases a search toward a radius around a point.
type Circle struct {
	Center       LatLng
	RadiusMeters int
}

func (c Circle) String() string {
	return fmt.Sprintf("circle:%d@%s", c.RadiusMeters, c.Center)
}

// FindPlaceRequest is a Find Place from Text query.
type FindPlaceRequest struct {
	Input        string
	LocationBias *Circle
}

// TextSearchRequest is a Text Search query.
type TextSearchRequest struct {
	Query        string
	Location     *LatLng
	RadiusMeters int
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLanguage sets the response language.
func WithLanguage(lang string) Option {
	return func(c *httpClient) {
		c.language = lang
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
	apiKey   string
	baseURL  string
	language string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a Google Maps Platform client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		language: defaultLanguage,
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

func (c *httpClient) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	params := url.Values{"address": {address}}
	var out GeocodeResponse
	if err := c.get(ctx, "/geocode/json", params, &out); err != nil {
		return nil, eris.Wrap(err, "google: geocode")
	}
	return &out, nil
}

func (c *httpClient) FindPlace(ctx context.Context, req FindPlaceRequest) (*PlacesResponse, error) {
	params := url.Values{
		"input":     {req.Input},
		"inputtype": {"textquery"},
		"fields":    {placeFields},
	}
	if req.LocationBias != nil {
		params.Set("locationbias", req.LocationBias.String())
	}
	var out PlacesResponse
	if err := c.get(ctx, "/place/findplacefromtext/json", params, &out); err != nil {
		return nil, eris.Wrap(err, "google: find place")
	}
	return &out, nil
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*PlacesResponse, error) {
	params := url.Values{"query": {req.Query}}
	if req.Location != nil {
		params.Set("location", req.Location.String())
		params.Set("radius", strconv.Itoa(req.RadiusMeters))
	}
	var out PlacesResponse
	if err := c.get(ctx, "/place/textsearch/json", params, &out); err != nil {
		return nil, eris.Wrap(err, "google: text search")
	}
	return &out, nil
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*DetailsResponse, error) {
	params := url.Values{
		"place_id": {placeID},
		"fields":   {detailsFields},
	}
	var out DetailsResponse
	if err := c.get(ctx, "/place/details/json", params, &out); err != nil {
		return nil, eris.Wrap(err, "google: place details")
	}
	return &out, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit")
	}

	params.Set("key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
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
