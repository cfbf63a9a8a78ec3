package source

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/pkg/yandex"
	"github.com/sells-group/ratings-cli/pkg/yandex/mocks"
)

func geocodeAt(pos string) *yandex.GeocodeResponse {
	var r yandex.GeocodeResponse
	if pos != "" {
		var m yandex.FeatureMember
		m.GeoObject.Point.Pos = pos
		r.Response.GeoObjectCollection.FeatureMember = []yandex.FeatureMember{m}
	}
	return &r
}

func orgResult(id string, rating *float64, reviews int) *yandex.SearchResponse {
	f := yandex.Feature{}
	f.Properties.Name = "ТГУ"
	f.Properties.CompanyMetaData = yandex.CompanyMetaData{ID: id, Name: "Томский государственный университет", Rating: rating, Reviews: reviews}
	return &yandex.SearchResponse{Features: []yandex.Feature{f}}
}

func tsu() model.University {
	return model.University{ID: 3, Name: "ТГУ", City: "Томск", Address: "проспект Ленина, 36"}
}

func TestYandexFetcher_Unavailable(t *testing.T) {
	f := NewYandexFetcher(nil)
	assert.False(t, f.Available())
	assert.Equal(t, model.SourceYandex, f.Source())
	c, err := f.FetchSingle(context.Background(), tsu())
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestYandexFetcher_Found(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockClient(t)
	client.On("Geocode", ctx, "Томск, проспект Ленина, 36").Return(geocodeAt("84.948197 56.469709"), nil)
	client.On("Search", ctx, yandex.SearchRequest{Text: "ТГУ", Lon: 84.948197, Lat: 56.469709}).
		Return(orgResult("1017345206", model.Float64Ptr(4.6), 812), nil)

	c, err := NewYandexFetcher(client).FetchSingle(ctx, tsu())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, model.SourceYandex, c.Source)
	assert.Equal(t, "1017345206", c.PlaceID)
	assert.Equal(t, "Томский государственный университет", c.Name)
	assert.InDelta(t, 4.6, *c.Rating, 1e-9)
	assert.Equal(t, 812, c.ReviewsCount)
}

func TestYandexFetcher_NameFallbackAndLookup(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockClient(t)
	client.On("Geocode", ctx, "Томск, проспект Ленина, 36").Return(geocodeAt(""), nil)
	client.On("Geocode", ctx, "ТГУ, Томск").Return(geocodeAt("84.95 56.47"), nil)
	client.On("Search", ctx, mock.Anything).Return(orgResult("42", nil, 0), nil)
	client.On("Lookup", ctx, "42").Return(orgResult("42", model.Float64Ptr(4.9), 10), nil)

	c, err := NewYandexFetcher(client).FetchSingle(ctx, tsu())
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.InDelta(t, 4.9, *c.Rating, 1e-9)
	assert.Equal(t, 10, c.ReviewsCount)
}

func TestYandexFetcher_NoCoordinates(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockClient(t)
	client.On("Geocode", ctx, mock.Anything).Return(geocodeAt(""), nil)

	c, err := NewYandexFetcher(client).FetchSingle(ctx, tsu())
	require.NoError(t, err)
	assert.Nil(t, c)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestYandexFetcher_NoRating(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockClient(t)
	client.On("Geocode", ctx, mock.Anything).Return(geocodeAt("1 2"), nil)
	client.On("Search", ctx, mock.Anything).Return(orgResult("", nil, 0), nil)

	c, err := NewYandexFetcher(client).FetchSingle(ctx, tsu())
	require.NoError(t, err)
	assert.Nil(t, c)
	client.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestYandexFetcher_GeocoderDown(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockClient(t)
	client.On("Geocode", ctx, mock.Anything).Return(nil, eris.New("yandex: geocode: send request: connection reset by peer"))

	c, err := NewYandexFetcher(client).FetchSingle(ctx, tsu())
	assert.Nil(t, c)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
}

func TestYandexFetcher_MalformedSearchIsParse(t *testing.T) {
	ctx := context.Background()
	var syntaxErr *json.SyntaxError
	decodeErr := json.Unmarshal([]byte(`{"features":`), &struct{}{})
	require.ErrorAs(t, decodeErr, &syntaxErr)

	client := mocks.NewMockClient(t)
	client.On("Geocode", ctx, mock.Anything).Return(geocodeAt("1 2"), nil)
	client.On("Search", ctx, mock.Anything).Return(nil, eris.Wrap(decodeErr, "yandex: search: unmarshal response"))

	_, err := NewYandexFetcher(client).FetchSingle(ctx, tsu())
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindParse, kind)
}
