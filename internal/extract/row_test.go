package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratingTable = `<html><body>
<table>
  <tr><th>Место</th><th>Вуз</th><th>Балл</th><th>Класс</th></tr>
  <tr><td>1</td><td>МГУ имени Ломоносова</td><td>158.75</td><td>A+</td></tr>
  <tr><td>#5</td><td>Московский государственный университет</td><td>140.1</td><td>A</td></tr>
  <tr><td>3</td><td>Томский политехнический</td><td>150</td><td>B</td></tr>
  <tr><td>Уральский федеральный</td><td>нет данных</td><td>-</td></tr>
  <tr><td>Уральский федеральный</td><td>12</td><td>C</td></tr>
  <tr><td>Short</td><td>9</td></tr>
  <tr><td></td><td>Other</td><td>77</td></tr>
</table>
</body></html>`

func TestFindRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantNil    bool
		wantName   string
		wantRank   *int
		wantRating *float64
		wantCat    string
	}{
		{
			name:       "case-insensitive exact",
			query:      "мгу имени ломоносова",
			wantName:   "МГУ имени Ломоносова",
			wantRank:   intp(1),
			wantRating: floatp(158.75),
			wantCat:    "A+",
		},
		{
			name:       "cell contained in name",
			query:      "Московский государственный университет имени М.В. Ломоносова",
			wantName:   "Московский государственный университет",
			wantRank:   intp(5),
			wantRating: floatp(140.1),
			wantCat:    "A",
		},
		{
			name:       "bare integer after rank is rating",
			query:      "Томский политехнический",
			wantName:   "Томский политехнический",
			wantRank:   intp(3),
			wantRating: floatp(150),
			wantCat:    "B",
		},
		{
			name:     "row without numbers is passed over",
			query:    "Уральский федеральный",
			wantName: "Уральский федеральный",
			wantRank: intp(12),
			wantCat:  "C",
		},
		{name: "rows under three cells ignored", query: "Short", wantNil: true},
		{name: "empty cells never match", query: "Nowhere University", wantNil: true},
		{name: "blank query", query: "  ", wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, err := FindRow(strings.NewReader(ratingTable), tt.query)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, rec)
				return
			}
			require.NotNil(t, rec)
			assert.Equal(t, tt.wantName, rec.Name)
			assert.Equal(t, tt.wantRank, rec.Rank)
			assert.Equal(t, tt.wantRating, rec.Rating)
			assert.Equal(t, tt.wantCat, rec.Category)
		})
	}
}

func TestFindRow_DataCellsNeverMatchName(t *testing.T) {
	page := `<table>
  <tr><td>1</td><td>Other Institute</td><td>120.5</td><td>A</td></tr>
  <tr><td>2</td><td>Moscow State University</td><td>150.2</td><td>A+</td></tr>
</table>`

	rec, err := FindRow(strings.NewReader(page), "Moscow State University")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Moscow State University", rec.Name)
	assert.Equal(t, intp(2), rec.Rank)
	assert.Equal(t, floatp(150.2), rec.Rating)
	assert.Equal(t, "A+", rec.Category)
}

func TestFindRow_NumericQueryMatchesNothing(t *testing.T) {
	page := `<table><tr><td>#7</td><td>Some University</td><td>150</td><td>B</td></tr></table>`

	rec, err := FindRow(strings.NewReader(page), "Some University #7")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Some University", rec.Name, "only the name cell may match")

	rec, err = FindRow(strings.NewReader(page), "150")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestNameLike(t *testing.T) {
	for _, s := range []string{"", "X", "#12", "12", "150.2", "A", "A+", "B-"} {
		assert.False(t, nameLike(s), "%q", s)
	}
	for _, s := range []string{"MSU", "Томский политехнический", "A&M"} {
		assert.True(t, nameLike(s), "%q", s)
	}
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
