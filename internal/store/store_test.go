package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ratings-cli/internal/model"
)

func TestUpdateStatement(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fields := model.Candidate{
		Source: model.SourceTabiturient, Rating: model.Float64Ptr(150.2), Rank: model.IntPtr(1), Category: "A+",
	}.FieldMap()

	query, args, err := updateStatement(9, fields, now, func(int) string { return "?" })
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE universities SET tabiturient_category = ?, tabiturient_rank = ?, tabiturient_rating = ?, updated_at = ? WHERE id = ?",
		query)
	require.Len(t, args, 5)
	assert.Equal(t, now, args[3])
	assert.Equal(t, int64(9), args[4])
}

func TestUpdateStatement_Invalid(t *testing.T) {
	_, _, err := updateStatement(1, model.FieldMap{"name": "x"}, time.Now(), func(int) string { return "?" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestPatterns(t *testing.T) {
	assert.Equal(t, `%мгу%`, containsPattern("МГУ"))
	assert.Equal(t, `a\_b\%c\\%`, prefixPattern(`A_B%C\`))
}

func TestUniquePrograms(t *testing.T) {
	out := uniquePrograms([]model.Program{
		{UniversityID: 1, Name: "Law"},
		{UniversityID: 1, Name: "Law", Degree: "second"},
		{UniversityID: 1, Name: "Law", Faculty: "Evening"},
		{UniversityID: 2, Name: "Law"},
	})
	require.Len(t, out, 3)
	assert.Empty(t, out[0].Degree)
}

func TestRunsLimit(t *testing.T) {
	assert.Equal(t, defaultRunsLimit, runsLimit(0))
	assert.Equal(t, defaultRunsLimit, runsLimit(-3))
	assert.Equal(t, 5, runsLimit(5))
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

func TestDBValue(t *testing.T) {
	assert.Nil(t, dbValue((*float64)(nil)))
	assert.Nil(t, dbValue((*int)(nil)))
	assert.Nil(t, dbValue((*string)(nil)))
	assert.Equal(t, 4.5, dbValue(model.Float64Ptr(4.5)))
	assert.Equal(t, 3, dbValue(model.IntPtr(3)))
	assert.Equal(t, "A", dbValue(model.StringPtr("A")))
	assert.Equal(t, "plain", dbValue("plain"))
}
