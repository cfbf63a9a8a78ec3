package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ratings-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedUniversities(t *testing.T, st Store, names ...string) []model.University {
	t.Helper()
	out := make([]model.University, 0, len(names))
	for _, n := range names {
		u := model.University{Name: n, City: "Москва"}
		require.NoError(t, st.CreateUniversity(context.Background(), &u))
		out = append(out, u)
	}
	return out
}

// --- Universities ---

func TestSQLite_CreateAndGetUniversity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := model.University{Name: "Московский государственный университет", ShortName: "МГУ", Address: "Ленинские горы, 1"}
	require.NoError(t, st.CreateUniversity(ctx, &u))
	assert.NotZero(t, u.ID)

	got, err := st.GetUniversity(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, "МГУ", got.ShortName)
	assert.Equal(t, "Ленинские горы, 1", got.Address)
	assert.Nil(t, got.Google.Rating)
	assert.Nil(t, got.Tabiturient.Rank)
	assert.Nil(t, got.Tabiturient.Category)
}

func TestSQLite_GetUniversity_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetUniversity(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ListUniversities(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	unis := seedUniversities(t, st, "Tomsk State University", "Kazan Federal University", "Altai State University")

	all, err := st.ListUniversities(ctx, UniversityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Altai State University", all[0].Name)
	assert.Equal(t, "Kazan Federal University", all[1].Name)
	assert.Equal(t, "Tomsk State University", all[2].Name)

	limited, err := st.ListUniversities(ctx, UniversityFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	one, err := st.ListUniversities(ctx, UniversityFilter{ID: unis[0].ID})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Tomsk State University", one[0].Name)
}

func TestSQLite_UpdateFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	u := seedUniversities(t, st, "Tomsk State University")[0]

	err := st.UpdateFields(ctx, u.ID, model.FieldMap{
		model.FieldGoogleRating:       model.Float64Ptr(4.6),
		model.FieldGoogleReviewsCount: 812,
		model.FieldGooglePlaceID:      "ChIJ-tsu",
	})
	require.NoError(t, err)

	err = st.UpdateFields(ctx, u.ID, model.FieldMap{
		model.FieldTabiturientRating:   model.Float64Ptr(140.5),
		model.FieldTabiturientRank:     model.IntPtr(12),
		model.FieldTabiturientCategory: model.StringPtr("A+"),
	})
	require.NoError(t, err)

	got, err := st.GetUniversity(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Google.Rating)
	assert.InDelta(t, 4.6, *got.Google.Rating, 1e-9)
	assert.Equal(t, 812, got.Google.ReviewsCount)
	assert.Equal(t, "ChIJ-tsu", got.Google.PlaceID)
	assert.True(t, got.HasResult(model.SourceGoogle))
	assert.True(t, got.HasResult(model.SourceTabiturient))
	assert.Equal(t, "A+", *got.Tabiturient.Category)
	assert.False(t, got.HasResult(model.SourceYandex))
}

func TestSQLite_UpdateFields_NullsClearGroup(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	u := seedUniversities(t, st, "Tomsk State University")[0]

	require.NoError(t, st.UpdateFields(ctx, u.ID, model.Candidate{
		Source: model.SourceTabiturient, Rating: model.Float64Ptr(120), Rank: model.IntPtr(30),
	}.FieldMap()))

	got, err := st.GetUniversity(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Tabiturient.Category)
	assert.Equal(t, 30, *got.Tabiturient.Rank)
}

func TestSQLite_UpdateFields_RejectsPartialGroup(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	u := seedUniversities(t, st, "Tomsk State University")[0]

	err := st.UpdateFields(ctx, u.ID, model.FieldMap{model.FieldGoogleRating: model.Float64Ptr(4.1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partial google update")

	err = st.UpdateFields(ctx, u.ID, model.FieldMap{
		model.FieldGoogleRating:       model.Float64Ptr(4.1),
		model.FieldGoogleReviewsCount: 3,
		model.FieldGooglePlaceID:      "x",
		model.FieldYandexRating:       model.Float64Ptr(4.0),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cross-source")

	got, err := st.GetUniversity(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Google.Rating, "rejected updates must not touch the row")
}

func TestSQLite_UpdateFields_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateFields(context.Background(), 99, model.Candidate{
		Source: model.SourceYandex, Rating: model.Float64Ptr(4.2), PlaceID: "1",
	}.FieldMap())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "university not found: 99")
}

// --- Name search ---

func TestSQLite_FindByName(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	seedUniversities(t, st, "Национальный исследовательский Томский государственный университет", "100% Online_University")

	u, err := st.FindByExactName(ctx, "100% Online_University")
	require.NoError(t, err)
	require.NotNil(t, u)

	u, err = st.FindByExactName(ctx, "100% online_university")
	require.NoError(t, err)
	assert.Nil(t, u, "exact search is case-sensitive")

	u, err = st.FindByNameContains(ctx, "ТОМСКИЙ ГОСУДАРСТВЕННЫЙ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Contains(t, u.Name, "Томский")

	u, err = st.FindByNamePrefix(ctx, "национальный исследов")
	require.NoError(t, err)
	require.NotNil(t, u)

	u, err = st.FindByNamePrefix(ctx, "Томский")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSQLite_FindByName_EscapesWildcards(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	seedUniversities(t, st, "Tomsk State University")

	u, err := st.FindByNameContains(ctx, "%")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = st.FindByNamePrefix(ctx, "Tomsk_State")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = st.FindByNameContains(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, u)
}

// --- Programs ---

func TestSQLite_SavePrograms(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	u := seedUniversities(t, st, "Tomsk State University")[0]

	programs := []model.Program{
		{UniversityID: u.ID, Name: "Physics", Faculty: "Science", Tuition: model.Float64Ptr(250000)},
		{UniversityID: u.ID, Name: "Physics", Faculty: "Science", Degree: "dup"},
		{UniversityID: u.ID, Name: "Law"},
	}
	n, err := st.SavePrograms(ctx, programs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = st.SavePrograms(ctx, programs[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "re-saving updates in place")

	n, err = st.SavePrograms(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_SavePrograms_UnknownUniversity(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.SavePrograms(context.Background(), []model.Program{{UniversityID: 404, Name: "Law"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `save program "Law"`)
}

// --- Runs ---

func TestSQLite_RecordAndListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, src := range []model.Source{model.SourceGoogle, model.SourceTabiturient} {
		run := &model.Run{
			ID:         []string{"run-a", "run-b"}[i],
			Source:     src,
			Mode:       model.ModePerEntity,
			Summary:    model.Summary{Updated: i + 1, NotFound: 1, Total: i + 2},
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
			FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Minute),
		}
		require.NoError(t, st.RecordRun(ctx, run))
	}

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, model.SourceTabiturient, runs[0].Source)
	assert.Equal(t, model.ModePerEntity, runs[0].Mode)
	assert.Equal(t, model.Summary{Updated: 2, NotFound: 1, Total: 3}, runs[0].Summary)
	assert.True(t, runs[0].StartedAt.Equal(start.Add(time.Hour)))

	runs, err = st.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
