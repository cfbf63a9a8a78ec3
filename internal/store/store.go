// Package store persists universities, their programs and the run history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/internal/similarity"
)

// UniversityFilter narrows ListUniversities. Zero values mean no filter.
type UniversityFilter struct {
	ID    int64
	Limit int
}

// Store defines the persistence interface for the reconciliation pipeline.
type Store interface {
	// Universities
	ListUniversities(ctx context.Context, filter UniversityFilter) ([]model.University, error)
	GetUniversity(ctx context.Context, id int64) (*model.University, error)
	CreateUniversity(ctx context.Context, u *model.University) error
	UpdateFields(ctx context.Context, id int64, fields model.FieldMap) error

	// Name search, each returning nil when nothing matches
	FindByExactName(ctx context.Context, name string) (*model.University, error)
	FindByNameContains(ctx context.Context, fragment string) (*model.University, error)
	FindByNamePrefix(ctx context.Context, prefix string) (*model.University, error)

	// Programs
	SavePrograms(ctx context.Context, programs []model.Program) (int64, error)

	// Runs
	RecordRun(ctx context.Context, run *model.Run) error
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultRunsLimit = 20

const universityColumns = `id, name, short_name, city, address,
	google_rating, google_reviews_count, google_place_id,
	yandex_rating, yandex_reviews_count, yandex_place_id,
	tabiturient_rating, tabiturient_rank, tabiturient_category,
	updated_at`

const runColumns = `id, source, mode, updated, failed, skipped, not_found, total, started_at, finished_at`

var programColumns = []string{"university_id", "name", "faculty", "degree", "duration", "tuition", "description"}

type scannable interface {
	Scan(dest ...any) error
}

func scanUniversity(row scannable) (*model.University, error) {
	var u model.University
	err := row.Scan(
		&u.ID, &u.Name, &u.ShortName, &u.City, &u.Address,
		&u.Google.Rating, &u.Google.ReviewsCount, &u.Google.PlaceID,
		&u.Yandex.Rating, &u.Yandex.ReviewsCount, &u.Yandex.PlaceID,
		&u.Tabiturient.Rating, &u.Tabiturient.Rank, &u.Tabiturient.Category,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	err := row.Scan(&r.ID, &r.Source, &r.Mode,
		&r.Summary.Updated, &r.Summary.Failed, &r.Summary.Skipped, &r.Summary.NotFound, &r.Summary.Total,
		&r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

// updateStatement builds a single UPDATE covering one validated source
// group plus updated_at. placeholder renders the n-th bind parameter.
func updateStatement(id int64, fields model.FieldMap, now time.Time, placeholder func(n int) string) (string, []any, error) {
	if _, err := model.ValidateFieldMap(fields); err != nil {
		return "", nil, err
	}

	keys := fields.Keys()
	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+2)
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = %s", k, placeholder(i+1)))
		args = append(args, dbValue(fields[k]))
	}
	sets = append(sets, "updated_at = "+placeholder(len(keys)+1))
	args = append(args, now)
	args = append(args, id)

	query := fmt.Sprintf("UPDATE universities SET %s WHERE id = %s",
		strings.Join(sets, ", "), placeholder(len(keys)+2))
	return query, args, nil
}

// likeEscaper escapes LIKE wildcards; patterns use ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(similarity.Fold(s)) + "%"
}

func prefixPattern(s string) string {
	return likeEscaper.Replace(similarity.Fold(s)) + "%"
}

// uniquePrograms drops programs repeating an earlier (university, name,
// faculty) key so one bulk write never touches a row twice.
func uniquePrograms(programs []model.Program) []model.Program {
	type key struct {
		id            int64
		name, faculty string
	}
	seen := make(map[key]bool, len(programs))
	out := make([]model.Program, 0, len(programs))
	for _, p := range programs {
		k := key{p.UniversityID, p.Name, p.Faculty}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

func programRow(p model.Program) []any {
	return []any{p.UniversityID, p.Name, p.Faculty, p.Degree, p.Duration, dbValue(p.Tuition), p.Description}
}

// dbValue dereferences the optional field types so both drivers see a plain
// value or NULL.
func dbValue(v any) any {
	switch p := v.(type) {
	case *float64:
		if p == nil {
			return nil
		}
		return *p
	case *int:
		if p == nil {
			return nil
		}
		return *p
	case *string:
		if p == nil {
			return nil
		}
		return *p
	default:
		return v
	}
}

func runsLimit(limit int) int {
	if limit <= 0 {
		return defaultRunsLimit
	}
	return limit
}
