package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/internal/similarity"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS universities (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	name                 TEXT NOT NULL,
	name_folded          TEXT NOT NULL,
	short_name           TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	address              TEXT NOT NULL DEFAULT '',
	google_rating        REAL,
	google_reviews_count INTEGER NOT NULL DEFAULT 0,
	google_place_id      TEXT NOT NULL DEFAULT '',
	yandex_rating        REAL,
	yandex_reviews_count INTEGER NOT NULL DEFAULT 0,
	yandex_place_id      TEXT NOT NULL DEFAULT '',
	tabiturient_rating   REAL,
	tabiturient_rank     INTEGER,
	tabiturient_category TEXT,
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS programs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	university_id INTEGER NOT NULL REFERENCES universities(id),
	name          TEXT NOT NULL,
	faculty       TEXT NOT NULL DEFAULT '',
	degree        TEXT NOT NULL DEFAULT '',
	duration      TEXT NOT NULL DEFAULT '',
	tuition       REAL,
	description   TEXT NOT NULL DEFAULT '',
	UNIQUE (university_id, name, faculty)
);

CREATE TABLE IF NOT EXISTS reconcile_runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	mode        TEXT NOT NULL,
	updated     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	not_found   INTEGER NOT NULL DEFAULT 0,
	total       INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_universities_name ON universities(name);
CREATE INDEX IF NOT EXISTS idx_universities_name_folded ON universities(name_folded);
CREATE INDEX IF NOT EXISTS idx_programs_university_id ON programs(university_id);
CREATE INDEX IF NOT EXISTS idx_reconcile_runs_started_at ON reconcile_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListUniversities(ctx context.Context, filter UniversityFilter) ([]model.University, error) {
	query := `SELECT ` + universityColumns + ` FROM universities`
	var args []any
	if filter.ID > 0 {
		query += ` WHERE id = ?`
		args = append(args, filter.ID)
	}
	query += ` ORDER BY name, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list universities")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.University
	for rows.Next() {
		u, err := scanUniversity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan university")
		}
		out = append(out, *u)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list universities iterate")
}

func (s *SQLiteStore) GetUniversity(ctx context.Context, id int64) (*model.University, error) {
	return s.queryUniversity(ctx, "get university",
		`SELECT `+universityColumns+` FROM universities WHERE id = ?`, id)
}

func (s *SQLiteStore) CreateUniversity(ctx context.Context, u *model.University) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO universities (name, name_folded, short_name, city, address,
			google_rating, google_reviews_count, google_place_id,
			yandex_rating, yandex_reviews_count, yandex_place_id,
			tabiturient_rating, tabiturient_rank, tabiturient_category, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, similarity.Fold(u.Name), u.ShortName, u.City, u.Address,
		dbValue(u.Google.Rating), u.Google.ReviewsCount, u.Google.PlaceID,
		dbValue(u.Yandex.Rating), u.Yandex.ReviewsCount, u.Yandex.PlaceID,
		dbValue(u.Tabiturient.Rating), dbValue(u.Tabiturient.Rank), dbValue(u.Tabiturient.Category), now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert university")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}
	u.ID = id
	u.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateFields(ctx context.Context, id int64, fields model.FieldMap) error {
	query, args, err := updateStatement(id, fields, time.Now().UTC(), func(int) string { return "?" })
	if err != nil {
		return eris.Wrapf(err, "sqlite: update university %d", id)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update university %d", id)
	}
	return checkRowsAffected(res, "university", fmt.Sprint(id))
}

func (s *SQLiteStore) FindByExactName(ctx context.Context, name string) (*model.University, error) {
	return s.queryUniversity(ctx, "find by exact name",
		`SELECT `+universityColumns+` FROM universities WHERE name = ? ORDER BY name, id LIMIT 1`, name)
}

func (s *SQLiteStore) FindByNameContains(ctx context.Context, fragment string) (*model.University, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, nil
	}
	return s.queryUniversity(ctx, "find by name fragment",
		`SELECT `+universityColumns+` FROM universities WHERE name_folded LIKE ? ESCAPE '\' ORDER BY name, id LIMIT 1`,
		containsPattern(fragment))
}

func (s *SQLiteStore) FindByNamePrefix(ctx context.Context, prefix string) (*model.University, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, nil
	}
	return s.queryUniversity(ctx, "find by name prefix",
		`SELECT `+universityColumns+` FROM universities WHERE name_folded LIKE ? ESCAPE '\' ORDER BY name, id LIMIT 1`,
		prefixPattern(prefix))
}

func (s *SQLiteStore) queryUniversity(ctx context.Context, action, query string, args ...any) (*model.University, error) {
	u, err := scanUniversity(s.db.QueryRowContext(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", action)
	}
	return u, nil
}

func (s *SQLiteStore) SavePrograms(ctx context.Context, programs []model.Program) (int64, error) {
	programs = uniquePrograms(programs)
	if len(programs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save programs")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO programs (`+strings.Join(programColumns, ", ")+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (university_id, name, faculty) DO UPDATE SET
			degree = excluded.degree,
			duration = excluded.duration,
			tuition = excluded.tuition,
			description = excluded.description`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare save programs")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, p := range programs {
		res, err := stmt.ExecContext(ctx, programRow(p)...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: save program %q", p.Name)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit save programs")
	}
	return n, nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reconcile_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Source), string(run.Mode),
		run.Summary.Updated, run.Summary.Failed, run.Summary.Skipped, run.Summary.NotFound, run.Summary.Total,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: record run %s", run.ID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM reconcile_runs ORDER BY started_at DESC LIMIT ?`,
		runsLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
