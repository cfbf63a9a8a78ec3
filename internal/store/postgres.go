package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ratings-cli/internal/db"
	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/internal/similarity"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists the per-entity queries a reconciliation run
// issues for every university.
var preparedStatements = map[string]string{
	"get_university":     `SELECT ` + universityColumns + ` FROM universities WHERE id = $1`,
	"find_by_exact_name": `SELECT ` + universityColumns + ` FROM universities WHERE name = $1 ORDER BY name, id LIMIT 1`,
	"find_by_name_like":  `SELECT ` + universityColumns + ` FROM universities WHERE name_folded LIKE $1 ESCAPE '\' ORDER BY name, id LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS universities (
	id                   BIGSERIAL PRIMARY KEY,
	name                 TEXT NOT NULL,
	name_folded          TEXT NOT NULL,
	short_name           TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	address              TEXT NOT NULL DEFAULT '',
	google_rating        DOUBLE PRECISION,
	google_reviews_count INTEGER NOT NULL DEFAULT 0,
	google_place_id      TEXT NOT NULL DEFAULT '',
	yandex_rating        DOUBLE PRECISION,
	yandex_reviews_count INTEGER NOT NULL DEFAULT 0,
	yandex_place_id      TEXT NOT NULL DEFAULT '',
	tabiturient_rating   DOUBLE PRECISION,
	tabiturient_rank     INTEGER,
	tabiturient_category TEXT,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS programs (
	id            BIGSERIAL PRIMARY KEY,
	university_id BIGINT NOT NULL REFERENCES universities(id),
	name          TEXT NOT NULL,
	faculty       TEXT NOT NULL DEFAULT '',
	degree        TEXT NOT NULL DEFAULT '',
	duration      TEXT NOT NULL DEFAULT '',
	tuition       DOUBLE PRECISION,
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
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_universities_name ON universities(name);
CREATE INDEX IF NOT EXISTS idx_universities_name_folded ON universities(name_folded text_pattern_ops);
CREATE INDEX IF NOT EXISTS idx_programs_university_id ON programs(university_id);
CREATE INDEX IF NOT EXISTS idx_reconcile_runs_started_at ON reconcile_runs(started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListUniversities(ctx context.Context, filter UniversityFilter) ([]model.University, error) {
	query := `SELECT ` + universityColumns + ` FROM universities WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ID > 0 {
		query += fmt.Sprintf(` AND id = $%d`, argIdx)
		args = append(args, filter.ID)
		argIdx++
	}
	query += ` ORDER BY name, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list universities")
	}
	defer rows.Close()

	var out []model.University
	for rows.Next() {
		u, err := scanUniversity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan university")
		}
		out = append(out, *u)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list universities iterate")
}

func (s *PostgresStore) GetUniversity(ctx context.Context, id int64) (*model.University, error) {
	return s.queryUniversity(ctx, "get university", preparedStatements["get_university"], id)
}

func (s *PostgresStore) CreateUniversity(ctx context.Context, u *model.University) error {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO universities (name, name_folded, short_name, city, address,
			google_rating, google_reviews_count, google_place_id,
			yandex_rating, yandex_reviews_count, yandex_place_id,
			tabiturient_rating, tabiturient_rank, tabiturient_category, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		u.Name, similarity.Fold(u.Name), u.ShortName, u.City, u.Address,
		dbValue(u.Google.Rating), u.Google.ReviewsCount, u.Google.PlaceID,
		dbValue(u.Yandex.Rating), u.Yandex.ReviewsCount, u.Yandex.PlaceID,
		dbValue(u.Tabiturient.Rating), dbValue(u.Tabiturient.Rank), dbValue(u.Tabiturient.Category), now,
	).Scan(&u.ID)
	if err != nil {
		return eris.Wrap(err, "postgres: insert university")
	}
	u.UpdatedAt = now
	return nil
}

func (s *PostgresStore) UpdateFields(ctx context.Context, id int64, fields model.FieldMap) error {
	query, args, err := updateStatement(id, fields, time.Now().UTC(), func(n int) string { return fmt.Sprintf("$%d", n) })
	if err != nil {
		return eris.Wrapf(err, "postgres: update university %d", id)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update university %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("university not found: %d", id)
	}
	return nil
}

func (s *PostgresStore) FindByExactName(ctx context.Context, name string) (*model.University, error) {
	return s.queryUniversity(ctx, "find by exact name", preparedStatements["find_by_exact_name"], name)
}

func (s *PostgresStore) FindByNameContains(ctx context.Context, fragment string) (*model.University, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, nil
	}
	return s.queryUniversity(ctx, "find by name fragment", preparedStatements["find_by_name_like"], containsPattern(fragment))
}

func (s *PostgresStore) FindByNamePrefix(ctx context.Context, prefix string) (*model.University, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, nil
	}
	return s.queryUniversity(ctx, "find by name prefix", preparedStatements["find_by_name_like"], prefixPattern(prefix))
}

func (s *PostgresStore) queryUniversity(ctx context.Context, action, query string, args ...any) (*model.University, error) {
	u, err := scanUniversity(s.pool.QueryRow(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", action)
	}
	return u, nil
}

// SavePrograms upserts programs keyed by (university_id, name, faculty).
func (s *PostgresStore) SavePrograms(ctx context.Context, programs []model.Program) (int64, error) {
	programs = uniquePrograms(programs)
	rows := make([][]any, len(programs))
	for i, p := range programs {
		rows[i] = programRow(p)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "programs",
		Columns:      programColumns,
		ConflictKeys: []string{"university_id", "name", "faculty"},
	}, rows)
	return n, eris.Wrap(err, "postgres: save programs")
}

func (s *PostgresStore) RecordRun(ctx context.Context, run *model.Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reconcile_runs (`+runColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, string(run.Source), string(run.Mode),
		run.Summary.Updated, run.Summary.Failed, run.Summary.Skipped, run.Summary.NotFound, run.Summary.Total,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: record run %s", run.ID)
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM reconcile_runs ORDER BY started_at DESC LIMIT $1`,
		runsLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
