// Package reconcile runs a source over the stored universities and writes
// back what it finds, one source-scoped field group at a time.
package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ratings-cli/internal/matcher"
	"github.com/sells-group/ratings-cli/internal/model"
	"github.com/sells-group/ratings-cli/internal/resilience"
	"github.com/sells-group/ratings-cli/internal/similarity"
	"github.com/sells-group/ratings-cli/internal/source"
	"github.com/sells-group/ratings-cli/internal/store"
)

// Repository is the part of the store a run reads and writes.
type Repository interface {
	ListUniversities(ctx context.Context, filter store.UniversityFilter) ([]model.University, error)
	UpdateFields(ctx context.Context, id int64, fields model.FieldMap) error
	RecordRun(ctx context.Context, run *model.Run) error
}

// Request configures one run.
type Request struct {
	Source       model.Source  // defaults to the fetcher's source
	Mode         model.RunMode // defaults to per-entity
	Delay        time.Duration // pause between per-entity fetches
	Limit        int
	UniversityID int64
	Threshold    float64 // batch match threshold; 0 means matcher.DefaultThreshold
}

// Report is the structured result of a run.
type Report struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	Source     model.Source    `json:"source" yaml:"source"`
	Mode       model.RunMode   `json:"mode" yaml:"mode"`
	Summary    model.Summary   `json:"summary" yaml:"summary"`
	Outcomes   []model.Outcome `json:"outcomes" yaml:"outcomes"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
}

func (r *Report) add(o model.Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Summary.Add(o)
}

// Runner reconciles universities against a single source. Universities are
// processed strictly in sequence.
type Runner struct {
	repo    Repository
	fetcher source.Fetcher
	metric  similarity.Metric
	sleep   func(time.Duration)
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetric sets the similarity metric used in batch mode.
func WithMetric(m similarity.Metric) Option {
	return func(r *Runner) {
		if m != nil {
			r.metric = m
		}
	}
}

// WithSleeper replaces time.Sleep for the inter-request delay.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner for the fetcher's source.
func NewRunner(repo Repository, f source.Fetcher, opts ...Option) *Runner {
	r := &Runner{
		repo:    repo,
		fetcher: f,
		metric:  similarity.Ratio,
		sleep:   time.Sleep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reconciles the selected universities. Per-entity failures are tallied
// and never abort the run; only an unconfigured source, an unsupported mode
// or a failure to list universities returns an error.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	src := r.fetcher.Source()
	if req.Source != "" && req.Source != src {
		return nil, eris.Errorf("reconcile: request for %s sent to %s fetcher", req.Source, src)
	}
	if req.Mode == "" {
		req.Mode = model.ModePerEntity
	}
	if req.Threshold <= 0 {
		req.Threshold = matcher.DefaultThreshold
	}

	var batch source.BatchFetcher
	switch req.Mode {
	case model.ModePerEntity:
	case model.ModeBatch:
		bf, ok := r.fetcher.(source.BatchFetcher)
		if !ok {
			return nil, eris.Errorf("reconcile: %s does not support batch mode", src)
		}
		batch = bf
	default:
		return nil, eris.Errorf("reconcile: unknown mode %q", req.Mode)
	}

	if !r.fetcher.Available() {
		return nil, source.ConfigurationMissing(src)
	}

	log := zap.L().With(zap.String("component", "reconcile"), zap.String("source", string(src)), zap.String("mode", string(req.Mode)))

	unis, err := r.repo.ListUniversities(ctx, store.UniversityFilter{ID: req.UniversityID, Limit: req.Limit})
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: list universities")
	}

	report := &Report{
		RunID:     uuid.New().String(),
		Source:    src,
		Mode:      req.Mode,
		StartedAt: r.now().UTC(),
		Outcomes:  make([]model.Outcome, 0, len(unis)),
	}
	log.Info("starting run", zap.String("run_id", report.RunID), zap.Int("universities", len(unis)))

	if batch != nil {
		r.runBatch(ctx, batch, unis, req.Threshold, report, log)
	} else {
		r.runPerEntity(ctx, unis, req.Delay, report, log)
	}

	report.Summary.Total = len(unis)
	report.FinishedAt = r.now().UTC()

	if err := r.repo.RecordRun(ctx, &model.Run{
		ID:         report.RunID,
		Source:     report.Source,
		Mode:       report.Mode,
		Summary:    report.Summary,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}); err != nil {
		log.Error("failed to record run", zap.Error(err))
	}

	log.Info("run complete",
		zap.Int("updated", report.Summary.Updated),
		zap.Int("not_found", report.Summary.NotFound),
		zap.Int("skipped", report.Summary.Skipped),
		zap.Int("failed", report.Summary.Failed),
		zap.Int("total", report.Summary.Total),
	)
	return report, nil
}

func (r *Runner) runPerEntity(ctx context.Context, unis []model.University, delay time.Duration, report *Report, log *zap.Logger) {
	src := r.fetcher.Source()
	last := len(unis) - 1

	for i := range unis {
		u := &unis[i]
		uLog := log.With(zap.Int64("university_id", u.ID), zap.String("name", u.Name))

		if u.HasResult(src) {
			uLog.Debug("skipping, result already present")
			report.add(model.Outcome{UniversityID: u.ID, Name: u.Name, Kind: model.OutcomeSkipped})
			continue
		}

		cand, err := r.fetcher.FetchSingle(ctx, *u)
		var o model.Outcome
		switch {
		case err != nil:
			o = r.failed(u, err, uLog)
		case cand == nil:
			uLog.Info("no data")
			o = model.Outcome{UniversityID: u.ID, Name: u.Name, Kind: model.OutcomeNotFound}
		default:
			o = r.write(ctx, u, *cand, 0, uLog)
		}
		report.add(o)

		if i < last && delay > 0 {
			r.sleep(delay)
		}
	}
}

// runBatch matches every university against one fetched candidate list.
// It costs len(unis) x len(candidates) similarity calls.
func (r *Runner) runBatch(ctx context.Context, bf source.BatchFetcher, unis []model.University, threshold float64, report *Report, log *zap.Logger) {
	cands, err := bf.FetchAll(ctx)
	if err != nil {
		log.Error("batch fetch failed", zap.Error(err), zap.Bool("transient", resilience.IsTransient(err)))
		for i := range unis {
			report.add(model.Outcome{UniversityID: unis[i].ID, Name: unis[i].Name, Kind: model.OutcomeFailed, Reason: err.Error()})
		}
		return
	}
	log.Info("fetched candidates", zap.Int("candidates", len(cands)))

	for i := range unis {
		u := &unis[i]
		uLog := log.With(zap.Int64("university_id", u.ID), zap.String("name", u.Name))

		m, ok := matcher.BestMatch(u.Name, cands, threshold, r.metric)
		if !ok {
			uLog.Info("no match above threshold", zap.Float64("threshold", threshold))
			report.add(model.Outcome{UniversityID: u.ID, Name: u.Name, Kind: model.OutcomeNotFound})
			continue
		}
		report.add(r.write(ctx, u, m.Candidate, m.Score, uLog))
	}
}

// write stores the candidate's field group for u.
func (r *Runner) write(ctx context.Context, u *model.University, cand model.Candidate, score float64, log *zap.Logger) model.Outcome {
	if err := r.repo.UpdateFields(ctx, u.ID, cand.FieldMap()); err != nil {
		return r.failed(u, err, log)
	}
	cand.Apply(u)
	log.Info("updated", zap.String("matched_name", cand.Name), zap.Float64("score", score))
	return model.Outcome{
		UniversityID: u.ID,
		Name:         u.Name,
		Kind:         model.OutcomeUpdated,
		MatchedName:  cand.Name,
		Score:        score,
	}
}

func (r *Runner) failed(u *model.University, err error, log *zap.Logger) model.Outcome {
	fields := []zap.Field{zap.Error(err), zap.Bool("transient", resilience.IsTransient(err))}
	if kind, ok := source.KindOf(err); ok {
		fields = append(fields, zap.String("kind", string(kind)))
	}
	log.Warn("reconcile failed", fields...)
	return model.Outcome{UniversityID: u.ID, Name: u.Name, Kind: model.OutcomeFailed, Reason: err.Error()}
}
