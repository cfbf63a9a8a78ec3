package ingest

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ratings-cli/internal/matcher"
	"github.com/sells-group/ratings-cli/internal/model"
)

// Defaults and limits for program rows.
const (
	DefaultFaculty  = "Общий факультет"
	DefaultDegree   = "Бакалавриат"
	DefaultDuration = "4"

	maxNameRunes        = 200
	maxDescriptionRunes = 1000

	// unspecified is the sheet's placeholder for a missing description.
	unspecified = "Не указано"
)

// Status is the outcome of resolving one row.
type Status string

const (
	StatusMatched   Status = "matched"
	StatusUnmatched Status = "unmatched"
	StatusSkipped   Status = "skipped"
)

// Row is one resolved sheet row.
type Row struct {
	Line           int              `json:"line"` // 1-based, header excluded
	UniversityName string           `json:"university_name"`
	ProgramName    string           `json:"program_name"`
	Status         Status           `json:"status"`
	Strategy       matcher.Strategy `json:"strategy,omitempty"`
	UniversityID   int64            `json:"university_id,omitempty"`
	MatchedName    string           `json:"matched_name,omitempty"`
}

// Result aggregates a sheet's resolution.
type Result struct {
	Rows       []Row
	Programs   []model.Program
	Matched    int
	Unmatched  int
	Skipped    int
	ByStrategy map[matcher.Strategy]int
}

// Ingester resolves program sheets through a name resolver.
type Ingester struct {
	resolver *matcher.Resolver
	rules    []ColumnRule
}

// New creates an Ingester using DefaultRules.
func New(resolver *matcher.Resolver) *Ingester {
	return &Ingester{resolver: resolver, rules: DefaultRules}
}

// WithRules returns a copy of the ingester using rules for column detection.
func (in *Ingester) WithRules(rules []ColumnRule) *Ingester {
	cp := *in
	cp.rules = rules
	return &cp
}

// Resolve detects the sheet's columns from header and resolves every row.
// Rows without a university or program name are skipped. Rows whose
// university cannot be found are unmatched. Lookup errors abort.
func (in *Ingester) Resolve(ctx context.Context, header []string, records [][]string) (*Result, error) {
	cols := DetectColumns(header, in.rules)
	if _, ok := cols[FieldUniversity]; !ok {
		return nil, eris.Errorf("ingest: no university column in %q", header)
	}
	if _, ok := cols[FieldProgram]; !ok {
		return nil, eris.Errorf("ingest: no program column in %q", header)
	}

	log := zap.L().With(zap.String("component", "ingest"))
	log.Debug("detected columns", zap.Any("mapping", cols))

	res := &Result{ByStrategy: make(map[matcher.Strategy]int)}
	for i, rec := range records {
		row := Row{
			Line:           i + 1,
			UniversityName: cols.value(rec, FieldUniversity),
			ProgramName:    cols.value(rec, FieldProgram),
		}
		if row.UniversityName == "" || row.ProgramName == "" {
			row.Status = StatusSkipped
			res.Skipped++
			res.Rows = append(res.Rows, row)
			continue
		}

		resolution, ok, err := in.resolver.Resolve(ctx, row.UniversityName)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: resolve line %d", row.Line)
		}
		if !ok {
			row.Status = StatusUnmatched
			res.Unmatched++
			res.Rows = append(res.Rows, row)
			if res.Unmatched <= 10 || res.Unmatched%500 == 0 {
				log.Warn("university not found",
					zap.String("university", truncate(row.UniversityName, 50)),
					zap.Int("unmatched", res.Unmatched),
				)
			}
			continue
		}

		row.Status = StatusMatched
		row.Strategy = resolution.Strategy
		row.UniversityID = resolution.University.ID
		row.MatchedName = resolution.University.Name
		res.Matched++
		res.ByStrategy[resolution.Strategy]++
		res.Rows = append(res.Rows, row)
		res.Programs = append(res.Programs, cols.program(rec, row.UniversityID))
	}

	log.Info("sheet resolved",
		zap.Int("rows", len(records)),
		zap.Int("matched", res.Matched),
		zap.Int("unmatched", res.Unmatched),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// program builds the program for a matched row.
func (m Mapping) program(rec []string, universityID int64) model.Program {
	p := model.Program{
		UniversityID: universityID,
		Name:         truncate(m.value(rec, FieldProgram), maxNameRunes),
		Faculty:      truncate(m.value(rec, FieldFaculty), maxNameRunes),
		Degree:       m.value(rec, FieldDegree),
		Duration:     m.value(rec, FieldDuration),
		Tuition:      ParseTuition(m.value(rec, FieldTuition)),
		Description:  m.value(rec, FieldDescription),
	}
	if p.Faculty == "" {
		p.Faculty = DefaultFaculty
	}
	if p.Degree == "" {
		p.Degree = DefaultDegree
	}
	if p.Duration == "" {
		p.Duration = DefaultDuration
	}
	if p.Description == unspecified {
		p.Description = ""
	}
	p.Description = truncate(p.Description, maxDescriptionRunes)
	return p
}

// ParseTuition reads a price cell. Values under 1000 are in thousands of
// rubles. Unparseable cells yield nil.
func ParseTuition(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	if v < 1000 {
		v *= 1000
	}
	v = float64(int64(v))
	return &v
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
