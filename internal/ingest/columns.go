// Package ingest reads program sheets and attaches each program to the
// university its free-text name resolves to.
package ingest

import (
	"strings"

	"github.com/sells-group/ratings-cli/internal/similarity"
)

// Field is a program attribute a sheet column can feed.
type Field string

const (
	FieldUniversity  Field = "university"
	FieldProgram     Field = "program"
	FieldFaculty     Field = "faculty"
	FieldDegree      Field = "degree"
	FieldDuration    Field = "duration"
	FieldTuition     Field = "tuition"
	FieldDescription Field = "description"
)

// ColumnRule maps headers accepted by Match onto Field.
type ColumnRule struct {
	Field Field
	Match func(header string) bool
}

// HeaderContains matches headers containing any keyword, ignoring case.
func HeaderContains(keywords ...string) func(string) bool {
	folded := make([]string, len(keywords))
	for i, k := range keywords {
		folded[i] = similarity.Fold(k)
	}
	return func(header string) bool {
		h := similarity.Fold(header)
		for _, k := range folded {
			if strings.Contains(h, k) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is the header vocabulary of the program export sheets, in
// priority order. "university_name" must hit the university rule before
// the program rule sees "name".
var DefaultRules = []ColumnRule{
	{FieldUniversity, HeaderContains("вуз", "university", "университет")},
	{FieldProgram, HeaderContains("специальность", "program", "спец", "название", "name")},
	{FieldFaculty, HeaderContains("факультет", "faculty", "education_form", "форма обучения")},
	{FieldDegree, HeaderContains("уровень", "degree", "степень", "level")},
	{FieldDuration, HeaderContains("срок", "duration", "лет", "year")},
	{FieldTuition, HeaderContains("стоимость", "tuition", "цена", "price", "руб")},
	{FieldDescription, HeaderContains("описание", "description")},
}

// Mapping is the detected column index per field.
type Mapping map[Field]int

// DetectColumns assigns each header to the first rule it matches. When
// several headers map to the same field the leftmost one is used.
func DetectColumns(header []string, rules []ColumnRule) Mapping {
	m := make(Mapping)
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		for _, r := range rules {
			if !r.Match(h) {
				continue
			}
			if _, taken := m[r.Field]; !taken {
				m[r.Field] = i
			}
			break
		}
	}
	return m
}

// value returns the trimmed cell for f, or "" when the column is missing.
func (m Mapping) value(record []string, f Field) string {
	i, ok := m[f]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
