package model

// Program is an education program read from a program sheet and attached to
// the university it was resolved to.
type Program struct {
	UniversityID int64    `json:"university_id"`
	Name         string   `json:"name"`
	Faculty      string   `json:"faculty,omitempty"`
	Degree       string   `json:"degree,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	Tuition      *float64 `json:"tuition,omitempty"`
	Description  string   `json:"description,omitempty"`
}
