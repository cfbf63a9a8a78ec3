package model

import "time"

// RunMode selects how a reconciliation run talks to its source.
type RunMode string

const (
	// ModePerEntity fetches once per university.
	ModePerEntity RunMode = "per_entity"
	// ModeBatch fetches the whole dataset once and matches every university against it.
	ModeBatch RunMode = "batch"
)

// Run is the audit record of one finished reconciliation run.
type Run struct {
	ID         string    `json:"id"`
	Source     Source    `json:"source"`
	Mode       RunMode   `json:"mode"`
	Summary    Summary   `json:"summary"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
