package domain

import (
	"fmt"
	"strings"
	"time"
)

// Phase identifies one of the importer's ordered phases.
type Phase int

const (
	// PhaseConfig covers validation performed before any phase runs.
	PhaseConfig Phase = iota
	// PhaseDatasets loads flat dataset entities.
	PhaseDatasets
	// PhaseDerivedReferences builds references from already-imported rows.
	PhaseDerivedReferences
	// PhaseDirectReferences loads references from their own connectors.
	PhaseDirectReferences
)

// Tag returns the bracketed label used in summaries and errors.
func (p Phase) Tag() string {
	switch p {
	case PhaseDatasets:
		return "[Dataset]"
	case PhaseDerivedReferences:
		return "[Derived Ref]"
	case PhaseDirectReferences:
		return "[Direct Ref]"
	default:
		return "[Config]"
	}
}

// String implements fmt.Stringer.
func (p Phase) String() string {
	return strings.Trim(p.Tag(), "[]")
}

// ImportedEntity is the outcome of importing one entity.
type ImportedEntity struct {
	Phase     Phase
	Name      string
	Kind      EntityKind
	TableName string
	Rows      int
	// Detail carries connector- or builder-specific notes, e.g. level counts.
	Detail string
}

// Line renders the entity as a phase-tagged summary line.
func (e ImportedEntity) Line() string {
	line := fmt.Sprintf("%s %s: %d rows -> %s", e.Phase.Tag(), e.Name, e.Rows, e.TableName)
	if e.Detail != "" {
		line += " (" + e.Detail + ")"
	}
	return line
}

// ImportResult aggregates the outcome of all phases of one run.
type ImportResult struct {
	// RunID identifies the run in the import log.
	RunID string

	StartedAt  time.Time
	FinishedAt time.Time

	// Entities lists imported entities in execution order.
	Entities []ImportedEntity

	// phasesRun records phases that completed, including empty ones.
	phasesRun []Phase
}

// Add records an imported entity.
func (r *ImportResult) Add(e ImportedEntity) {
	r.Entities = append(r.Entities, e)
}

// MarkPhase records that a phase ran to completion.
func (r *ImportResult) MarkPhase(p Phase) {
	r.phasesRun = append(r.phasesRun, p)
}

// ForPhase returns the entities imported in a phase.
func (r *ImportResult) ForPhase(p Phase) []ImportedEntity {
	var out []ImportedEntity
	for _, e := range r.Entities {
		if e.Phase == p {
			out = append(out, e)
		}
	}
	return out
}

// Lines returns the summary, one line per entity, grouped by phase.
// A phase that ran without importing anything still contributes a line.
func (r *ImportResult) Lines() []string {
	var lines []string
	for _, p := range r.phasesRun {
		entities := r.ForPhase(p)
		if len(entities) == 0 {
			lines = append(lines, p.Tag()+" nothing to import")
			continue
		}
		for _, e := range entities {
			lines = append(lines, e.Line())
		}
	}
	return lines
}

// Summary joins Lines with newlines.
func (r *ImportResult) Summary() string {
	return strings.Join(r.Lines(), "\n")
}

// ImportRunStatus describes how an import run ended.
type ImportRunStatus string

const (
	RunRunning   ImportRunStatus = "running"
	RunSucceeded ImportRunStatus = "succeeded"
	RunFailed    ImportRunStatus = "failed"
)

// ImportRun is one persisted entry of the import log.
type ImportRun struct {
	ID         string
	ConfigPath string
	Status     ImportRunStatus
	Summary    string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
