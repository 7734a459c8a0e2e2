// Package report aggregates per-entity-type migration counters into the
// final audit summary and the run's pass/fail verdict.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"hospicrm-migrator/internal/domain"
	"hospicrm-migrator/internal/rules"
)

// EntityReport is the audit summary for one entity type.
// complete holds iff every source record is accounted for in the target
// (already present before the run or imported by it).
type EntityReport struct {
	Entity              string         `json:"entity"`
	SourceCount         int            `json:"source_count"`
	AlreadyPresent      int            `json:"already_present"`
	NewlyImported       int            `json:"newly_imported"`
	RepairedAndImported int            `json:"repaired_and_imported"` // subset of newly_imported
	Rejected            int            `json:"rejected"`
	RejectionReasons    map[string]int `json:"rejection_reasons,omitempty"`
	RepairsApplied      map[string]int `json:"repairs_applied,omitempty"`
	Complete            bool           `json:"complete"`
	Aborted             bool           `json:"aborted,omitempty"`
}

// Report is the run-level audit document. OK is the logical AND of every
// entity's Complete flag and drives the process exit code.
type Report struct {
	RunID      string         `json:"run_id"`
	Source     string         `json:"snapshot_source"`
	DryRun     bool           `json:"dry_run,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Entities   []EntityReport `json:"entities"`
	OK         bool           `json:"ok"`
	FatalError string         `json:"fatal_error,omitempty"`
}

// ExitCode is 0 iff every entity type completed.
func (r *Report) ExitCode() int {
	if r.OK {
		return 0
	}
	return 1
}

// Write emits the report as indented JSON to path, or stdout when path is
// empty, so an operator or CI step can consume it.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Entity returns the report for the named entity type, if present.
func (r *Report) Entity(entity domain.EntityType) *EntityReport {
	for i := range r.Entities {
		if r.Entities[i].Entity == string(entity) {
			return &r.Entities[i]
		}
	}
	return nil
}

// Builder accumulates counters while the importer runs. Entity passes are
// appended in import order.
type Builder struct {
	runID     string
	startedAt time.Time
	entities  []*EntityCounters
}

func NewBuilder() *Builder {
	return &Builder{
		runID:     uuid.NewString(),
		startedAt: time.Now().UTC(),
	}
}

// RunID identifies this run in logs and in the emitted report.
func (b *Builder) RunID() string { return b.runID }

// StartEntity opens the counter set for one entity-type pass.
func (b *Builder) StartEntity(entity domain.EntityType, sourceCount int) *EntityCounters {
	c := &EntityCounters{
		entity:           entity,
		sourceCount:      sourceCount,
		rejectionReasons: make(map[string]int),
		repairsApplied:   make(map[string]int),
	}
	b.entities = append(b.entities, c)
	return c
}

// Finalize closes the run and computes the verdict. fatalErr, when
// non-nil, is recorded and forces OK to false: the report then reflects
// the state actually committed before the abort.
func (b *Builder) Finalize(source string, dryRun bool, fatalErr error) *Report {
	r := &Report{
		RunID:      b.runID,
		Source:     source,
		DryRun:     dryRun,
		StartedAt:  b.startedAt,
		FinishedAt: time.Now().UTC(),
		OK:         fatalErr == nil,
	}
	if fatalErr != nil {
		r.FatalError = fatalErr.Error()
	}
	for _, c := range b.entities {
		er := c.snapshot()
		if !er.Complete {
			r.OK = false
		}
		r.Entities = append(r.Entities, er)
	}
	return r
}

// EntityCounters tallies one entity-type pass.
type EntityCounters struct {
	entity              domain.EntityType
	sourceCount         int
	alreadyPresent      int
	newlyImported       int
	repairedAndImported int
	rejected            int
	rejectionReasons    map[string]int
	repairsApplied      map[string]int
	aborted             bool
}

// SkipExisting counts a record whose identifier was already registered.
func (c *EntityCounters) SkipExisting() {
	c.alreadyPresent++
}

// Imported counts a written record. Every lossy substitution that made the
// record importable is counted separately so operators can tell "lossy but
// imported" from "not imported".
func (c *EntityCounters) Imported(applied []rules.AppliedRepair) {
	c.newlyImported++
	if len(applied) > 0 {
		c.repairedAndImported++
		for _, a := range applied {
			c.repairsApplied[string(a.Kind)]++
		}
	}
}

// Reject counts a failed record with its distinct reasons.
func (c *EntityCounters) Reject(reasons []rules.Reason) {
	c.rejected++
	for _, r := range reasons {
		c.rejectionReasons[string(r.Code)]++
	}
}

// Abort marks the pass as cut short by a fatal store error.
func (c *EntityCounters) Abort() {
	c.aborted = true
}

func (c *EntityCounters) snapshot() EntityReport {
	er := EntityReport{
		Entity:              string(c.entity),
		SourceCount:         c.sourceCount,
		AlreadyPresent:      c.alreadyPresent,
		NewlyImported:       c.newlyImported,
		RepairedAndImported: c.repairedAndImported,
		Rejected:            c.rejected,
		Complete:            c.alreadyPresent+c.newlyImported == c.sourceCount,
		Aborted:             c.aborted,
	}
	if len(c.rejectionReasons) > 0 {
		er.RejectionReasons = c.rejectionReasons
	}
	if len(c.repairsApplied) > 0 {
		er.RepairsApplied = c.repairsApplied
	}
	return er
}
