// Package runner wires the weekly pipeline end to end: configuration,
// ingest, assignment, cleanup, the optional review gate, export and the
// run record.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saulrichardson/allstate-weekly-lists/internal/assign"
	"github.com/saulrichardson/allstate-weekly-lists/internal/config"
	"github.com/saulrichardson/allstate-weekly-lists/internal/export"
	"github.com/saulrichardson/allstate-weekly-lists/internal/history"
	"github.com/saulrichardson/allstate-weekly-lists/internal/ingest"
	"github.com/saulrichardson/allstate-weekly-lists/internal/logbook"
	"github.com/saulrichardson/allstate-weekly-lists/internal/normalize"
	"github.com/saulrichardson/allstate-weekly-lists/internal/postprocess"
	"github.com/saulrichardson/allstate-weekly-lists/internal/roster"
	"github.com/saulrichardson/allstate-weekly-lists/internal/rules"
	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

// ErrAborted reports that the operator declined the run during review.
// Nothing has been written when Run returns it.
var ErrAborted = errors.New("runner: aborted during review")

// UnassignedBucket is the workbook name for records nobody took.
const UnassignedBucket = "Unassigned"

// SourceTally is one employee's stake in one feed.
type SourceTally struct {
	Count   int
	Premium decimal.Decimal
}

// EmployeeTally aggregates one employee's assignments for the review
// screen and the run summary.
type EmployeeTally struct {
	Name    string
	Total   int
	Premium decimal.Decimal

	// BySource breaks the total down per feed.
	BySource map[string]SourceTally
}

// ReviewFunc inspects the assignments before any file is written.
// Returning false aborts the run.
type ReviewFunc func(ctx context.Context, tallies []EmployeeTally, unassigned []*task.Record) (bool, error)

// Summary describes a finished run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Tallies follow roster order and include employees who received
	// nothing.
	Tallies []EmployeeTally

	Records    int
	Assigned   int
	Unassigned int

	OutputDir   string
	Outputs     []string
	HistoryPath string
}

// Runner executes the weekly pipeline against one configuration.
type Runner struct {
	cfg    *config.Config
	now    func() time.Time
	book   *logbook.Logbook
	run    export.CommandRunner
	review ReviewFunc
}

// Option adjusts a Runner.
type Option func(*Runner)

// WithClock overrides the clock used for date filtering and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) { r.now = clock }
}

// WithLogbook routes pipeline progress into the shared journal.
func WithLogbook(book *logbook.Logbook) Option {
	return func(r *Runner) { r.book = book }
}

// WithCommandRunner swaps the process launcher handed to the exporter
// for PDF conversion.
func WithCommandRunner(run export.CommandRunner) Option {
	return func(r *Runner) { r.run = run }
}

// WithReview installs the gate shown between assignment and export.
func WithReview(review ReviewFunc) Option {
	return func(r *Runner) { r.review = review }
}

// New builds a Runner over a loaded configuration.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the whole pipeline once and returns its summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := r.now()
	runID := uuid.NewString()
	r.book.Info("run %s starting from %s", runID, r.cfg.BaseDir)

	profiles, err := roster.Load(r.cfg.EmployeesPath())
	if err != nil {
		return nil, fmt.Errorf("runner: load roster: %w", err)
	}
	r.book.Info("loaded %d employee profiles", len(profiles))

	specs, err := ingest.LoadSources(r.cfg.SourcesPath())
	if err != nil {
		return nil, fmt.Errorf("runner: load sources: %w", err)
	}
	exportSpec, err := export.LoadSpec(r.cfg.ExportPath())
	if err != nil {
		return nil, fmt.Errorf("runner: load export spec: %w", err)
	}
	lookups, err := postprocess.LoadLookups(r.cfg.LookupsPath())
	if err != nil {
		return nil, fmt.Errorf("runner: load lookups: %w", err)
	}

	registry := normalize.NewRegistry()
	normalize.RegisterBuiltins(registry)
	if err := normalize.RegisterCustom(registry, r.cfg.NormalizersDir()); err != nil {
		return nil, fmt.Errorf("runner: load custom normalizers: %w", err)
	}

	predicates, err := compilePredicates(profiles)
	if err != nil {
		return nil, err
	}
	predicateOf := func(p roster.Profile) rules.Predicate { return predicates[p.Name] }

	loader := ingest.New(registry, ingest.WithClock(r.now), ingest.WithLogbook(r.book))
	records, err := loader.LoadAll(specs, r.cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("runner: ingest: %w", err)
	}
	r.book.Info("loaded %d records from %d sources", len(records), len(specs))

	pool, pinned, parked := r.splitPinned(records, profiles)

	engine, err := assign.Assign(pool, profiles, predicateOf)
	if err != nil {
		return nil, fmt.Errorf("runner: assign: %w", err)
	}

	cleaner := postprocess.New(lookups)
	assignments := make(map[string][]*task.Record, len(profiles))
	for _, profile := range profiles {
		merged := append([]*task.Record{}, pinned[profile.Name]...)
		for _, placement := range engine.Placements[profile.Name] {
			merged = append(merged, placement.Task)
		}
		assignments[profile.Name] = cleaner.CleanAll(merged)
	}
	unassigned := cleaner.CleanAll(append(parked, engine.Unassigned...))

	tallies := buildTallies(profiles, assignments)
	assignedTotal := 0
	for _, tally := range tallies {
		assignedTotal += tally.Total
	}
	r.book.Info("assigned %d of %d records (%d unassigned)", assignedTotal, len(records), len(unassigned))

	if r.review != nil {
		proceed, err := r.review(ctx, tallies, unassigned)
		if err != nil {
			return nil, fmt.Errorf("runner: review: %w", err)
		}
		if !proceed {
			r.book.Warn("run %s aborted during review; nothing written", runID)
			return nil, ErrAborted
		}
	}

	sources := make([]string, len(specs))
	for i, spec := range specs {
		sources[i] = spec.Name
	}
	workbooks := make(map[string][]*task.Record, len(assignments)+1)
	for name, recs := range assignments {
		workbooks[name] = recs
	}
	if len(unassigned) > 0 {
		workbooks[UnassignedBucket] = unassigned
	}

	exportOpts := []export.Option{export.WithLogbook(r.book)}
	if r.run != nil {
		exportOpts = append(exportOpts, export.WithCommandRunner(r.run))
	}
	exporter := export.New(exportSpec, sources, exportOpts...)

	outputs, err := exporter.Export(ctx, workbooks, r.cfg.OutputDir, r.cfg.Settings.PDF)
	if err != nil {
		return nil, fmt.Errorf("runner: export: %w", err)
	}
	r.book.Info("export completed: outputs written to %s", r.cfg.OutputDir)

	store := history.NewStore(r.cfg.RunsDir(), history.WithLogbook(r.book))
	if prev, err := store.Latest(); err == nil && prev != nil {
		r.book.Info("previous run %s assigned %d of %d records", prev.ID, prev.Counts.Assigned, prev.Counts.Records)
	}

	finished := r.now()
	historyPath, err := store.Append(history.Run{
		ID:         runID,
		StartedAt:  started,
		FinishedAt: finished,
		Assigned:   historyAssignments(assignments),
		Unassigned: rowIDs(unassigned),
		Counts: history.Counts{
			Records:    len(records),
			Assigned:   assignedTotal,
			Unassigned: len(unassigned),
			Employees:  len(profiles),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("runner: record run: %w", err)
	}
	r.book.Info("run %s finished: %d workbooks written", runID, len(outputs))

	return &Summary{
		RunID:       runID,
		StartedAt:   started,
		FinishedAt:  finished,
		Tallies:     tallies,
		Records:     len(records),
		Assigned:    assignedTotal,
		Unassigned:  len(unassigned),
		OutputDir:   r.cfg.OutputDir,
		Outputs:     outputs,
		HistoryPath: historyPath,
	}, nil
}

// Check validates every piece of configuration without touching the
// data: roster and predicates, custom normalizer definitions, source
// specs and their normalizer resolution, the export spec and lookups.
func (r *Runner) Check() []error {
	var findings []error

	profiles, err := roster.Load(r.cfg.EmployeesPath())
	if err != nil {
		findings = append(findings, err)
	} else if _, err := compilePredicates(profiles); err != nil {
		findings = append(findings, err)
	}

	registry := normalize.NewRegistry()
	normalize.RegisterBuiltins(registry)
	if err := normalize.RegisterCustom(registry, r.cfg.NormalizersDir()); err != nil {
		findings = append(findings, err)
	}

	specs, err := ingest.LoadSources(r.cfg.SourcesPath())
	if err != nil {
		findings = append(findings, err)
	} else {
		for _, spec := range specs {
			if _, err := registry.Resolve(spec.Normalizer); err != nil {
				findings = append(findings, fmt.Errorf("source %s: %w", spec.Name, err))
			}
		}
	}

	if _, err := export.LoadSpec(r.cfg.ExportPath()); err != nil {
		findings = append(findings, err)
	}
	if _, err := postprocess.LoadLookups(r.cfg.LookupsPath()); err != nil {
		findings = append(findings, err)
	}
	return findings
}

// splitPinned routes records whose exclusive_assignee field names a
// roster employee straight to that employee, ignoring predicate and
// capacity and consuming none. A record pinned to an unknown name, or
// to an employee whose capacity for the source is explicitly zero,
// stays behind and is never offered to anyone else.
func (r *Runner) splitPinned(records []*task.Record, profiles []roster.Profile) (pool []*task.Record, pinned map[string][]*task.Record, parked []*task.Record) {
	byName := make(map[string]roster.Profile, len(profiles))
	for _, profile := range profiles {
		byName[profile.Name] = profile
	}
	pinned = make(map[string][]*task.Record)
	for _, rec := range records {
		name := rec.Text(task.FieldExclusiveAssignee)
		if name == "" {
			pool = append(pool, rec)
			continue
		}
		profile, known := byName[name]
		if !known {
			r.book.Warn("exclusive assignee %q for row %d is not on the roster; leaving unassigned", name, rec.RowID)
			parked = append(parked, rec)
			continue
		}
		if capacity, set := profile.CapacityPerSource[rec.Source]; set && capacity == 0 {
			r.book.Warn("exclusive assignee %s has no capacity for %s; leaving row %d unassigned", name, rec.Source, rec.RowID)
			parked = append(parked, rec)
			continue
		}
		r.book.Debug("pinned row %d to %s", rec.RowID, name)
		pinned[name] = append(pinned[name], rec)
	}
	return pool, pinned, parked
}

func compilePredicates(profiles []roster.Profile) (map[string]rules.Predicate, error) {
	predicates := make(map[string]rules.Predicate, len(profiles))
	for _, profile := range profiles {
		if len(profile.Predicate) == 0 {
			continue
		}
		predicate, err := rules.Build(profile.Predicate)
		if err != nil {
			return nil, fmt.Errorf("runner: predicate for %s: %w", profile.Name, err)
		}
		predicates[profile.Name] = predicate
	}
	return predicates, nil
}

func buildTallies(profiles []roster.Profile, assignments map[string][]*task.Record) []EmployeeTally {
	tallies := make([]EmployeeTally, 0, len(profiles))
	for _, profile := range profiles {
		tally := EmployeeTally{Name: profile.Name, BySource: make(map[string]SourceTally)}
		for _, rec := range assignments[profile.Name] {
			bucket := tally.BySource[rec.Source]
			bucket.Count++
			if rec.Premium.Valid {
				bucket.Premium = bucket.Premium.Add(rec.Premium.Decimal)
				tally.Premium = tally.Premium.Add(rec.Premium.Decimal)
			}
			tally.BySource[rec.Source] = bucket
			tally.Total++
		}
		tallies = append(tallies, tally)
	}
	return tallies
}

func historyAssignments(assignments map[string][]*task.Record) map[string]map[string][]int {
	out := make(map[string]map[string][]int, len(assignments))
	for name, records := range assignments {
		if len(records) == 0 {
			continue
		}
		bySource := make(map[string][]int)
		for _, rec := range records {
			bySource[rec.Source] = append(bySource[rec.Source], rec.RowID)
		}
		out[name] = bySource
	}
	return out
}

func rowIDs(records []*task.Record) []int {
	ids := make([]int, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.RowID)
	}
	return ids
}
