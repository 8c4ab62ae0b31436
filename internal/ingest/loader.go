package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/shopspring/decimal"

	"github.com/saulrichardson/allstate-weekly-lists/internal/logbook"
	"github.com/saulrichardson/allstate-weekly-lists/internal/normalize"
	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

// Loader reads every configured feed, normalizes the rows and applies the
// business filters. A feed with a missing normalizer or no matching files
// is logged and skipped; the run keeps going. A normalizer rejecting a
// sheet layout is fatal, that means the report format shifted under us.
type Loader struct {
	registry *normalize.Registry
	clock    func() time.Time
	book     *logbook.Logbook
	read     TableReader
}

// Option configures a Loader.
type Option func(*Loader)

// WithClock replaces the wall clock used by the event-date filter.
func WithClock(clock func() time.Time) Option {
	return func(l *Loader) { l.clock = clock }
}

// WithLogbook routes load progress into the run journal.
func WithLogbook(book *logbook.Logbook) Option {
	return func(l *Loader) { l.book = book }
}

// WithTableReader replaces the workbook reader, mostly for tests.
func WithTableReader(read TableReader) Option {
	return func(l *Loader) { l.read = read }
}

// New creates a Loader resolving normalizers from the given registry.
func New(registry *normalize.Registry, opts ...Option) *Loader {
	l := &Loader{
		registry: registry,
		clock:    time.Now,
		read:     ReadWorkbookTable,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll loads the feeds in spec order against the data directory.
// Surviving records come back stamped with their source name and a
// run-scoped ascending row id. Cross-sell rows get their premium
// backfilled by policy number from the renewal feed.
func (l *Loader) LoadAll(specs []SourceSpec, dataDir string) ([]*task.Record, error) {
	var out []*task.Record
	nextID := 1
	premiums := map[string]decimal.NullDecimal{}
	var crossSell []*task.Record

	for _, spec := range specs {
		normalizer, err := l.registry.Resolve(spec.Normalizer)
		if err != nil {
			l.book.Error("cannot resolve normalizer %q for source %s: skipping this source", spec.Normalizer, spec.Name)
			continue
		}

		pattern := filepath.Join(dataDir, spec.PathGlob)
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			l.book.Error("bad pattern %q for source %s: %v: skipping this source", spec.PathGlob, spec.Name, err)
			continue
		}
		if len(matches) == 0 {
			l.book.Warn("no files matched pattern %q for source %s", spec.PathGlob, spec.Name)
			continue
		}
		sort.Strings(matches)

		for _, path := range matches {
			l.book.Info("loading %s file %s", spec.Name, filepath.Base(path))
			table, err := l.read(path, spec.HeaderRow)
			if err != nil {
				l.book.Error("failed reading %s: %v: skipping file", filepath.Base(path), err)
				continue
			}
			records, err := normalizer(table)
			if err != nil {
				return nil, fmt.Errorf("ingest: normalize %s as %s: %w", filepath.Base(path), spec.Normalizer, err)
			}

			if spec.Name == normalize.SourceRenewal {
				harvestPremiums(records, premiums)
			}

			kept := l.filter(spec.Name, records)
			for _, rec := range kept {
				rec.Source = spec.Name
				rec.RowID = nextID
				nextID++
				out = append(out, rec)
				if spec.Name == normalize.SourceCrossSell {
					crossSell = append(crossSell, rec)
				}
			}
		}
	}

	backfilled := 0
	for _, rec := range crossSell {
		if rec.Premium.Valid {
			continue
		}
		if premium, ok := premiums[rec.Text(task.FieldPolicyNumber)]; ok {
			rec.Premium = premium
			backfilled++
		}
	}
	if backfilled > 0 {
		l.book.Info("backfilled premium on %d cross_sell rows from renewal", backfilled)
	}

	return out, nil
}

// filter applies the business rules for one batch of freshly normalized
// records. Field checks mirror how the feeds behave: a filter only runs
// when the batch actually carries its column.
func (l *Loader) filter(source string, records []*task.Record) []*task.Record {
	kept := records

	if source == normalize.SourceRenewal && anyHas(kept, "renewal_status") {
		before := len(kept)
		kept = keep(kept, func(rec *task.Record) bool {
			return strings.Contains(rec.Text("renewal_status"), "Not Taken")
		})
		l.book.Info("filtered renewal rows: %d -> %d (Renewal Not Taken)", before, len(kept))
	}

	if anyHas(kept, task.FieldEventDate) {
		today := midnightOf(l.clock())
		before := len(kept)
		kept = keep(kept, func(rec *task.Record) bool {
			when, ok := rec.EventDate()
			return ok && !when.Before(today)
		})
		if before != len(kept) {
			l.book.Info("filtered %s rows: %d -> %d (event_date >= today)", source, before, len(kept))
		}
	}

	if source == normalize.SourceCancellation && anyHas(kept, "status") {
		before := len(kept)
		kept = keep(kept, func(rec *task.Record) bool {
			return !strings.Contains(strings.ToLower(rec.Text("status")), "cancelled")
		})
		l.book.Info("filtered cancellation rows: %d -> %d (status != Cancelled)", before, len(kept))
	}

	return kept
}

func keep(records []*task.Record, pred func(*task.Record) bool) []*task.Record {
	out := make([]*task.Record, 0, len(records))
	for _, rec := range records {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func anyHas(records []*task.Record, field string) bool {
	for _, rec := range records {
		if rec.Has(field) {
			return true
		}
	}
	return false
}

func harvestPremiums(records []*task.Record, premiums map[string]decimal.NullDecimal) {
	for _, rec := range records {
		if !rec.Premium.Valid {
			continue
		}
		policy := rec.Text(task.FieldPolicyNumber)
		if policy == "" {
			continue
		}
		if _, ok := premiums[policy]; !ok {
			premiums[policy] = rec.Premium
		}
	}
}

func midnightOf(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
