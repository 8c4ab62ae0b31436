// Package assign distributes audit records across an employee roster.
//
// A run happens in two sequential phases. Employees preferring high-value
// work draw first from a queue sorted by premium descending; employees
// preferring low-value work then draw from whatever is left, re-sorted
// ascending. Each phase is a capacity-bounded round-robin over the phase's
// participants in priority order. Records nobody can take stay unassigned,
// which is a normal outcome, not an error.
package assign

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/saulrichardson/allstate-weekly-lists/internal/roster"
	"github.com/saulrichardson/allstate-weekly-lists/internal/rules"
	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

// Sentinel errors for the two failure classes. Everything else about the
// input (missing premiums, missing priorities, absent capacity entries)
// resolves by defaults and never fails a run.
var (
	ErrConfiguration = errors.New("assign: configuration")
	ErrData          = errors.New("assign: data")
)

// Placement is one record won by an employee.
type Placement struct {
	Source string
	Task   *task.Record
}

// Result maps every roster employee to the placements they won, in the
// order they won them, plus the records nobody could take.
type Result struct {
	Placements map[string][]Placement
	Unassigned []*task.Record
}

// Total returns how many records were placed.
func (r *Result) Total() int {
	n := 0
	for _, placements := range r.Placements {
		n += len(placements)
	}
	return n
}

// PredicateOf supplies each employee's eligibility check. A nil PredicateOf,
// or a nil predicate for an employee, means eligible for everything.
type PredicateOf func(roster.Profile) rules.Predicate

// Assign runs both phases over the given records and roster.
//
// Inputs are never mutated: capacity bookkeeping happens on copies, and the
// records land in the result by reference in their input order semantics.
// Equal inputs in equal order produce identical results. Employees whose
// prefer value is not "low" participate in the high phase, mirroring the
// loader's missing-value default.
func Assign(records []*task.Record, employees []roster.Profile, predicateOf PredicateOf) (*Result, error) {
	if err := validateInputs(records, employees); err != nil {
		return nil, err
	}

	result := &Result{Placements: make(map[string][]Placement, len(employees))}
	for _, emp := range employees {
		result.Placements[emp.Name] = nil
	}

	high, low := splitRoster(employees)

	queue := sortByPremium(records, true)
	queue = runPhase(queue, newParticipants(high, predicateOf), result)
	queue = sortByPremium(queue, false)
	queue = runPhase(queue, newParticipants(low, predicateOf), result)

	result.Unassigned = queue
	return result, nil
}

func validateInputs(records []*task.Record, employees []roster.Profile) error {
	seen := make(map[string]struct{}, len(employees))
	for _, emp := range employees {
		if _, dup := seen[emp.Name]; dup {
			return fmt.Errorf("%w: duplicate employee name %q", ErrConfiguration, emp.Name)
		}
		seen[emp.Name] = struct{}{}
		for _, source := range sortedSources(emp.CapacityPerSource) {
			if emp.CapacityPerSource[source] < 0 {
				return fmt.Errorf("%w: employee %q has negative capacity for source %q", ErrConfiguration, emp.Name, source)
			}
		}
	}
	for i, rec := range records {
		if rec == nil {
			return fmt.Errorf("%w: record %d is nil", ErrData, i)
		}
		if strings.TrimSpace(rec.Source) == "" {
			return fmt.Errorf("%w: record %d has no source tag", ErrData, rec.RowID)
		}
	}
	return nil
}

func sortedSources(capacities map[string]int) []string {
	if len(capacities) == 0 {
		return nil
	}
	sources := make([]string, 0, len(capacities))
	for source := range capacities {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// splitRoster partitions by phase and sorts each partition by priority
// level ascending, keeping roster order among equal priorities.
func splitRoster(employees []roster.Profile) (high, low []roster.Profile) {
	for _, emp := range employees {
		if emp.Prefer == roster.PreferLow {
			low = append(low, emp)
		} else {
			high = append(high, emp)
		}
	}
	byPriority(high)
	byPriority(low)
	return high, low
}

func byPriority(profiles []roster.Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].PriorityLevel < profiles[j].PriorityLevel
	})
}

// sortByPremium copies and stably sorts the queue. Missing premiums compare
// below every valid amount, so they sink to the tail of a descending queue
// and lead an ascending one. Stability preserves ingestion order among
// equal premiums.
func sortByPremium(records []*task.Record, descending bool) []*task.Record {
	queue := make([]*task.Record, len(records))
	copy(queue, records)
	sort.SliceStable(queue, func(i, j int) bool {
		c := task.ComparePremium(queue[i].Premium, queue[j].Premium)
		if descending {
			return c > 0
		}
		return c < 0
	})
	return queue
}

type participant struct {
	name      string
	predicate rules.Predicate
	remaining map[string]int
}

func newParticipants(profiles []roster.Profile, predicateOf PredicateOf) []*participant {
	parts := make([]*participant, 0, len(profiles))
	for _, profile := range profiles {
		part := &participant{name: profile.Name}
		if predicateOf != nil {
			part.predicate = predicateOf(profile)
		}
		if len(profile.CapacityPerSource) > 0 {
			part.remaining = make(map[string]int, len(profile.CapacityPerSource))
			for source, capacity := range profile.CapacityPerSource {
				part.remaining[source] = capacity
			}
		}
		parts = append(parts, part)
	}
	return parts
}

func (p *participant) hasCapacity(source string) bool {
	if p.remaining == nil {
		return true
	}
	capacity, tracked := p.remaining[source]
	if !tracked {
		return true
	}
	return capacity > 0
}

func (p *participant) take(source string) {
	if p.remaining == nil {
		return
	}
	if capacity, tracked := p.remaining[source]; tracked && capacity > 0 {
		p.remaining[source] = capacity - 1
	}
}

// pick returns the queue index of the first record the participant can
// accept, or -1.
func (p *participant) pick(queue []*task.Record) int {
	for i, rec := range queue {
		if !p.hasCapacity(rec.Source) {
			continue
		}
		if p.predicate != nil && !p.predicate(rec) {
			continue
		}
		return i
	}
	return -1
}

// runPhase cycles over the participants, each taking at most one record per
// pass, until a full pass places nothing or the queue drains.
func runPhase(queue []*task.Record, parts []*participant, result *Result) []*task.Record {
	if len(parts) == 0 {
		return queue
	}
	for len(queue) > 0 {
		placed := 0
		for _, part := range parts {
			idx := part.pick(queue)
			if idx < 0 {
				continue
			}
			rec := queue[idx]
			queue = append(queue[:idx], queue[idx+1:]...)
			result.Placements[part.name] = append(result.Placements[part.name], Placement{Source: rec.Source, Task: rec})
			part.take(rec.Source)
			placed++
			if len(queue) == 0 {
				break
			}
		}
		if placed == 0 {
			break
		}
	}
	return queue
}
