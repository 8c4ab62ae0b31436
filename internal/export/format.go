package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

// Fields stripped from every sheet regardless of configuration.
var globalDrops = map[string]struct{}{
	"account_type": {},
	"company_code": {},
	"product_code": {},
}

// Sheet is one formatted worksheet: pretty headers and rendered cells.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Empty reports whether the sheet has no data rows.
func (s Sheet) Empty() bool { return len(s.Rows) == 0 }

type column struct {
	// field is the record key the values come from; name is the current
	// presentation label.
	field string
	name  string
}

// FormatSheet renders one source's records into a presentation-ready
// sheet. Rows sort by event date then premium, soonest and largest first.
// Columns go through the export.yml shaping: drops, renames, the global
// order whitelist, empty-column pruning, MM/DD dates and title-cased
// headers.
func FormatSheet(source string, records []*task.Record, spec Spec) Sheet {
	sheet := Sheet{Name: source}
	if len(records) == 0 {
		return sheet
	}

	sorted := sortForSheet(records)
	cfg := spec.SheetFor(source)

	cols := collectColumns(sorted)

	dropped := make(map[string]struct{}, len(globalDrops)+len(cfg.Drop))
	for field := range globalDrops {
		dropped[field] = struct{}{}
	}
	for _, field := range cfg.Drop {
		dropped[field] = struct{}{}
	}
	cols = discard(cols, func(c column) bool {
		_, hit := dropped[c.field]
		return hit
	})

	for i := range cols {
		if to, ok := cfg.Rename[cols[i].name]; ok {
			cols[i].name = to
		}
	}
	cols = dedupeByName(cols)

	allowed := make(map[string]struct{}, len(spec.Order)+len(cfg.Rename))
	for _, name := range spec.Order {
		allowed[name] = struct{}{}
	}
	for _, to := range cfg.Rename {
		allowed[to] = struct{}{}
	}
	cols = discard(cols, func(c column) bool {
		_, ok := allowed[c.name]
		return !ok
	})

	cols = discard(cols, func(c column) bool { return allEmpty(sorted, c.field) })

	cols = reorder(cols, spec.Order, cfg.Rename)

	caser := cases.Title(language.English)
	for i := range cols {
		cols[i].name = prettyHeader(caser, cols[i].name)
	}
	cols = dedupeByName(cols)
	for i := range cols {
		switch cols[i].name {
		case "First Name":
			cols[i].name = "First"
		case "Last Name":
			cols[i].name = "Last"
		}
	}

	sheet.Headers = make([]string, len(cols))
	for i, c := range cols {
		sheet.Headers[i] = c.name
	}
	sheet.Rows = make([][]string, 0, len(sorted))
	for _, rec := range sorted {
		row := make([]string, len(cols))
		for i, c := range cols {
			value, _ := rec.Get(c.field)
			row[i] = cellText(value)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// sortForSheet orders rows so the actionable items come first: soonest
// event date, then the larger premium. Undated rows sink to the bottom.
func sortForSheet(records []*task.Record) []*task.Record {
	sorted := append([]*task.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aOK := sorted[i].EventDate()
		b, bOK := sorted[j].EventDate()
		switch {
		case aOK && bOK && !a.Equal(b):
			return a.Before(b)
		case aOK != bOK:
			return aOK
		}
		return task.ComparePremium(sorted[i].Premium, sorted[j].Premium) > 0
	})
	return sorted
}

// collectColumns walks the records and returns their fields in first-seen
// order, the way a frame built from a list of rows would.
func collectColumns(records []*task.Record) []column {
	var cols []column
	seen := map[string]struct{}{}
	for _, rec := range records {
		for _, field := range rec.Keys() {
			if _, dup := seen[field]; dup {
				continue
			}
			seen[field] = struct{}{}
			cols = append(cols, column{field: field, name: field})
		}
	}
	return cols
}

func discard(cols []column, drop func(column) bool) []column {
	out := cols[:0]
	for _, c := range cols {
		if !drop(c) {
			out = append(out, c)
		}
	}
	return out
}

func dedupeByName(cols []column) []column {
	seen := map[string]struct{}{}
	out := cols[:0]
	for _, c := range cols {
		if _, dup := seen[c.name]; dup {
			continue
		}
		seen[c.name] = struct{}{}
		out = append(out, c)
	}
	return out
}

func allEmpty(records []*task.Record, field string) bool {
	for _, rec := range records {
		if value, ok := rec.Get(field); ok && cellText(value) != "" {
			return false
		}
	}
	return true
}

// reorder walks the global order (mapped through the sheet's renames) and
// picks matching columns first; everything else keeps its relative order
// behind them.
func reorder(cols []column, order []string, rename map[string]string) []column {
	out := make([]column, 0, len(cols))
	used := make(map[int]struct{}, len(cols))
	for _, key := range order {
		name := key
		if to, ok := rename[key]; ok {
			name = to
		}
		for i, c := range cols {
			if _, done := used[i]; done {
				continue
			}
			if c.name == name {
				out = append(out, c)
				used[i] = struct{}{}
				break
			}
		}
	}
	for i, c := range cols {
		if _, done := used[i]; !done {
			out = append(out, c)
		}
	}
	return out
}

func prettyHeader(caser cases.Caser, name string) string {
	return caser.String(strings.ReplaceAll(name, "_", " "))
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format("01/02")
	default:
		return fmt.Sprint(t)
	}
}
