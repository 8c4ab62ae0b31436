package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

// Table is one worksheet's content after the header row: the header cells
// and the data rows beneath them, all as formatted strings.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Definition describes a normalizer declaratively: how raw headers map to
// canonical field names and which canonical fields carry the premium and
// event date. Headers without a mapping fall back to a snake_case form of
// the raw header, so every source column survives into the record.
type Definition struct {
	Name string `yaml:"name"`

	// Columns maps raw sheet headers to canonical field names.
	Columns map[string]string `yaml:"columns"`

	// PremiumField names the canonical field parsed into the record's
	// premium. Empty means the source carries no premium.
	PremiumField string `yaml:"premium_field,omitempty"`

	// DateField names the canonical field parsed into event_date. Empty
	// means the source carries no event date. When set, every record gets
	// an event_date field, nil if the cell does not parse as a date, and
	// a parseable cell replaces the column's text with the typed date.
	DateField string `yaml:"date_field,omitempty"`

	// Strict requires every mapped raw header to be present in the sheet.
	Strict bool `yaml:"strict,omitempty"`

	// Required lists canonical fields the sheet must produce, for
	// definitions that want presence checks without full strictness.
	Required []string `yaml:"required,omitempty"`
}

// Normalized returns a copy with trimmed names and mappings.
func (d Definition) Normalized() Definition {
	dup := d
	dup.Name = strings.TrimSpace(d.Name)
	dup.PremiumField = strings.TrimSpace(d.PremiumField)
	dup.DateField = strings.TrimSpace(d.DateField)
	if d.Columns != nil {
		dup.Columns = make(map[string]string, len(d.Columns))
		for raw, canonical := range d.Columns {
			dup.Columns[strings.TrimSpace(raw)] = strings.TrimSpace(canonical)
		}
	}
	if d.Required != nil {
		dup.Required = make([]string, 0, len(d.Required))
		for _, field := range d.Required {
			if trimmed := strings.TrimSpace(field); trimmed != "" {
				dup.Required = append(dup.Required, trimmed)
			}
		}
	}
	return dup
}

// Validate reports structural problems with the definition.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("normalize: definition name is required")
	}
	for raw, canonical := range d.Columns {
		if strings.TrimSpace(raw) == "" {
			return fmt.Errorf("normalize: definition %s: empty raw header in columns", d.Name)
		}
		if strings.TrimSpace(canonical) == "" {
			return fmt.Errorf("normalize: definition %s: column %q maps to an empty name", d.Name, raw)
		}
	}
	return nil
}

// Normalizer compiles the definition into a table normalizer.
func (d Definition) Normalizer() Normalizer {
	def := d.Normalized()
	return func(tbl Table) ([]*task.Record, error) {
		return apply(def, tbl)
	}
}

func apply(def Definition, tbl Table) ([]*task.Record, error) {
	canonical := make([]string, len(tbl.Columns))
	produced := make(map[string]struct{}, len(tbl.Columns))
	for i, header := range tbl.Columns {
		name := strings.TrimSpace(header)
		if mapped, ok := def.Columns[name]; ok {
			canonical[i] = mapped
		} else {
			canonical[i] = toSnake(name)
		}
		if canonical[i] != "" {
			produced[canonical[i]] = struct{}{}
		}
	}

	if def.Strict {
		var missing []string
		present := make(map[string]struct{}, len(tbl.Columns))
		for _, header := range tbl.Columns {
			present[strings.TrimSpace(header)] = struct{}{}
		}
		for raw := range def.Columns {
			if _, ok := present[raw]; !ok {
				missing = append(missing, raw)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, fmt.Errorf("normalize: %s: sheet is missing columns: %s", def.Name, strings.Join(missing, ", "))
		}
	}
	for _, field := range def.Required {
		if _, ok := produced[field]; !ok {
			return nil, fmt.Errorf("normalize: %s: sheet does not produce required field %s", def.Name, field)
		}
	}

	records := make([]*task.Record, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		rec := task.NewRecord()
		for i, field := range canonical {
			if field == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = row[i]
			}
			rec.Set(field, value)
		}
		if def.PremiumField != "" {
			if amount, ok := task.ParseAmount(rec.Text(def.PremiumField)); ok {
				rec.Premium = decimal.NullDecimal{Decimal: amount, Valid: true}
			}
		}
		if def.DateField != "" {
			raw, _ := rec.Get(def.DateField)
			if when, parsed := task.ParseDate(raw); parsed {
				rec.Set(def.DateField, when)
				rec.Set(task.FieldEventDate, when)
			} else {
				rec.Set(task.FieldEventDate, nil)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// toSnake lowercases a header and collapses runs of non-alphanumerics into
// single underscores: "Premium Change(%)" becomes "premium_change".
func toSnake(header string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(header) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
