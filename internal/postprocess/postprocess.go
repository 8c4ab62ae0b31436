// Package postprocess cleans records between assignment and export:
// friendlier field names, formatted phone numbers, office and product
// labels resolved through the configured lookup tables.
package postprocess

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saulrichardson/allstate-weekly-lists/internal/normalize"
	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

// Lookups models config/lookups.yml.
type Lookups struct {
	// OfficeMap resolves agent numbers to office labels.
	OfficeMap map[string]string `yaml:"office_map"`

	// ProductMap collapses verbose product descriptors to short labels.
	ProductMap map[string]string `yaml:"product_map"`
}

// LoadLookups reads lookups.yml. A missing file means empty lookups; a
// malformed one is an error so --check can surface it.
func LoadLookups(path string) (Lookups, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Lookups{}, nil
		}
		return Lookups{}, fmt.Errorf("postprocess: read %s: %w", path, err)
	}
	return ParseLookups(raw, path)
}

// ParseLookups decodes lookup YAML. The name argument is only used in
// error messages.
func ParseLookups(raw []byte, name string) (Lookups, error) {
	var parsed Lookups
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return Lookups{}, fmt.Errorf("postprocess: parse %s: %w", name, err)
	}
	return parsed, nil
}

// Cleaner applies the per-source cleanup rules.
type Cleaner struct {
	lookups Lookups
}

// New creates a Cleaner using the given lookup tables.
func New(lookups Lookups) *Cleaner {
	return &Cleaner{lookups: lookups}
}

// CleanAll returns cleaned copies of the records, in order. Inputs are
// never mutated.
func (c *Cleaner) CleanAll(records []*task.Record) []*task.Record {
	out := make([]*task.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, c.Clean(rec))
	}
	return out
}

// Clean returns a cleaned copy of one record: the generic pipeline plus
// whatever its source feed needs on top.
func (c *Cleaner) Clean(rec *task.Record) *task.Record {
	out := rec.Clone()
	c.generic(out)
	switch rec.Source {
	case normalize.SourceCancellation:
		out.Rename("customer_consent_click", "consent_link")
	}
	return out
}

// generic runs the source-agnostic steps. Order matters: names settle
// first, then values, then the derived full_address and product labels
// read the settled values.
func (c *Cleaner) generic(rec *task.Record) {
	stripInsuredPrefix(rec)
	c.resolveOffice(rec)
	trimStrings(rec)
	upperState(rec)
	formatPhone(rec)
	combineAddress(rec)
	c.relabelProducts(rec)
}

func stripInsuredPrefix(rec *task.Record) {
	for _, key := range rec.Keys() {
		if short := strings.TrimPrefix(key, "insured_"); short != key && short != "" {
			rec.Rename(key, short)
		}
	}
}

func (c *Cleaner) resolveOffice(rec *task.Record) {
	if !rec.Has("agent_number") {
		return
	}
	code := rec.Text("agent_number")
	rec.Delete("agent_number")
	if label, ok := c.lookups.OfficeMap[strings.ToUpper(code)]; ok {
		rec.Set("office", label)
	} else {
		rec.Set("office", code)
	}
}

func trimStrings(rec *task.Record) {
	for _, key := range rec.Keys() {
		if value, ok := rec.Get(key); ok {
			if s, isString := value.(string); isString {
				rec.Set(key, strings.TrimSpace(s))
			}
		}
	}
}

func upperState(rec *task.Record) {
	if value, ok := rec.Get("state"); ok {
		if s, isString := value.(string); isString {
			rec.Set("state", strings.ToUpper(s))
		}
	}
}

func formatPhone(rec *task.Record) {
	if !rec.Has("phone") {
		return
	}
	digits := digitsOf(rec.Text("phone"))
	if len(digits) == 10 {
		rec.Set("phone", fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:]))
	}
}

func combineAddress(rec *task.Record) {
	var parts []string
	for _, key := range []string{"street_address", "city", "state", "zip_code"} {
		if part := rec.Text(key); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		rec.Set("full_address", strings.Join(parts, ", "))
	}
}

func (c *Cleaner) relabelProducts(rec *task.Record) {
	if len(c.lookups.ProductMap) == 0 {
		return
	}
	for _, key := range []string{"product", "product_name"} {
		value, ok := rec.Get(key)
		if !ok {
			continue
		}
		if s, isString := value.(string); isString {
			if label, mapped := c.lookups.ProductMap[s]; mapped {
				rec.Set(key, label)
			}
		}
	}
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
