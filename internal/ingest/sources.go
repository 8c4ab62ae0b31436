// Package ingest discovers the configured workbook feeds, reads them and
// turns their rows into records ready for assignment.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHeaderRow is the 1-based sheet row holding column headers when
// sources.yml does not say otherwise. The production reports carry four
// banner rows above the table.
const DefaultHeaderRow = 5

// SourceSpec declares one input feed in sources.yml.
type SourceSpec struct {
	// Name tags every record loaded from this feed and selects the
	// business filters that apply to it.
	Name string `yaml:"name"`

	// PathGlob matches workbook files under the data directory.
	// doublestar patterns (**) are supported.
	PathGlob string `yaml:"path_glob"`

	// Normalizer names the registered normalizer. Defaults to Name.
	Normalizer string `yaml:"normalizer,omitempty"`

	// HeaderRow is the 1-based row holding the column headers.
	HeaderRow int `yaml:"header_row,omitempty"`
}

// Normalized returns a copy with trimmed fields.
func (s SourceSpec) Normalized() SourceSpec {
	dup := s
	dup.Name = strings.TrimSpace(s.Name)
	dup.PathGlob = strings.TrimSpace(s.PathGlob)
	dup.Normalizer = strings.TrimSpace(s.Normalizer)
	return dup
}

func (s *SourceSpec) applyDefaults() {
	if s.Normalizer == "" {
		s.Normalizer = s.Name
	}
	if s.HeaderRow == 0 {
		s.HeaderRow = DefaultHeaderRow
	}
}

// Validate reports the feed's configuration problems.
func (s SourceSpec) Validate() []error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, fmt.Errorf("name is required"))
	}
	if s.PathGlob == "" {
		errs = append(errs, fmt.Errorf("path_glob is required"))
	}
	if s.HeaderRow < 1 {
		errs = append(errs, fmt.Errorf("header_row must be >= 1, got %d", s.HeaderRow))
	}
	return errs
}

// Check validates a whole source list: every entry plus name uniqueness.
func Check(specs []SourceSpec) []error {
	var errs []error
	seen := map[string]struct{}{}
	for i, spec := range specs {
		for _, err := range spec.Validate() {
			errs = append(errs, fmt.Errorf("source %d (%s): %w", i, spec.Name, err))
		}
		if spec.Name == "" {
			continue
		}
		if _, dup := seen[spec.Name]; dup {
			errs = append(errs, fmt.Errorf("source %d: duplicate name %q", i, spec.Name))
		}
		seen[spec.Name] = struct{}{}
	}
	return errs
}

// LoadSources reads sources.yml, applies defaults and validates. Specs come
// back in file order, which is also ingestion order.
func LoadSources(path string) ([]SourceSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", path, err)
	}
	return ParseSources(raw, path)
}

// ParseSources decodes sources YAML. The file wraps the list in a top-level
// sources key. The name argument is only used in error messages.
func ParseSources(raw []byte, name string) ([]SourceSpec, error) {
	var file struct {
		Sources []SourceSpec `yaml:"sources"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("ingest: parse %s: %w", name, err)
	}
	specs := make([]SourceSpec, 0, len(file.Sources))
	for _, spec := range file.Sources {
		spec = spec.Normalized()
		spec.applyDefaults()
		specs = append(specs, spec)
	}
	if errs := Check(specs); len(errs) > 0 {
		return nil, fmt.Errorf("ingest: validate %s: %w", name, errors.Join(errs...))
	}
	return specs, nil
}
