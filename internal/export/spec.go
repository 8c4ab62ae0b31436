// Package export turns assigned records into the weekly deliverables: one
// workbook per employee, shaped by export.yml, with optional PDF copies.
package export

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SheetSpec shapes one source's sheet before the global column order is
// applied.
type SheetSpec struct {
	// Rename maps canonical field names to presentation names.
	Rename map[string]string `yaml:"rename,omitempty"`

	// Drop lists fields removed from this sheet only.
	Drop []string `yaml:"drop,omitempty"`
}

// Spec models export.yml.
type Spec struct {
	// Order lists the presentation columns left to right. A field not
	// named here (and not a rename target) never reaches a sheet.
	Order []string `yaml:"order"`

	// Columns holds the per-source sheet shaping.
	Columns map[string]SheetSpec `yaml:"columns,omitempty"`
}

// SheetFor returns the shaping for a source, zero when unconfigured.
func (s Spec) SheetFor(source string) SheetSpec {
	if s.Columns == nil {
		return SheetSpec{}
	}
	return s.Columns[source]
}

// LoadSpec reads export.yml.
func LoadSpec(path string) (Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("export: read %s: %w", path, err)
	}
	return ParseSpec(raw, path)
}

// ParseSpec decodes export YAML. The name argument is only used in error
// messages.
func ParseSpec(raw []byte, name string) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return Spec{}, fmt.Errorf("export: parse %s: %w", name, err)
	}
	order := make([]string, 0, len(spec.Order))
	for _, field := range spec.Order {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			order = append(order, trimmed)
		}
	}
	spec.Order = order
	return spec, nil
}
