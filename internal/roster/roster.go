package roster

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saulrichardson/allstate-weekly-lists/internal/rules"
)

// Phase membership values for Profile.Prefer.
const (
	PreferHigh = "high"
	PreferLow  = "low"
)

// DefaultPriorityLevel is used when employees.yml omits priority_level.
// Lower numbers are served earlier.
const DefaultPriorityLevel = 100

// Profile is one employee as the assignment engine sees them.
type Profile struct {
	Name string

	// PriorityLevel ranks employees inside a phase. Zero is a valid
	// explicit rank; missing values resolve to DefaultPriorityLevel at
	// load time.
	PriorityLevel int

	// Prefer selects the phase: high-premium first pass or low-premium
	// second pass.
	Prefer string

	// Predicate is the eligibility configuration. The engine never reads
	// it; the caller compiles it with rules.Build.
	Predicate rules.Config

	// CapacityPerSource caps how many records the employee takes per
	// source. A source missing from the map is unlimited; zero blocks
	// the source entirely.
	CapacityPerSource map[string]int
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	dup := p
	if p.CapacityPerSource != nil {
		dup.CapacityPerSource = make(map[string]int, len(p.CapacityPerSource))
		for source, capacity := range p.CapacityPerSource {
			dup.CapacityPerSource[source] = capacity
		}
	}
	if p.Predicate != nil {
		dup.Predicate = make(rules.Config, len(p.Predicate))
		copy(dup.Predicate, p.Predicate)
	}
	return dup
}

// Normalized returns a copy with the name trimmed and prefer lowercased.
func (p Profile) Normalized() Profile {
	dup := p.Clone()
	dup.Name = strings.TrimSpace(dup.Name)
	dup.Prefer = strings.ToLower(strings.TrimSpace(dup.Prefer))
	return dup
}

// Validate reports the profile's configuration problems.
func (p Profile) Validate() []error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, fmt.Errorf("name is required"))
	}
	if p.Prefer != PreferHigh && p.Prefer != PreferLow {
		errs = append(errs, fmt.Errorf("prefer must be %q or %q, got %q", PreferHigh, PreferLow, p.Prefer))
	}
	for source, capacity := range p.CapacityPerSource {
		if capacity < 0 {
			errs = append(errs, fmt.Errorf("capacity for source %q is negative", source))
		}
	}
	return errs
}

// Check validates a whole roster: every profile plus name uniqueness.
func Check(profiles []Profile) []error {
	var errs []error
	seen := map[string]struct{}{}
	for i, profile := range profiles {
		for _, err := range profile.Validate() {
			errs = append(errs, fmt.Errorf("employee %d (%s): %w", i, profile.Name, err))
		}
		name := strings.TrimSpace(profile.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("employee %d: duplicate name %q", i, name))
		}
		seen[name] = struct{}{}
	}
	return errs
}

// entry is the employees.yml shape. priority_level is a pointer so an
// explicit zero survives the missing-value default.
type entry struct {
	Name              string         `yaml:"name"`
	PriorityLevel     *int           `yaml:"priority_level"`
	Prefer            string         `yaml:"prefer"`
	Predicate         rules.Config   `yaml:"predicate"`
	CapacityPerSource map[string]int `yaml:"capacity_per_source"`
}

func (e entry) toProfile() Profile {
	profile := Profile{
		Name:              e.Name,
		PriorityLevel:     DefaultPriorityLevel,
		Prefer:            e.Prefer,
		Predicate:         e.Predicate,
		CapacityPerSource: e.CapacityPerSource,
	}
	if e.PriorityLevel != nil {
		profile.PriorityLevel = *e.PriorityLevel
	}
	if profile.Prefer == "" {
		profile.Prefer = PreferHigh
	}
	return profile.Normalized()
}

// Load reads employees.yml, applies defaults and validates the roster.
// Profiles come back in file order.
func Load(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster: read %s: %w", path, err)
	}
	return Parse(raw, path)
}

// Parse decodes roster YAML. The file wraps the list in a top-level
// employees key. The name argument is only used in error messages.
func Parse(raw []byte, name string) ([]Profile, error) {
	var file struct {
		Employees []entry `yaml:"employees"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", name, err)
	}
	profiles := make([]Profile, 0, len(file.Employees))
	for _, e := range file.Employees {
		profiles = append(profiles, e.toProfile())
	}
	if errs := Check(profiles); len(errs) > 0 {
		return nil, fmt.Errorf("roster: validate %s: %w", name, errors.Join(errs...))
	}
	return profiles, nil
}
