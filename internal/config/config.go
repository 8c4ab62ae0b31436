// internal/config/config.go
//
// This package handles runtime settings and the base-directory layout.
// Every base directory the pipeline runs against carries config/, data/,
// logs/ and state/ folders, seeded with starter files on first run.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// SettingsFile is the optional runtime settings file under config/.
	SettingsFile = "weekly.yml"

	defaultDataDir   = "data"
	defaultOutputDir = "output"
	defaultLogLevel  = "info"
)

const defaultSettingsYAML = `# weekly-lists runtime settings. Every key is optional.
data_dir: data
output_dir: output
pdf: false
log_level: info
`

const defaultSourcesYAML = `# Input feeds. Globs resolve against the data directory; ** crosses folders.
# normalizer defaults to the source name, header_row to 5 (1-based).
sources:
  - name: pending_cancel
    path_glob: "*Pending*Cancel*.xlsx"
  - name: cancellation
    path_glob: "*Cancellation*.xlsx"
  - name: renewal
    path_glob: "*Renewal*.xlsx"
  - name: cross_sell
    path_glob: "*Cross*Sell*.xlsx"
`

const defaultEmployeesYAML = `# Assignment roster. The pipeline runs with an empty roster (every task
# lands in Unassigned.xlsx) until staff are added.
employees: []
# employees:
#   - name: Jill
#     priority_level: 1
#     prefer: high
#     predicate:
#       - field: state
#         op: "=="
#         value: IL
#     capacity_per_source:
#       renewal: 25
#       cancellation: 10
#   - name: Bob
#     prefer: low
`

const defaultExportYAML = `# Workbook shaping. order lists presentation columns left to right;
# columns.<source> holds per-sheet renames and drops.
order:
  - policy_number
  - first_name
  - last_name
  - phone
  - office
  - product
  - premium_new
  - event_date
  - full_address
  - consent_link
columns: {}
# columns:
#   renewal:
#     rename:
#       premium_change_dollars: premium_change
#     drop:
#       - cede_code
`

const defaultLookupsYAML = `# Lookup tables applied during post-processing.
office_map: {}
product_map: {}
# office_map:
#   "0123": Downtown
# product_map:
#   AUTO PREFERRED PKG: Auto
`

// Settings models config/weekly.yml. Missing keys resolve to defaults, so
// the file itself is optional.
type Settings struct {
	// DataDir holds the incoming workbooks, relative to the base
	// directory unless absolute.
	DataDir string `yaml:"data_dir"`

	// OutputDir is the root the dated output folders are created under.
	OutputDir string `yaml:"output_dir"`

	// PDF turns on PDF generation even without the --pdf flag.
	PDF bool `yaml:"pdf"`

	// LogLevel sets console verbosity: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Config holds the resolved paths for one pipeline run.
type Config struct {
	// BaseDir contains config/ and data/. Flags choose it; it defaults
	// to the working directory so the tool can run straight from cron.
	BaseDir string

	// OutputDir is where this run's workbooks are written.
	OutputDir string

	Settings Settings
}

// Load reads optional settings from <base>/config/weekly.yml and resolves
// the output directory. An empty outDir picks the dated default under the
// configured output root.
func Load(baseDir, outDir string) (*Config, error) {
	cfg := &Config{
		BaseDir:  filepath.Clean(baseDir),
		Settings: defaultSettings(),
	}

	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(outDir) == "" {
		outDir = cfg.DefaultOutputDir(time.Now())
	}
	cfg.OutputDir = filepath.Clean(outDir)
	return cfg, nil
}

// ConfigDir returns the directory holding the YAML configuration files.
func (c *Config) ConfigDir() string {
	return filepath.Join(c.BaseDir, "config")
}

// DataDir returns the directory scanned for incoming workbooks.
func (c *Config) DataDir() string {
	return resolvePath(c.BaseDir, c.Settings.DataDir)
}

// OutputRoot returns the directory the dated output folders live under.
func (c *Config) OutputRoot() string {
	return resolvePath(c.BaseDir, c.Settings.OutputDir)
}

// DefaultOutputDir returns the output folder for the given run day.
func (c *Config) DefaultOutputDir(day time.Time) string {
	return filepath.Join(c.OutputRoot(), day.Format("2006-01-02"))
}

// LogsDir returns the directory holding the run journal.
func (c *Config) LogsDir() string {
	return filepath.Join(c.BaseDir, "logs")
}

// LogPath returns the run journal file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "weekly.log")
}

// StateDir returns the directory for persisted pipeline state.
func (c *Config) StateDir() string {
	return filepath.Join(c.BaseDir, "state")
}

// RunsDir returns the directory holding one JSON summary per run.
func (c *Config) RunsDir() string {
	return filepath.Join(c.StateDir(), "runs")
}

// SettingsPath returns the on-disk location of weekly.yml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.ConfigDir(), SettingsFile)
}

// SourcesPath returns the on-disk location of sources.yml.
func (c *Config) SourcesPath() string {
	return filepath.Join(c.ConfigDir(), "sources.yml")
}

// EmployeesPath returns the on-disk location of employees.yml.
func (c *Config) EmployeesPath() string {
	return filepath.Join(c.ConfigDir(), "employees.yml")
}

// ExportPath returns the on-disk location of export.yml.
func (c *Config) ExportPath() string {
	return filepath.Join(c.ConfigDir(), "export.yml")
}

// LookupsPath returns the on-disk location of lookups.yml.
func (c *Config) LookupsPath() string {
	return filepath.Join(c.ConfigDir(), "lookups.yml")
}

// NormalizersDir returns the directory scanned for custom normalizer
// definitions.
func (c *Config) NormalizersDir() string {
	return filepath.Join(c.ConfigDir(), "normalizers")
}

// EnsureLayout creates the base-directory structure and seeds starter
// config files. Existing files are never overwritten.
//
// Structure created:
//
// <base>/
// ├── config/
// │   ├── weekly.yml      <- runtime settings
// │   ├── sources.yml     <- input feed declarations
// │   ├── employees.yml   <- assignment roster
// │   ├── export.yml      <- workbook shaping
// │   ├── lookups.yml     <- office and product lookups
// │   └── normalizers/    <- custom normalizer definitions
// ├── data/               <- incoming workbooks
// ├── logs/               <- run journal
// ├── output/             <- dated export folders
// └── state/
//     └── runs/           <- one JSON summary per run
func (c *Config) EnsureLayout() error {
	dirs := []string{
		c.ConfigDir(),
		c.NormalizersDir(),
		c.DataDir(),
		c.OutputRoot(),
		c.LogsDir(),
		c.RunsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}

	seeds := []struct {
		path, content string
	}{
		{c.SettingsPath(), defaultSettingsYAML},
		{c.SourcesPath(), defaultSourcesYAML},
		{c.EmployeesPath(), defaultEmployeesYAML},
		{c.ExportPath(), defaultExportYAML},
		{c.LookupsPath(), defaultLookupsYAML},
	}
	for _, seed := range seeds {
		if err := seedFile(seed.path, seed.content); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) loadSettings() error {
	path := c.SettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	c.Settings = parsed
	return nil
}

func defaultSettings() Settings {
	return Settings{
		DataDir:   defaultDataDir,
		OutputDir: defaultOutputDir,
		LogLevel:  defaultLogLevel,
	}
}

func (s *Settings) applyDefaults() {
	if strings.TrimSpace(s.DataDir) == "" {
		s.DataDir = defaultDataDir
	}
	if strings.TrimSpace(s.OutputDir) == "" {
		s.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(s.LogLevel) == "" {
		s.LogLevel = defaultLogLevel
	}
}

func (s *Settings) normalize() {
	s.DataDir = strings.TrimSpace(s.DataDir)
	s.OutputDir = strings.TrimSpace(s.OutputDir)
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
}

func (s Settings) validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", s.LogLevel)
	}
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func seedFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("config: seed %s: %w", path, err)
	}
	return nil
}
