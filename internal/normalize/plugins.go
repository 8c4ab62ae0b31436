package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

// Custom normalizer definitions live next to the rest of the run
// configuration. A definition file is either YAML or a Go file evaluated at
// startup whose NormalizerDefinitions() returns the same declarative shape.

const goDefinitionFuncName = "NormalizerDefinitions"

// DefinitionFile pairs a parsed definition with its on-disk source.
type DefinitionFile struct {
	Definition Definition
	Path       string
}

// ParseDefinitionYAML decodes and validates a single definition payload.
func ParseDefinitionYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("normalize: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("normalize: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def.Normalized(), nil
}

// LoadDefinitionFile reads one YAML definition from disk.
func LoadDefinitionFile(path string) (DefinitionFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("normalize: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DefinitionFile{}, fmt.Errorf("normalize: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("normalize: read %s: %w", path, err)
	}
	def, err := ParseDefinitionYAML(data)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("normalize: %s: %w", path, err)
	}
	return DefinitionFile{Definition: def, Path: filepath.Clean(path)}, nil
}

// LoadDefinitionDir scans a directory for *.yaml definitions. A missing
// directory means no custom definitions.
func LoadDefinitionDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("normalize: read %s: %w", trimmed, err)
	}
	var defs []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isYAMLFile(entry.Name()) {
			continue
		}
		def, err := LoadDefinitionFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, nil
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Path < defs[j].Path })
	return defs, nil
}

// LoadGoDefinitionDir evaluates every .go file in dir and collects the
// definitions declared via NormalizerDefinitions().
func LoadGoDefinitionDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("normalize: read %s: %w", trimmed, err)
	}
	var defs []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		fileDefs, err := loadGoDefinitionFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	if len(defs) == 0 {
		return nil, nil
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Path < defs[j].Path })
	return defs, nil
}

func loadGoDefinitionFile(path string) ([]DefinitionFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("normalize: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("normalize: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	i.Use(stdlib.Symbols)
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("normalize: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(goDefinitionFuncName)
	if err != nil {
		return nil, fmt.Errorf("normalize: %s must define %s() ([]map[string]any, error): %w", path, goDefinitionFuncName, err)
	}
	raw, callErr := invokeDefinitionFunc(fnValue)
	if callErr != nil {
		return nil, fmt.Errorf("normalize: %s: %w", path, callErr)
	}
	files := make([]DefinitionFile, 0, len(raw))
	for idx, entry := range raw {
		payload, err := yaml.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("normalize: %s definition[%d]: %w", path, idx, err)
		}
		parsed, err := ParseDefinitionYAML(payload)
		if err != nil {
			return nil, fmt.Errorf("normalize: %s definition[%d]: %w", path, idx, err)
		}
		files = append(files, DefinitionFile{Definition: parsed, Path: fmt.Sprintf("%s#%d", path, idx+1)})
	}
	return files, nil
}

func invokeDefinitionFunc(value reflect.Value) ([]map[string]any, error) {
	if !value.IsValid() {
		return nil, fmt.Errorf("missing %s function", goDefinitionFuncName)
	}
	if value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goDefinitionFuncName)
	}
	results := value.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goDefinitionFuncName)
	}
	if len(results) == 2 && !results[1].IsNil() {
		if e, ok := results[1].Interface().(error); ok && e != nil {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned a non-error second value", goDefinitionFuncName)
	}
	defsVal := results[0]
	if defs, ok := defsVal.Interface().([]map[string]any); ok {
		return defs, nil
	}
	if defsVal.Kind() == reflect.Slice {
		out := make([]map[string]any, defsVal.Len())
		for i := 0; i < defsVal.Len(); i++ {
			m, ok := defsVal.Index(i).Interface().(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is not map[string]any", goDefinitionFuncName, i)
			}
			out[i] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s must return []map[string]any", goDefinitionFuncName)
}

// RegisterCustom discovers YAML and Go definitions under dir and registers
// them. Names must not collide with built-ins or each other.
func RegisterCustom(reg *Registry, dir string) error {
	if reg == nil {
		return nil
	}
	yamlDefs, err := LoadDefinitionDir(dir)
	if err != nil {
		return err
	}
	goDefs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		return err
	}
	defs := append(yamlDefs, goDefs...)
	if len(defs) == 0 {
		return nil
	}
	seen := make(map[string]string, len(defs))
	for _, file := range defs {
		def := file.Definition
		if existing, ok := seen[def.Name]; ok {
			return fmt.Errorf("normalize: duplicate definition %s (%s and %s)", def.Name, existing, file.Path)
		}
		seen[def.Name] = file.Path
		if err := reg.Register(def.Name, def.Normalizer()); err != nil {
			return fmt.Errorf("normalize: register %s from %s: %w", def.Name, file.Path, err)
		}
	}
	return nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
