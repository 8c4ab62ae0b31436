package normalize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestParseDefinitionYAML(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(`
name: legacy_feed
columns:
  "Policy Number": policy_number
  "Premium($)": premium
premium_field: premium
date_field: effective_date
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Name != "legacy_feed" {
		t.Fatalf("expected name legacy_feed, got %q", def.Name)
	}
	if def.Columns["Policy Number"] != "policy_number" {
		t.Fatalf("expected column map to parse, got %v", def.Columns)
	}

	if _, err := ParseDefinitionYAML([]byte("   \n")); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
	if _, err := ParseDefinitionYAML([]byte("columns:\n  A: a\n")); err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestLoadDefinitionDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_feed.yaml", "name: b_feed\ncolumns:\n  \"Policy Number\": policy_number\n")
	writeFile(t, dir, "a_feed.yml", "name: a_feed\n")
	writeFile(t, dir, "notes.txt", "not a definition")

	defs, err := LoadDefinitionDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Definition.Name != "a_feed" || defs[1].Definition.Name != "b_feed" {
		t.Fatalf("expected path-sorted definitions, got %s then %s", defs[0].Definition.Name, defs[1].Definition.Name)
	}

	missing, err := LoadDefinitionDir(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Fatalf("expected a missing dir to mean no definitions, got %v / %v", missing, err)
	}
}

func TestLoadGoDefinitionDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "legacy.go", `package main

func NormalizerDefinitions() ([]map[string]any, error) {
	return []map[string]any{
		{
			"name": "legacy_feed",
			"columns": map[string]any{
				"Policy Number": "policy_number",
				"Premium($)":    "premium",
			},
			"premium_field": "premium",
		},
	}, nil
}
`)

	defs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	def := defs[0].Definition
	if def.Name != "legacy_feed" || def.PremiumField != "premium" {
		t.Fatalf("unexpected definition: %+v", def)
	}

	records, err := def.Normalizer()(Table{
		Columns: []string{"Policy Number", "Premium($)"},
		Rows:    [][]string{{"P-9", "$310"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !records[0].Premium.Valid || records[0].Premium.Decimal.String() != "310" {
		t.Fatalf("expected premium 310, got %+v", records[0].Premium)
	}
}

func TestLoadGoDefinitionRejectsMissingFunc(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.go", "package main\n\nvar X = 1\n")
	if _, err := LoadGoDefinitionDir(dir); err == nil {
		t.Fatalf("expected missing NormalizerDefinitions to fail")
	}
}

func TestRegisterCustomDetectsCollisions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.yaml", "name: legacy_feed\n")
	writeFile(t, dir, "two.yaml", "name: legacy_feed\n")

	reg := NewRegistry()
	err := RegisterCustom(reg, dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate definition") {
		t.Fatalf("expected duplicate definition error, got %v", err)
	}

	dir2 := t.TempDir()
	writeFile(t, dir2, "clash.yaml", "name: renewal\n")
	reg2 := NewRegistry()
	RegisterBuiltins(reg2)
	err = RegisterCustom(reg2, dir2)
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected builtin collision error, got %v", err)
	}
}

func TestRegisterCustomEmptyDir(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterCustom(reg, t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names := reg.Names(); len(names) != 0 {
		t.Fatalf("expected no registrations, got %v", names)
	}
}
