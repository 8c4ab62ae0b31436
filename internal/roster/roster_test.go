package roster

import (
	"strings"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	raw := []byte(`
employees:
  - name: "  Jill  "
    priority_level: 0
    prefer: HIGH
    capacity_per_source:
      renewal: 3
  - name: Bob
    prefer: low
  - name: Dakota
`)
	profiles, err := Parse(raw, "employees.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(profiles))
	}
	jill := profiles[0]
	if jill.Name != "Jill" {
		t.Fatalf("expected trimmed name, got %q", jill.Name)
	}
	if jill.PriorityLevel != 0 {
		t.Fatalf("explicit zero priority must survive, got %d", jill.PriorityLevel)
	}
	if jill.Prefer != PreferHigh {
		t.Fatalf("expected lowercased prefer, got %q", jill.Prefer)
	}
	if profiles[1].PriorityLevel != DefaultPriorityLevel {
		t.Fatalf("expected default priority, got %d", profiles[1].PriorityLevel)
	}
	if profiles[2].Prefer != PreferHigh {
		t.Fatalf("expected missing prefer to default high, got %q", profiles[2].Prefer)
	}
}

func TestParseRejectsBadRosters(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			"duplicate names",
			"employees:\n  - name: Jill\n  - name: Jill\n",
			"duplicate name",
		},
		{
			"negative capacity",
			"employees:\n  - name: Jill\n    capacity_per_source:\n      renewal: -1\n",
			"negative",
		},
		{
			"blank name",
			"employees:\n  - name: \"  \"\n",
			"name is required",
		},
		{
			"bad prefer",
			"employees:\n  - name: Jill\n    prefer: extreme\n",
			"prefer must be",
		},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.raw), "employees.yml")
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := Profile{
		Name:              "Jill",
		Prefer:            PreferHigh,
		CapacityPerSource: map[string]int{"renewal": 2},
	}
	dup := original.Clone()
	dup.CapacityPerSource["renewal"] = 99
	if original.CapacityPerSource["renewal"] != 2 {
		t.Fatalf("clone shares the capacity map")
	}
}
