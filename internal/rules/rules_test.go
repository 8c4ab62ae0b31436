package rules

import (
	"strings"
	"testing"

	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

func buildRecord(t *testing.T, fields map[string]any) *task.Record {
	t.Helper()
	rec := task.NewRecord()
	for key, value := range fields {
		rec.Set(key, value)
	}
	return rec
}

func TestBuildEmptyConfigAcceptsEverything(t *testing.T) {
	pred, err := Build(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pred(task.NewRecord()) {
		t.Fatalf("expected empty config to accept an empty record")
	}
}

func TestBuildRejectsMalformedConditions(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing field", Config{{Op: OpEqual, Value: 1}}, "field is required"},
		{"missing op", Config{{Field: "state"}}, "op is required"},
		{"unknown op", Config{{Field: "state", Op: "~="}}, "unsupported op"},
		{"in without values", Config{{Field: "state", Op: OpIn}}, "requires values"},
		{"between without bounds", Config{{Field: "premium", Op: OpBetween, Low: 1}}, "requires low and high"},
		{"comparison without value", Config{{Field: "premium", Op: OpGreater}}, "requires a value"},
	}
	for _, tc := range cases {
		if _, err := Build(tc.cfg); err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestPredicateComparisons(t *testing.T) {
	rec := buildRecord(t, map[string]any{
		"state":   "IL",
		"premium": "$1,250.00",
		"office":  "Downtown",
		"zip":     "60601",
	})

	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"equal fold", Config{{Field: "state", Op: OpEqual, Value: "il"}}, true},
		{"equal miss", Config{{Field: "state", Op: OpEqual, Value: "WI"}}, false},
		{"not equal", Config{{Field: "state", Op: OpNotEqual, Value: "WI"}}, true},
		{"numeric equal across formats", Config{{Field: "premium", Op: OpEqual, Value: 1250}}, true},
		{"greater", Config{{Field: "premium", Op: OpGreater, Value: 1000}}, true},
		{"greater or equal boundary", Config{{Field: "premium", Op: OpGreaterOrEqual, Value: "1250"}}, true},
		{"less fails", Config{{Field: "premium", Op: OpLess, Value: 1000}}, false},
		{"in", Config{{Field: "state", Op: OpIn, Values: []any{"WI", "il", "MN"}}}, true},
		{"in miss", Config{{Field: "state", Op: OpIn, Values: []any{"WI", "MN"}}}, false},
		{"between inclusive", Config{{Field: "premium", Op: OpBetween, Low: 1250, High: 2000}}, true},
		{"between outside", Config{{Field: "premium", Op: OpBetween, Low: 2000, High: 3000}}, false},
		{"conjunction", Config{
			{Field: "state", Op: OpEqual, Value: "IL"},
			{Field: "premium", Op: OpGreaterOrEqual, Value: 1000},
		}, true},
		{"conjunction short-circuits", Config{
			{Field: "state", Op: OpEqual, Value: "WI"},
			{Field: "premium", Op: OpGreaterOrEqual, Value: 1000},
		}, false},
		{"missing field fails even not-equal", Config{{Field: "absent", Op: OpNotEqual, Value: "x"}}, false},
		{"non-numeric ordering fails", Config{{Field: "office", Op: OpGreater, Value: 10}}, false},
	}
	for _, tc := range cases {
		pred, err := Build(tc.cfg)
		if err != nil {
			t.Fatalf("%s: unexpected build error: %v", tc.name, err)
		}
		if got := pred(rec); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestPredicateDateComparisons(t *testing.T) {
	rec := buildRecord(t, map[string]any{
		"cancel_date": "03/09/2026",
	})
	pred, err := Build(Config{{Field: "cancel_date", Op: OpBetween, Low: "2026-03-01", High: "2026-03-31"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pred(rec) {
		t.Fatalf("expected date between to pass")
	}
	pred, err = Build(Config{{Field: "cancel_date", Op: OpLess, Value: "2026-03-01"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred(rec) {
		t.Fatalf("expected date less-than to fail")
	}
}

func TestPredicateNilValueFailsCondition(t *testing.T) {
	rec := task.NewRecord()
	rec.Set("status", nil)
	pred, err := Build(Config{{Field: "status", Op: OpEqual, Value: "active"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred(rec) {
		t.Fatalf("expected nil field value to fail the condition")
	}
}
