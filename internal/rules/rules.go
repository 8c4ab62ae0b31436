package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

// Supported condition operators.
const (
	OpEqual          = "=="
	OpNotEqual       = "!="
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
	OpLess           = "<"
	OpLessOrEqual    = "<="
	OpIn             = "in"
	OpBetween        = "between"
)

// Condition is one comparison against a record field.
//
// The comparison ops use Value, "in" uses Values and "between" uses Low and
// High (both bounds inclusive).
type Condition struct {
	Field  string `yaml:"field"`
	Op     string `yaml:"op"`
	Value  any    `yaml:"value,omitempty"`
	Values []any  `yaml:"values,omitempty"`
	Low    any    `yaml:"low,omitempty"`
	High   any    `yaml:"high,omitempty"`
}

// Config is a conjunction of conditions. An empty config accepts every
// record.
type Config []Condition

// Predicate reports whether an employee is eligible for a record.
type Predicate func(*task.Record) bool

// Build compiles a predicate from configuration. Malformed conditions are
// reported here rather than surfacing per record during assignment.
//
// A condition whose field is missing from the record, or holds nil, fails
// that condition regardless of operator.
func Build(cfg Config) (Predicate, error) {
	checks := make([]func(*task.Record) bool, 0, len(cfg))
	for i, cond := range cfg {
		check, err := compile(cond)
		if err != nil {
			return nil, fmt.Errorf("rules: condition %d: %w", i, err)
		}
		checks = append(checks, check)
	}
	return func(rec *task.Record) bool {
		for _, check := range checks {
			if !check(rec) {
				return false
			}
		}
		return true
	}, nil
}

func compile(cond Condition) (func(*task.Record) bool, error) {
	field := strings.TrimSpace(cond.Field)
	if field == "" {
		return nil, fmt.Errorf("field is required")
	}
	op := strings.TrimSpace(cond.Op)

	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		if cond.Value == nil {
			return nil, fmt.Errorf("field %s: op %q requires a value", field, op)
		}
	case OpIn:
		if len(cond.Values) == 0 {
			return nil, fmt.Errorf("field %s: op \"in\" requires values", field)
		}
	case OpBetween:
		if cond.Low == nil || cond.High == nil {
			return nil, fmt.Errorf("field %s: op \"between\" requires low and high", field)
		}
	case "":
		return nil, fmt.Errorf("field %s: op is required", field)
	default:
		return nil, fmt.Errorf("field %s: unsupported op %q", field, op)
	}

	value := cond.Value
	values := cond.Values
	low, high := cond.Low, cond.High

	return func(rec *task.Record) bool {
		raw, ok := rec.Get(field)
		if !ok || raw == nil {
			return false
		}
		switch op {
		case OpEqual:
			return equal(raw, value)
		case OpNotEqual:
			return !equal(raw, value)
		case OpGreater:
			c, ok := compare(raw, value)
			return ok && c > 0
		case OpGreaterOrEqual:
			c, ok := compare(raw, value)
			return ok && c >= 0
		case OpLess:
			c, ok := compare(raw, value)
			return ok && c < 0
		case OpLessOrEqual:
			c, ok := compare(raw, value)
			return ok && c <= 0
		case OpIn:
			for _, candidate := range values {
				if equal(raw, candidate) {
					return true
				}
			}
			return false
		case OpBetween:
			fromLow, okLow := compare(raw, low)
			toHigh, okHigh := compare(raw, high)
			return okLow && okHigh && fromLow >= 0 && toHigh <= 0
		}
		return false
	}, nil
}

// equal compares numerically when both sides carry numbers, otherwise as
// trimmed case-insensitive strings.
func equal(a, b any) bool {
	da, aNum := task.ToDecimal(a)
	db, bNum := task.ToDecimal(b)
	if aNum && bNum {
		return da.Cmp(db) == 0
	}
	return strings.EqualFold(text(a), text(b))
}

// compare orders numerically when both sides carry numbers and
// chronologically when both carry dates. Anything else is not comparable.
func compare(a, b any) (int, bool) {
	da, aNum := task.ToDecimal(a)
	db, bNum := task.ToDecimal(b)
	if aNum && bNum {
		return da.Cmp(db), true
	}
	ta, aTime := asTime(a)
	tb, bTime := asTime(b)
	if aTime && bTime {
		switch {
		case ta.Before(tb):
			return -1, true
		case ta.After(tb):
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, !t.IsZero()
	}
	if s, ok := v.(string); ok {
		return task.ParseDate(s)
	}
	return time.Time{}, false
}

func text(v any) string {
	return strings.TrimSpace(fmt.Sprint(v))
}
