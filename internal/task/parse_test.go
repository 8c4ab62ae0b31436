package task

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		cell string
		want string
		ok   bool
	}{
		{"1234.50", "1234.5", true},
		{"$1,234.50", "1234.5", true},
		{" $ 980 ", "980", true},
		{"(500)", "-500", true},
		{"($1,000.25)", "-1000.25", true},
		{"-42", "-42", true},
		{"", "", false},
		{"   ", "", false},
		{"n/a", "", false},
		{"$", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.cell)
		if ok != tc.ok {
			t.Fatalf("ParseAmount(%q): expected ok=%v, got %v", tc.cell, tc.ok, ok)
		}
		if ok && got.String() != tc.want {
			t.Fatalf("ParseAmount(%q): expected %s, got %s", tc.cell, tc.want, got)
		}
	}
}

func TestToDecimal(t *testing.T) {
	if _, ok := ToDecimal(nil); ok {
		t.Fatalf("expected nil to coerce to nothing")
	}
	d, ok := ToDecimal(1250)
	if !ok || d.String() != "1250" {
		t.Fatalf("expected int coercion, got %s (ok=%v)", d, ok)
	}
	d, ok = ToDecimal("$2,000")
	if !ok || d.String() != "2000" {
		t.Fatalf("expected string coercion, got %s (ok=%v)", d, ok)
	}
	if _, ok = ToDecimal([]string{"no"}); ok {
		t.Fatalf("expected unsupported type to fail")
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		value any
	}{
		{"iso", "2026-03-09"},
		{"us slash", "03/09/2026"},
		{"us slash short", "3/9/26"},
		{"us dash", "03-09-2026"},
		{"time value", time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.value)
		if !ok {
			t.Fatalf("%s: expected a date", tc.name)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, want, got)
		}
	}
}

func TestParseDateSerial(t *testing.T) {
	// 2026-03-09 is serial 46090 in the 1900 date system.
	got, ok := ParseDate(46090.0)
	if !ok {
		t.Fatalf("expected serial to parse")
	}
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if _, ok := ParseDate("46090"); !ok {
		t.Fatalf("expected serial string to parse")
	}
	if _, ok := ParseDate(0.5); ok {
		t.Fatalf("expected sub-day serial to fail")
	}
	if _, ok := ParseDate("garbage"); ok {
		t.Fatalf("expected junk to fail")
	}
}
