package task

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRecordFieldOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("policy_number", "P-100")
	rec.Set("insured_name", "Ada Lovelace")
	rec.Set("state", "IL")
	rec.Set("insured_name", "Grace Hopper")

	got := rec.Keys()
	want := []string{"policy_number", "insured_name", "state"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected keys %v, got %v", want, got)
	}
	value, ok := rec.Get("insured_name")
	if !ok || value != "Grace Hopper" {
		t.Fatalf("expected overwritten value, got %v (ok=%v)", value, ok)
	}
}

func TestRecordRenameKeepsPosition(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", 1)
	rec.Set("customer_consent_click", "https://example.com/sign")
	rec.Set("z", 3)

	if !rec.Rename("customer_consent_click", "consent_link") {
		t.Fatalf("expected rename to succeed")
	}
	want := []string{"a", "consent_link", "z"}
	if got := rec.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected keys %v, got %v", want, got)
	}
	if value, _ := rec.Get("consent_link"); value != "https://example.com/sign" {
		t.Fatalf("expected value to follow the rename, got %v", value)
	}
	if rec.Rename("missing", "anything") {
		t.Fatalf("expected rename of a missing field to report false")
	}
}

func TestRecordRenameDisplacesExistingTarget(t *testing.T) {
	rec := NewRecord()
	rec.Set("insured_state", "il")
	rec.Set("state", "stale")

	rec.Rename("insured_state", "state")

	if got := rec.Keys(); !reflect.DeepEqual(got, []string{"state"}) {
		t.Fatalf("expected single state column, got %v", got)
	}
	if value, _ := rec.Get("state"); value != "il" {
		t.Fatalf("expected renamed value to win, got %v", value)
	}
}

func TestRecordCloneIsIndependent(t *testing.T) {
	rec := NewRecord()
	rec.Source = "renewal"
	rec.RowID = 7
	rec.Premium = decimal.NullDecimal{Decimal: decimal.NewFromInt(150), Valid: true}
	rec.Set("policy_number", "P-1")

	dup := rec.Clone()
	dup.Set("policy_number", "P-2")
	dup.Set("extra", true)

	if value, _ := rec.Get("policy_number"); value != "P-1" {
		t.Fatalf("clone mutation leaked into the original: %v", value)
	}
	if rec.Has("extra") {
		t.Fatalf("clone field added to original")
	}
	if dup.Source != "renewal" || dup.RowID != 7 || !dup.Premium.Valid {
		t.Fatalf("clone lost scalar attributes: %+v", dup)
	}
}

func TestRecordEventDate(t *testing.T) {
	rec := NewRecord()
	if _, ok := rec.EventDate(); ok {
		t.Fatalf("expected no event date on an empty record")
	}
	when := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	rec.Set(FieldEventDate, when)
	got, ok := rec.EventDate()
	if !ok || !got.Equal(when) {
		t.Fatalf("expected %v, got %v (ok=%v)", when, got, ok)
	}
	rec.Set(FieldEventDate, "03/09/2026")
	if _, ok := rec.EventDate(); ok {
		t.Fatalf("expected non-time event date to report missing")
	}
}

func TestRecordText(t *testing.T) {
	rec := NewRecord()
	rec.Set("name", "  Bob Vance  ")
	rec.Set("count", 12)
	rec.Set("nothing", nil)

	cases := []struct {
		key  string
		want string
	}{
		{"name", "Bob Vance"},
		{"count", "12"},
		{"nothing", ""},
		{"absent", ""},
	}
	for _, tc := range cases {
		if got := rec.Text(tc.key); got != tc.want {
			t.Fatalf("Text(%q): expected %q, got %q", tc.key, tc.want, got)
		}
	}
}

func TestComparePremium(t *testing.T) {
	valid := func(v int64) decimal.NullDecimal {
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
	}
	missing := decimal.NullDecimal{}

	cases := []struct {
		name string
		a, b decimal.NullDecimal
		want int
	}{
		{"both missing", missing, missing, 0},
		{"missing below valid", missing, valid(-500), -1},
		{"valid above missing", valid(-500), missing, 1},
		{"ordered", valid(10), valid(100), -1},
		{"equal", valid(25), valid(25), 0},
	}
	for _, tc := range cases {
		if got := ComparePremium(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
