package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Canonical field names shared across the pipeline. Normalizers produce
// them, the runner and exporters read them. The assignment engine treats
// every field as opaque passthrough.
const (
	FieldEventDate         = "event_date"
	FieldExclusiveAssignee = "exclusive_assignee"
	FieldPolicyNumber      = "policy_number"
)

// Record is one unit of audit work: a source tag, an optional premium, and
// an ordered set of passthrough fields read from the originating workbook.
// Field order follows insertion and survives cloning, so a record renders
// the same way every run.
type Record struct {
	// Source names the feed the record came from and the capacity bucket
	// it draws from during assignment.
	Source string

	// RowID is the run-scoped ingestion sequence number. It breaks ties
	// wherever ordering must be stable.
	RowID int

	// Premium is the monetary weight used to order the assignment queue.
	// An invalid NullDecimal means the feed carried no usable amount.
	Premium decimal.NullDecimal

	fields *orderedmap.OrderedMap[string, any]
}

// NewRecord returns an empty record with no fields set.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

func (r *Record) ensureFields() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
}

// Set stores a field value, appending the key to the field order when it is
// new and keeping its position when it already exists.
func (r *Record) Set(key string, value any) {
	r.ensureFields()
	r.fields.Set(key, value)
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// Has reports whether the record carries the field.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Delete removes a field. Removing a missing field is a no-op.
func (r *Record) Delete(key string) {
	if r.fields == nil {
		return
	}
	r.fields.Delete(key)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	if r.fields == nil {
		return nil
	}
	keys := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Rename moves a field value from oldKey to newKey, keeping the field's
// position in the order. When newKey already exists elsewhere its old entry
// is removed. Returns false when oldKey is not present.
func (r *Record) Rename(oldKey, newKey string) bool {
	if r.fields == nil {
		return false
	}
	if oldKey == newKey {
		return r.Has(oldKey)
	}
	if !r.Has(oldKey) {
		return false
	}
	rebuilt := orderedmap.New[string, any]()
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Key {
		case oldKey:
			rebuilt.Set(newKey, pair.Value)
		case newKey:
			// dropped: superseded by the renamed field
		default:
			rebuilt.Set(pair.Key, pair.Value)
		}
	}
	r.fields = rebuilt
	return true
}

// Text returns the field rendered as a trimmed string, or "" when the field
// is missing or nil.
func (r *Record) Text(key string) string {
	value, ok := r.Get(key)
	if !ok || value == nil {
		return ""
	}
	if s, isString := value.(string); isString {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// EventDate returns the canonical event date when the record has one.
func (r *Record) EventDate() (time.Time, bool) {
	value, ok := r.Get(FieldEventDate)
	if !ok {
		return time.Time{}, false
	}
	t, isTime := value.(time.Time)
	if !isTime || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a deep copy of the record's field order. Field values are
// copied by assignment; records store scalars, so that is a full copy in
// practice.
func (r *Record) Clone() *Record {
	dup := &Record{
		Source:  r.Source,
		RowID:   r.RowID,
		Premium: r.Premium,
		fields:  orderedmap.New[string, any](),
	}
	if r.fields != nil {
		for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
			dup.fields.Set(pair.Key, pair.Value)
		}
	}
	return dup
}

// ComparePremium orders two premium values. An invalid premium sorts below
// every valid amount, negatives included; two invalid premiums compare
// equal. Returns -1, 0 or 1.
func ComparePremium(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	default:
		return a.Decimal.Cmp(b.Decimal)
	}
}
