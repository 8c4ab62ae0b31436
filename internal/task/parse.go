package task

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Workbook cells arrive as formatted strings, so amount and date parsing
// has to accept the shapes the feeds actually produce: currency symbols,
// thousands separators, parenthesized negatives, slash dates with two or
// four digit years, and raw Excel serial numbers.

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
}

// excelEpoch is day zero of the 1900 date system used by xlsx serials.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseAmount reads a monetary amount from a cell string. It strips currency
// decoration and treats a parenthesized value as negative. The second return
// is false when the cell holds no usable number.
func ParseAmount(cell string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Decimal{}, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" || s == "-" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ToDecimal coerces a field value to a decimal for comparisons. Strings go
// through ParseAmount; native numeric types convert directly.
func ToDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return v, true
	case decimal.NullDecimal:
		if !v.Valid {
			return decimal.Decimal{}, false
		}
		return v.Decimal, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		return ParseAmount(v)
	default:
		return decimal.Decimal{}, false
	}
}

// ParseDate reads a calendar date from a cell value. Strings are tried
// against the known workbook layouts and then as an Excel serial number;
// numeric values are always treated as serials. Times normalize to UTC
// midnight of the parsed day.
func ParseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return midnight(v), true
	case float64:
		return serialDate(v)
	case int:
		return serialDate(float64(v))
	case int64:
		return serialDate(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return midnight(t), true
			}
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(serial)
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func serialDate(serial float64) (time.Time, bool) {
	if serial < 1 || serial > 200000 {
		return time.Time{}, false
	}
	t := excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
	return midnight(t), true
}

func midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
