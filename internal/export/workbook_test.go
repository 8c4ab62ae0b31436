package export

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

func TestExportWritesWorkbookPerEmployee(t *testing.T) {
	outDir := t.TempDir()
	spec := Spec{Order: []string{"policy_number", "premium_new", "event_date"}}
	sources := []string{"renewal", "cross_sell"}

	assignments := map[string][]*task.Record{
		"Alice Smith": {
			record(t, "renewal", "500",
				"policy_number", "P-1",
				"premium_new", "$500.00",
				"event_date", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			),
			record(t, "cross_sell", "",
				"policy_number", "P-9",
				"premium_new", "$75.50",
			),
		},
		"Bob Jones": nil,
	}

	exp := New(spec, sources)
	written, err := exp.Export(context.Background(), assignments, outDir, false)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	wantPaths := []string{
		filepath.Join(outDir, "Alice Smith.xlsx"),
		filepath.Join(outDir, "Bob Jones.xlsx"),
	}
	if !reflect.DeepEqual(written, wantPaths) {
		t.Fatalf("written = %v, want %v", written, wantPaths)
	}

	alice, err := excelize.OpenFile(wantPaths[0])
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer alice.Close()

	if got := alice.GetSheetList(); !reflect.DeepEqual(got, sources) {
		t.Fatalf("sheets = %v, want %v", got, sources)
	}
	rows, err := alice.GetRows("renewal")
	if err != nil {
		t.Fatalf("read renewal sheet: %v", err)
	}
	wantHeader := []string{"Policy Number", "Premium New", "Event Date", "Result"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Fatalf("header = %v, want %v", rows[0], wantHeader)
	}
	if len(rows) != 2 || rows[1][0] != "P-1" || rows[1][1] != "$500.00" || rows[1][2] != "03/10" {
		t.Fatalf("data rows = %v", rows[1:])
	}

	width, err := alice.GetColWidth("renewal", "D")
	if err != nil {
		t.Fatalf("result column width: %v", err)
	}
	if width != resultColWidth {
		t.Fatalf("result column width = %v, want %v", width, resultColWidth)
	}

	bob, err := excelize.OpenFile(wantPaths[1])
	if err != nil {
		t.Fatalf("open empty workbook: %v", err)
	}
	defer bob.Close()

	if got := bob.GetSheetList(); !reflect.DeepEqual(got, []string{"No Tasks"}) {
		t.Fatalf("sheets = %v, want [No Tasks]", got)
	}
	rows, err = bob.GetRows("No Tasks")
	if err != nil {
		t.Fatalf("read placeholder sheet: %v", err)
	}
	want := [][]string{{"Info"}, {"No tasks assigned"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("placeholder rows = %v, want %v", rows, want)
	}
}

func TestColumnWidth(t *testing.T) {
	tests := []struct {
		name  string
		sheet Sheet
		col   int
		want  float64
	}{
		{
			name:  "minimum floor",
			sheet: Sheet{Headers: []string{"Op"}, Rows: [][]string{{"x"}}},
			col:   0,
			want:  minColWidth,
		},
		{
			name:  "header drives width",
			sheet: Sheet{Headers: []string{"Policy Number"}, Rows: [][]string{{"P-1"}}},
			col:   0,
			want:  15,
		},
		{
			name:  "cell drives width",
			sheet: Sheet{Headers: []string{"Addr"}, Rows: [][]string{{"1 North Michigan Ave, Chicago"}}},
			col:   0,
			want:  31,
		},
		{
			name:  "result column reserved room",
			sheet: Sheet{Headers: []string{"Result"}, Rows: nil},
			col:   0,
			want:  resultColWidth,
		},
		{
			name: "ceiling",
			sheet: Sheet{
				Headers: []string{"Note"},
				Rows:    [][]string{{"this value runs far past sixty characters and must be clamped to the cap"}},
			},
			col:  0,
			want: maxColWidth,
		},
		{
			name:  "ragged row ignored",
			sheet: Sheet{Headers: []string{"A", "Second Column"}, Rows: [][]string{{"only one cell"}}},
			col:   1,
			want:  15,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := columnWidth(tc.sheet, tc.col); got != tc.want {
				t.Fatalf("columnWidth = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSheetTitleTruncates(t *testing.T) {
	long := "a_very_long_feed_name_that_keeps_going_and_going"
	if got := sheetTitle(long); len([]rune(got)) != 31 {
		t.Fatalf("title length = %d, want 31", len([]rune(got)))
	}
	if got := sheetTitle("renewal"); got != "renewal" {
		t.Fatalf("short title changed: %q", got)
	}
}
