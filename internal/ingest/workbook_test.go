package ingest

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook lays out a sheet the way the production reports arrive:
// banner rows above the table, headers on row 5, data beneath.
func writeWorkbook(t *testing.T, path string, cells map[string]any) {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()
	for ref, value := range cells {
		if err := file.SetCellValue("Sheet1", ref, value); err != nil {
			t.Fatalf("set cell %s: %v", ref, err)
		}
	}
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestReadWorkbookTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	writeWorkbook(t, path, map[string]any{
		"A1": "Weekly Renewal Report",
		"A3": "Run Date: 03/02/2026",
		"A5": "Policy Number", "B5": "Premium", "C5": "Premium", "D5": " Status ",
		"A6": "P-1", "B6": "$1,250.00", "C6": "$99.00", "D6": "Active",
		// row 7 left entirely blank
		"A8": "P-2", "B8": "$80.00",
	})

	table, err := ReadWorkbookTable(path, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantColumns := []string{"Policy Number", "Premium", "Premium.1", "Status"}
	if !reflect.DeepEqual(table.Columns, wantColumns) {
		t.Fatalf("expected columns %v, got %v", wantColumns, table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected the blank row dropped, got %d rows", len(table.Rows))
	}
	if table.Rows[0][0] != "P-1" || table.Rows[1][0] != "P-2" {
		t.Fatalf("unexpected row content: %v", table.Rows)
	}
	if table.Rows[0][1] != "$1,250.00" {
		t.Fatalf("expected formatted cell text, got %q", table.Rows[0][1])
	}
}

func TestReadWorkbookTableHeaderBeyondSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.xlsx")
	writeWorkbook(t, path, map[string]any{"A1": "only row"})

	if _, err := ReadWorkbookTable(path, 5); err == nil {
		t.Fatalf("expected error for header row beyond sheet")
	}
}

func TestReadWorkbookTableMissingFile(t *testing.T) {
	if _, err := ReadWorkbookTable(filepath.Join(t.TempDir(), "nope.xlsx"), 5); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
