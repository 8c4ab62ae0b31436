package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/saulrichardson/allstate-weekly-lists/internal/normalize"
)

// TableReader turns one workbook file into a raw table. The production
// reader uses excelize; tests inject their own.
type TableReader func(path string, headerRow int) (normalize.Table, error)

// ReadWorkbookTable reads the first sheet of an Excel workbook. Cells come
// back as formatted strings, headers from the given 1-based row, data from
// the rows beneath it. Blank data rows are dropped and duplicate header
// names get .1, .2 suffixes so no column shadows another.
func ReadWorkbookTable(path string, headerRow int) (normalize.Table, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return normalize.Table{}, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return normalize.Table{}, fmt.Errorf("ingest: %s has no sheets", path)
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return normalize.Table{}, fmt.Errorf("ingest: read sheet %s of %s: %w", sheets[0], path, err)
	}
	if len(rows) < headerRow {
		return normalize.Table{}, fmt.Errorf("ingest: %s: header row %d beyond sheet (%d rows)", path, headerRow, len(rows))
	}

	table := normalize.Table{Columns: dedupeHeaders(rows[headerRow-1])}
	for _, row := range rows[headerRow:] {
		if blankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// dedupeHeaders trims header cells and suffixes repeats the way spreadsheet
// readers usually do: Premium, Premium.1, Premium.2. Unnamed headers stay
// empty; their cells never reach a record.
func dedupeHeaders(raw []string) []string {
	seen := map[string]int{}
	out := make([]string, len(raw))
	for i, header := range raw {
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		n := seen[header]
		seen[header] = n + 1
		if n > 0 {
			header = fmt.Sprintf("%s.%d", header, n)
		}
		out[i] = header
	}
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
