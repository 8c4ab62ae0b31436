package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/saulrichardson/allstate-weekly-lists/internal/logbook"
	"github.com/saulrichardson/allstate-weekly-lists/internal/task"
)

const (
	minColWidth    = 8
	maxColWidth    = 60
	resultColWidth = 40

	// widthSampleCap bounds how many rows the autofit scans per column.
	widthSampleCap = 500
)

// Exporter writes the per-employee deliverables: an xlsx workbook each,
// plus an optional PDF rendition.
type Exporter struct {
	spec    Spec
	sources []string
	book    *logbook.Logbook
	run     CommandRunner
}

// Option adjusts an Exporter.
type Option func(*Exporter)

// WithLogbook routes export progress into the shared journal.
func WithLogbook(book *logbook.Logbook) Option {
	return func(e *Exporter) { e.book = book }
}

// WithCommandRunner swaps the process launcher used for the LibreOffice
// PDF conversion. Tests stub it.
func WithCommandRunner(run CommandRunner) Option {
	return func(e *Exporter) { e.run = run }
}

// New builds an Exporter. Worksheets appear in each workbook in sources
// order, one sheet per feed.
func New(spec Spec, sources []string, opts ...Option) *Exporter {
	e := &Exporter{spec: spec, sources: sources, run: defaultRunner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes one workbook per assignee into outDir and, when pdf is
// set, a PDF beside each. It returns the workbook paths written.
func (e *Exporter) Export(ctx context.Context, assignments map[string][]*task.Record, outDir string, pdf bool) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output dir: %w", err)
	}

	names := make([]string, 0, len(assignments))
	for name := range assignments {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		sheets := e.buildSheets(assignments[name])
		path := filepath.Join(outDir, name+".xlsx")
		if err := writeWorkbook(path, sheets); err != nil {
			return written, fmt.Errorf("export: workbook for %s: %w", name, err)
		}
		written = append(written, path)
		e.book.Info("wrote workbook %s", path)

		if !pdf {
			continue
		}
		if e.convertPDF(ctx, path, outDir) {
			e.book.Info("converted %s to PDF", filepath.Base(path))
			continue
		}
		pdfPath := filepath.Join(outDir, name+".pdf")
		if err := renderFallbackPDF(pdfPath, sheets); err != nil {
			return written, fmt.Errorf("export: pdf for %s: %w", name, err)
		}
		e.book.Info("rendered fallback PDF %s", pdfPath)
	}
	return written, nil
}

// buildSheets formats one employee's records feed by feed. Empty sheets
// stay in the slice so the PDF fallback renders their blank pages.
func (e *Exporter) buildSheets(records []*task.Record) []Sheet {
	bySource := make(map[string][]*task.Record)
	for _, rec := range records {
		bySource[rec.Source] = append(bySource[rec.Source], rec)
	}
	sheets := make([]Sheet, 0, len(e.sources))
	for _, source := range e.sources {
		sheet := FormatSheet(source, bySource[source], e.spec)
		if !sheet.Empty() {
			appendResult(&sheet)
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

// appendResult adds the blank notes column reviewers fill in by hand.
func appendResult(sheet *Sheet) {
	sheet.Headers = append(sheet.Headers, "Result")
	for i := range sheet.Rows {
		sheet.Rows[i] = append(sheet.Rows[i], "")
	}
}

// writeWorkbook renders the non-empty sheets into an xlsx file. A
// workbook with no rows anywhere gets a single informational sheet so
// the file still opens cleanly.
func writeWorkbook(path string, sheets []Sheet) error {
	file := excelize.NewFile()
	defer file.Close()

	wrote := false
	for _, sheet := range sheets {
		if sheet.Empty() {
			continue
		}
		if err := writeSheet(file, sheet); err != nil {
			return err
		}
		wrote = true
	}
	if !wrote {
		empty := Sheet{
			Name:    "No Tasks",
			Headers: []string{"Info"},
			Rows:    [][]string{{"No tasks assigned"}},
		}
		if err := writeSheet(file, empty); err != nil {
			return err
		}
	}

	if err := file.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	file.SetActiveSheet(0)
	return file.SaveAs(path)
}

func writeSheet(file *excelize.File, sheet Sheet) error {
	title := sheetTitle(sheet.Name)
	if _, err := file.NewSheet(title); err != nil {
		return fmt.Errorf("sheet %s: %w", title, err)
	}
	for c, header := range sheet.Headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(title, cell, header); err != nil {
			return err
		}
	}
	for r, row := range sheet.Rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(title, cell, value); err != nil {
				return err
			}
		}
	}
	for c := range sheet.Headers {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := file.SetColWidth(title, col, col, columnWidth(sheet, c)); err != nil {
			return err
		}
	}
	return nil
}

// columnWidth sizes a column to its longest sampled cell plus padding,
// clamped to sensible bounds. The free-text Result column gets extra
// room so notes fit without manual resizing.
func columnWidth(sheet Sheet, col int) float64 {
	length := utf8.RuneCountInString(sheet.Headers[col])
	sample := sheet.Rows
	if len(sample) > widthSampleCap {
		sample = sample[:widthSampleCap]
	}
	for _, row := range sample {
		if col >= len(row) {
			continue
		}
		if n := utf8.RuneCountInString(row[col]); n > length {
			length = n
		}
	}
	width := length + 2
	if width < minColWidth {
		width = minColWidth
	}
	if strings.EqualFold(strings.TrimSpace(sheet.Headers[col]), "result") && width < resultColWidth {
		width = resultColWidth
	}
	if width > maxColWidth {
		width = maxColWidth
	}
	return float64(width)
}

// Worksheet titles cap at 31 characters.
func sheetTitle(name string) string {
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}
