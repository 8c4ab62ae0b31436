package export

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CommandRunner launches an external process and waits for it to exit.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func defaultRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run()
}

// convertPDF asks LibreOffice for a high-fidelity conversion of the
// workbook. True means the matching .pdf now exists in outDir.
func (e *Exporter) convertPDF(ctx context.Context, xlsxPath, outDir string) bool {
	stem := strings.TrimSuffix(filepath.Base(xlsxPath), filepath.Ext(xlsxPath))
	for _, binary := range []string{"soffice", "libreoffice"} {
		err := e.run(ctx, binary, "--headless", "--convert-to", "pdf", "--outdir", outDir, xlsxPath)
		if err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(outDir, stem+".pdf")); err == nil {
			return true
		}
	}
	return false
}

// renderFallbackPDF draws a plain table rendition of the sheets, one
// page per sheet. Feeds with no rows still get a page so reviewers can
// tell an empty feed from a missing one.
func renderFallbackPDF(path string, sheets []Sheet) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	caser := cases.Title(language.English)

	for _, sheet := range sheets {
		pdf.AddPage()
		title := prettyHeader(caser, sheet.Name)
		pdf.SetFont("Helvetica", "B", 12)
		if sheet.Empty() {
			pdf.CellFormat(0, 10, title+" - No entries", "", 1, "L", false, 0, "")
			continue
		}
		pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")

		pageW, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		colW := (pageW - left - right) / float64(len(sheet.Headers))

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range sheet.Headers {
			pdf.CellFormat(colW, 7, clipText(pdf, header, colW-2), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		for _, row := range sheet.Rows {
			for _, value := range row {
				pdf.CellFormat(colW, 6, clipText(pdf, value, colW-2), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	return pdf.OutputFileAndClose(path)
}

// clipText trims a value until it fits the cell width.
func clipText(pdf *fpdf.Fpdf, text string, width float64) string {
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
