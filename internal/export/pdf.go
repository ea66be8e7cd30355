// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

const (
	pdfMargin    = 14.0
	pdfRowHeight = 7.0
	pdfFont      = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	purple = rgb{85, 51, 136}
	red    = rgb{220, 53, 69}
	yellow = rgb{255, 193, 7}
	blue   = rgb{13, 110, 253}
	grey   = rgb{100, 100, 100}
	white  = rgb{255, 255, 255}
	black  = rgb{0, 0, 0}
)

// tableStyle is the heading and header fill of one report table.
type tableStyle struct {
	fill rgb
	text rgb
}

var pdfStyles = map[string]tableStyle{
	SheetSummary:     {purple, white},
	SheetMissing:     {red, white},
	SheetItemNumber:  {yellow, black},
	SheetQuantity:    {blue, white},
	SheetDescription: {purple, white},
}

// PDF writes a printable report: title, generation date, the summary table
// and one table per issue kind with [X]/[ ] update checkboxes.
func PDF(w io.Writer, sum types.ComparisonSummary, snap annotate.Snapshot, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 20, pdfMargin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle("BOM Comparison Report", true)
	pdf.SetCreator("bom-reconcile", true)
	pdf.SetCreationDate(now)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 18)
	setText(pdf, purple)
	pdf.CellFormat(0, 10, "BOM Comparison Report", "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	setText(pdf, grey)
	pdf.CellFormat(0, 6, "Generated on: "+now.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	tables := append([]sheet.Table{summaryTable(sum)}, issueTables(sum, snap, checkbox)...)
	for _, t := range tables {
		pdfTable(pdf, tr, t, pdfStyles[t.Name])
		pdf.Ln(6)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

func pdfTable(pdf *fpdf.Fpdf, tr func(string) string, t sheet.Table, style tableStyle) {
	pageW, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	width := (pageW - 2*pdfMargin) / float64(len(t.Headers))

	// Keep the heading with at least the header and one row.
	if pdf.GetY()+10+3*pdfRowHeight > pageH-bottom {
		pdf.AddPage()
	}
	pdf.SetFont(pdfFont, "B", 14)
	setText(pdf, style.fill)
	pdf.CellFormat(0, 10, tr(t.Name), "", 1, "L", false, 0, "")

	header := func() {
		pdf.SetFont(pdfFont, "B", 9)
		pdf.SetFillColor(style.fill.r, style.fill.g, style.fill.b)
		setText(pdf, style.text)
		for _, h := range t.Headers {
			pdf.CellFormat(width, pdfRowHeight, tr(fit(pdf, h, width)), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", 9)
		setText(pdf, black)
	}

	header()
	for r := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-bottom {
			pdf.AddPage()
			header()
		}
		for c := range t.Headers {
			pdf.CellFormat(width, pdfRowHeight, tr(fit(pdf, t.Cell(r, c), width)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit truncates s with "..." so it fits a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	rs := []rune(s)
	for len(rs) > 0 && pdf.GetStringWidth(string(rs)+"...") > limit {
		rs = rs[:len(rs)-1]
	}
	return string(rs) + "..."
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
