// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/internal/reconcile"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// Sheet names of the comparison workbook.
const (
	SheetMissing     = "Missing Parts"
	SheetItemNumber  = "Item Number Issues"
	SheetQuantity    = "Quantity Issues"
	SheetDescription = "Description Issues"
	SheetSummary     = "Summary"
)

// issueTables builds one table per issue kind with open issues, in
// IssueKinds order. Empty kinds are left out.
func issueTables(sum types.ComparisonSummary, snap annotate.Snapshot, mark func(bool) string) []sheet.Table {
	cats := reconcile.Categorize(sum.Results, snap.Ignored)

	var tables []sheet.Table
	for _, kind := range types.IssueKinds {
		recs := cats.For(kind)
		if len(recs) == 0 {
			continue
		}
		t := sheet.Table{Name: sheetFor(kind), Headers: issueHeaders(kind)}
		for _, r := range recs {
			a := snap.For(r, kind)
			row := issueCells(r, kind)
			row = append(row, mark(a.UpdateSource.Primary), mark(a.UpdateSource.Secondary), a.Comment)
			t.Rows = append(t.Rows, row)
		}
		tables = append(tables, t)
	}
	return tables
}

func sheetFor(kind types.IssueKind) string {
	switch kind {
	case types.IssueMissing:
		return SheetMissing
	case types.IssueItemNumber:
		return SheetItemNumber
	case types.IssueQuantity:
		return SheetQuantity
	default:
		return SheetDescription
	}
}

func issueHeaders(kind types.IssueKind) []string {
	var h []string
	switch kind {
	case types.IssueMissing:
		h = []string{"Part Number", "Item Number", "Description", "Quantity", "Missing From"}
	case types.IssueItemNumber:
		h = []string{"Part Number", "PDM Item #", "DURO Item #"}
	case types.IssueQuantity:
		h = []string{"Part Number", "PDM Quantity", "DURO Quantity"}
	default:
		h = []string{"Part Number", "PDM Description", "DURO Description"}
	}
	return append(h, "Update PDM", "Update DURO", "Comment")
}

func issueCells(r types.ComparisonRecord, kind types.IssueKind) []string {
	switch kind {
	case types.IssueMissing:
		if r.InPrimaryOnly {
			return []string{r.PartNumber, r.PrimaryItemNumber, r.PrimaryDescription, r.PrimaryQuantity, missingFrom(r)}
		}
		return []string{r.PartNumber, r.SecondaryItemNumber, r.SecondaryDescription, r.SecondaryQuantity, missingFrom(r)}
	case types.IssueItemNumber:
		return []string{r.PartNumber, r.PrimaryItemNumber, r.SecondaryItemNumber}
	case types.IssueQuantity:
		return []string{r.PartNumber, r.PrimaryQuantity, r.SecondaryQuantity}
	default:
		return []string{r.PartNumber, r.PrimaryDescription, r.SecondaryDescription}
	}
}

func summaryTable(sum types.ComparisonSummary) sheet.Table {
	return sheet.Table{Name: SheetSummary, Headers: []string{"Metric", "Value"}, Rows: summaryRows(sum)}
}

// Workbook writes the review workbook: one sheet per issue kind with open
// issues, then a Summary sheet.
func Workbook(w io.Writer, sum types.ComparisonSummary, snap annotate.Snapshot) error {
	tables := append(issueTables(sum, snap, yesNo), summaryTable(sum))
	if err := sheet.WriteXLSX(w, tables...); err != nil {
		return fmt.Errorf("writing comparison workbook: %w", err)
	}
	return nil
}

// csvHeaders are the columns of the flat CSV export.
var csvHeaders = []string{
	"Part Number", "Status",
	"PDM Item #", "DURO Item #",
	"PDM Quantity", "DURO Quantity",
	"PDM Description", "DURO Description",
	"Item Number Issue", "Quantity Issue", "Description Issue",
	"Ignored", "Comments",
}

// CSV writes every record on one line: status, both sides' values, issue
// flags, the issue kinds the user ignored and any comments.
func CSV(w io.Writer, sum types.ComparisonSummary, snap annotate.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range sum.Results {
		var ignored []string
		for _, k := range r.Issues() {
			if snap.For(r, k).Ignored {
				ignored = append(ignored, string(k))
			}
		}
		row := []string{
			r.PartNumber, status(r),
			r.PrimaryItemNumber, r.SecondaryItemNumber,
			r.PrimaryQuantity, r.SecondaryQuantity,
			r.PrimaryDescription, r.SecondaryDescription,
			yesNo(r.ItemNumberIssue), yesNo(r.QuantityIssue), yesNo(r.DescriptionIssue),
			strings.Join(ignored, ";"), comments(snap, r, types.IssueKinds),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %s: %w", r.PartNumber, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// status describes a record for people: "Matched", "Issues" or
// "Missing in <system>".
func status(r types.ComparisonRecord) string {
	switch {
	case r.Missing():
		return missingLabel(r)
	case r.Clean():
		return "Matched"
	default:
		return "Issues"
	}
}
