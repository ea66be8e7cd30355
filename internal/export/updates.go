// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/internal/columns"
	"github.com/pdiddy/bom-reconcile/internal/duro"
	"github.com/pdiddy/bom-reconcile/internal/extract"
	"github.com/pdiddy/bom-reconcile/internal/normalize"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// Sheet names of the update workbooks.
const (
	SheetDuroUpdate      = "DURO Assembly Update"
	SheetAssemblyUpdates = "Assembly Updates"
	SheetActionItems     = "SOLIDWORKS Action Items"
)

const itemNumberHeader = "Item Number"

// DuroUpdate writes a DURO import workbook for the records with an open
// issue marked "update DURO". Part numbers are written in DURO's
// duplicated-suffix form and quantities come from PDM when it has one. The
// Item Number column is present only when a selected record has an item
// number mismatch.
func DuroUpdate(w io.Writer, sum types.ComparisonSummary, snap annotate.Snapshot) error {
	recs, kinds := selected(sum.Results, snap, func(u types.UpdateSource) bool { return u.Secondary })
	if len(recs) == 0 {
		return fmt.Errorf("DURO update: %w", ErrNoSelection)
	}

	withItem := false
	for _, r := range recs {
		if r.ItemNumberIssue {
			withItem = true
			break
		}
	}

	t := sheet.Table{Name: SheetDuroUpdate, Headers: []string{"CPN", "Quantity"}}
	if withItem {
		t.Headers = append(t.Headers, itemNumberHeader)
	}
	t.Headers = append(t.Headers, "Ref Des", "Notes")

	for i, r := range recs {
		row := []string{normalize.ToDuroFormat(r.PartNumber), firstNonEmpty(r.PrimaryQuantity, r.SecondaryQuantity, "1")}
		if withItem {
			row = append(row, firstNonEmpty(r.PrimaryItemNumber, r.SecondaryItemNumber))
		}
		row = append(row, "", comments(snap, r, kinds[i]))
		t.Rows = append(t.Rows, row)
	}

	if err := sheet.WriteXLSX(w, t); err != nil {
		return fmt.Errorf("writing DURO update workbook: %w", err)
	}
	return nil
}

// ActionReport writes the records with an open issue marked "update PDM"
// as a checklist for manual SOLIDWORKS edits.
func ActionReport(w io.Writer, sum types.ComparisonSummary, snap annotate.Snapshot) error {
	recs, kinds := selected(sum.Results, snap, func(u types.UpdateSource) bool { return u.Primary })
	if len(recs) == 0 {
		return fmt.Errorf("SOLIDWORKS action report: %w", ErrNoSelection)
	}

	t := sheet.Table{
		Name:    SheetActionItems,
		Headers: []string{"Part Number", "Current Item #", "DURO Item #", "Current Qty", "DURO Qty", "Issue", "Notes"},
	}
	for i, r := range recs {
		t.Rows = append(t.Rows, []string{
			r.PartNumber,
			r.PrimaryItemNumber, r.SecondaryItemNumber,
			r.PrimaryQuantity, r.SecondaryQuantity,
			reportIssue(r, kinds[i][0]),
			comments(snap, r, kinds[i]),
		})
	}

	if err := sheet.WriteXLSX(w, t); err != nil {
		return fmt.Errorf("writing SOLIDWORKS action report: %w", err)
	}
	return nil
}

func reportIssue(r types.ComparisonRecord, kind types.IssueKind) string {
	switch kind {
	case types.IssueMissing:
		if r.InPrimaryOnly {
			return "Missing in DURO"
		}
		return "Missing in SOLIDWORKS"
	case types.IssueItemNumber:
		return "Item Number Mismatch"
	case types.IssueQuantity:
		return "Quantity Mismatch"
	case types.IssueDescription:
		return "Description Mismatch"
	default:
		return "Other"
	}
}

// ItemNumberUpdates maps the part key of every matched record with an open
// item number mismatch to its PDM item number. It refuses with
// ErrQuantityIssues while sum counts open quantity mismatches, and returns
// ErrNoItemNumberUpdates when there is nothing to change.
func ItemNumberUpdates(sum types.ComparisonSummary, snap annotate.Snapshot) (map[string]string, error) {
	if sum.QuantityIssues > 0 {
		return nil, fmt.Errorf("%d open: %w", sum.QuantityIssues, ErrQuantityIssues)
	}
	out := make(map[string]string)
	for _, r := range sum.Results {
		if !r.HasIssue(types.IssueItemNumber) || r.PrimaryItemNumber == "" {
			continue
		}
		if snap.For(r, types.IssueItemNumber).Ignored {
			continue
		}
		out[normalize.PartKey(r.PartNumber)] = r.PrimaryItemNumber
	}
	if len(out) == 0 {
		return nil, ErrNoItemNumberUpdates
	}
	return out, nil
}

// ChildItemNumbers resolves updates (keyed by part key, as returned by
// ItemNumberUpdates) against the children of a fetched assembly. The result
// maps component id to new item number and leaves out children whose item
// number already matches.
func ChildItemNumbers(children []duro.Child, updates map[string]string) map[string]string {
	out := make(map[string]string)
	for _, ch := range children {
		part := firstNonEmpty(ch.Component.CPN.DisplayValue, ch.Component.Name)
		n, ok := updates[normalize.PartKey(part)]
		if !ok || normalize.Equivalent(n, string(ch.ItemNumber)) {
			continue
		}
		out[ch.Component.ID] = n
	}
	return out
}

// DuroItemNumbers rewrites the original DURO BOM table with PDM item
// numbers for import back into DURO. Rows at level 0 and the "Item" column
// are dropped; every other cell is kept as exported.
func DuroItemNumbers(w io.Writer, sum types.ComparisonSummary, snap annotate.Snapshot, raw sheet.Table) error {
	updates, err := ItemNumberUpdates(sum, snap)
	if err != nil {
		return err
	}
	if raw.Len() == 0 {
		return ErrNoSecondaryTable
	}

	m, err := columns.Map(raw.Headers, types.SourceSecondary)
	if err != nil {
		return fmt.Errorf("mapping DURO table: %w", err)
	}
	part := raw.HeaderIndex(extract.Aliases[types.SourceSecondary][columns.FieldPartNumber])
	if part < 0 {
		part = m.PartNumber
	}

	headers := append([]string(nil), raw.Headers...)
	item := raw.HeaderIndex(itemNumberHeader)
	if item < 0 {
		item = len(headers)
		headers = append(headers, itemNumberHeader)
	}
	drop := raw.HeaderIndex("Item")

	out := sheet.Table{Name: SheetAssemblyUpdates, Headers: without(headers, drop)}
	for r := range raw.Rows {
		if extract.RootLevel(raw, m, r) {
			continue
		}
		row := make([]string, len(headers))
		for c := range row {
			row[c] = raw.Cell(r, c)
		}
		if n, ok := updates[normalize.PartKey(raw.Cell(r, part))]; ok {
			row[item] = n
		}
		out.Rows = append(out.Rows, without(row, drop))
	}

	if err := sheet.WriteXLSX(w, out); err != nil {
		return fmt.Errorf("writing DURO item number workbook: %w", err)
	}
	return nil
}

// without returns s minus index i; a negative i returns s.
func without(s []string, i int) []string {
	if i < 0 || i >= len(s) {
		return s
	}
	out := make([]string, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
