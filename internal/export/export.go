// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes comparison results and the user's annotations as
// review workbooks, reports, action plans and DURO import files.
//
// Every exporter reads a ComparisonSummary together with an annotation
// snapshot. Issues the snapshot marks ignored are left out of issue
// listings and update selections.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/internal/metrics"
	"github.com/pdiddy/bom-reconcile/internal/reconcile"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// Format names an export.
type Format string

const (
	FormatWorkbook        Format = "workbook"
	FormatCSV             Format = "csv"
	FormatPDF             Format = "pdf"
	FormatMarkdown        Format = "markdown"
	FormatDuroUpdate      Format = "duro-update"
	FormatDuroItemNumbers Format = "duro-item-numbers"
	FormatActionReport    Format = "action-report"
	FormatJSON            Format = "json"
	FormatYAML            Format = "yaml"
)

// Formats lists every export format.
var Formats = []Format{
	FormatWorkbook, FormatCSV, FormatPDF, FormatMarkdown,
	FormatDuroUpdate, FormatDuroItemNumbers, FormatActionReport,
	FormatJSON, FormatYAML,
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatWorkbook, FormatDuroUpdate, FormatDuroItemNumbers, FormatActionReport:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	case FormatMarkdown:
		return "text/markdown"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

// Filename returns the default file name for f written on date.
func Filename(f Format, date time.Time) string {
	day := date.Format(time.DateOnly)
	switch f {
	case FormatWorkbook:
		return "BOM_Comparison_" + day + ".xlsx"
	case FormatCSV:
		return "BOM_Comparison_" + day + ".csv"
	case FormatPDF:
		return "BOM_Comparison_" + day + ".pdf"
	case FormatMarkdown:
		return "BOM_Action_Plan_" + day + ".md"
	case FormatDuroUpdate:
		return "DURO_BOM_Update_" + day + ".xlsx"
	case FormatDuroItemNumbers:
		return "DURO_ItemNumber_Updates_" + day + ".xlsx"
	case FormatActionReport:
		return "SOLIDWORKS_Action_Items_" + day + ".xlsx"
	case FormatJSON:
		return "BOM_Run_" + day + ".json"
	case FormatYAML:
		return "BOM_Run_" + day + ".yaml"
	default:
		return "BOM_Export_" + day
	}
}

var (
	// ErrUnknownFormat is returned by Write for formats it does not know.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrNoSelection is returned by update exports when no issue is marked
	// for the system they target.
	ErrNoSelection = errors.New("no records selected for update")

	// ErrQuantityIssues blocks item-number imports while quantity
	// mismatches are open.
	ErrQuantityIssues = errors.New("quantity mismatches must be resolved first")

	// ErrNoItemNumberUpdates is returned when no matched record has an
	// open item-number mismatch with a primary item number.
	ErrNoItemNumberUpdates = errors.New("no item number mismatches to update")

	// ErrNoSecondaryTable is returned when an export needs the original
	// DURO table and the run does not carry one.
	ErrNoSecondaryTable = errors.New("original DURO BOM table is not available")
)

// Write renders run in format f to w. now stamps reports that show a
// generation date.
func Write(w io.Writer, f Format, run Run, snap annotate.Snapshot, now time.Time) error {
	sum := reconcile.Summarize(run.Summary.Results, snap.Ignored)

	var err error
	switch f {
	case FormatWorkbook:
		err = Workbook(w, sum, snap)
	case FormatCSV:
		err = CSV(w, sum, snap)
	case FormatPDF:
		err = PDF(w, sum, snap, now)
	case FormatMarkdown:
		err = ActionPlan(w, sum, snap, now)
	case FormatDuroUpdate:
		err = DuroUpdate(w, sum, snap)
	case FormatDuroItemNumbers:
		if run.SecondaryTable == nil {
			return ErrNoSecondaryTable
		}
		err = DuroItemNumbers(w, sum, snap, *run.SecondaryTable)
	case FormatActionReport:
		err = ActionReport(w, sum, snap)
	case FormatJSON, FormatYAML:
		run.Annotations = snap.Entries()
		err = WriteRun(w, run, f)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return err
	}
	metrics.RecordExport(string(f))
	return nil
}

// missingFrom names the system a one-sided record is absent from.
func missingFrom(r types.ComparisonRecord) string {
	if r.InPrimaryOnly {
		return types.SourceSecondary.Label()
	}
	return types.SourcePrimary.Label()
}

// missingLabel describes a one-sided record, e.g. "Missing in DURO".
func missingLabel(r types.ComparisonRecord) string {
	return "Missing in " + missingFrom(r)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func checkbox(b bool) string {
	if b {
		return "[X]"
	}
	return "[ ]"
}

// summaryRows lists the headline counts of s as metric/value pairs.
func summaryRows(s types.ComparisonSummary) [][]string {
	return [][]string{
		{"Total Parts", fmt.Sprint(s.TotalParts)},
		{"Matching Parts", fmt.Sprint(s.MatchingParts)},
		{"Item Number Issues", fmt.Sprint(s.ItemNumberIssues)},
		{"Quantity Issues", fmt.Sprint(s.QuantityIssues)},
		{"Description Issues", fmt.Sprint(s.DescriptionIssues)},
		{"In PDM Only", fmt.Sprint(s.InPrimaryOnly)},
		{"In DURO Only", fmt.Sprint(s.InSecondaryOnly)},
	}
}

// selected returns the records with at least one open issue whose
// annotation picks the side chosen by pick, with the kinds that qualified.
func selected(results []types.ComparisonRecord, snap annotate.Snapshot, pick func(types.UpdateSource) bool) ([]types.ComparisonRecord, [][]types.IssueKind) {
	var (
		recs  []types.ComparisonRecord
		kinds [][]types.IssueKind
	)
	for _, r := range results {
		var ks []types.IssueKind
		for _, k := range r.Issues() {
			a := snap.For(r, k)
			if !a.Ignored && pick(a.UpdateSource) {
				ks = append(ks, k)
			}
		}
		if len(ks) > 0 {
			recs = append(recs, r)
			kinds = append(kinds, ks)
		}
	}
	return recs, kinds
}

// comments joins the comments of kinds on r.
func comments(snap annotate.Snapshot, r types.ComparisonRecord, kinds []types.IssueKind) string {
	var out []string
	for _, k := range kinds {
		if c := snap.For(r, k).Comment; c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, "; ")
}
