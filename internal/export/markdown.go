// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// Action is one planned change to one system.
type Action struct {
	PartNumber   string `json:"part_number" yaml:"part_number"`
	IssueType    string `json:"issue_type" yaml:"issue_type"`
	CurrentValue string `json:"current_value" yaml:"current_value"`
	NewValue     string `json:"new_value" yaml:"new_value"`
	Comment      string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Plan lists the changes the user chose, per system.
type Plan struct {
	Primary   []Action `json:"primary" yaml:"primary"`
	Secondary []Action `json:"secondary" yaml:"secondary"`
}

// BuildPlan turns the annotations of open issues into actions. Each issue
// kind of a record is planned on its own, so a record with two annotated
// issues yields two actions. Ignored issues and issues without an update
// choice are skipped.
func BuildPlan(results []types.ComparisonRecord, snap annotate.Snapshot) Plan {
	var p Plan
	for _, r := range results {
		for _, kind := range r.Issues() {
			a := snap.For(r, kind)
			if a.Ignored || !a.UpdateSource.Any() {
				continue
			}
			issue := kind.Title()
			if kind == types.IssueMissing {
				issue = missingLabel(r)
			}
			pv, sv := sides(r, kind)
			if a.UpdateSource.Primary {
				cur, next := pv, sv
				if r.InSecondaryOnly {
					cur, next = "Missing", "Add part"
				}
				p.Primary = append(p.Primary, Action{r.PartNumber, issue, cur, next, a.Comment})
			}
			if a.UpdateSource.Secondary {
				cur, next := sv, pv
				if r.InPrimaryOnly {
					cur, next = "Missing", "Add part"
				}
				p.Secondary = append(p.Secondary, Action{r.PartNumber, issue, cur, next, a.Comment})
			}
		}
	}
	return p
}

// sides returns the primary and secondary values of the field kind is
// about. Missing records have no field values.
func sides(r types.ComparisonRecord, kind types.IssueKind) (string, string) {
	switch kind {
	case types.IssueItemNumber:
		return r.PrimaryItemNumber, r.SecondaryItemNumber
	case types.IssueQuantity:
		return r.PrimaryQuantity, r.SecondaryQuantity
	case types.IssueDescription:
		return r.PrimaryDescription, r.SecondaryDescription
	default:
		return "", ""
	}
}

// ActionPlan writes the plan as Markdown with one table per system that has
// actions.
func ActionPlan(w io.Writer, sum types.ComparisonSummary, snap annotate.Snapshot, now time.Time) error {
	plan := BuildPlan(sum.Results, snap)

	var b strings.Builder
	b.WriteString("# BOM Comparison Action Plan\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format(time.DateOnly))
	writeActions(&b, types.SourcePrimary.Label()+" Updates", plan.Primary)
	writeActions(&b, types.SourceSecondary.Label()+" Updates", plan.Secondary)
	if len(plan.Primary) == 0 && len(plan.Secondary) == 0 {
		b.WriteString("No updates selected.\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing action plan: %w", err)
	}
	return nil
}

func writeActions(b *strings.Builder, title string, actions []Action) {
	if len(actions) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	b.WriteString("| Part Number | Issue Type | Current Value | New Value | Comments |\n")
	b.WriteString("|-------------|------------|---------------|-----------|----------|\n")
	for _, a := range actions {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			mdCell(a.PartNumber), mdCell(a.IssueType), mdCell(a.CurrentValue), mdCell(a.NewValue), mdCell(a.Comment))
	}
	b.WriteString("\n")
}

// mdCell keeps a value on one table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
