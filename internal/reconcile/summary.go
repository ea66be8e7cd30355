// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"strings"

	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// IgnoreFunc reports whether the user has dismissed an issue.
type IgnoreFunc func(types.AnnotationKey) bool

func (f IgnoreFunc) ignored(rec types.ComparisonRecord, kind types.IssueKind) bool {
	return f != nil && f(types.AnnotationKey{PartNumber: rec.PartNumber, Kind: kind})
}

// Summarize counts results. Issues dismissed by ignored are left out of the
// issue and only-in counts; TotalParts and MatchingParts always cover every
// record. A nil ignored counts everything, and then
// InPrimaryOnly + InSecondaryOnly + matched == TotalParts.
func Summarize(results []types.ComparisonRecord, ignored IgnoreFunc) types.ComparisonSummary {
	s := types.ComparisonSummary{
		TotalParts: len(results),
		Results:    results,
	}
	for _, r := range results {
		switch {
		case r.InPrimaryOnly:
			if !ignored.ignored(r, types.IssueMissing) {
				s.InPrimaryOnly++
			}
		case r.InSecondaryOnly:
			if !ignored.ignored(r, types.IssueMissing) {
				s.InSecondaryOnly++
			}
		default:
			if r.Clean() {
				s.MatchingParts++
			}
			if r.ItemNumberIssue && !ignored.ignored(r, types.IssueItemNumber) {
				s.ItemNumberIssues++
			}
			if r.QuantityIssue && !ignored.ignored(r, types.IssueQuantity) {
				s.QuantityIssues++
			}
			if r.DescriptionIssue && !ignored.ignored(r, types.IssueDescription) {
				s.DescriptionIssues++
			}
		}
	}
	return s
}

// Filter returns the records whose part number or either description
// contains term, ignoring case. An empty term returns results unchanged.
func Filter(results []types.ComparisonRecord, term string) []types.ComparisonRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return results
	}
	var out []types.ComparisonRecord
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.PartNumber), term) ||
			strings.Contains(strings.ToLower(r.PrimaryDescription), term) ||
			strings.Contains(strings.ToLower(r.SecondaryDescription), term) {
			out = append(out, r)
		}
	}
	return out
}

// Categories groups records for review. A record appears in each category it
// has an open issue for; an issue the user ignored moves the record to
// Ignored instead (once, however many of its issues are ignored).
type Categories struct {
	Missing     []types.ComparisonRecord `json:"missing" yaml:"missing"`
	ItemNumber  []types.ComparisonRecord `json:"item_number" yaml:"item_number"`
	Quantity    []types.ComparisonRecord `json:"quantity" yaml:"quantity"`
	Description []types.ComparisonRecord `json:"description" yaml:"description"`
	Ignored     []types.ComparisonRecord `json:"ignored" yaml:"ignored"`
}

// For returns the open records of one issue kind.
func (c Categories) For(kind types.IssueKind) []types.ComparisonRecord {
	switch kind {
	case types.IssueMissing:
		return c.Missing
	case types.IssueItemNumber:
		return c.ItemNumber
	case types.IssueQuantity:
		return c.Quantity
	case types.IssueDescription:
		return c.Description
	default:
		return nil
	}
}

// Categorize sorts results into review categories, preserving order.
// Clean matched records appear in no category.
func Categorize(results []types.ComparisonRecord, ignored IgnoreFunc) Categories {
	var c Categories
	for _, r := range results {
		anyIgnored := false
		for _, kind := range r.Issues() {
			if ignored.ignored(r, kind) {
				anyIgnored = true
				continue
			}
			switch kind {
			case types.IssueMissing:
				c.Missing = append(c.Missing, r)
			case types.IssueItemNumber:
				c.ItemNumber = append(c.ItemNumber, r)
			case types.IssueQuantity:
				c.Quantity = append(c.Quantity, r)
			case types.IssueDescription:
				c.Description = append(c.Description, r)
			}
		}
		if anyIgnored {
			c.Ignored = append(c.Ignored, r)
		}
	}
	return c
}
