// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// SourceKind identifies which side of a reconciliation a BOM came from.
type SourceKind string

const (
	// SourcePrimary is the CAD/PDM export (SOLIDWORKS PDM). It is the
	// authority for item numbering in remediation workflows.
	SourcePrimary SourceKind = "primary"

	// SourceSecondary is the part-management export (DURO), fetched from a
	// file or from the DURO API.
	SourceSecondary SourceKind = "secondary"
)

// String returns the kind name.
func (k SourceKind) String() string { return string(k) }

// Label returns the system name users know the source by.
func (k SourceKind) Label() string {
	switch k {
	case SourcePrimary:
		return "PDM"
	case SourceSecondary:
		return "DURO"
	default:
		return string(k)
	}
}

// BomLineEntry is one physical line item from one BOM source. Quantity is
// kept as text because source files mix numeric and textual formats. An
// entry without a part number is skipped by the engine.
type BomLineEntry struct {
	ItemNumber  string `json:"item_number,omitempty" yaml:"item_number,omitempty"`
	PartNumber  string `json:"part_number" yaml:"part_number"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Quantity    string `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// RecordKind is the classification of a ComparisonRecord.
type RecordKind string

const (
	RecordMatched       RecordKind = "matched"
	RecordPrimaryOnly   RecordKind = "primary_only"
	RecordSecondaryOnly RecordKind = "secondary_only"
)

// ComparisonRecord is one reconciled entry. Exactly one of matched,
// InPrimaryOnly, InSecondaryOnly applies. Issue flags are only ever set on
// matched records.
type ComparisonRecord struct {
	// PartNumber is the display part number: the primary spelling for
	// matched and primary-only records, the secondary spelling otherwise.
	PartNumber string `json:"part_number" yaml:"part_number"`

	PrimaryItemNumber    string `json:"primary_item_number,omitempty" yaml:"primary_item_number,omitempty"`
	SecondaryItemNumber  string `json:"secondary_item_number,omitempty" yaml:"secondary_item_number,omitempty"`
	PrimaryQuantity      string `json:"primary_quantity,omitempty" yaml:"primary_quantity,omitempty"`
	SecondaryQuantity    string `json:"secondary_quantity,omitempty" yaml:"secondary_quantity,omitempty"`
	PrimaryDescription   string `json:"primary_description,omitempty" yaml:"primary_description,omitempty"`
	SecondaryDescription string `json:"secondary_description,omitempty" yaml:"secondary_description,omitempty"`

	ItemNumberIssue  bool `json:"item_number_issue,omitempty" yaml:"item_number_issue,omitempty"`
	QuantityIssue    bool `json:"quantity_issue,omitempty" yaml:"quantity_issue,omitempty"`
	DescriptionIssue bool `json:"description_issue,omitempty" yaml:"description_issue,omitempty"`

	InPrimaryOnly   bool `json:"in_primary_only,omitempty" yaml:"in_primary_only,omitempty"`
	InSecondaryOnly bool `json:"in_secondary_only,omitempty" yaml:"in_secondary_only,omitempty"`
}

// Kind classifies the record.
func (r ComparisonRecord) Kind() RecordKind {
	switch {
	case r.InPrimaryOnly:
		return RecordPrimaryOnly
	case r.InSecondaryOnly:
		return RecordSecondaryOnly
	default:
		return RecordMatched
	}
}

// Matched reports whether the part was found in both sources.
func (r ComparisonRecord) Matched() bool {
	return !r.InPrimaryOnly && !r.InSecondaryOnly
}

// Missing reports whether the part is absent from one of the sources.
func (r ComparisonRecord) Missing() bool {
	return r.InPrimaryOnly || r.InSecondaryOnly
}

// Clean reports whether the record is matched with no field issues.
func (r ComparisonRecord) Clean() bool {
	return r.Matched() && !r.ItemNumberIssue && !r.QuantityIssue && !r.DescriptionIssue
}

// HasIssue reports whether the record carries the given kind of issue.
func (r ComparisonRecord) HasIssue(kind IssueKind) bool {
	switch kind {
	case IssueMissing:
		return r.Missing()
	case IssueItemNumber:
		return r.Matched() && r.ItemNumberIssue
	case IssueQuantity:
		return r.Matched() && r.QuantityIssue
	case IssueDescription:
		return r.Matched() && r.DescriptionIssue
	default:
		return false
	}
}

// Issues lists every issue kind the record carries, in IssueKinds order.
func (r ComparisonRecord) Issues() []IssueKind {
	var out []IssueKind
	for _, k := range IssueKinds {
		if r.HasIssue(k) {
			out = append(out, k)
		}
	}
	return out
}

// ComparisonSummary aggregates a reconciliation run. TotalParts always
// equals len(Results).
type ComparisonSummary struct {
	TotalParts        int                `json:"total_parts" yaml:"total_parts"`
	MatchingParts     int                `json:"matching_parts" yaml:"matching_parts"`
	ItemNumberIssues  int                `json:"item_number_issues" yaml:"item_number_issues"`
	QuantityIssues    int                `json:"quantity_issues" yaml:"quantity_issues"`
	DescriptionIssues int                `json:"description_issues" yaml:"description_issues"`
	InPrimaryOnly     int                `json:"in_primary_only" yaml:"in_primary_only"`
	InSecondaryOnly   int                `json:"in_secondary_only" yaml:"in_secondary_only"`
	Results           []ComparisonRecord `json:"results" yaml:"results"`
}

// TotalIssues returns the number of open findings across all kinds.
func (s ComparisonSummary) TotalIssues() int {
	return s.InPrimaryOnly + s.InSecondaryOnly + s.ItemNumberIssues + s.QuantityIssues + s.DescriptionIssues
}

// IssueKind names the category an annotation applies to.
type IssueKind string

const (
	IssueMissing     IssueKind = "missing"
	IssueItemNumber  IssueKind = "itemNumber"
	IssueQuantity    IssueKind = "quantity"
	IssueDescription IssueKind = "description"
)

// IssueKinds lists all issue kinds in display order.
var IssueKinds = []IssueKind{IssueMissing, IssueItemNumber, IssueQuantity, IssueDescription}

// Valid reports whether k is one of the known issue kinds.
func (k IssueKind) Valid() bool {
	for _, known := range IssueKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Title returns a human-readable issue label.
func (k IssueKind) Title() string {
	switch k {
	case IssueMissing:
		return "Missing Part"
	case IssueItemNumber:
		return "Item Number Issue"
	case IssueQuantity:
		return "Quantity Issue"
	case IssueDescription:
		return "Description Issue"
	default:
		return string(k)
	}
}

// AnnotationKey identifies a user decision about one issue of one part.
type AnnotationKey struct {
	PartNumber string    `json:"part_number" yaml:"part_number" validate:"required"`
	Kind       IssueKind `json:"kind" yaml:"kind" validate:"required"`
}

// String renders the key the way users type it: "<part>-<kind>".
func (k AnnotationKey) String() string {
	return k.PartNumber + "-" + string(k.Kind)
}

// ParseAnnotationKey reads a key written by String. The kind is the text
// after the last "-", so part numbers may contain dashes.
func ParseAnnotationKey(s string) (AnnotationKey, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 {
		return AnnotationKey{}, fmt.Errorf("annotation key %q: want <part>-<kind>", s)
	}
	k := AnnotationKey{PartNumber: s[:i], Kind: IssueKind(s[i+1:])}
	if !k.Kind.Valid() {
		return AnnotationKey{}, fmt.Errorf("annotation key %q: unknown issue kind %q", s, k.Kind)
	}
	return k, nil
}

// UpdateSource records which system(s) the user wants to change to resolve
// an issue.
type UpdateSource struct {
	Primary   bool `json:"primary" yaml:"primary"`
	Secondary bool `json:"secondary" yaml:"secondary"`
}

// Any reports whether at least one side is selected.
func (u UpdateSource) Any() bool { return u.Primary || u.Secondary }

// Annotation is the user's decision about one issue.
type Annotation struct {
	Ignored      bool         `json:"ignored" yaml:"ignored"`
	UpdateSource UpdateSource `json:"update_source" yaml:"update_source"`
	Comment      string       `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// IsZero reports whether the annotation carries no decision.
func (a Annotation) IsZero() bool {
	return !a.Ignored && !a.UpdateSource.Any() && a.Comment == ""
}
