// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/bom-reconcile/internal/reconcile"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, types.ComparisonSummary{TotalParts: 12, MatchingParts: 9, QuantityIssues: 1, InSecondaryOnly: 2})
	out := buf.String()
	assert.Contains(t, out, "Total parts:             12\n")
	assert.Contains(t, out, "Quantity issues:          1\n")
	assert.Contains(t, out, "In DURO only:             2\n")
}

func TestPrintCategories(t *testing.T) {
	cats := reconcile.Categories{
		Missing: []types.ComparisonRecord{
			{PartNumber: "406-00043", PrimaryDescription: "Hex Nut", InPrimaryOnly: true},
		},
		Quantity: []types.ComparisonRecord{
			{PartNumber: "453-00516-02", PrimaryQuantity: "4", SecondaryQuantity: "3", QuantityIssue: true},
		},
	}
	var buf bytes.Buffer
	printCategories(&buf, cats, "")
	out := buf.String()
	assert.Contains(t, out, "Missing Parts (1)")
	assert.Contains(t, out, "missing in DURO")
	assert.Contains(t, out, "Quantity Issues (1)")
	assert.Contains(t, out, "PDM qty 4")
	assert.NotContains(t, out, "Ignored")
}

func TestSides(t *testing.T) {
	tests := []struct {
		name  string
		rec   types.ComparisonRecord
		kind  types.IssueKind
		wantP string
		wantS string
	}{
		{
			name:  "secondary only",
			rec:   types.ComparisonRecord{PartNumber: "900", SecondaryDescription: "Spacer", InSecondaryOnly: true},
			kind:  types.IssueMissing,
			wantP: "missing in PDM", wantS: "DURO: Spacer",
		},
		{
			name:  "item number",
			rec:   types.ComparisonRecord{PrimaryItemNumber: "1", SecondaryItemNumber: "2", ItemNumberIssue: true},
			kind:  types.IssueItemNumber,
			wantP: "PDM item 1", wantS: "DURO item 2",
		},
		{
			name:  "ignored lists issue kinds",
			rec:   types.ComparisonRecord{QuantityIssue: true, DescriptionIssue: true},
			wantP: "quantity, description", wantS: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s := sides(tt.rec, tt.kind)
			assert.Equal(t, tt.wantP, p)
			assert.Equal(t, tt.wantS, s)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ÄÖÜ", truncate("ÄÖÜ", 3))
}

func TestAnnotationKeyFlags(t *testing.T) {
	tests := []struct {
		part, kind string
		wantErr    bool
	}{
		{part: "800-00761", kind: "itemNumber"},
		{part: " ", kind: "quantity", wantErr: true},
		{part: "800-00761", kind: "colour", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.part+"/"+tt.kind, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().String("part", tt.part, "")
			cmd.Flags().String("kind", tt.kind, "")
			k, err := annotationKey(cmd)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, types.AnnotationKey{PartNumber: tt.part, Kind: types.IssueKind(tt.kind)}, k)
		})
	}
}
