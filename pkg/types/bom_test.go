// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKind(t *testing.T) {
	tests := []struct {
		name   string
		rec    ComparisonRecord
		want   RecordKind
		issues []IssueKind
	}{
		{name: "clean", rec: ComparisonRecord{PartNumber: "1"}, want: RecordMatched},
		{
			name:   "matched with issues",
			rec:    ComparisonRecord{PartNumber: "1", ItemNumberIssue: true, DescriptionIssue: true},
			want:   RecordMatched,
			issues: []IssueKind{IssueItemNumber, IssueDescription},
		},
		{name: "primary only", rec: ComparisonRecord{PartNumber: "1", InPrimaryOnly: true}, want: RecordPrimaryOnly, issues: []IssueKind{IssueMissing}},
		{name: "secondary only", rec: ComparisonRecord{PartNumber: "1", InSecondaryOnly: true}, want: RecordSecondaryOnly, issues: []IssueKind{IssueMissing}},
		{
			name:   "flags ignored on missing records",
			rec:    ComparisonRecord{PartNumber: "1", InPrimaryOnly: true, QuantityIssue: true},
			want:   RecordPrimaryOnly,
			issues: []IssueKind{IssueMissing},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Kind())
			assert.Equal(t, tt.issues, tt.rec.Issues())
			assert.Equal(t, tt.want == RecordMatched, tt.rec.Matched())
			assert.Equal(t, tt.want != RecordMatched, tt.rec.Missing())
			assert.Equal(t, tt.want == RecordMatched && len(tt.issues) == 0, tt.rec.Clean())
		})
	}
}

func TestSourceKindLabel(t *testing.T) {
	assert.Equal(t, "PDM", SourcePrimary.Label())
	assert.Equal(t, "DURO", SourceSecondary.Label())
	assert.Equal(t, "other", SourceKind("other").Label())
}

func TestTotalIssues(t *testing.T) {
	s := ComparisonSummary{ItemNumberIssues: 1, QuantityIssues: 2, DescriptionIssues: 3, InPrimaryOnly: 4, InSecondaryOnly: 5}
	assert.Equal(t, 15, s.TotalIssues())
}

func TestIssueKind(t *testing.T) {
	for _, k := range IssueKinds {
		assert.True(t, k.Valid(), k)
		assert.NotEqual(t, string(k), k.Title())
	}
	assert.False(t, IssueKind("colour").Valid())
	assert.Equal(t, "colour", IssueKind("colour").Title())
}

func TestParseAnnotationKey(t *testing.T) {
	tests := []struct {
		in      string
		want    AnnotationKey
		wantErr bool
	}{
		{in: "800-00761-itemNumber", want: AnnotationKey{PartNumber: "800-00761", Kind: IssueItemNumber}},
		{in: "453-00516-02-quantity", want: AnnotationKey{PartNumber: "453-00516-02", Kind: IssueQuantity}},
		{in: "X-missing", want: AnnotationKey{PartNumber: "X", Kind: IssueMissing}},
		{in: "-missing", wantErr: true},
		{in: "nodash", wantErr: true},
		{in: "800-00761-colour", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAnnotationKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestAnnotationIsZero(t *testing.T) {
	assert.True(t, Annotation{}.IsZero())
	assert.False(t, Annotation{Ignored: true}.IsZero())
	assert.False(t, Annotation{UpdateSource: UpdateSource{Secondary: true}}.IsZero())
	assert.False(t, Annotation{Comment: "x"}.IsZero())
	assert.False(t, UpdateSource{}.Any())
}
