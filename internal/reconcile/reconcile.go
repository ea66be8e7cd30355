// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile matches two BOM entry sequences by normalized part key,
// classifies every part as matched, primary-only or secondary-only, flags
// field mismatches on matched parts and aggregates the result.
package reconcile

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/bom-reconcile/internal/logging"
	"github.com/pdiddy/bom-reconcile/internal/metrics"
	"github.com/pdiddy/bom-reconcile/internal/normalize"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// traceLimit bounds how many comparisons are logged at debug level.
const traceLimit = 5

// Duplicate reports a part key that occurs more than once in one source.
// Only the first occurrence takes part in matching.
type Duplicate struct {
	Source types.SourceKind `json:"source" yaml:"source"`
	Key    string           `json:"key" yaml:"key"`

	// PartNumbers lists every spelling seen for the key, in input order.
	PartNumbers []string `json:"part_numbers" yaml:"part_numbers"`
}

// Count is the number of entries sharing the key.
func (d Duplicate) Count() int { return len(d.PartNumbers) }

// Result is the outcome of one comparison run.
type Result struct {
	Summary    types.ComparisonSummary `json:"summary" yaml:"summary"`
	Duplicates []Duplicate             `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

// Engine compares BOMs. The zero value is ready to use.
type Engine struct {
	Log *zap.Logger
}

// Compare reconciles primary against secondary with a silent engine.
func Compare(primary, secondary []types.BomLineEntry) types.ComparisonSummary {
	return (&Engine{}).Compare(primary, secondary).Summary
}

// Compare reconciles primary against secondary.
//
// Every primary entry yields one record: matched when some secondary entry
// has the same part key, primary-only otherwise. Every secondary entry whose
// key no primary entry has yields a secondary-only record. When a key
// repeats within a source the first occurrence wins; repeats are listed in
// Result.Duplicates. Entries with a blank part number are ignored.
func (e *Engine) Compare(primary, secondary []types.BomLineEntry) Result {
	log := logging.OrNop(e.Log)
	timer := metrics.NewTimer()

	secondaryByKey := make(map[string]types.BomLineEntry, len(secondary))
	secondaryDups := newDupTracker(types.SourceSecondary)
	for _, s := range secondary {
		if blank(s.PartNumber) {
			continue
		}
		key := normalize.PartKey(s.PartNumber)
		secondaryDups.add(key, s.PartNumber)
		if _, ok := secondaryByKey[key]; !ok {
			secondaryByKey[key] = s
		}
	}

	primaryKeys := make(map[string]bool, len(primary))
	primaryDups := newDupTracker(types.SourcePrimary)
	results := make([]types.ComparisonRecord, 0, len(primary)+len(secondary))

	traced := 0
	for _, p := range primary {
		if blank(p.PartNumber) {
			continue
		}
		key := normalize.PartKey(p.PartNumber)
		primaryKeys[key] = true
		primaryDups.add(key, p.PartNumber)

		s, ok := secondaryByKey[key]
		var rec types.ComparisonRecord
		if ok {
			rec = matched(p, s)
		} else {
			rec = primaryOnly(p)
		}
		results = append(results, rec)

		if traced < traceLimit {
			traced++
			log.Debug("compared part",
				zap.String("part", p.PartNumber),
				zap.String("key", key),
				zap.Bool("found", ok),
				zap.String("secondary_part", s.PartNumber),
				zap.Bool("item_number_issue", rec.ItemNumberIssue),
				zap.Bool("quantity_issue", rec.QuantityIssue),
				zap.Bool("description_issue", rec.DescriptionIssue))
		}
	}

	for _, s := range secondary {
		if blank(s.PartNumber) {
			continue
		}
		if !primaryKeys[normalize.PartKey(s.PartNumber)] {
			results = append(results, secondaryOnly(s))
		}
	}

	summary := Summarize(results, nil)
	dups := append(primaryDups.list(), secondaryDups.list()...)

	matchedCount := summary.TotalParts - summary.InPrimaryOnly - summary.InSecondaryOnly
	metrics.RecordComparison(timer.Duration(), matchedCount, summary.InPrimaryOnly, summary.InSecondaryOnly)
	metrics.RecordIssues(string(types.IssueItemNumber), summary.ItemNumberIssues)
	metrics.RecordIssues(string(types.IssueQuantity), summary.QuantityIssues)
	metrics.RecordIssues(string(types.IssueDescription), summary.DescriptionIssues)

	log.Info("comparison complete",
		zap.Int("primary_entries", len(primary)),
		zap.Int("secondary_entries", len(secondary)),
		zap.Int("total_parts", summary.TotalParts),
		zap.Int("matching_parts", summary.MatchingParts),
		zap.Int("issues", summary.TotalIssues()),
		zap.Int("duplicates", len(dups)),
		zap.Duration("elapsed", timer.Duration()))

	return Result{Summary: summary, Duplicates: dups}
}

func matched(p, s types.BomLineEntry) types.ComparisonRecord {
	return types.ComparisonRecord{
		PartNumber:           p.PartNumber,
		PrimaryItemNumber:    p.ItemNumber,
		SecondaryItemNumber:  s.ItemNumber,
		PrimaryQuantity:      p.Quantity,
		SecondaryQuantity:    s.Quantity,
		PrimaryDescription:   p.Description,
		SecondaryDescription: s.Description,
		ItemNumberIssue:      !normalize.Equivalent(p.ItemNumber, s.ItemNumber),
		QuantityIssue:        !normalize.Equivalent(p.Quantity, s.Quantity),
		DescriptionIssue:     !normalize.Equivalent(p.Description, s.Description),
	}
}

func primaryOnly(p types.BomLineEntry) types.ComparisonRecord {
	return types.ComparisonRecord{
		PartNumber:         p.PartNumber,
		PrimaryItemNumber:  p.ItemNumber,
		PrimaryQuantity:    p.Quantity,
		PrimaryDescription: p.Description,
		InPrimaryOnly:      true,
	}
}

func secondaryOnly(s types.BomLineEntry) types.ComparisonRecord {
	return types.ComparisonRecord{
		PartNumber:           s.PartNumber,
		SecondaryItemNumber:  s.ItemNumber,
		SecondaryQuantity:    s.Quantity,
		SecondaryDescription: s.Description,
		InSecondaryOnly:      true,
	}
}

// dupTracker records the spellings seen per key, preserving first-seen
// key order.
type dupTracker struct {
	source types.SourceKind
	order  []string
	seen   map[string][]string
}

func newDupTracker(source types.SourceKind) *dupTracker {
	return &dupTracker{source: source, seen: make(map[string][]string)}
}

func (d *dupTracker) add(key, part string) {
	if _, ok := d.seen[key]; !ok {
		d.order = append(d.order, key)
	}
	d.seen[key] = append(d.seen[key], part)
}

func (d *dupTracker) list() []Duplicate {
	var out []Duplicate
	for _, key := range d.order {
		if parts := d.seen[key]; len(parts) > 1 {
			out = append(out, Duplicate{Source: d.source, Key: key, PartNumbers: parts})
		}
	}
	return out
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
