// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns decoded BOM tables and DURO API rows into uniform
// BomLineEntry sequences.
package extract

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/pdiddy/bom-reconcile/internal/columns"
	"github.com/pdiddy/bom-reconcile/internal/normalize"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// Aliases are the exact headers each source ships, consulted per field when
// the mapped column is blank.
var Aliases = map[types.SourceKind]map[columns.Field]string{
	types.SourcePrimary: {
		columns.FieldPartNumber:  "PART NUMBER",
		columns.FieldItemNumber:  "ITEM NO.",
		columns.FieldDescription: "DESCRIPTION",
		columns.FieldQuantity:    "QTY.",
	},
	types.SourceSecondary: {
		columns.FieldPartNumber:  "CPN",
		columns.FieldItemNumber:  "Item Number",
		columns.FieldDescription: "Description",
		columns.FieldQuantity:    "Quantity",
	},
}

// ErrEmptySource matches every *EmptySourceError.
var ErrEmptySource = errors.New("source has no data rows")

// EmptySourceError reports a source with no data rows, or a DURO assembly
// that could not be found.
type EmptySourceError struct {
	// Source is the file name or assembly number.
	Source string
	Kind   types.SourceKind
	Err    error
}

func (e *EmptySourceError) Error() string {
	msg := fmt.Sprintf("%s BOM %q has no data rows", e.Kind.Label(), e.Source)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrEmptySource.
func (e *EmptySourceError) Is(target error) bool { return target == ErrEmptySource }

// Unwrap returns the underlying cause, if any.
func (e *EmptySourceError) Unwrap() error { return e.Err }

// All yields one entry per usable row of t, in row order. Part numbers are
// trimmed; the other fields keep the cell text. Rows without a part number
// are skipped. For the secondary source the first data row (the
// assembly itself) and rows at level 0 are skipped as well. The sequence can
// be ranged over any number of times.
func All(t sheet.Table, m columns.Mapping, kind types.SourceKind) iter.Seq[types.BomLineEntry] {
	aliases := aliasIndexes(t, kind)
	return func(yield func(types.BomLineEntry) bool) {
		for row := range t.Rows {
			if kind == types.SourceSecondary {
				if row == 0 || RootLevel(t, m, row) {
					continue
				}
			}
			e := types.BomLineEntry{
				PartNumber:  strings.TrimSpace(value(t, m, aliases, row, columns.FieldPartNumber)),
				ItemNumber:  value(t, m, aliases, row, columns.FieldItemNumber),
				Description: value(t, m, aliases, row, columns.FieldDescription),
				Quantity:    value(t, m, aliases, row, columns.FieldQuantity),
			}
			if e.PartNumber == "" {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Entries collects All into a slice.
func Entries(t sheet.Table, m columns.Mapping, kind types.SourceKind) []types.BomLineEntry {
	return slices.Collect(All(t, m, kind))
}

// ErrorType labels an extraction failure for metrics.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, columns.ErrColumnNotFound):
		return "column"
	case errors.Is(err, ErrEmptySource):
		return "empty"
	default:
		return "read"
	}
}

// Source maps the columns of t and extracts its entries. label names the
// source in errors (usually the file name). A table without data rows
// yields *EmptySourceError; an unresolvable part number column yields
// *columns.ColumnResolutionError.
func Source(t sheet.Table, kind types.SourceKind, label string) ([]types.BomLineEntry, error) {
	if label == "" {
		label = t.Name
	}
	if t.Len() == 0 {
		return nil, &EmptySourceError{Source: label, Kind: kind}
	}
	m, err := columns.Map(t.Headers, kind)
	if err != nil {
		return nil, fmt.Errorf("mapping columns of %s: %w", label, err)
	}
	return Entries(t, m, kind), nil
}

func value(t sheet.Table, m columns.Mapping, aliases map[columns.Field]int, row int, f columns.Field) string {
	if v := t.Cell(row, m.Index(f)); strings.TrimSpace(v) != "" {
		return v
	}
	if idx, ok := aliases[f]; ok {
		return t.Cell(row, idx)
	}
	return ""
}

// aliasIndexes resolves the exact alias headers present in t.
func aliasIndexes(t sheet.Table, kind types.SourceKind) map[columns.Field]int {
	out := make(map[columns.Field]int)
	for f, name := range Aliases[kind] {
		if idx := t.HeaderIndex(name); idx >= 0 {
			out[f] = idx
		}
	}
	return out
}

// RootLevel reports whether row is the assembly itself: its Level cell reads
// as zero. Tables without a Level column have no root rows.
func RootLevel(t sheet.Table, m columns.Mapping, row int) bool {
	if m.Level == columns.Unmapped {
		return false
	}
	v := strings.TrimSpace(t.Cell(row, m.Level))
	if v == "" {
		return false
	}
	if normalize.Text(v) == "0" {
		return true
	}
	d, ok := normalize.Quantity(v)
	return ok && d.IsZero()
}
