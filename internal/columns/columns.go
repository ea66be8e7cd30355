// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package columns resolves which header cells of a BOM export hold the item
// number, part number, description, quantity and (for DURO) level fields.
//
// Resolution is driven by Rules, an ordered table of header fragments per
// field. Matching is a case-insensitive substring test, and for each field
// the first header cell (left to right) containing any of its fragments
// wins. A cell taken by an earlier field is not offered to later ones, so
// "Item Number" cannot also become the part number through the generic
// "number" fragment. Positional defaults apply only after every field has
// been resolved by name.
package columns

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// Field names a BOM column.
type Field string

const (
	FieldPartNumber  Field = "part number"
	FieldItemNumber  Field = "item number"
	FieldQuantity    Field = "quantity"
	FieldDescription Field = "description"
	FieldLevel       Field = "level"
)

// NoFallback marks a rule without a positional default.
const NoFallback = -1

// Rule lists the header fragments accepted for one field.
type Rule struct {
	Field     Field
	Fragments []string

	// Fallback is the column index used when no header matches, or
	// NoFallback.
	Fallback int

	// Required fields fail the mapping when unresolved.
	Required bool
}

// Rules is the resolution table, in resolution order. Item number resolves
// before part number so the part rule's "number" fragment cannot take an
// "Item Number" column.
var Rules = []Rule{
	{
		Field:     FieldItemNumber,
		Fragments: []string{"item no", "item number", "item #", "line", "position", "find"},
		Fallback:  0,
	},
	{
		Field:     FieldPartNumber,
		Fragments: []string{"part number", "part no", "part #", "partnumber", "cpn", "pn", "number"},
		Fallback:  NoFallback,
		Required:  true,
	},
	{
		Field:     FieldDescription,
		Fragments: []string{"description", "desc", "name", "title"},
		Fallback:  2,
	},
	{
		Field:     FieldQuantity,
		Fragments: []string{"qty", "quantity", "count", "amount"},
		Fallback:  3,
	},
}

// LevelRule resolves the optional DURO indentation column.
var LevelRule = Rule{
	Field:     FieldLevel,
	Fragments: []string{"level", "lvl", "indent"},
	Fallback:  NoFallback,
}

// Unmapped marks a field with no column.
const Unmapped = -1

// Mapping holds the resolved column index of each field, or Unmapped.
type Mapping struct {
	ItemNumber  int `json:"item_number" yaml:"item_number"`
	PartNumber  int `json:"part_number" yaml:"part_number"`
	Description int `json:"description" yaml:"description"`
	Quantity    int `json:"quantity" yaml:"quantity"`
	Level       int `json:"level" yaml:"level"`
}

// Index returns the column mapped to f.
func (m Mapping) Index(f Field) int {
	switch f {
	case FieldItemNumber:
		return m.ItemNumber
	case FieldPartNumber:
		return m.PartNumber
	case FieldDescription:
		return m.Description
	case FieldQuantity:
		return m.Quantity
	case FieldLevel:
		return m.Level
	default:
		return Unmapped
	}
}

func (m *Mapping) set(f Field, idx int) {
	switch f {
	case FieldItemNumber:
		m.ItemNumber = idx
	case FieldPartNumber:
		m.PartNumber = idx
	case FieldDescription:
		m.Description = idx
	case FieldQuantity:
		m.Quantity = idx
	case FieldLevel:
		m.Level = idx
	}
}

// ErrColumnNotFound matches every *ColumnResolutionError.
var ErrColumnNotFound = errors.New("column not found")

// ColumnResolutionError reports a mandatory field missing from a header row.
type ColumnResolutionError struct {
	Field  Field
	Source types.SourceKind
}

func (e *ColumnResolutionError) Error() string {
	return fmt.Sprintf("%s export: no %s column in header row", e.Source.Label(), e.Field)
}

// Is reports whether target is ErrColumnNotFound.
func (e *ColumnResolutionError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// Map resolves the columns of header for a source. The level column is only
// resolved for the secondary source; its absence is not an error.
func Map(header []string, kind types.SourceKind) (Mapping, error) {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = strings.ToLower(strings.TrimSpace(h))
	}

	m := Mapping{
		ItemNumber:  Unmapped,
		PartNumber:  Unmapped,
		Description: Unmapped,
		Quantity:    Unmapped,
		Level:       Unmapped,
	}
	claimed := make([]bool, len(header))

	rules := Rules
	if kind == types.SourceSecondary {
		rules = append(rules[:len(rules):len(rules)], LevelRule)
	}

	var pending []Rule
	for _, r := range rules {
		idx := match(folded, claimed, r.Fragments)
		if idx == Unmapped {
			if r.Required {
				return Mapping{}, &ColumnResolutionError{Field: r.Field, Source: kind}
			}
			pending = append(pending, r)
			continue
		}
		claimed[idx] = true
		m.set(r.Field, idx)
	}

	// Positional defaults for fields no header named.
	for _, r := range pending {
		if r.Fallback == NoFallback || r.Fallback >= len(header) || claimed[r.Fallback] {
			continue
		}
		claimed[r.Fallback] = true
		m.set(r.Field, r.Fallback)
	}
	return m, nil
}

// match returns the first unclaimed header cell containing any of
// fragments, or Unmapped.
func match(folded []string, claimed []bool, fragments []string) int {
	for i, h := range folded {
		if claimed[i] || h == "" {
			continue
		}
		for _, frag := range fragments {
			if strings.Contains(h, frag) {
				return i
			}
		}
	}
	return Unmapped
}
