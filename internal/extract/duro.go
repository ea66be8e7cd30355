// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"

	"github.com/pdiddy/bom-reconcile/internal/duro"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// AssemblyFetcher fetches a DURO assembly with its children.
type AssemblyFetcher interface {
	FetchBOM(ctx context.Context, assemblyNumber string) (*duro.Assembly, error)
}

// FromDuroChildren maps API child rows to entries. The part number is the
// CPN display value, else the component name; the description is the
// component name; a missing quantity reads as "1". Children with neither a
// CPN nor a name are dropped.
func FromDuroChildren(children []duro.Child) []types.BomLineEntry {
	out := make([]types.BomLineEntry, 0, len(children))
	for _, ch := range children {
		part := ch.Component.CPN.DisplayValue
		if part == "" {
			part = ch.Component.Name
		}
		if part == "" {
			continue
		}
		qty := string(ch.Quantity)
		if qty == "" {
			qty = "1"
		}
		out = append(out, types.BomLineEntry{
			ItemNumber:  string(ch.ItemNumber),
			PartNumber:  part,
			Description: ch.Component.Name,
			Quantity:    qty,
		})
	}
	return out
}

// Duro fetches an assembly and extracts its children as the secondary
// source. An assembly that cannot be found, or has no children, yields
// *EmptySourceError.
func Duro(ctx context.Context, f AssemblyFetcher, assemblyNumber string) ([]types.BomLineEntry, *duro.Assembly, error) {
	asm, err := f.FetchBOM(ctx, assemblyNumber)
	if err != nil {
		if errors.Is(err, duro.ErrAssemblyNotFound) {
			return nil, nil, &EmptySourceError{Source: assemblyNumber, Kind: types.SourceSecondary, Err: err}
		}
		return nil, nil, err
	}
	entries := FromDuroChildren(asm.Children)
	if len(entries) == 0 {
		return nil, asm, &EmptySourceError{Source: assemblyNumber, Kind: types.SourceSecondary}
	}
	return entries, asm, nil
}

// AssemblyTable lays out a fetched assembly the way DURO's BOM export does:
// the assembly itself at level 0, then one level 1 row per child.
func AssemblyTable(asm *duro.Assembly) sheet.Table {
	t := sheet.Table{
		Name:    asm.CPN.DisplayValue,
		Headers: []string{"Level", "CPN", "Name", "Item Number", "Quantity"},
		Rows:    [][]string{{"0", asm.CPN.DisplayValue, asm.Name, "", "1"}},
	}
	for _, ch := range asm.Children {
		t.Rows = append(t.Rows, []string{
			"1", ch.Component.CPN.DisplayValue, ch.Component.Name, string(ch.ItemNumber), string(ch.Quantity),
		})
	}
	return t
}
