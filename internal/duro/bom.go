// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package duro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Scalar is a JSON number or string kept as text. Null decodes to "".
type Scalar string

// UnmarshalJSON accepts numbers, strings and null.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("scalar %s: %w", b, err)
		}
		*s = Scalar(formatNumber(n.String()))
	}
	return nil
}

// formatNumber renders a JSON number the way DURO displays it: 2.0 is "2".
func formatNumber(n string) string {
	d, err := decimal.NewFromString(n)
	if err != nil {
		return n
	}
	return d.String()
}

// CPN wraps the displayed part number.
type CPN struct {
	DisplayValue string `json:"displayValue"`
}

// Component is a DURO component node.
type Component struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	CPN  CPN    `json:"cpn"`
}

// Child is one row of an assembly's children list.
type Child struct {
	ItemNumber Scalar    `json:"itemNumber"`
	Quantity   Scalar    `json:"quantity"`
	Component  Component `json:"component"`
}

// Assembly is a component together with its direct children.
type Assembly struct {
	Component
	Children []Child `json:"children"`
}

// ChildUpdate is one entry of a replacement children list.
type ChildUpdate struct {
	ComponentID string `json:"componentId"`
	Quantity    string `json:"quantity"`
	ItemNumber  string `json:"itemNumber"`
}

// SearchComponent finds the component whose CPN display value equals cpn
// exactly. DURO's search is fuzzy, so results are filtered client side. It
// returns nil when nothing matches.
func (c *Client) SearchComponent(ctx context.Context, cpn string) (*Component, error) {
	limit := c.SearchLimit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	doc := fmt.Sprintf(`{
  components(libraryType: GENERAL, search: { cpn: %s }) {
    connection(first: %d) {
      edges { node { id name cpn { displayValue } } }
    }
  }
}`, literal(cpn), limit)

	var data struct {
		Components struct {
			Connection struct {
				Edges []struct {
					Node Component `json:"node"`
				} `json:"edges"`
			} `json:"connection"`
		} `json:"components"`
	}
	if err := c.query(ctx, "search", doc, &data); err != nil {
		return nil, fmt.Errorf("searching for %s: %w", cpn, err)
	}

	for _, e := range data.Components.Connection.Edges {
		if e.Node.CPN.DisplayValue == cpn {
			n := e.Node
			return &n, nil
		}
	}
	return nil, nil
}

// AssemblyChildren reads the component with the given id and its direct
// children.
func (c *Client) AssemblyChildren(ctx context.Context, id string) (*Assembly, error) {
	doc := fmt.Sprintf(`{
  componentsByIds(ids: [%s]) {
    id
    name
    cpn { displayValue }
    children {
      itemNumber
      quantity
      component { id name cpn { displayValue } }
    }
  }
}`, literal(id))

	var data struct {
		ComponentsByIDs []Assembly `json:"componentsByIds"`
	}
	if err := c.query(ctx, "children", doc, &data); err != nil {
		return nil, fmt.Errorf("reading children of %s: %w", id, err)
	}
	if len(data.ComponentsByIDs) == 0 {
		return nil, fmt.Errorf("component %s: %w", id, ErrAssemblyNotFound)
	}
	return &data.ComponentsByIDs[0], nil
}

// FetchBOM finds an assembly by CPN and returns it with its children.
// A missing assembly yields an error wrapping ErrAssemblyNotFound.
func (c *Client) FetchBOM(ctx context.Context, assemblyNumber string) (*Assembly, error) {
	node, err := c.SearchComponent(ctx, assemblyNumber)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("%s: %w", assemblyNumber, ErrAssemblyNotFound)
	}

	asm, err := c.AssemblyChildren(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	if asm.CPN.DisplayValue == "" {
		asm.CPN = node.CPN
	}
	c.Log.Info("fetched DURO assembly",
		zap.String("cpn", assemblyNumber),
		zap.String("id", asm.ID),
		zap.Int("children", len(asm.Children)))
	return asm, nil
}

// UpdateAssemblyChildren replaces the children of an assembly. Item numbers
// are sent as integers (unparseable values become 0); quantities as
// decimals (unparseable values become 1).
func (c *Client) UpdateAssemblyChildren(ctx context.Context, id string, children []ChildUpdate) (*Assembly, error) {
	var b strings.Builder
	for i, ch := range children {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "      { componentId: %s, quantity: %s, itemNumber: %d }",
			literal(ch.ComponentID), mutationQuantity(ch.Quantity), mutationItemNumber(ch.ItemNumber))
	}
	doc := fmt.Sprintf(`mutation {
  updateComponent(input: {
    id: %s,
    children: [
%s
    ]
  }) {
    id
    children { itemNumber quantity }
  }
}`, literal(id), b.String())

	var data struct {
		UpdateComponent Assembly `json:"updateComponent"`
	}
	if err := c.query(ctx, "update", doc, &data); err != nil {
		return nil, fmt.Errorf("updating children of %s: %w", id, err)
	}
	c.Log.Info("updated DURO assembly", zap.String("id", id), zap.Int("children", len(children)))
	return &data.UpdateComponent, nil
}

// Updates converts fetched children into a replacement list, applying
// itemNumbers (keyed by component id) over the current item numbers.
func Updates(children []Child, itemNumbers map[string]string) []ChildUpdate {
	out := make([]ChildUpdate, 0, len(children))
	for _, ch := range children {
		u := ChildUpdate{
			ComponentID: ch.Component.ID,
			Quantity:    string(ch.Quantity),
			ItemNumber:  string(ch.ItemNumber),
		}
		if n, ok := itemNumbers[ch.Component.ID]; ok {
			u.ItemNumber = n
		}
		out = append(out, u)
	}
	return out
}

func mutationItemNumber(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func mutationQuantity(s string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "1"
	}
	return d.String()
}
