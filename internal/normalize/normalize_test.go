// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"empty", "", ""},
		{"lowercases", "BRACKET, Steel", "bracket, steel"},
		{"collapses whitespace", "  Hex \t Nut\n M3  ", "hex nut m3"},
		{"integer", 42, "42"},
		{"whole float", 2.0, "2"},
		{"fractional float", 0.25, "0.25"},
		{"unicode", "ÄÖÜ Schraube", "äöü schraube"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestEquivalent(t *testing.T) {
	assert.True(t, Equivalent("Bracket", "  bracket "))
	assert.True(t, Equivalent("", nil))
	assert.True(t, Equivalent(2, "2"))
	assert.False(t, Equivalent("", "0"))
	assert.False(t, Equivalent("1", "1.0"))
}

func TestPartKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"406-00043-00-00", "406-00043"},
		{"406-00043", "406-00043"},
		{"453-00516-02-02", "453-00516-02"},
		{"453-00516-02", "453-00516-02"},
		{"800-00761-00", "800-00761"},
		{"800-00761-01", "800-00761-01"},
		{" 800-00761-01 ", "800-00761-01"},
		{"ABC-123", "abc-123"},
		{"X-1", "x-1"},
		{"915-00001-15-15", "915-00001-15"},
		{"915-00001-15-16", "915-00001-15-16"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PartKey(tt.in))
		})
	}
}

func TestPartKeyCollapsesBothSpellings(t *testing.T) {
	assert.Equal(t, PartKey("406-00043"), PartKey("406-00043-00-00"))
	assert.Equal(t, PartKey("800-00761"), PartKey("800-00761-00"))
}

var propertySamples = []string{
	"", " ", "406-00043-00-00", "406-00-00-00", "453-00516-02-02", "800-00761",
	"800-00761-01", "A-05-00", "A-05-05-00", "x-00", "-00", "-00-00", "00-00",
	"Part  Name\tWith  Spaces", "ÄB-12-12", "123", "7-7-7", "ABC-01-01-01",
}

func TestNormalizationIsIdempotent(t *testing.T) {
	for _, s := range propertySamples {
		once := Text(s)
		assert.Equal(t, once, Text(once), "Text(%q)", s)

		key := PartKey(s)
		assert.Equal(t, key, PartKey(key), "PartKey(%q)", s)
	}
}

func TestToDuroFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"406-00043", "406-00043-00-00"},
		{"453-00516-02", "453-00516-02-02"},
		{"453-00516-02-02", "453-00516-02-02"},
		{"406-00043-00", "406-00043-00-00"},
		{" 800-00761 ", "800-00761-00-00"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToDuroFormat(tt.in))
		})
	}
}

func TestToDuroFormatInvertsPartKey(t *testing.T) {
	for _, s := range propertySamples {
		if s == "" || s == " " {
			continue
		}
		assert.Equal(t, PartKey(s), PartKey(ToDuroFormat(s)), "part %q", s)
	}
}

func TestQuantity(t *testing.T) {
	d, ok := Quantity("2")
	assert.True(t, ok)
	assert.Equal(t, "2", d.String())

	d, ok = Quantity(" 1,250.5 ")
	assert.True(t, ok)
	assert.Equal(t, "1250.5", d.String())

	_, ok = Quantity("AR")
	assert.False(t, ok)

	_, ok = Quantity("")
	assert.False(t, ok)
}
