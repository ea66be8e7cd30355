// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes spreadsheet cell text and part numbers so
// values from the PDM and DURO exports can be compared.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Text lowercases v, collapses internal whitespace runs to a single space and
// trims the ends. A nil value yields "".
func Text(v any) string {
	s := stringify(v)
	if s == "" {
		return ""
	}
	// cases.Caser keeps state between calls, so one per call.
	lower := cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(lower), " ")
}

// Equivalent reports whether a and b are equal after Text normalization.
// Blank only matches blank.
func Equivalent(a, b any) bool {
	return Text(a) == Text(b)
}

// PartKey derives the matching key for a part number. DURO duplicates the
// last two-digit suffix on export ("406-00043-00" becomes
// "406-00043-00-00") and uses "-00" for the base part, which PDM omits.
// PartKey collapses the duplicate and drops the "-00" base marker, repeating
// until nothing changes. The key is never shown to users.
func PartKey(v any) string {
	key := Text(v)
	for {
		next := stripBaseSuffix(collapseDuplicateSuffix(key))
		if next == key {
			return key
		}
		key = next
	}
}

// ToDuroFormat converts a part number to the spelling DURO expects on
// import: a trailing "-DD" suffix is duplicated, a part without a suffix
// gets "-00-00", and a part already carrying a duplicated suffix is
// returned unchanged. PartKey(ToDuroFormat(p)) == PartKey(p).
func ToDuroFormat(v any) string {
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return ""
	}
	if _, ok := duplicateSuffix(s); ok {
		return s
	}
	if dd, ok := twoDigitSuffix(s); ok {
		return s + "-" + dd
	}
	return s + "-00-00"
}

// Quantity parses a quantity cell on demand. The second result is false for
// blank or non-numeric text, which callers compare as text only.
func Quantity(v any) (decimal.Decimal, bool) {
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// collapseDuplicateSuffix rewrites a trailing "-DD-DD" with identical digit
// pairs to "-DD".
func collapseDuplicateSuffix(s string) string {
	if _, ok := duplicateSuffix(s); ok {
		return s[:len(s)-3]
	}
	return s
}

func stripBaseSuffix(s string) string {
	if dd, ok := twoDigitSuffix(s); ok && dd == "00" {
		return s[:len(s)-3]
	}
	return s
}

// duplicateSuffix reports whether s ends in "-DD-DD" with both pairs equal.
func duplicateSuffix(s string) (string, bool) {
	last, ok := twoDigitSuffix(s)
	if !ok {
		return "", false
	}
	prev, ok := twoDigitSuffix(s[:len(s)-3])
	if !ok || prev != last {
		return "", false
	}
	return last, true
}

// twoDigitSuffix returns DD when s ends in "-DD" (ASCII digits).
func twoDigitSuffix(s string) (string, bool) {
	if len(s) < 3 {
		return "", false
	}
	tail := s[len(s)-3:]
	if tail[0] != '-' || !isDigit(tail[1]) || !isDigit(tail[2]) {
		return "", false
	}
	return tail[1:], true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// stringify renders scalar cell values the way a spreadsheet shows them.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
