// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet decodes spreadsheet exports into rectangular tables of text
// cells: the first row holds headers, the remaining rows hold data.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// headerScanRows bounds how far DetectHeaderRow looks.
const headerScanRows = 10

// headerKeywords mark a row as a BOM header row.
var headerKeywords = []string{"part", "item", "cpn", "quantity", "qty", "description"}

// ErrUnsupportedFormat is returned by ReadFile for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table is a decoded sheet. Rows may be shorter than Headers; missing cells
// read as "".
type Table struct {
	Name    string     `json:"name,omitempty" yaml:"name,omitempty"`
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Options controls decoding.
type Options struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string

	// DetectHeader scans the first rows for a BOM header instead of
	// assuming the first row.
	DetectHeader bool
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Cell returns the value at row, col as decoded, or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// HeaderIndex returns the column whose header equals name exactly (after
// trimming), or -1.
func (t Table) HeaderIndex(name string) int {
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Value returns the cell in row under the header named name, or "".
func (t Table) Value(row int, name string) string {
	return t.Cell(row, t.HeaderIndex(name))
}

// Record returns row as a header-keyed map. Blank headers are skipped.
func (t Table) Record(row int) map[string]string {
	rec := make(map[string]string, len(t.Headers))
	for i, h := range t.Headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		rec[h] = t.Cell(row, i)
	}
	return rec
}

// ReadFile decodes path by extension: .xlsx, .xlsm, .xltx or .csv.
func ReadFile(path string, opts Options) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, path, opts)
}

// Read decodes r, choosing the decoder from the extension of name. The
// table is named after the base of name.
func Read(r io.Reader, name string, opts Options) (Table, error) {
	var (
		t   Table
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx":
		t, err = ReadXLSX(r, opts)
	case ".csv":
		t, err = ReadCSV(r, opts)
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", name, err)
	}
	t.Name = filepath.Base(name)
	return t, nil
}

// ReadXLSX decodes a workbook, using the first sheet unless opts.Sheet names
// another one.
func ReadXLSX(r io.Reader, opts Options) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("no sheets found")
	}
	name := sheets[0]
	if opts.Sheet != "" {
		if idx, err := f.GetSheetIndex(opts.Sheet); err != nil || idx < 0 {
			return Table{}, fmt.Errorf("sheet %q not found", opts.Sheet)
		}
		name = opts.Sheet
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("reading sheet %q: %w", name, err)
	}
	return fromRows(rows, opts), nil
}

// ReadCSV decodes comma-separated text. Ragged rows are accepted.
func ReadCSV(r io.Reader, opts Options) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	// Excel writes a UTF-8 BOM on "CSV UTF-8" exports.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parsing csv: %w", err)
	}
	return fromRows(rows, opts), nil
}

func fromRows(rows [][]string, opts Options) Table {
	rows = trimEmptyRows(rows)
	if len(rows) == 0 {
		return Table{}
	}
	h := 0
	if opts.DetectHeader {
		h = DetectHeaderRow(rows)
	}
	headers := make([]string, len(rows[h]))
	for i, v := range rows[h] {
		headers[i] = strings.TrimSpace(v)
	}
	data := make([][]string, 0, len(rows)-h-1)
	for _, row := range rows[h+1:] {
		if isEmpty(row) {
			continue
		}
		data = append(data, row)
	}
	return Table{Headers: headers, Rows: data}
}

// DetectHeaderRow returns the index of the first row within the first ten
// that mentions a BOM column keyword, or 0.
func DetectHeaderRow(rows [][]string) int {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		joined := strings.ToLower(strings.Join(rows[i], "|"))
		for _, kw := range headerKeywords {
			if strings.Contains(joined, kw) {
				return i
			}
		}
	}
	return 0
}

func trimEmptyRows(rows [][]string) [][]string {
	for len(rows) > 0 && isEmpty(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	for len(rows) > 0 && isEmpty(rows[0]) {
		rows = rows[1:]
	}
	return rows
}

func isEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
