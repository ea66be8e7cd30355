// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/internal/reconcile"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

// SourceInfo describes one side of a run.
type SourceInfo struct {
	Kind types.SourceKind `json:"kind" yaml:"kind"`

	// Label is the file name or DURO assembly number.
	Label   string `json:"label" yaml:"label"`
	Entries int    `json:"entries" yaml:"entries"`
}

// Run is a saved comparison: enough to re-export and re-annotate without
// reading the sources again.
type Run struct {
	ID         string                  `json:"id" yaml:"id"`
	CreatedAt  time.Time               `json:"created_at" yaml:"created_at"`
	Primary    SourceInfo              `json:"primary" yaml:"primary"`
	Secondary  SourceInfo              `json:"secondary" yaml:"secondary"`
	Summary    types.ComparisonSummary `json:"summary" yaml:"summary"`
	Duplicates []reconcile.Duplicate   `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`

	// SecondaryTable is the DURO BOM as read, kept for the item number
	// import file.
	SecondaryTable *sheet.Table `json:"secondary_table,omitempty" yaml:"secondary_table,omitempty"`

	// Annotations are the session annotations at export time.
	Annotations []annotate.Entry `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// NewRun stamps a comparison result with a fresh id.
func NewRun(primary, secondary SourceInfo, res reconcile.Result, now time.Time) Run {
	return Run{
		ID:         uuid.NewString(),
		CreatedAt:  now.UTC(),
		Primary:    primary,
		Secondary:  secondary,
		Summary:    res.Summary,
		Duplicates: res.Duplicates,
	}
}

// WriteRun encodes run as JSON or YAML.
func WriteRun(w io.Writer, run Run, f Format) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatJSON:
		data, err = json.MarshalIndent(run, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	default:
		return fmt.Errorf("%w for runs: %q", ErrUnknownFormat, f)
	}
	_, err = w.Write(data)
	return err
}

// SaveRun writes run to path, as JSON when path ends in .json and YAML
// otherwise.
func SaveRun(path string, run Run) error {
	var buf bytes.Buffer
	if err := WriteRun(&buf, run, runFormat(path)); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadRun reads a run saved by SaveRun.
func LoadRun(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("reading run file: %w", err)
	}
	var run Run
	if runFormat(path) == FormatJSON {
		err = json.Unmarshal(data, &run)
	} else {
		err = yaml.Unmarshal(data, &run)
	}
	if err != nil {
		return Run{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return run, nil
}

func runFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}
