// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/internal/export"
	"github.com/pdiddy/bom-reconcile/internal/extract"
	"github.com/pdiddy/bom-reconcile/internal/metrics"
	"github.com/pdiddy/bom-reconcile/internal/reconcile"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a PDM BOM with a DURO BOM",
	Long: `Compare reads the PDM export (--primary) and either a DURO export
(--secondary) or a live DURO assembly (--assembly), matches parts by
normalized part key and prints a summary followed by the parts missing from
one side and the item number, quantity and description mismatches.

Issues ignored in the current annotation session are listed under Ignored
and left out of the counts. Use --out to save the run for the annotate,
export and push commands.`,
	RunE: runCompare,
}

// source is one loaded side of a comparison.
type source struct {
	info    export.SourceInfo
	entries []types.BomLineEntry
	table   *sheet.Table
}

func runCompare(cmd *cobra.Command, args []string) error {
	primaryPath, _ := cmd.Flags().GetString("primary")
	secondaryPath, _ := cmd.Flags().GetString("secondary")
	assembly, _ := cmd.Flags().GetString("assembly")
	out, _ := cmd.Flags().GetString("out")
	search, _ := cmd.Flags().GetString("search")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if s, _ := cmd.Flags().GetString("sheet"); s != "" {
		cfg.Sheet.Sheet = s
	}

	var primary, secondary source
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		primary, err = loadFile(primaryPath, types.SourcePrimary, sheetOptions(cfg))
		return err
	})
	g.Go(func() error {
		var err error
		if assembly != "" {
			secondary, err = loadAssembly(ctx, cfg, assembly)
		} else {
			secondary, err = loadFile(secondaryPath, types.SourceSecondary, sheetOptions(cfg))
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("comparing",
		zap.String("primary", primary.info.Label),
		zap.String("secondary", secondary.info.Label))
	res := (&reconcile.Engine{Log: logger}).Compare(primary.entries, secondary.entries)

	snap, err := sessionSnapshot(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if out != "" {
		run := export.NewRun(primary.info, secondary.info, res, time.Now())
		run.SecondaryTable = secondary.table
		if err := export.SaveRun(out, run); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved run %s to %s\n", run.ID, out)
	}

	sum := reconcile.Summarize(res.Summary.Results, snap.Ignored)
	cats := reconcile.Categorize(reconcile.Filter(res.Summary.Results, search), snap.Ignored)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Summary    types.ComparisonSummary `json:"summary"`
			Duplicates []reconcile.Duplicate   `json:"duplicates,omitempty"`
			Categories reconcile.Categories    `json:"categories"`
		}{sum, res.Duplicates, cats})
	}

	fmt.Fprintf(os.Stdout, "Compared %s (%d entries) with %s (%d entries)\n\n",
		primary.info.Label, len(primary.entries), secondary.info.Label, len(secondary.entries))
	printSummary(os.Stdout, sum)
	printDuplicates(os.Stderr, res.Duplicates)
	printCategories(os.Stdout, cats, search)
	return nil
}

// loadFile reads and extracts one BOM file.
func loadFile(path string, kind types.SourceKind, opts sheet.Options) (source, error) {
	t, err := sheet.ReadFile(path, opts)
	if err != nil {
		metrics.RecordExtractionError(string(kind), "read")
		return source{}, err
	}
	entries, err := extract.Source(t, kind, filepath.Base(path))
	if err != nil {
		metrics.RecordExtractionError(string(kind), extract.ErrorType(err))
		return source{}, err
	}
	return source{
		info:    export.SourceInfo{Kind: kind, Label: filepath.Base(path), Entries: len(entries)},
		entries: entries,
		table:   &t,
	}, nil
}

// loadAssembly fetches the secondary BOM from DURO.
func loadAssembly(ctx context.Context, cfg types.Config, cpn string) (source, error) {
	client, err := duroClient(cfg)
	if err != nil {
		return source{}, err
	}
	fmt.Fprintf(os.Stderr, "Fetching DURO assembly %s...\n", cpn)
	entries, asm, err := extract.Duro(ctx, client, cpn)
	if err != nil {
		metrics.RecordExtractionError(string(types.SourceSecondary), extract.ErrorType(err))
		return source{}, err
	}
	t := extract.AssemblyTable(asm)
	return source{
		info:    export.SourceInfo{Kind: types.SourceSecondary, Label: "DURO assembly " + cpn, Entries: len(entries)},
		entries: entries,
		table:   &t,
	}, nil
}

// sessionSnapshot loads the current annotation session. A session that was
// never saved is empty.
func sessionSnapshot(ctx context.Context, cfg types.Config) (annotate.Snapshot, error) {
	db, err := annotate.OpenSessionDB(cfg.Workspace.Dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	snap, sess, err := db.Load(ctx, cfg.Workspace.Session)
	if errors.Is(err, annotate.ErrNoSession) {
		return annotate.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded session", zap.String("session", sess.Name), zap.Int("annotations", sess.Count))
	return snap, nil
}

func printSummary(w io.Writer, s types.ComparisonSummary) {
	rows := []struct {
		label string
		n     int
	}{
		{"Total parts", s.TotalParts},
		{"Matching parts", s.MatchingParts},
		{"Item number issues", s.ItemNumberIssues},
		{"Quantity issues", s.QuantityIssues},
		{"Description issues", s.DescriptionIssues},
		{"In PDM only", s.InPrimaryOnly},
		{"In DURO only", s.InSecondaryOnly},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-20s %6d\n", r.label+":", r.n)
	}
}

func printDuplicates(w io.Writer, dups []reconcile.Duplicate) {
	for _, d := range dups {
		fmt.Fprintf(w, "warning: %s BOM lists part %s %d times (%s); only the first is compared\n",
			d.Source.Label(), d.PartNumbers[0], d.Count(), strings.Join(d.PartNumbers, ", "))
	}
}

func printCategories(w io.Writer, c reconcile.Categories, search string) {
	if search != "" {
		fmt.Fprintf(w, "\nShowing parts matching %q\n", search)
	}
	for _, kind := range types.IssueKinds {
		printCategory(w, kind.Title()+"s", c.For(kind), kind)
	}
	printCategory(w, "Ignored", c.Ignored, "")
}

func printCategory(w io.Writer, title string, recs []types.ComparisonRecord, kind types.IssueKind) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d)\n", title, len(recs))
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, r := range recs {
		pv, sv := sides(r, kind)
		fmt.Fprintf(w, "%-20s  %-26s  %-26s\n", truncate(r.PartNumber, 20), truncate(pv, 26), truncate(sv, 26))
	}
}

// sides renders the PDM and DURO values shown for a record in a category.
func sides(r types.ComparisonRecord, kind types.IssueKind) (string, string) {
	switch kind {
	case types.IssueMissing:
		if r.InPrimaryOnly {
			return "PDM: " + r.PrimaryDescription, "missing in DURO"
		}
		return "missing in PDM", "DURO: " + r.SecondaryDescription
	case types.IssueItemNumber:
		return "PDM item " + r.PrimaryItemNumber, "DURO item " + r.SecondaryItemNumber
	case types.IssueQuantity:
		return "PDM qty " + r.PrimaryQuantity, "DURO qty " + r.SecondaryQuantity
	case types.IssueDescription:
		return r.PrimaryDescription, r.SecondaryDescription
	default:
		issues := make([]string, 0, 4)
		for _, k := range r.Issues() {
			issues = append(issues, string(k))
		}
		return strings.Join(issues, ", "), ""
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func init() {
	compareCmd.Flags().String("primary", "", "PDM BOM file (.xlsx, .xlsm or .csv)")
	compareCmd.Flags().String("secondary", "", "DURO BOM file (.xlsx, .xlsm or .csv)")
	compareCmd.Flags().String("assembly", "", "DURO assembly CPN to fetch instead of --secondary")
	compareCmd.Flags().String("sheet", "", "worksheet name (default: first sheet)")
	compareCmd.Flags().String("out", "", "save the run to this file (.yaml or .json)")
	compareCmd.Flags().String("search", "", "only list parts whose number or description contains this text")
	compareCmd.Flags().Bool("json", false, "output the result as JSON")

	_ = compareCmd.MarkFlagRequired("primary")
	compareCmd.MarkFlagsOneRequired("secondary", "assembly")
	compareCmd.MarkFlagsMutuallyExclusive("secondary", "assembly")

	rootCmd.AddCommand(compareCmd)
}
