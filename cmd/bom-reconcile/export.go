// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/internal/export"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write reports and import files from a saved run",
	Long: `Export renders a run saved by compare --out, together with the session's
annotations, in one of these formats:

  workbook           comparison workbook, one sheet per issue kind plus Summary
  csv                every record with both sides' values
  pdf                printable comparison report
  markdown           action plan of the selected PDM and DURO updates
  duro-update        DURO import workbook for issues marked "update DURO"
  duro-item-numbers  the DURO BOM with PDM item numbers, for re-import
  action-report      SOLIDWORKS action items for issues marked "update PDM"
  json, yaml         the run itself with the current annotations

Issues ignored in the session are left out of every export.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	runPath, _ := cmd.Flags().GetString("run")
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	f := export.Format(format)
	if !f.Valid() {
		names := make([]string, len(export.Formats))
		for i, known := range export.Formats {
			names[i] = string(known)
		}
		return fmt.Errorf("unsupported format %q: use %s", format, strings.Join(names, ", "))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	run, err := export.LoadRun(runPath)
	if err != nil {
		return err
	}
	snap, err := runSnapshot(cmd.Context(), cfg, run)
	if err != nil {
		return err
	}

	now := time.Now()
	if out == "" {
		out = export.Filename(f, now)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f, run, snap, now); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	logger.Info("exported", zap.String("format", format), zap.String("run", run.ID), zap.String("path", out))
	fmt.Fprintf(os.Stdout, "Exported %s to %s\n", f, out)
	return nil
}

// runSnapshot returns the session's annotations, falling back to those
// saved with the run when the session does not exist.
func runSnapshot(ctx context.Context, cfg types.Config, run export.Run) (annotate.Snapshot, error) {
	snap, err := sessionSnapshot(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(snap) == 0 && len(run.Annotations) > 0 {
		return annotate.FromEntries(run.Annotations), nil
	}
	return snap, nil
}

func init() {
	exportCmd.Flags().String("run", "", "run file saved by compare --out")
	exportCmd.Flags().String("format", string(export.FormatWorkbook), "export format")
	exportCmd.Flags().String("out", "", "output file (default: dated name per format)")
	_ = exportCmd.MarkFlagRequired("run")

	rootCmd.AddCommand(exportCmd)
}
