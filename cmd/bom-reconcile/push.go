// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bom-reconcile/internal/duro"
	"github.com/pdiddy/bom-reconcile/internal/export"
	"github.com/pdiddy/bom-reconcile/internal/reconcile"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push PDM item numbers to a DURO assembly",
	Long: `Push sets the item numbers of a DURO assembly's children to the PDM item
numbers for every open item number mismatch in a saved run. Quantity
mismatches must be resolved or ignored first.

Without --yes, push only lists the changes it would make.`,
	RunE: runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	runPath, _ := cmd.Flags().GetString("run")
	assembly, _ := cmd.Flags().GetString("assembly")
	yes, _ := cmd.Flags().GetBool("yes")

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

	sum := reconcile.Summarize(run.Summary.Results, snap.Ignored)
	updates, err := export.ItemNumberUpdates(sum, snap)
	if err != nil {
		return err
	}

	client, err := duroClient(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	asm, err := client.FetchBOM(ctx, assembly)
	if err != nil {
		return err
	}

	byID := export.ChildItemNumbers(asm.Children, updates)
	if len(byID) == 0 {
		fmt.Fprintf(os.Stdout, "DURO assembly %s already carries the PDM item numbers.\n", assembly)
		return nil
	}

	changes := make([]string, 0, len(byID))
	for _, ch := range asm.Children {
		if n, ok := byID[ch.Component.ID]; ok {
			changes = append(changes, fmt.Sprintf("  %-20s  item %s -> %s", ch.Component.CPN.DisplayValue, ch.ItemNumber, n))
		}
	}
	sort.Strings(changes)
	fmt.Fprintf(os.Stdout, "%d item number change(s) for %s:\n", len(changes), assembly)
	for _, c := range changes {
		fmt.Fprintln(os.Stdout, c)
	}

	if !yes {
		fmt.Fprintln(os.Stdout, "Dry run; re-run with --yes to apply.")
		return nil
	}

	if _, err := client.UpdateAssemblyChildren(ctx, asm.ID, duro.Updates(asm.Children, byID)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Updated %d child item number(s) on %s\n", len(byID), assembly)
	return nil
}

func init() {
	pushCmd.Flags().String("run", "", "run file saved by compare --out")
	pushCmd.Flags().String("assembly", "", "DURO assembly CPN to update")
	pushCmd.Flags().Bool("yes", false, "apply the changes")
	_ = pushCmd.MarkFlagRequired("run")
	_ = pushCmd.MarkFlagRequired("assembly")

	rootCmd.AddCommand(pushCmd)
}
