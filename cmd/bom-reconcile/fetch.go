// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bom-reconcile/internal/extract"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a DURO assembly BOM as a workbook",
	Long: `Fetch looks up an assembly in DURO by CPN and writes its BOM as an
.xlsx workbook laid out like DURO's own export: the assembly at level 0
followed by its children. The file can be passed to compare --secondary.

Requires DURO_API_URL and DURO_API_TOKEN (environment, .env, config file or
.secrets/).`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	assembly, _ := cmd.Flags().GetString("assembly")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = assembly + ".xlsx"
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := duroClient(cfg)
	if err != nil {
		return err
	}

	asm, err := client.FetchBOM(cmd.Context(), assembly)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := sheet.WriteXLSX(&buf, extract.AssemblyTable(asm)); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %d children of %s (%s) to %s\n", len(asm.Children), assembly, asm.Name, out)
	return nil
}

func init() {
	fetchCmd.Flags().String("assembly", "", "DURO assembly CPN")
	fetchCmd.Flags().String("out", "", "output workbook (default: <assembly>.xlsx)")
	_ = fetchCmd.MarkFlagRequired("assembly")

	rootCmd.AddCommand(fetchCmd)
}
