// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bom-reconcile/internal/duro"
	"github.com/pdiddy/bom-reconcile/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the comparison HTTP API",
	Long: `Serve starts the HTTP API:

  POST /api/compare         compare two JSON entry lists
  POST /api/compare/upload  compare uploaded files (or a file and a DURO assembly)
  POST /api/duro            DURO GraphQL proxy
  GET  /healthz             liveness
  GET  /metrics             Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// An unconfigured client is still passed: its routes answer 500.
	client := duro.New(cfg.Duro, logger)
	if client.Configured() {
		if client, err = duroClient(cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server, cfg.Sheet, client, logger).Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	if err := viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd)
}
