// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bom-reconcile CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bom-reconcile/internal/logging"
	"github.com/pdiddy/bom-reconcile/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds DURO credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger carries structured diagnostics; human output goes to stdout.
var logger = logging.Nop()

// rootCmd is the base command for the bom-reconcile CLI.
var rootCmd = &cobra.Command{
	Use:   "bom-reconcile",
	Short: "Reconcile a SOLIDWORKS PDM BOM against a DURO BOM",
	Long: `bom-reconcile compares the bill of materials exported from SOLIDWORKS PDM
with the one held in DURO. Parts are matched on a normalized part key, so
DURO's duplicated revision suffixes ("406-00043-00-00") match the PDM
spelling ("406-00043").

Compare two exports (or an export and a live DURO assembly), review and
annotate the differences, then export remediation files for either system
or push item numbers back to DURO.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		cfg, err := loadLogConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(logging.Config{Level: cfg.Level, Format: cfg.Format})
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = l

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bom-reconcile.yaml or ~/.config/bom-reconcile/bom-reconcile.yaml)")
	rootCmd.PersistentFlags().String("workspace", ".bom-reconcile", "directory holding the session database")
	rootCmd.PersistentFlags().String("session", "default", "annotation session name")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log encoding: console or json")

	for key, flag := range map[string]string{
		"workspace.dir":     "workspace",
		"workspace.session": "session",
		"log.level":         "log-level",
		"log.format":        "log-format",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bom-reconcile")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bom-reconcile"))
		}
	}

	setDefaults()

	viper.SetEnvPrefix("BOM_RECONCILE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The DURO credentials keep their unprefixed names.
	_ = viper.BindEnv("duro.api_url", "BOM_RECONCILE_DURO_API_URL", "DURO_API_URL")
	_ = viper.BindEnv("duro.api_token", "BOM_RECONCILE_DURO_API_TOKEN", "DURO_API_TOKEN")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
