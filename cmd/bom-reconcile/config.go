// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/bom-reconcile/internal/duro"
	"github.com/pdiddy/bom-reconcile/internal/secrets"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

var validate = validator.New()

func setDefaults() {
	viper.SetDefault("duro.timeout", 30*time.Second)
	viper.SetDefault("duro.user_agent", "bom-reconcile/"+version)
	viper.SetDefault("duro.max_retries", 5)
	viper.SetDefault("duro.search_limit", 20)
	viper.SetDefault("duro.api_url", "")
	viper.SetDefault("duro.api_token", "")
	viper.SetDefault("sheet.sheet", "")
	viper.SetDefault("sheet.detect_header", true)
	viper.SetDefault("workspace.dir", ".bom-reconcile")
	viper.SetDefault("workspace.session", "default")
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.max_upload_bytes", 32<<20)
}

// loadConfig reads the merged configuration (flags, env, config file,
// defaults). DURO credentials fall back to .secrets/. The DURO section is
// validated separately, by duroClient, since most commands never call it.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	cfg.Duro.APIURL = loadedSecrets.Or(secrets.DuroAPIURL, cfg.Duro.APIURL)
	cfg.Duro.APIToken = loadedSecrets.Or(secrets.DuroAPIToken, cfg.Duro.APIToken)

	for name, section := range map[string]any{
		"workspace": cfg.Workspace,
		"log":       cfg.Log,
		"server":    cfg.Server,
	} {
		if err := validate.Struct(section); err != nil {
			return cfg, fmt.Errorf("invalid %s config: %w", name, err)
		}
	}
	return cfg, nil
}

func loadLogConfig() (types.LogConfig, error) {
	cfg := types.LogConfig{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid log config: %w", err)
	}
	return cfg, nil
}

// duroClient builds a DURO client, failing with duro.ErrNotConfigured when
// the endpoint or token is missing.
func duroClient(cfg types.Config) (*duro.Client, error) {
	if cfg.Duro.APIURL == "" || cfg.Duro.APIToken == "" {
		return nil, duro.ErrNotConfigured
	}
	if err := validate.Struct(cfg.Duro); err != nil {
		return nil, fmt.Errorf("invalid DURO config: %w", err)
	}
	return duro.New(cfg.Duro, logger), nil
}

func sheetOptions(cfg types.Config) sheet.Options {
	return sheet.Options{Sheet: cfg.Sheet.Sheet, DetectHeader: cfg.Sheet.DetectHeader}
}
