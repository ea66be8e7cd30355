// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bom-reconcile/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on 429/503 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
}

// DuroConfig holds settings for the DURO GraphQL API.
type DuroConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIURL is the GraphQL endpoint (env DURO_API_URL).
	APIURL string `json:"api_url" yaml:"api_url" mapstructure:"api_url" validate:"required,url"`

	// APIToken is sent in the apiToken header (env DURO_API_TOKEN).
	APIToken string `json:"-" yaml:"-" mapstructure:"api_token" validate:"required"`

	// SearchLimit is how many search hits to scan for an exact CPN match
	// (default 20).
	SearchLimit int `json:"search_limit" yaml:"search_limit" mapstructure:"search_limit" validate:"gte=0"`
}

// SheetConfig controls how spreadsheet files are decoded.
type SheetConfig struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty" mapstructure:"sheet"`

	// DetectHeader scans the first rows for a BOM-like header row instead
	// of assuming row 0.
	DetectHeader bool `json:"detect_header" yaml:"detect_header" mapstructure:"detect_header"`
}

// WorkspaceConfig locates on-disk state: the session database and run files.
type WorkspaceConfig struct {
	// Dir is the workspace directory (default ".bom-reconcile").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required"`

	// Session is the annotation session name (default "default").
	Session string `json:"session" yaml:"session" mapstructure:"session" validate:"required"`
}

// LogConfig selects the structured logger's level and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`

	// MaxUploadBytes caps multipart uploads (default 32 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes" validate:"gte=0"`
}

// Config groups every component configuration.
type Config struct {
	Duro      DuroConfig      `json:"duro" yaml:"duro" mapstructure:"duro"`
	Sheet     SheetConfig     `json:"sheet" yaml:"sheet" mapstructure:"sheet"`
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace" mapstructure:"workspace"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}
