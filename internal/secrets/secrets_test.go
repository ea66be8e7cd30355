// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, DuroAPIToken, "  tok_abc123  \n")
				writeFile(t, dir, DuroAPIURL, "https://api.durolabs.io/graphql\n")
				return dir
			},
			want: Secrets{
				DuroAPIToken: "tok_abc123",
				DuroAPIURL:   "https://api.durolabs.io/graphql",
			},
		},
		{
			name: "env style names fold to key names",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "DURO_API_TOKEN", "tok_env")
				return dir
			},
			want: Secrets{DuroAPIToken: "tok_env"},
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, DuroAPIToken, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: Secrets{DuroAPIToken: "valid-key"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, DuroAPIURL, "https://duro.example")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Secrets{DuroAPIURL: "https://duro.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadSkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DuroAPIURL, "https://duro.example")
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, DuroAPIToken)))

	core, logs := observer.New(zapcore.WarnLevel)
	got, err := Load(dir, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, Secrets{DuroAPIURL: "https://duro.example"}, got)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, DuroAPIToken, logs.All()[0].ContextMap()["file"])
}

func TestOr(t *testing.T) {
	s := Secrets{DuroAPIToken: "from-file"}
	assert.Equal(t, "from-env", s.Or(DuroAPIToken, "from-env"))
	assert.Equal(t, "from-file", s.Or(DuroAPIToken, ""))
	assert.Empty(t, s.Or(DuroAPIURL, ""))
	assert.Empty(t, Secrets(nil).Or(DuroAPIURL, ""))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{DuroAPIToken, DuroAPIURL}, Secrets{DuroAPIURL: "u", DuroAPIToken: "t"}.Keys())
	assert.Empty(t, Secrets{}.Keys())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
