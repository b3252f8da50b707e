package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silvernote.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("store", "", "")
	fs.String("user", "", "")
	fs.Int("page-size", 0, "")
	fs.String("log-level", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	def := Defaults()
	assert.Equal(t, def, cfg)
	assert.Equal(t, "sqlite://silvernote.db", cfg.StoreURI)
	assert.Equal(t, "SILVERNOTE_SECRET", cfg.SecretEnv)
	assert.Equal(t, 20, cfg.PageSize)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `{"store": "sqlite://file.db", "user": "bob", "page_size": 50}`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := Load(path, newFlags())
		require.NoError(t, err)
		assert.Equal(t, "sqlite://file.db", cfg.StoreURI)
		assert.Equal(t, "bob", cfg.User)
		assert.Equal(t, 50, cfg.PageSize)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("changed flags override file", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--store", "sqlite::memory:", "--page-size", "5"}))

		cfg, err := Load(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "sqlite::memory:", cfg.StoreURI)
		assert.Equal(t, 5, cfg.PageSize)
		assert.Equal(t, "bob", cfg.User)
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"store": `},
		{"unknown field", `{"stor": "x"}`},
		{"bad level", `{"log_level": "loud"}`},
		{"negative page size", `{"page_size": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), nil)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"), nil)
		assert.Error(t, err)
	})
}

func TestSecret(t *testing.T) {
	t.Setenv("SILVERNOTE_TEST_SECRET", "hunter2")

	cfg := Defaults()
	cfg.SecretEnv = "SILVERNOTE_TEST_SECRET"
	assert.Equal(t, "hunter2", cfg.Secret())

	cfg.SecretEnv = ""
	assert.Empty(t, cfg.Secret())
}
