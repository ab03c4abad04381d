package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("file over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "forgeqa.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
ledger:
  path: /tmp/ledger.db
registry:
  path: sigs.yaml
log:
  verbose: true
`), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/ledger.db", cfg.Ledger.Path)
		assert.Equal(t, "sigs.yaml", cfg.Registry.Path)
		assert.True(t, cfg.Log.Verbose)
		assert.Equal(t, "cargo", cfg.Cargo.Binary, "unset keys keep defaults")
		assert.Equal(t, ".forgeqa", cfg.Output.Dir)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("FORGEQA_CARGO", "/opt/rust/bin/cargo")
		t.Setenv("FORGEQA_LEDGER", "env.db")
		t.Setenv("FORGEQA_LOG_JSON", "true")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err, "an explicit path must exist")
		assert.Nil(t, cfg)

		t.Chdir(t.TempDir())
		cfg, err = LoadConfig(DefaultPath)
		require.NoError(t, err)
		assert.Equal(t, "/opt/rust/bin/cargo", cfg.Cargo.Binary)
		assert.Equal(t, "env.db", cfg.Ledger.Path)
		assert.True(t, cfg.Log.JSON)
	})

	t.Run("bad bool", func(t *testing.T) {
		t.Setenv("FORGEQA_LOG_JSON", "sometimes")
		t.Chdir(t.TempDir())
		_, err := LoadConfig(DefaultPath)
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "forgeqa.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ledger: [unclosed"), 0644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}
