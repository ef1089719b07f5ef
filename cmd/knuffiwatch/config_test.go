package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	v := viper.New()
	flags := pflag.NewFlagSet("knuffiwatch", pflag.ContinueOnError)
	require.NoError(t, bindFlags(v, flags))
	require.NoError(t, flags.Parse(args))
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	v := newTestViper(t, "--app-id", "app")

	cfg, err := loadConfig(v, nil)
	require.NoError(t, err)
	assert.Equal(t, config{
		AppID:     "app",
		Cluster:   "default",
		Namespace: "application",
		Format:    "json",
		SortBy:    "rank",
	}, cfg)
}

func TestLoadConfigFlagsAndArgs(t *testing.T) {
	v := newTestViper(t, "--app-id", "app", "--server", "localhost:8080",
		"--format", "yaml", "--sort-by", "score", "--desc", "-v")

	cfg, err := loadConfig(v, []string{"players"})
	require.NoError(t, err)
	assert.Equal(t, "players", cfg.Namespace)
	assert.Equal(t, "localhost:8080", cfg.Server)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "score", cfg.SortBy)
	assert.True(t, cfg.Desc)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("KNUFFI_APP_ID", "from-env")
	t.Setenv("KNUFFI_SORT_BY", "level")

	cfg, err := loadConfig(newTestViper(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AppID)
	assert.Equal(t, "level", cfg.SortBy)
}

func TestLoadConfigFile(t *testing.T) {
	tests := map[string]string{
		"knuffi.yaml":       "app-id: app\nnamespace: players\ndesc: true\n",
		"knuffi.toml":       "app-id = \"app\"\nnamespace = \"players\"\ndesc = true\n",
		"knuffi.hcl":        "\"app-id\" = \"app\"\nnamespace = \"players\"\ndesc = true\n",
		"knuffi.properties": "app-id = app\nnamespace = players\ndesc = true\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

			cfg, err := loadConfig(newTestViper(t, "--config", file), nil)
			require.NoError(t, err)
			assert.Equal(t, "app", cfg.AppID)
			assert.Equal(t, "players", cfg.Namespace)
			assert.True(t, cfg.Desc)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(newTestViper(t), nil)
	assert.EqualError(t, err, "app-id is required")

	_, err = loadConfig(newTestViper(t, "--app-id", "app", "--namespace", ""), nil)
	assert.EqualError(t, err, "namespace is required")

	_, err = loadConfig(newTestViper(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")), nil)
	assert.Error(t, err)
}
