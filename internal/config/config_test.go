package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	// No env, no config file at the default path.
	t.Setenv("CONFIG", "")
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("PRICE_SECRET", "")
	options.Config = filepath.Join(t.TempDir(), "missing.json")

	got := Parse()

	assert.Equal(t, "localhost:8080", got.Address)
	assert.Equal(t, 10*time.Second, got.DiscoveryInterval)
	assert.Equal(t, time.Second, got.UpdateInterval)
	assert.Equal(t, 24*time.Hour, got.TokenRetention)
	assert.Equal(t, time.Hour, got.SweepInterval)
}

func TestParse_EnvOverridesFlags(t *testing.T) {
	t.Setenv("CONFIG", "")
	t.Setenv("SERVER_ADDRESS", "0.0.0.0:9191")
	t.Setenv("DATABASE_DSN", "postgres://env")
	t.Setenv("PRICE_SECRET", "env-secret")
	options.Config = filepath.Join(t.TempDir(), "missing.json")

	got := Parse()

	assert.Equal(t, "0.0.0.0:9191", got.Address)
	assert.Equal(t, "postgres://env", got.DatabaseDSN)
	assert.Equal(t, "env-secret", got.PriceSecret)
}

func TestParse_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Address":"0.0.0.0:7070","DatabaseDSN":"postgres://file"}`), 0o600))

	t.Setenv("CONFIG", path)
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("PRICE_SECRET", "")

	got := Parse()

	assert.Equal(t, "0.0.0.0:7070", got.Address)
	assert.Equal(t, "postgres://file", got.DatabaseDSN)
}

func TestParse_EnvBeatsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Address":"0.0.0.0:7070"}`), 0o600))

	t.Setenv("CONFIG", path)
	t.Setenv("SERVER_ADDRESS", "0.0.0.0:9999")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("PRICE_SECRET", "")

	got := Parse()

	assert.Equal(t, "0.0.0.0:9999", got.Address)
}
