package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: test
store:
  driver: sqlite
  sqlite:
    path: /tmp/prices.db
updater:
  retention_days: 90
  symbols:
    - symbol: 2330.TW
      name: TSMC
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "test", c.Environment)
	require.Equal(t, "/tmp/prices.db", c.Store.SQLite.Path)
	require.Equal(t, 90, c.Updater.RetentionDays)
	require.Equal(t, 500*time.Millisecond, c.Updater.Delay)
	require.Equal(t, 8080, c.Server.Port)
	require.Len(t, c.Updater.Symbols, 1)
	require.Equal(t, "TSMC", c.Updater.Symbols[0].Name)
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
environment: test
updater:
  delay: 2s
cache:
  ttl: 90s
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, c.Updater.Delay)
	require.Equal(t, 90*time.Second, c.Cache.TTL)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("FINCORR_SQLITE_PATH", "/data/override.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FINCORR_PORT", "9999")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	require.Equal(t, "/data/override.db", c.Store.SQLite.Path)
	require.True(t, c.Kafka.Enabled)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	require.Equal(t, 9999, c.Server.Port)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver"},
		{"clickhouse without host", func(c *Config) { c.Store.Driver = "clickhouse" }, "clickhouse.host is required"},
		{"zero retention", func(c *Config) { c.Updater.RetentionDays = 0 }, "retention_days"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
		{"symbol without code", func(c *Config) { c.Updater.Symbols = []SymbolEntry{{Name: "x"}} }, "updater.symbols[0].symbol"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}

	require.NoError(t, Default().Validate())
}
