package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazas-game/internal/game"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bazas.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	rules, err := cfg.GameRules()
	require.NoError(t, err)
	assert.Equal(t, game.DefaultRules(), rules)
}

func TestLoad_OverridesAndFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
server {
  address   = "127.0.0.1:9000"
  log_level = "debug"
}

database {
  driver = "pgx"
  dsn    = "postgres://bazas@localhost/bazas"
}

rules {
  max_seats    = 4
  pattern      = [1, 2, 1]
  end_policy   = "rounds-or-threshold"
  target_score = 50
  bid_timeout  = "15s"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "text", cfg.Server.LogFormat)
	assert.Equal(t, "pgx", cfg.Database.Driver)

	rules, err := cfg.GameRules()
	require.NoError(t, err)
	assert.Equal(t, 4, rules.MaxSeats)
	assert.Equal(t, []int{1, 2, 1}, rules.Pattern)
	assert.Equal(t, game.EndPatternOrThreshold, rules.EndPolicy)
	assert.Equal(t, 50, rules.TargetScore)
	assert.Equal(t, 15*time.Second, rules.BidTimeout)

	grace, err := cfg.Grace()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, grace)
}

func TestLoad_PartialFile(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, cfg *Config)
	}{
		{"server only", `server { address = ":9090" }`, func(t *testing.T, cfg *Config) {
			assert.Equal(t, ":9090", cfg.Server.Address)
			assert.Equal(t, "info", cfg.Server.LogLevel)
			assert.Equal(t, Default().Database, cfg.Database)
			assert.Equal(t, Default().Rules, cfg.Rules)
		}},
		{"rules only", `rules { bid_timeout = "0s" }`, func(t *testing.T, cfg *Config) {
			assert.Equal(t, Default().Server, cfg.Server)
			assert.Equal(t, "0s", cfg.Rules.BidTimeout)
			assert.Equal(t, 5, cfg.Rules.MaxSeats)
		}},
		{"empty database block", "database {}\n", func(t *testing.T, cfg *Config) {
			assert.Equal(t, Default().Database, cfg.Database)
		}},
		{"empty file", "", func(t *testing.T, cfg *Config) {
			assert.Equal(t, Default(), cfg)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			tt.check(t, cfg)
		})
	}
}

func TestLoad_SyntaxError(t *testing.T) {
	path := writeConfig(t, `server {`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log format", func(c *Config) { c.Server.LogFormat = "xml" }},
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"too many seats", func(c *Config) { c.Rules.MaxSeats = 6 }},
		{"end policy", func(c *Config) { c.Rules.EndPolicy = "forever" }},
		{"bid timeout", func(c *Config) { c.Rules.BidTimeout = "soon" }},
		{"grace", func(c *Config) { c.Rules.TeardownGrace = "later" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("no database", func(t *testing.T) {
		cfg := Default()
		cfg.Database = DatabaseSettings{}
		assert.NoError(t, cfg.Validate())
	})
}
