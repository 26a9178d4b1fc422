// Package config loads the server configuration from an HCL file.
package config

import (
	"fmt"
	"os"
	"time"

	"bazas-game/internal/game"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server   ServerSettings
	Database DatabaseSettings
	Rules    RulesSettings
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address   string `hcl:"address,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	LogFormat string `hcl:"log_format,optional"` // text or json
}

// DatabaseSettings selects the game history store. An empty driver disables it.
type DatabaseSettings struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// RulesSettings configures every room created by the server
type RulesSettings struct {
	MaxSeats      int    `hcl:"max_seats,optional"`
	Pattern       []int  `hcl:"pattern,optional"`
	EndPolicy     string `hcl:"end_policy,optional"`
	TargetScore   int    `hcl:"target_score,optional"`
	BidTimeout    string `hcl:"bid_timeout,optional"`
	TeardownGrace string `hcl:"teardown_grace,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	rules := game.DefaultRules()
	return &Config{
		Server: ServerSettings{
			Address:   ":8080",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Database: DatabaseSettings{
			Driver: "sqlite3",
			DSN:    "./bazas.db",
		},
		Rules: RulesSettings{
			MaxSeats:      rules.MaxSeats,
			Pattern:       rules.Pattern,
			EndPolicy:     string(rules.EndPolicy),
			TargetScore:   rules.TargetScore,
			BidTimeout:    rules.BidTimeout.String(),
			TeardownGrace: "30s",
		},
	}
}

// fileConfig mirrors Config with every block optional.
type fileConfig struct {
	Server   *ServerSettings   `hcl:"server,block"`
	Database *DatabaseSettings `hcl:"database,block"`
	Rules    *RulesSettings    `hcl:"rules,block"`
}

// Load reads filename and merges it over Default. A missing file, block or
// attribute keeps the default value.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if s := fc.Server; s != nil {
		setString(&cfg.Server.Address, s.Address)
		setString(&cfg.Server.LogLevel, s.LogLevel)
		setString(&cfg.Server.LogFormat, s.LogFormat)
	}
	if d := fc.Database; d != nil && (d.Driver != "" || d.DSN != "") {
		cfg.Database = *d
	}
	if r := fc.Rules; r != nil {
		if r.MaxSeats != 0 {
			cfg.Rules.MaxSeats = r.MaxSeats
		}
		if len(r.Pattern) > 0 {
			cfg.Rules.Pattern = r.Pattern
		}
		setString(&cfg.Rules.EndPolicy, r.EndPolicy)
		if r.TargetScore != 0 {
			cfg.Rules.TargetScore = r.TargetScore
		}
		setString(&cfg.Rules.BidTimeout, r.BidTimeout)
		setString(&cfg.Rules.TeardownGrace, r.TeardownGrace)
	}

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// GameRules converts the rules block and validates it.
func (c *Config) GameRules() (game.Rules, error) {
	policy, err := game.ParseEndPolicy(c.Rules.EndPolicy)
	if err != nil {
		return game.Rules{}, err
	}
	timeout, err := time.ParseDuration(c.Rules.BidTimeout)
	if err != nil {
		return game.Rules{}, fmt.Errorf("invalid bid_timeout: %w", err)
	}
	rules := game.Rules{
		MaxSeats:    c.Rules.MaxSeats,
		Pattern:     append([]int(nil), c.Rules.Pattern...),
		EndPolicy:   policy,
		TargetScore: c.Rules.TargetScore,
		BidTimeout:  timeout,
	}
	if err := rules.Validate(); err != nil {
		return game.Rules{}, err
	}
	return rules, nil
}

// Grace returns how long an empty room is kept before teardown.
func (c *Config) Grace() (time.Duration, error) {
	d, err := time.ParseDuration(c.Rules.TeardownGrace)
	if err != nil {
		return 0, fmt.Errorf("invalid teardown_grace: %w", err)
	}
	return d, nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	switch c.Server.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q", c.Server.LogFormat)
	}
	switch c.Database.Driver {
	case "", "sqlite3", "pgx":
	default:
		return fmt.Errorf("invalid database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		return fmt.Errorf("database driver %s needs a dsn", c.Database.Driver)
	}
	if _, err := c.GameRules(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if _, err := c.Grace(); err != nil {
		return err
	}
	return nil
}
