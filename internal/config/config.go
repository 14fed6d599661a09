// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/splitlight/triage/internal/common"
)

// Config holds all tunable settings. Every threshold the pipeline uses
// is named here and overridable via config file, flags, or TRIAGE_*
// environment variables rather than hard-coded.
type Config struct {
	Database Database
	Server   Server
	Executor Executor
	JSON     JSONRules
	Document DocumentRules
}

// Database configures the audit log's SQLite backing store.
type Database struct {
	Path string
}

// Server configures the HTTP transport.
type Server struct {
	Addr string
}

// Executor bounds background action execution. After Timeout elapses
// the outcome is forced to failure; there is no retry.
type Executor struct {
	Timeout time.Duration
	Latency time.Duration
}

// JSONRules holds the schema and thresholds the JSON analyzer
// validates against.
type JSONRules struct {
	RequiredFields []string
	AllowedFlags   []string
	AmountWarn     float64
	AmountCritical float64
}

// DocumentRules holds thresholds for the document analyzer.
type DocumentRules struct {
	MaxAmount float64
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("database.path", "~/.local/share/triage/triage.db")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("executor.timeout", "5s")
	viper.SetDefault("executor.latency", "50ms")
	viper.SetDefault("analyzer.json.required_fields", []string{"transaction_id", "amount", "user_id", "timestamp"})
	viper.SetDefault("analyzer.json.allowed_flags", []string{"high_amount", "suspicious_user", "new_device", "foreign_ip"})
	viper.SetDefault("analyzer.json.amount_warn", 10000.0)
	viper.SetDefault("analyzer.json.amount_critical", 50000.0)
	viper.SetDefault("analyzer.document.max_amount", 10000.0)
}

// Load materializes the configuration from viper.
func Load() (Config, error) {
	cfg := Config{
		Database: Database{
			Path: ExpandPath(viper.GetString("database.path")),
		},
		Server: Server{
			Addr: viper.GetString("server.addr"),
		},
		Executor: Executor{
			Timeout: viper.GetDuration("executor.timeout"),
			Latency: viper.GetDuration("executor.latency"),
		},
		JSON: JSONRules{
			RequiredFields: viper.GetStringSlice("analyzer.json.required_fields"),
			AllowedFlags:   viper.GetStringSlice("analyzer.json.allowed_flags"),
			AmountWarn:     viper.GetFloat64("analyzer.json.amount_warn"),
			AmountCritical: viper.GetFloat64("analyzer.json.amount_critical"),
		},
		Document: DocumentRules{
			MaxAmount: viper.GetFloat64("analyzer.document.max_amount"),
		},
	}

	if cfg.Database.Path == "" {
		return cfg, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if cfg.Executor.Timeout <= 0 {
		return cfg, fmt.Errorf("%w: executor.timeout must be positive, got %v",
			common.ErrInvalidConfig, cfg.Executor.Timeout)
	}
	if cfg.JSON.AmountCritical < cfg.JSON.AmountWarn {
		return cfg, fmt.Errorf("%w: analyzer.json.amount_critical (%v) must be >= amount_warn (%v)",
			common.ErrInvalidConfig, cfg.JSON.AmountCritical, cfg.JSON.AmountWarn)
	}

	return cfg, nil
}

// Default returns the built-in configuration without consulting viper.
// Used by tests and one-shot tooling.
func Default() Config {
	return Config{
		Database: Database{Path: "triage.db"},
		Server:   Server{Addr: ":8080"},
		Executor: Executor{Timeout: 5 * time.Second},
		JSON: JSONRules{
			RequiredFields: []string{"transaction_id", "amount", "user_id", "timestamp"},
			AllowedFlags:   []string{"high_amount", "suspicious_user", "new_device", "foreign_ip"},
			AmountWarn:     10000,
			AmountCritical: 50000,
		},
		Document: DocumentRules{MaxAmount: 10000},
	}
}
