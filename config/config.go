/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/recordengine/errors"
)

const envPrefix = "RECORDENGINE_"

// Token store backends
const (
	TokenBackendMemory = "memory"
	TokenBackendSQLite = "sqlite"
)

// Config holds the settings of a recordengine runtime.
type Config struct {
	// Strategy is the default query strategy: "cached" or "indexed".
	Strategy string         `yaml:"strategy"`
	Cache    CacheConfig    `yaml:"cache"`
	Tokens   TokenConfig    `yaml:"tokens"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Log      LogConfig      `yaml:"log"`
}

// CacheConfig configures the full-extent cache.
type CacheConfig struct {
	IdleTTL     time.Duration `yaml:"idle_ttl"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// TokenConfig configures the continuation token store.
type TokenConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
}

// SQLiteConfig configures the SQLite database that holds record stores
// and, with the sqlite token backend, tokens.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DynamoDBConfig configures the DynamoDB record store backend.
type DynamoDBConfig struct {
	Table     string `yaml:"table"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Strategy: "cached",
		Cache:    CacheConfig{IdleTTL: 10 * time.Minute},
		Tokens:   TokenConfig{Backend: TokenBackendMemory, TTL: 15 * time.Minute},
		SQLite:   SQLiteConfig{Path: "recordengine.db"},
		DynamoDB: DynamoDBConfig{Region: "us-east-1"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Merge applies the non-zero values of source onto c.
func (c *Config) Merge(source *Config) {
	if source.Strategy != "" {
		c.Strategy = source.Strategy
	}
	if source.Cache.IdleTTL != 0 {
		c.Cache.IdleTTL = source.Cache.IdleTTL
	}
	if source.Cache.LoadTimeout != 0 {
		c.Cache.LoadTimeout = source.Cache.LoadTimeout
	}
	if source.Tokens.Backend != "" {
		c.Tokens.Backend = source.Tokens.Backend
	}
	if source.Tokens.TTL != 0 {
		c.Tokens.TTL = source.Tokens.TTL
	}
	if source.SQLite.Path != "" {
		c.SQLite.Path = source.SQLite.Path
	}
	if source.DynamoDB.Table != "" {
		c.DynamoDB.Table = source.DynamoDB.Table
	}
	if source.DynamoDB.Region != "" {
		c.DynamoDB.Region = source.DynamoDB.Region
	}
	if source.DynamoDB.AccessKey != "" {
		c.DynamoDB.AccessKey = source.DynamoDB.AccessKey
	}
	if source.DynamoDB.SecretKey != "" {
		c.DynamoDB.SecretKey = source.DynamoDB.SecretKey
	}
	if source.Log.Level != "" {
		c.Log.Level = source.Log.Level
	}
	if source.Log.Format != "" {
		c.Log.Format = source.Log.Format
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped
// when path is empty), a .env file in the working directory if present,
// and finally the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var loaded Config
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Merge(&loaded)
	}

	// A missing .env is fine; godotenv never overrides variables that are
	// already set.
	_ = godotenv.Load()

	env, err := FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	cfg.Merge(env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv reads RECORDENGINE_* variables plus the AWS_* variables used by
// the DynamoDB integration setup. Unset variables stay zero.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(name string) string {
		v, _ := lookup(name)
		return strings.TrimSpace(v)
	}
	duration := func(name string) (time.Duration, error) {
		v := get(name)
		if v == "" {
			return 0, nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, errors.NewArgumentError(name, err.Error())
		}
		return d, nil
	}

	var c Config
	var err error
	c.Strategy = get(envPrefix + "STRATEGY")
	if c.Cache.IdleTTL, err = duration(envPrefix + "CACHE_IDLE_TTL"); err != nil {
		return nil, err
	}
	if c.Cache.LoadTimeout, err = duration(envPrefix + "CACHE_LOAD_TIMEOUT"); err != nil {
		return nil, err
	}
	c.Tokens.Backend = get(envPrefix + "TOKEN_BACKEND")
	if c.Tokens.TTL, err = duration(envPrefix + "TOKEN_TTL"); err != nil {
		return nil, err
	}
	c.SQLite.Path = get(envPrefix + "DB")
	c.DynamoDB.Table = get("AWS_DDB_TABLE")
	c.DynamoDB.Region = get("AWS_REGION")
	c.DynamoDB.AccessKey = get("AWS_ACCESS_KEY")
	c.DynamoDB.SecretKey = get("AWS_SECRET_KEY")
	c.Log.Level = get(envPrefix + "LOG_LEVEL")
	c.Log.Format = get(envPrefix + "LOG_FORMAT")
	return &c, nil
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Strategy) {
	case "cached", "indexed":
	default:
		return errors.NewArgumentError("strategy", fmt.Sprintf("unknown strategy %q", c.Strategy))
	}
	switch c.Tokens.Backend {
	case TokenBackendMemory, TokenBackendSQLite:
	default:
		return errors.NewArgumentError("tokens.backend", fmt.Sprintf("unknown token backend %q", c.Tokens.Backend))
	}
	if c.Tokens.TTL <= 0 {
		return errors.NewArgumentError("tokens.ttl", "must be positive")
	}
	if c.Cache.IdleTTL <= 0 {
		return errors.NewArgumentError("cache.idle_ttl", "must be positive")
	}
	if c.Cache.LoadTimeout < 0 {
		return errors.NewArgumentError("cache.load_timeout", "must not be negative")
	}
	if c.Tokens.Backend == TokenBackendSQLite && c.SQLite.Path == "" {
		return errors.NewArgumentError("sqlite.path", "required by the sqlite token backend")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.NewArgumentError("log.format", fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	return nil
}
