/*
 audb, a versioned, content-addressed database manager for annotated
 media corpora.
 Copyright (C) 2026 audb contributors

 This program is free software: you can redistribute it and/or modify
 it under the terms of the GNU Affero General Public License as published by
 the Free Software Foundation, either version 3 of the License, or
 (at your option) any later version.

 This program is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 GNU Affero General Public License for more details.

 You should have received a copy of the GNU Affero General Public License
 along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package config provides configuration management for audb using Viper.
// It supports configuration from a file, environment variables, and
// built-in defaults, and is modeled on the viper-based loaders used
// elsewhere in the corpus (e.g. tvarr's internal/config).
//
// After Load returns, a *Config is plain data: it is threaded explicitly
// through constructors (repository.Resolver, load.Pipeline,
// publish.Pipeline, cache.Manager) rather than read as ambient global
// state, per spec.md §9 ("Global configuration").
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultWorkerCount       = 4
	defaultRequestTimeout    = 60 * time.Second
	defaultArchiveTimeout    = 30 * time.Minute
	defaultLockWarnAfter     = 2 * time.Second
	defaultLockTimeout       = 24 * time.Hour
	defaultRetryAttempts     = 3
	defaultRetryBaseDelay    = 1 * time.Second
	defaultRetryMaxDelay     = 30 * time.Second
	defaultPresignedURLSkew  = 15 * time.Minute
)

// RepositoryConfig is one entry of the ordered REPOSITORIES list (spec.md
// §6). BackendKind must be one of "file-system", "s3", "minio",
// "artifactory".
type RepositoryConfig struct {
	Name        string `mapstructure:"name"`
	Host        string `mapstructure:"host"`
	BackendKind string `mapstructure:"backend_kind"`
	Bucket      string `mapstructure:"bucket"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	UsePathStyle bool  `mapstructure:"use_path_style"`
	Token       string `mapstructure:"token"` // artifactory API token
}

// CacheConfig holds the two-tier cache roots (spec.md §4.4, §6).
type CacheConfig struct {
	Root       string `mapstructure:"root"`
	SharedRoot string `mapstructure:"shared_root"`
	// SharedWritable allows the shared cache tier to be written to
	// (spec.md §4.4: "written only when writable").
	SharedWritable bool `mapstructure:"shared_writable"`
}

// ConcurrencyConfig bounds the worker pools used by the load and publish
// pipelines (spec.md §5).
type ConcurrencyConfig struct {
	Workers        int           `mapstructure:"workers"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ArchiveTimeout time.Duration `mapstructure:"archive_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
}

// LockConfig bounds cache lock acquisition (spec.md §4.4).
type LockConfig struct {
	WarnAfter time.Duration `mapstructure:"warn_after"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LoggingConfig controls the shared slog handler (internal/xlog).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Config holds all configuration for audb.
type Config struct {
	Repositories []RepositoryConfig `mapstructure:"repositories"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency"`
	Lock         LockConfig         `mapstructure:"lock"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration and are
// prefixed with AUDB_, using underscores for nesting, e.g.
// AUDB_CACHE_ROOT.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("audb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/audb")
		v.AddConfigPath("$HOME/.config/audb")
	}

	v.SetEnvPrefix("AUDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// missing config file is fine: defaults + env vars still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.applyHomeDefaults(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SetDefaults configures default values matching spec.md §4.4, §4.7, §5,
// §6.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache.root", "") // resolved against $XDG_CACHE_HOME/audb at load time
	v.SetDefault("cache.shared_root", "")
	v.SetDefault("cache.shared_writable", false)

	v.SetDefault("concurrency.workers", defaultWorkerCount)
	v.SetDefault("concurrency.request_timeout", defaultRequestTimeout)
	v.SetDefault("concurrency.archive_timeout", defaultArchiveTimeout)
	v.SetDefault("concurrency.retry_attempts", defaultRetryAttempts)
	v.SetDefault("concurrency.retry_base_delay", defaultRetryBaseDelay)
	v.SetDefault("concurrency.retry_max_delay", defaultRetryMaxDelay)

	v.SetDefault("lock.warn_after", defaultLockWarnAfter)
	v.SetDefault("lock.timeout", defaultLockTimeout)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// PresignedURLSkew is a small convenience constant exposed for backends
// that presign URLs (s3, minio) and want a safety margin before expiry.
const PresignedURLSkew = defaultPresignedURLSkew
