// Package config loads facilityd configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/provenance-io/warehouse-facility/internal/blob"
	"github.com/provenance-io/warehouse-facility/internal/core"
	"github.com/provenance-io/warehouse-facility/internal/platform/logging"
)

// Config is the full process configuration.
type Config struct {
	StorageDriver string `env:"FACILITY_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"FACILITY_SQLITE_PATH"    envDefault:"facility.db"`
	PostgresDSN   string `env:"FACILITY_POSTGRES_DSN"`

	JournalDriver string   `env:"FACILITY_JOURNAL_DRIVER"  envDefault:"fs"`
	JournalFSRoot string   `env:"FACILITY_JOURNAL_FS_ROOT" envDefault:"./journal"`
	JournalS3     S3Config `envPrefix:"FACILITY_JOURNAL_S3_"`

	HTTPAddr        string        `env:"FACILITY_HTTP_ADDR"        envDefault:":8080"`
	ContractAddress string        `env:"FACILITY_CONTRACT_ADDRESS" envDefault:"tp1facility"`
	InstantiateFile string        `env:"FACILITY_INSTANTIATE_FILE"`
	RelayInterval   time.Duration `env:"FACILITY_RELAY_INTERVAL"   envDefault:"2s"`
	ShutdownTimeout time.Duration `env:"FACILITY_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"FACILITY_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"FACILITY_LOG_FORMAT" envDefault:"json"`
}

// S3Config configures the S3 journal backend.
type S3Config struct {
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"ENDPOINT"`
	PathStyle       bool   `env:"PATH_STYLE"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	SessionToken    string `env:"SESSION_TOKEN"`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses Config from the given variables only. Intended for tests.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	var errs []error
	switch core.StorageDriver(c.StorageDriver) {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("FACILITY_POSTGRES_DSN required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}
	switch blob.Driver(c.JournalDriver) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.JournalS3.Bucket == "" {
			errs = append(errs, errors.New("FACILITY_JOURNAL_S3_BUCKET required for s3 journal"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown journal driver %q", c.JournalDriver))
	}
	if c.ContractAddress == "" {
		errs = append(errs, errors.New("FACILITY_CONTRACT_ADDRESS must not be empty"))
	}
	if c.RelayInterval <= 0 {
		errs = append(errs, errors.New("FACILITY_RELAY_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// Storage returns the persistence selection.
func (c Config) Storage() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.StorageDriver),
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
	}
}

// Journal returns the effect journal blob selection.
func (c Config) Journal() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.JournalDriver),
		FSRoot: c.JournalFSRoot,
		S3: blob.S3Config{
			Bucket:          c.JournalS3.Bucket,
			Region:          c.JournalS3.Region,
			Endpoint:        c.JournalS3.Endpoint,
			PathStyle:       c.JournalS3.PathStyle,
			AccessKeyID:     c.JournalS3.AccessKeyID,
			SecretAccessKey: c.JournalS3.SecretAccessKey,
			SessionToken:    c.JournalS3.SessionToken,
		},
	}
}

// Logging returns the logger construction inputs.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: logging.Format(c.LogFormat)}
}

// OpenJournal opens the configured journal backend.
func (c Config) OpenJournal(ctx context.Context) (blob.Store, error) {
	return blob.Open(ctx, c.Journal())
}
