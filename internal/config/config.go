// Package config defines the job configuration and loads it with viper.
//
// Sources, lowest precedence first:
//
//  1. built-in defaults (DefaultConfig)
//  2. a YAML or JSON config file (./datalake.yaml or an explicit path)
//  3. DATALAKE_* environment variables, after an optional .env file is loaded
//  4. AWS keys from an INI credentials file (dl.cfg), only for keys still unset
//
// Example:
//
//	job: sparkify
//	input:
//	  base: s3a://udacity-dend/
//	output:
//	  kind: lake
//	  base: s3://my-lake/sparkify
//	  options:
//	    compression: zstd
//	transform:
//	  timezone: UTC
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"datalake/internal/blob/s3"
)

// EnvPrefix prefixes every environment override, e.g. DATALAKE_OUTPUT_KIND.
const EnvPrefix = "DATALAKE"

const credentialsSection = "USER_CREDENTIALS"

// Config is the complete job configuration.
type Config struct {
	// Job names the run in logs and metrics.
	Job       string    `mapstructure:"job"`
	LogLevel  string    `mapstructure:"log_level"`
	LogPretty bool      `mapstructure:"log_pretty"`
	Input     Input     `mapstructure:"input"`
	Output    Output    `mapstructure:"output"`
	AWS       AWS       `mapstructure:"aws"`
	Transform Transform `mapstructure:"transform"`
	Metrics   Metrics   `mapstructure:"metrics"`
	Runtime   Runtime   `mapstructure:"runtime"`
}

// Input locates the raw datasets.
type Input struct {
	// Base is a directory, file:// URI or s3:// (s3a://, s3n://) prefix.
	Base        string  `mapstructure:"base"`
	SongPattern string  `mapstructure:"song_pattern"`
	LogPattern  string  `mapstructure:"log_pattern"`
	Options     Options `mapstructure:"options"` // JSON layout: allow_arrays, envelope
}

// Output selects the sink.
type Output struct {
	// Kind is lake, postgres, sqlite, mysql or mssql.
	Kind    string  `mapstructure:"kind"`
	Base    string  `mapstructure:"base"`
	DSN     string  `mapstructure:"dsn"`
	Options Options `mapstructure:"options"`
}

// AWS holds S3 connection settings shared by input and output.
type AWS struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	// CredentialsFile is an INI file with a [USER_CREDENTIALS] section.
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Transform tunes the derivations.
type Transform struct {
	Timezone string `mapstructure:"timezone"`
	// SongplayID is "sequence" or "uuidv7".
	SongplayID string `mapstructure:"songplay_id"`
	// RequireColumns fails a read whose records lack the dataset's key columns.
	RequireColumns bool `mapstructure:"require_columns"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is none, prometheus or datadog.
	Backend        string   `mapstructure:"backend"`
	PushgatewayURL string   `mapstructure:"pushgateway_url"`
	DatadogAddr    string   `mapstructure:"datadog_addr"`
	Namespace      string   `mapstructure:"namespace"`
	Tags           []string `mapstructure:"tags"`
}

// Runtime controls concurrency.
type Runtime struct {
	// ReadWorkers bounds concurrent file decodes per dataset; 0 means GOMAXPROCS.
	ReadWorkers int `mapstructure:"read_workers"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Job:      "datalake",
		LogLevel: "info",
		Input: Input{
			SongPattern: "song_data/*/*/*/*.json",
			LogPattern:  "log_data/*/*/*.json",
			Options:     Options{},
		},
		Output: Output{
			Kind:    "lake",
			Options: Options{},
		},
		Transform: Transform{
			Timezone:       "UTC",
			SongplayID:     "sequence",
			RequireColumns: true,
		},
		Metrics: Metrics{Backend: "none"},
	}
}

// S3 returns the S3 client settings.
func (c *Config) S3() s3.Config {
	return s3.Config{
		Region:          c.AWS.Region,
		Endpoint:        c.AWS.Endpoint,
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
		SessionToken:    c.AWS.SessionToken,
		ForcePathStyle:  c.AWS.ForcePathStyle,
	}
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// ConfigFile is an explicit config path. When empty, datalake.yaml is
	// searched in the working directory and ~/.config/datalake.
	ConfigFile string
	// EnvFile is a dotenv file loaded before reading the environment. A
	// missing file is ignored.
	EnvFile string
}

// Load builds a Config from defaults, file, environment and credentials file.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("datalake")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "datalake"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Input.Options == nil {
		cfg.Input.Options = Options{}
	}
	if cfg.Output.Options == nil {
		cfg.Output.Options = Options{}
	}

	if cfg.AWS.CredentialsFile != "" {
		if err := loadCredentials(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("job", d.Job)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)

	v.SetDefault("input.base", d.Input.Base)
	v.SetDefault("input.song_pattern", d.Input.SongPattern)
	v.SetDefault("input.log_pattern", d.Input.LogPattern)
	v.SetDefault("input.options", map[string]any{})

	v.SetDefault("output.kind", d.Output.Kind)
	v.SetDefault("output.base", d.Output.Base)
	v.SetDefault("output.dsn", d.Output.DSN)
	v.SetDefault("output.options", map[string]any{})

	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("aws.endpoint", d.AWS.Endpoint)
	v.SetDefault("aws.access_key_id", d.AWS.AccessKeyID)
	v.SetDefault("aws.secret_access_key", d.AWS.SecretAccessKey)
	v.SetDefault("aws.session_token", d.AWS.SessionToken)
	v.SetDefault("aws.force_path_style", d.AWS.ForcePathStyle)
	v.SetDefault("aws.credentials_file", d.AWS.CredentialsFile)

	v.SetDefault("transform.timezone", d.Transform.Timezone)
	v.SetDefault("transform.songplay_id", d.Transform.SongplayID)
	v.SetDefault("transform.require_columns", d.Transform.RequireColumns)

	v.SetDefault("metrics.backend", d.Metrics.Backend)
	v.SetDefault("metrics.pushgateway_url", d.Metrics.PushgatewayURL)
	v.SetDefault("metrics.datadog_addr", d.Metrics.DatadogAddr)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.tags", d.Metrics.Tags)

	v.SetDefault("runtime.read_workers", d.Runtime.ReadWorkers)
}

// loadCredentials fills unset AWS keys from an INI file laid out as
//
//	[USER_CREDENTIALS]
//	AWS_ACCESS_KEY_ID=...
//	AWS_SECRET_ACCESS_KEY=...
func loadCredentials(cfg *Config) error {
	f, err := ini.Load(cfg.AWS.CredentialsFile)
	if err != nil {
		return fmt.Errorf("read credentials file %s: %w", cfg.AWS.CredentialsFile, err)
	}
	sec := f.Section(credentialsSection)
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = strings.Trim(sec.Key(key).String(), `'"`)
		}
	}
	fill(&cfg.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	fill(&cfg.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	fill(&cfg.AWS.SessionToken, "AWS_SESSION_TOKEN")
	return nil
}
