package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	FileName  = "reportengine.yaml"
	EnvPrefix = "REPORTENGINE"
)

// Config holds runtime configuration. Values come from defaults, the
// project file, and REPORTENGINE_* environment variables, in that order.
type Config struct {
	Project    string          `mapstructure:"project" yaml:"project"`
	Version    int             `mapstructure:"version" yaml:"version"`
	AppVersion string          `mapstructure:"app_version" yaml:"app_version"`
	Database   DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Server     ServerConfig    `mapstructure:"server" yaml:"server"`
	Editor     EditorConfig    `mapstructure:"editor" yaml:"editor"`
	Prompts    PromptsConfig   `mapstructure:"prompts" yaml:"prompts"`
	Artifacts  ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type EditorConfig struct {
	QuietPeriod       time.Duration `mapstructure:"quiet_period" yaml:"quiet_period"`
	IndicatorDuration time.Duration `mapstructure:"indicator_duration" yaml:"indicator_duration"`
}

type PromptsConfig struct {
	Dir   string `mapstructure:"dir" yaml:"dir"`
	Watch bool   `mapstructure:"watch" yaml:"watch"`
}

type ArtifactsConfig struct {
	Driver string   `mapstructure:"driver" yaml:"driver"`
	Dir    string   `mapstructure:"dir" yaml:"dir"`
	S3     S3Config `mapstructure:"s3" yaml:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"`
}

var defaults = map[string]any{
	"project":                   "reportengine",
	"version":                   1,
	"app_version":               "1.3",
	"database.dsn":              "sqlite://reportengine.db",
	"server.addr":               "127.0.0.1:8080",
	"server.base_url":           "",
	"editor.quiet_period":       "1500ms",
	"editor.indicator_duration": "2s",
	"prompts.dir":               "prompts",
	"prompts.watch":             true,
	"artifacts.driver":          "fs",
	"artifacts.dir":             "exports",
	"artifacts.s3.bucket":       "",
	"artifacts.s3.region":       "",
	"artifacts.s3.endpoint":     "",
	"artifacts.s3.path_style":   false,
}

// Load reads path when it is non-empty. A missing file at the default
// location is not an error; an explicit path that cannot be read is.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = FileName
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

func Default() *Config {
	return &Config{
		Project:    "reportengine",
		Version:    1,
		AppVersion: "1.3",
		Database:   DatabaseConfig{DSN: "sqlite://reportengine.db"},
		Server:     ServerConfig{Addr: "127.0.0.1:8080"},
		Editor: EditorConfig{
			QuietPeriod:       1500 * time.Millisecond,
			IndicatorDuration: 2 * time.Second,
		},
		Prompts:   PromptsConfig{Dir: "prompts", Watch: true},
		Artifacts: ArtifactsConfig{Driver: "fs", Dir: "exports"},
	}
}

// Write stores cfg at path as YAML. An existing file is left alone unless
// overwrite is set.
func Write(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("writing config: %s already exists", path)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return fmt.Errorf("database dsn is required")
	}
	if !strings.HasPrefix(dsn, "sqlite://") && !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("unsupported database dsn: %s", dsn)
	}
	if cfg.Editor.QuietPeriod <= 0 {
		return fmt.Errorf("editor quiet_period must be positive")
	}
	if cfg.Editor.IndicatorDuration < 0 {
		return fmt.Errorf("editor indicator_duration must not be negative")
	}

	switch cfg.Artifacts.Driver {
	case "fs":
		if strings.TrimSpace(cfg.Artifacts.Dir) == "" {
			return fmt.Errorf("artifacts dir is required for the fs driver")
		}
	case "s3":
		if strings.TrimSpace(cfg.Artifacts.S3.Bucket) == "" {
			return fmt.Errorf("artifacts s3 bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown artifacts driver: %q", cfg.Artifacts.Driver)
	}
	return nil
}
