package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dotcommander/shs/internal/discovery"
	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/logging"
)

// Formats accepted by --format.
var Formats = []string{"console", "compact", "json", "csv", "markdown", "yaml"}

// Config represents the shs configuration
type Config struct {
	Format         string  `mapstructure:"format" json:"format"`
	Output         string  `mapstructure:"output" json:"output,omitempty"`
	Language       string  `mapstructure:"language" json:"language"`
	Quiet          bool    `mapstructure:"quiet" json:"quiet"`
	Verbose        bool    `mapstructure:"verbose" json:"verbose"`
	Concurrency    int     `mapstructure:"concurrency" json:"concurrency"`
	FollowSymlinks bool    `mapstructure:"followSymlinks" json:"followSymlinks"`
	InputFormat    string  `mapstructure:"inputFormat" json:"inputFormat,omitempty"`
	LogLevel       string  `mapstructure:"logLevel" json:"logLevel"`
	LogFormat      string  `mapstructure:"logFormat" json:"logFormat"`
	DB             string  `mapstructure:"db" json:"db,omitempty"`
	MetricsFile    string  `mapstructure:"metricsFile" json:"metricsFile,omitempty"`
	FailOnError    bool    `mapstructure:"failOnError" json:"failOnError"`
	Tolerance      float64 `mapstructure:"tolerance" json:"tolerance"`
}

// Lang returns the parsed language. LoadConfig has already validated it.
func (c *Config) Lang() locale.Language {
	lang, err := locale.ParseLanguage(c.Language)
	if err != nil {
		return locale.Default
	}
	return lang
}

// EffectiveLogLevel is the configured level, raised to warn by --quiet and
// lowered to debug by --verbose.
func (c *Config) EffectiveLogLevel() string {
	switch {
	case c.Quiet:
		return "warn"
	case c.Verbose:
		return "debug"
	default:
		return c.LogLevel
	}
}

// LoadConfig loads configuration from, in increasing precedence: defaults,
// .shsrc.{json,yaml,yml} in the working directory, a .env file, SHS_*
// environment variables and bound command-line flags.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("format", "console")
	viper.SetDefault("language", string(locale.Default))
	viper.SetDefault("quiet", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("concurrency", 10)
	viper.SetDefault("followSymlinks", false)
	viper.SetDefault("inputFormat", "")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "console")
	viper.SetDefault("db", "")
	viper.SetDefault("metricsFile", "")
	viper.SetDefault("failOnError", false)
	viper.SetDefault("tolerance", 0.05)

	// Config file locations
	configPaths := []string{".shsrc.json", ".shsrc.yaml", ".shsrc.yml"}
	for _, path := range configPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		break
	}

	// .env only fills variables that are not already set
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("error loading .env: %w", err)
		}
	}

	// Environment variables
	viper.SetEnvPrefix("SHS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Create config instance
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	config.Format = strings.ToLower(strings.TrimSpace(config.Format))
	if !isFormat(config.Format) {
		return fmt.Errorf("invalid format: %s. Must be one of %s", config.Format, strings.Join(Formats, ", "))
	}

	if _, err := locale.ParseLanguage(config.Language); err != nil {
		return err
	}

	if config.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	if config.InputFormat != "" {
		if _, err := discovery.ParseFormat(config.InputFormat); err != nil {
			return err
		}
	}

	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		return err
	}
	if config.LogFormat != "console" && config.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s. Must be 'console' or 'json'", config.LogFormat)
	}

	if config.Quiet && config.Verbose {
		return fmt.Errorf("quiet and verbose are mutually exclusive")
	}

	if config.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative")
	}

	return nil
}

func isFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// SaveConfig saves the current configuration to a file
func SaveConfig(config *Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
