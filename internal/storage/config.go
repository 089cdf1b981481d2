package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

const (
	ConfigFileName = "config"
	ConfigFileType = "yaml"
	AppDirName     = ".cellguard"
	EnvPrefix      = "CELLGUARD"
)

// Output formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatSARIF    = "sarif"
	FormatMarkdown = "markdown"
)

// Config holds the application configuration
type Config struct {
	Scanner security.Policy `mapstructure:"scanner"`
	Log     LogConfig       `mapstructure:"log"`
	Output  OutputConfig    `mapstructure:"output"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// OutputConfig holds report rendering configuration
type OutputConfig struct {
	Format         string `mapstructure:"format"`
	RenderMarkdown bool   `mapstructure:"render_markdown"`
	Width          int    `mapstructure:"width"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Scanner: *security.DefaultPolicy(),
		Output: OutputConfig{
			Format:         FormatText,
			RenderMarkdown: true,
			Width:          100,
		},
	}
}

// GetConfigDir returns the cellguard config directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileType), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(ConfigFileType)

	defaults := DefaultConfig()
	v.SetDefault("scanner.block_high_risk", defaults.Scanner.BlockHighRisk)
	v.SetDefault("scanner.block_medium_risk", defaults.Scanner.BlockMediumRisk)
	v.SetDefault("scanner.analyze_unparsable", defaults.Scanner.AnalyzeUnparsable)
	v.SetDefault("log.debug", defaults.Log.Debug)
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.render_markdown", defaults.Output.RenderMarkdown)
	v.SetDefault("output.width", defaults.Output.Width)

	// CELLGUARD_SCANNER_BLOCK_HIGH_RISK overrides scanner.block_high_risk
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// InitConfig loads the configuration. An empty configFile means
// ~/.cellguard/config.yaml; a missing default file is not an error.
func InitConfig(configFile string) (*Config, error) {
	v := newViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		configDir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatSARIF, FormatMarkdown:
	default:
		return fmt.Errorf("invalid output.format %q (want text, json, sarif or markdown)", c.Output.Format)
	}
	if c.Output.Width < 20 {
		return fmt.Errorf("invalid output.width %d (minimum 20)", c.Output.Width)
	}
	return nil
}

// SaveConfig writes cfg to path, or to the default location when path is
// empty, and returns the path written.
func SaveConfig(cfg *Config, path string) (string, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return "", err
		}
	}

	// Create config directory if not exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType(ConfigFileType)

	v.Set("scanner.block_high_risk", cfg.Scanner.BlockHighRisk)
	v.Set("scanner.block_medium_risk", cfg.Scanner.BlockMediumRisk)
	v.Set("scanner.analyze_unparsable", cfg.Scanner.AnalyzeUnparsable)
	v.Set("log.debug", cfg.Log.Debug)
	v.Set("output.format", cfg.Output.Format)
	v.Set("output.render_markdown", cfg.Output.RenderMarkdown)
	v.Set("output.width", cfg.Output.Width)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
