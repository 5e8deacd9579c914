package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".bulkblame"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for bulkblame settings.
const envPrefix = "BULKBLAME"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty it is used as the explicit config file
// path; otherwise the config file is searched in CWD and $HOME.
// A missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			var pathErr *os.PathError
			if !errors.As(readErr, &pathErr) {
				return nil, fmt.Errorf("read config: %w", readErr)
			}
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	defaults := Default()

	viperCfg.SetDefault("repository", defaults.Repository)
	viperCfg.SetDefault("rev", defaults.Rev)
	viperCfg.SetDefault("rename_score", defaults.RenameScore)
	viperCfg.SetDefault("break_score", defaults.BreakScore)
	viperCfg.SetDefault("rename_limit", defaults.RenameLimit)
	viperCfg.SetDefault("big_file_threshold", defaults.BigFileThreshold)
	viperCfg.SetDefault("skip_binary_renames", defaults.SkipBinaryRenames)
	viperCfg.SetDefault("comparator", defaults.Comparator)
	viperCfg.SetDefault("algorithm", defaults.Algorithm)
	viperCfg.SetDefault("multithreading", defaults.Multithreading)
	viperCfg.SetDefault("format", defaults.Format)
	viperCfg.SetDefault("metrics", defaults.Metrics)
}
