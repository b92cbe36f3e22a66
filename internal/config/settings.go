package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings are the process-wide CLI settings.
type Settings struct {
	LogLevel string `mapstructure:"log_level"`
	Color    bool   `mapstructure:"color"`
	User     string `mapstructure:"user"`
	Progress bool   `mapstructure:"progress"`
}

// DefaultSettings values
var DefaultSettings = Settings{
	LogLevel: "warning",
	Color:    false,
	Progress: true,
}

// LoadSettings merges defaults, an optional bvc.yaml, BVC_* env vars and the
// given flags (highest priority). cfgFile may be empty.
func LoadSettings(v *viper.Viper, flags *pflag.FlagSet, cfgFile string) (*Settings, error) {
	v.SetDefault("log_level", DefaultSettings.LogLevel)
	v.SetDefault("color", DefaultSettings.Color)
	v.SetDefault("progress", DefaultSettings.Progress)
	v.SetDefault("user", "")

	v.SetEnvPrefix("BVC")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", cfgFile, err)
		}
	} else if dir, err := os.UserConfigDir(); err == nil {
		v.SetConfigName("bvc")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(dir, "bvc"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for key, flag := range map[string]string{"color": "color", "user": "user"} {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}
