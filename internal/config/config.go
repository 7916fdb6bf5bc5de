// Package config loads folio settings from a TOML file and FOLIO_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/folio/internal/reconcile"
)

// Config is the resolved configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Media    MediaConfig    `mapstructure:"media"`
	Import   ImportConfig   `mapstructure:"import"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type MediaConfig struct {
	// BaseURL is the public prefix uploaded attachments are served under.
	BaseURL string `mapstructure:"base_url"`
}

type ImportConfig struct {
	FallbackUser reconcile.FallbackPolicy `mapstructure:"fallback_user"`
	Templates    string                   `mapstructure:"templates"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the config file at path, or $HOME/.config/folio/config.toml
// when path is empty. A missing default file is not an error; a missing
// explicit file is. Environment variables override file values:
// FOLIO_DATABASE_PATH overrides database.path, and so on.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "folio"))
		v.SetConfigType("toml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	policy, err := reconcile.ParseFallbackPolicy(string(cfg.Import.FallbackUser))
	if err != nil {
		return nil, fmt.Errorf("config: import.fallback_user: %w", err)
	}
	cfg.Import.FallbackUser = policy
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "folio.db")
	v.SetDefault("media.base_url", "")
	v.SetDefault("import.fallback_user", string(reconcile.FallbackFirst))
	v.SetDefault("import.templates", "")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("log.level", "info")
}
