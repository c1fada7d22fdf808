package configuration

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional yaml file and CHECKMATE_*
// environment overrides, layered over DefaultConfig. Provider API keys and
// the background token come from the environment only and never from the
// config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("CHECKMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No file is fine; defaults plus env carry the service.
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveSecrets(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveSecrets pulls API keys and the background token from the
// environment. Providers with no key configured stay in the table; their
// attempts fail with an auth error and the cascade moves on.
func resolveSecrets(cfg *Config) {
	for name, pc := range cfg.Providers {
		if pc.APIKeyEnv != "" {
			pc.APIKey = os.Getenv(pc.APIKeyEnv)
		}
		cfg.Providers[name] = pc
	}
	cfg.Server.BackgroundToken = os.Getenv("CHECKMATE_BACKGROUND_TOKEN")
}
