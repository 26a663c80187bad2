package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if one exists in configDir or the working directory), and binds
// environment variables with the LEXFIND_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LEXFIND_API_LISTEN, LEXFIND_METADATA_DSN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	if configDir != "" {
		v.AddConfigPath(configDir)
	} else {
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: LEXFIND_API_LISTEN, LEXFIND_EVENTS_BROKERS, etc.
	v.SetEnvPrefix("LEXFIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper state.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Listen:  v.GetString("api.listen"),
			MaxTopK: v.GetInt("api.max_top_k"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetInt("embedding.dimensions"),
		},
		Index: IndexConfig{
			Provider:   v.GetString("index.provider"),
			Path:       v.GetString("index.path"),
			SQLitePath: v.GetString("index.sqlite_path"),
		},
		Metadata: MetadataConfig{
			Provider: v.GetString("metadata.provider"),
			Path:     v.GetString("metadata.path"),
			Driver:   v.GetString("metadata.driver"),
			DSN:      v.GetString("metadata.dsn"),
		},
		Auth: AuthConfig{
			Provider: v.GetString("auth.provider"),
		},
		Events: EventsConfig{
			Brokers: v.GetStringSlice("events.brokers"),
			Topic:   v.GetString("events.topic"),
		},
	}

	if cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}
	if cfg.API.MaxTopK <= 0 {
		return nil, fmt.Errorf("api.max_top_k must be positive, got %d", cfg.API.MaxTopK)
	}
	if cfg.Embedding.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding.dimensions must be positive, got %d", cfg.Embedding.Dimensions)
	}

	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.max_top_k", d.API.MaxTopK)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Index
	v.SetDefault("index.provider", d.Index.Provider)
	v.SetDefault("index.path", d.Index.Path)
	v.SetDefault("index.sqlite_path", d.Index.SQLitePath)

	// Metadata
	v.SetDefault("metadata.provider", d.Metadata.Provider)
	v.SetDefault("metadata.path", d.Metadata.Path)
	v.SetDefault("metadata.driver", d.Metadata.Driver)
	v.SetDefault("metadata.dsn", d.Metadata.DSN)

	// Auth
	v.SetDefault("auth.provider", d.Auth.Provider)

	// Events
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
