package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --dsn on
// "lexfind serve", "lexfind seed", and "lexfind keys").
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagListen         = "listen"
	FlagMaxTopK        = "max-top-k"
	FlagEmbeddingProv  = "embedding-provider"
	FlagEmbeddingTgt   = "embedding-target"
	FlagEmbeddingModel = "embedding-model"
	FlagEmbeddingDims  = "embedding-dimensions"
	FlagIndexProvider  = "index-provider"
	FlagIndexPath      = "index-path"
	FlagIndexSQLite    = "index-sqlite"
	FlagMetaProvider   = "metadata-provider"
	FlagMetaPath       = "metadata-path"
	FlagMetaDriver     = "driver"
	FlagMetaDSN        = "dsn"
	FlagAuthProvider   = "auth-provider"
	FlagEventsBrokers  = "brokers"
	FlagEventsTopic    = "topic"
)

// Flags is the default registry covering every configurable setting.
var Flags = FlagSet{
	FlagListen:         {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "address the HTTP API listens on"},
	FlagMaxTopK:        {Name: "max-top-k", ViperKey: "api.max_top_k", Description: "ceiling for per-query top_k"},
	FlagEmbeddingProv:  {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "embedding provider (ollama)"},
	FlagEmbeddingTgt:   {Name: "embedding-target", ViperKey: "embedding.target", Description: "embedding provider base URL"},
	FlagEmbeddingModel: {Name: "embedding-model", ViperKey: "embedding.model", Description: "embedding model name"},
	FlagEmbeddingDims:  {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "embedding vector dimensionality"},
	FlagIndexProvider:  {Name: "index-provider", ViperKey: "index.provider", Description: "vector index provider (flat, sqlite)"},
	FlagIndexPath:      {Name: "index-path", ViperKey: "index.path", Description: "path to the flat index artifact"},
	FlagIndexSQLite:    {Name: "index-sqlite", ViperKey: "index.sqlite_path", Description: "path to the sqlite-vec index database"},
	FlagMetaProvider:   {Name: "metadata-provider", ViperKey: "metadata.provider", Description: "metadata store provider (static, relational)"},
	FlagMetaPath:       {Name: "metadata-path", ViperKey: "metadata.path", Description: "path to the static metadata JSON artifact"},
	FlagMetaDriver:     {Name: "driver", ViperKey: "metadata.driver", Description: "relational database driver (sqlite3, pgx)"},
	FlagMetaDSN:        {Name: "dsn", ViperKey: "metadata.dsn", Description: "relational database DSN"},
	FlagAuthProvider:   {Name: "auth-provider", ViperKey: "auth.provider", Description: "API key gate provider (relational, none)"},
	FlagEventsBrokers:  {Name: "brokers", ViperKey: "events.brokers", Description: "Kafka broker addresses for usage events"},
	FlagEventsTopic:    {Name: "topic", ViperKey: "events.topic", Description: "Kafka topic for usage events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStringSliceFlag registers a string slice flag on cmd from the given FlagSet.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, key string, target *[]string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	cmd.Flags().StringSliceVar(target, def.Name, nil, def.Description)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultInt returns the default int value for a viper key from NewDefaultConfig.
func defaultInt(viperKey string) int {
	v := viper.New()
	setViperDefaults(v)
	return v.GetInt(viperKey)
}
