package config

// Config represents the persistent lexfind configuration stored as
// config.toml. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	API       APIConfig       `toml:"api"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Metadata  MetadataConfig  `toml:"metadata"`
	Auth      AuthConfig      `toml:"auth"`
	Events    EventsConfig    `toml:"events"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Listen  string `toml:"listen,omitempty"`
	MaxTopK int    `toml:"max_top_k,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions int    `toml:"dimensions,omitempty"`
}

// IndexConfig holds vector index settings. Provider is "flat" for the
// in-memory index loaded from an artifact file, or "sqlite" for the
// sqlite-vec backed index.
type IndexConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Path       string `toml:"path,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// MetadataConfig holds metadata store settings. Provider is "static" for
// the in-memory JSON store or "relational" for a database-backed store.
type MetadataConfig struct {
	Provider string `toml:"provider,omitempty"`
	Path     string `toml:"path,omitempty"`
	Driver   string `toml:"driver,omitempty"`
	DSN      string `toml:"dsn,omitempty"`
}

// AuthConfig holds API key validation settings. Provider "relational"
// validates keys against the metadata database; "none" disables the gate
// for local development.
type AuthConfig struct {
	Provider string `toml:"provider,omitempty"`
}

// EventsConfig holds usage event stream settings. An empty broker list
// disables publishing.
type EventsConfig struct {
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}
