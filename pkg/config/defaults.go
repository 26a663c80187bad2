package config

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

const (
	defaultAPIListen = ":8000"
	defaultMaxTopK   = 10

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "all-minilm"
	defaultEmbeddingDimensions = 384

	defaultIndexProvider = "flat"
	defaultIndexPath     = "lexfind.index"

	defaultMetadataProvider = "static"
	defaultMetadataPath     = "metadata.json"
	defaultMetadataDriver   = "sqlite3"

	defaultAuthProvider = "relational"

	defaultEventsTopic = "lexfind.usage"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen:  defaultAPIListen,
			MaxTopK: defaultMaxTopK,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Index: IndexConfig{
			Provider: defaultIndexProvider,
			Path:     defaultIndexPath,
		},
		Metadata: MetadataConfig{
			Provider: defaultMetadataProvider,
			Path:     defaultMetadataPath,
			Driver:   defaultMetadataDriver,
		},
		Auth: AuthConfig{
			Provider: defaultAuthProvider,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
	}
}
