package config

const (
	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "used_topics_memory"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultNoveltyThreshold = 0.95

	defaultGeneratorProvider = "gemini"
	defaultGeneratorModel    = "gemini-2.5-flash"

	defaultRedditUserAgent = "scout/0.1 (topic research)"
	defaultRedditLimit     = 25

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "scout.topics"

	defaultAPIListen = ":8081"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Novelty: NoveltyConfig{
			Threshold: defaultNoveltyThreshold,
		},
		Generator: GeneratorConfig{
			Provider: defaultGeneratorProvider,
			Model:    defaultGeneratorModel,
		},
		Reddit: RedditConfig{
			UserAgent: defaultRedditUserAgent,
			Limit:     defaultRedditLimit,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
