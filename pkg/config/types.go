package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent scout configuration stored as config.toml
// in the .scout/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Novelty     NoveltyConfig     `toml:"novelty"`
	Generator   GeneratorConfig   `toml:"generator"`
	Reddit      RedditConfig      `toml:"reddit"`
	EventStream EventStreamConfig `toml:"eventstream"`
	API         APIConfig         `toml:"api"`
}

// VectorStoreConfig selects where the topic memory lives.
type VectorStoreConfig struct {
	// Provider is one of "sqlite", "chroma", "qdrant", "pgvector" or "memory".
	Provider string `toml:"provider,omitempty"`

	// Target is the provider specific location: a file path for sqlite,
	// a URL for chroma, host:port for qdrant, a connection string for pgvector.
	// Empty sqlite targets resolve to topics.sqlite inside the .scout/ dir.
	Target string `toml:"target,omitempty"`

	// Collection is the collection / table holding used topics.
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string `toml:"provider,omitempty"`

	// Target is the provider base URL. Empty uses the provider default.
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`

	// DisableNormalize stores raw provider vectors instead of unit vectors.
	DisableNormalize bool `toml:"disable_normalize,omitempty"`
}

// NoveltyConfig holds the duplicate rejection policy.
type NoveltyConfig struct {
	// Threshold in [0,1]. A candidate is rejected when its squared L2
	// distance to the nearest stored topic is below 1 - Threshold.
	Threshold float64 `toml:"threshold,omitempty"`
}

// GeneratorConfig selects the candidate brainstormer used by discover when no
// candidate file is given.
type GeneratorConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// RedditConfig holds theme research settings.
type RedditConfig struct {
	UserAgent string `toml:"user_agent,omitempty"`
	Limit     int    `toml:"limit,omitempty"`
}

// EventStreamConfig selects where topic.committed events go.
type EventStreamConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated broker list for kafka.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(get func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *get(c) },
		set: func(c *Config, v string) error { *get(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"embedding.provider":      stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":        stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":         stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"embedding.disable_normalize": {
		get: func(c *Config) string { return strconv.FormatBool(c.Embedding.DisableNormalize) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.disable_normalize: %w", err)
			}
			c.Embedding.DisableNormalize = b
			return nil
		},
	},
	"novelty.threshold": {
		get: func(c *Config) string {
			if c.Novelty.Threshold == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Novelty.Threshold, 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for novelty.threshold: %w", err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("invalid value for novelty.threshold: %v is outside [0,1]", f)
			}
			c.Novelty.Threshold = f
			return nil
		},
	},
	"generator.provider": stringKey(func(c *Config) *string { return &c.Generator.Provider }),
	"generator.model":    stringKey(func(c *Config) *string { return &c.Generator.Model }),
	"reddit.user_agent":  stringKey(func(c *Config) *string { return &c.Reddit.UserAgent }),
	"reddit.limit": {
		get: func(c *Config) string {
			if c.Reddit.Limit == 0 {
				return ""
			}
			return strconv.Itoa(c.Reddit.Limit)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for reddit.limit: %q", v)
			}
			c.Reddit.Limit = n
			return nil
		},
	},
	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers":  stringKey(func(c *Config) *string { return &c.EventStream.Brokers }),
	"eventstream.topic":    stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
	"api.listen":           stringKey(func(c *Config) *string { return &c.API.Listen }),
}
