package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/siherrmann/docqa/helper"
	"github.com/spf13/viper"
)

// Config holds all configuration of docqa
type Config struct {
	Server     ServerConfig    `mapstructure:"server"`
	Log        LogConfig       `mapstructure:"log"`
	Collection string          `mapstructure:"collection"`
	Chunker    ChunkerConfig   `mapstructure:"chunker"`
	Embedding  EmbeddingConfig `mapstructure:"embedding"`
	LLM        LLMConfig       `mapstructure:"llm"`
	Store      StoreConfig     `mapstructure:"store"`
	Query      QueryConfig     `mapstructure:"query"`
}

// ServerConfig contains the HTTP server settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ChunkerConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// EmbeddingConfig selects and configures the embedding provider (openai, hugot or hash)
type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	Dimensions int           `mapstructure:"dimensions"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	BatchSize  int           `mapstructure:"batch_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LLMConfig selects and configures the language model provider (openai or anthropic)
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects the vector store (pgvector, qdrant or memory)
type StoreConfig struct {
	Type     string                       `mapstructure:"type"`
	Database helper.DatabaseConfiguration `mapstructure:"database"`
	Qdrant   QdrantConfig                 `mapstructure:"qdrant"`
	// Reload the SQL functions on startup
	Force bool `mapstructure:"force"`
}

type QdrantConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type QueryConfig struct {
	TopK           int     `mapstructure:"top_k"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	IncludeSources bool    `mapstructure:"include_sources"`
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderHugot     = "hugot"
	ProviderHash      = "hash"

	StorePgvector = "pgvector"
	StoreQdrant   = "qdrant"
	StoreMemory   = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.request_timeout", 2*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("collection", "my_docs")
	v.SetDefault("chunker.size", 1000)
	v.SetDefault("chunker.overlap", 200)
	v.SetDefault("embedding.provider", ProviderOpenAI)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.dimensions", 0)
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.batch_size", 96)
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", time.Minute)
	v.SetDefault("store.type", StorePgvector)
	v.SetDefault("store.force", false)
	v.SetDefault("store.database.host", "")
	v.SetDefault("store.database.port", "5432")
	v.SetDefault("store.database.database", "")
	v.SetDefault("store.database.username", "")
	v.SetDefault("store.database.password", "")
	v.SetDefault("store.database.schema", "public")
	v.SetDefault("store.database.sslmode", "disable")
	v.SetDefault("store.qdrant.url", "http://localhost:6333")
	v.SetDefault("store.qdrant.api_key", "")
	v.SetDefault("store.qdrant.timeout", 30*time.Second)
	v.SetDefault("query.top_k", 4)
	v.SetDefault("query.temperature", 0.3)
	v.SetDefault("query.max_tokens", 1024)
	v.SetDefault("query.include_sources", true)
}

// Load reads the configuration from path, or from docqa.yaml in ./config or
// the working directory when path is empty. Without a path a missing file is
// not an error.
// Environment variables DOCQA_<SECTION>_<KEY> override file values, a .env
// file is loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("docqa")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DOCQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys under their usual names
	_ = v.BindEnv("embedding.api_key", "DOCQA_EMBEDDING_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("store.database.host", "DOCQA_STORE_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("store.database.port", "DOCQA_STORE_DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("store.database.database", "DOCQA_STORE_DATABASE_DATABASE", "DB_DATABASE")
	_ = v.BindEnv("store.database.username", "DOCQA_STORE_DATABASE_USERNAME", "DB_USERNAME")
	_ = v.BindEnv("store.database.password", "DOCQA_STORE_DATABASE_PASSWORD", "DB_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, helper.NewError("read config", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, helper.NewError("unmarshal config", err)
	}

	if config.LLM.APIKey == "" {
		config.LLM.APIKey = llmKeyFromEnv(config.LLM.Provider)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func llmKeyFromEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Collection) == "" {
		return helper.NewError("config", fmt.Errorf("collection is required"))
	}
	if c.Chunker.Overlap <= 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return helper.NewError("config", fmt.Errorf("chunker.overlap must be greater than zero and smaller than chunker.size (%d, %d)", c.Chunker.Overlap, c.Chunker.Size))
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return helper.NewError("config", fmt.Errorf("embedding.api_key is required for provider %s", c.Embedding.Provider))
		}
	case ProviderHugot, ProviderHash:
	default:
		return helper.NewError("config", fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions < 0 {
		return helper.NewError("config", fmt.Errorf("embedding.dimensions cannot be negative"))
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		if c.LLM.APIKey == "" {
			return helper.NewError("config", fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider))
		}
	default:
		return helper.NewError("config", fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}

	switch c.Store.Type {
	case StorePgvector:
		if err := c.Store.Database.Validate(); err != nil {
			return err
		}
	case StoreQdrant:
		if c.Store.Qdrant.URL == "" {
			return helper.NewError("config", fmt.Errorf("store.qdrant.url is required"))
		}
	case StoreMemory:
	default:
		return helper.NewError("config", fmt.Errorf("unknown store.type %q", c.Store.Type))
	}

	if c.Query.TopK <= 0 {
		return helper.NewError("config", fmt.Errorf("query.top_k must be greater than zero"))
	}
	if c.Query.Temperature < 0 || c.Query.Temperature > 2 {
		return helper.NewError("config", fmt.Errorf("query.temperature must be between 0 and 2"))
	}

	return nil
}
