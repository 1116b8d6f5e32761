package docqa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/siherrmann/docqa/config"
	"github.com/siherrmann/docqa/core/embedding"
	"github.com/siherrmann/docqa/core/llm"
	"github.com/siherrmann/docqa/core/pipeline"
	"github.com/siherrmann/docqa/core/retrieval"
	"github.com/siherrmann/docqa/core/vectorstore"
	"github.com/siherrmann/docqa/database"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/metrics"
	"github.com/siherrmann/docqa/model"
)

// DefaultCollection is used by Ingest and Answer
const DefaultCollection = "my_docs"

// Options configures a DocQA built from existing components
type Options struct {
	// Collection used by Ingest and Answer, DefaultCollection if empty
	Collection string
	// Chunker, pipeline.DefaultChunker if nil
	Chunker   pipeline.ChunkFunc
	BatchSize int
	Query     model.QueryConfig
	Logger    *slog.Logger
}

// DocQA ingests documents and answers questions about them
type DocQA struct {
	Collection string
	Store      vectorstore.Store
	Embedder   embedding.Embedder
	Model      llm.LanguageModel
	Pipeline   *pipeline.Pipeline
	Engine     *retrieval.Engine
	// Logging
	log *slog.Logger
}

// NewWithComponents wires a DocQA from already created components.
// Close closes the store and the embedder.
func NewWithComponents(store vectorstore.Store, embedder embedding.Embedder, lm llm.LanguageModel, options Options) *DocQA {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collection := options.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	p := pipeline.NewPipeline(options.Chunker, embedder, store, logger)
	if options.BatchSize > 0 {
		p.BatchSize = options.BatchSize
	}

	query := options.Query
	if query == (model.QueryConfig{}) {
		query = model.DefaultQueryConfig()
	}

	return &DocQA{
		Collection: collection,
		Store:      store,
		Embedder:   embedder,
		Model:      lm,
		Pipeline:   p,
		Engine:     retrieval.NewEngine(embedder, store, lm, query, logger),
		log:        logger,
	}
}

// New creates the embedder, vector store and language model from cfg
func New(cfg *config.Config) (*DocQA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := helper.NewLogger(os.Stdout, cfg.Log.Level)

	embedder, err := newEmbedder(cfg.Embedding, logger)
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	store, err := newStore(cfg.Store, embedder.Dimensions(), logger)
	if err != nil {
		return nil, errors.Join(helper.NewError("create vector store", err), embedder.Close())
	}

	lm, err := newLanguageModel(cfg.LLM)
	if err != nil {
		return nil, errors.Join(helper.NewError("create language model", err), store.Close(), embedder.Close())
	}

	d := NewWithComponents(store, embedder, lm, Options{
		Collection: cfg.Collection,
		Chunker:    pipeline.FixedSizeChunker(cfg.Chunker.Size, cfg.Chunker.Overlap),
		BatchSize:  cfg.Embedding.BatchSize,
		Query: model.QueryConfig{
			TopK:           cfg.Query.TopK,
			Temperature:    cfg.Query.Temperature,
			MaxTokens:      cfg.Query.MaxTokens,
			IncludeSources: cfg.Query.IncludeSources,
		},
		Logger: logger,
	})

	logger.Info(
		"Initialized docqa",
		slog.String("collection", d.Collection),
		slog.String("store", cfg.Store.Type),
		slog.String("embedder", embedder.ModelName()),
		slog.String("model", lm.ModelName()),
	)

	return d, nil
}

func newEmbedder(cfg config.EmbeddingConfig, logger *slog.Logger) (embedding.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		}, logger)
	case config.ProviderHugot:
		name := cfg.Model
		if name == embedding.DefaultOpenAIModel {
			name = embedding.DefaultHugotModel
		}
		return embedding.NewHugotEmbedder(name, cfg.Dimensions)
	case config.ProviderHash:
		return embedding.NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func newStore(cfg config.StoreConfig, dimensions int, logger *slog.Logger) (vectorstore.Store, error) {
	switch cfg.Type {
	case config.StorePgvector:
		db, err := helper.NewDatabase("docqa", &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		store, err := database.NewPgvectorStore(db, dimensions, cfg.Force)
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}
		return store, nil
	case config.StoreQdrant:
		return vectorstore.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Timeout, logger), nil
	case config.StoreMemory:
		return vectorstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func newLanguageModel(cfg config.LLMConfig) (llm.LanguageModel, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIModel(llm.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case config.ProviderAnthropic:
		name := cfg.Model
		if name == llm.DefaultOpenAIModel {
			name = llm.DefaultAnthropicModel
		}
		return llm.NewAnthropicModel(llm.AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   name,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// DefaultCollection returns the collection used by Ingest and Answer
func (d *DocQA) DefaultCollection() string {
	return d.Collection
}

// Logger returns the logger shared by all components
func (d *DocQA) Logger() *slog.Logger {
	return d.log
}

// Ingest adds a document to the default collection
func (d *DocQA) Ingest(ctx context.Context, doc *model.Document) (*model.IngestResult, error) {
	return d.IngestInto(ctx, d.Collection, doc)
}

// IngestInto extracts, chunks, embeds and stores a document in collection.
// It returns once the records are stored.
func (d *DocQA) IngestInto(ctx context.Context, collection string, doc *model.Document) (*model.IngestResult, error) {
	start := time.Now()
	result, err := d.Pipeline.Ingest(ctx, collection, doc)

	stage := string(model.StageDone)
	chunks := 0
	var ingestErr *model.IngestionError
	if errors.As(err, &ingestErr) {
		stage = string(ingestErr.Stage)
	} else if result != nil {
		stage = string(result.Stage)
		chunks = result.Chunks
	}
	metrics.ObserveIngestion(stage, chunks, err, time.Since(start))

	return result, err
}

// Answer answers a question from the default collection
func (d *DocQA) Answer(ctx context.Context, question string) (*model.Answer, error) {
	return d.AnswerFrom(ctx, d.Collection, question)
}

// AnswerFrom answers a question using the records of collection.
// If nothing was ingested into collection, model.IsNoContent(err) is true.
func (d *DocQA) AnswerFrom(ctx context.Context, collection string, question string) (*model.Answer, error) {
	start := time.Now()
	answer, err := d.Engine.Answer(ctx, collection, question)

	switch {
	case err == nil:
		metrics.ObserveAnswer("ok", answer.Retrieved, time.Since(start))
	case model.IsNoContent(err):
		metrics.ObserveAnswer("no_content", 0, time.Since(start))
	default:
		metrics.ObserveAnswer("error", 0, time.Since(start))
	}

	return answer, err
}

// Close releases the store and the embedder
func (d *DocQA) Close() error {
	var errs []error
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			errs = append(errs, helper.NewError("close vector store", err))
		}
	}
	if d.Embedder != nil {
		if err := d.Embedder.Close(); err != nil {
			errs = append(errs, helper.NewError("close embedder", err))
		}
	}
	return errors.Join(errs...)
}
