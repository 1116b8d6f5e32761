package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/docqa/core/embedding"
	"github.com/siherrmann/docqa/core/llm"
	"github.com/siherrmann/docqa/core/vectorstore"
	"github.com/siherrmann/docqa/model"
)

// Engine answers questions from the records of a collection
type Engine struct {
	Embedder embedding.Embedder
	Store    vectorstore.Store
	Model    llm.LanguageModel
	Config   model.QueryConfig

	log *slog.Logger
}

// NewEngine creates a new retrieval engine.
// An empty config is model.DefaultQueryConfig. Otherwise a non-positive TopK or
// MaxTokens and a negative Temperature fall back to the default, a Temperature
// of 0 is kept.
func NewEngine(embedder embedding.Embedder, store vectorstore.Store, lm llm.LanguageModel, config model.QueryConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := model.DefaultQueryConfig()
	if config == (model.QueryConfig{}) {
		config = defaults
	}
	if config.TopK <= 0 {
		config.TopK = defaults.TopK
	}
	if config.Temperature < 0 {
		config.Temperature = defaults.Temperature
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}

	return &Engine{
		Embedder: embedder,
		Store:    store,
		Model:    lm,
		Config:   config,
		log:      logger,
	}
}

// Retrieve embeds the question and returns the TopK closest records of collection
func (e *Engine) Retrieve(ctx context.Context, collection string, question string) ([]*model.RetrievalResult, error) {
	vector, err := embedding.EmbedOne(ctx, e.Embedder, question)
	if err != nil {
		return nil, &model.QueryError{Stage: model.QueryStageEmbed, Err: err}
	}

	results, err := e.Store.Query(ctx, collection, vector, e.Config.TopK)
	if err != nil {
		return nil, &model.QueryError{Stage: model.QueryStageRetrieve, Err: err}
	}

	return results, nil
}

// Answer retrieves context for question from collection and lets the
// language model answer from it. A collection without records fails with a
// QueryError for which model.IsNoContent is true, the model is not called.
// An empty retrieval still calls the model, which is told that nothing
// relevant was found.
func (e *Engine) Answer(ctx context.Context, collection string, question string) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &model.QueryError{Stage: model.QueryStageEmbed, Err: model.ErrEmptyQuestion}
	}

	start := time.Now()
	log := e.log.With(slog.String("collection", collection))

	results, err := e.Retrieve(ctx, collection, question)
	if err != nil {
		if model.IsNoContent(err) {
			log.Info("Question asked before any content was indexed")
		} else {
			log.Warn("Retrieval failed", slog.Any("error", err))
		}
		return nil, err
	}
	log.Debug("Retrieved records", slog.Int("count", len(results)))

	prompt, err := ComposePrompt(question, results)
	if err != nil {
		return nil, &model.QueryError{Stage: model.QueryStageGenerate, Err: err}
	}

	text, err := e.Model.Generate(ctx, llm.Request{
		System:      SystemPrompt,
		Prompt:      prompt,
		Temperature: e.Config.Temperature,
		MaxTokens:   e.Config.MaxTokens,
	})
	if err != nil {
		log.Warn("Generation failed", slog.String("model", e.Model.ModelName()), slog.Any("error", err))
		return nil, &model.QueryError{Stage: model.QueryStageGenerate, Err: err}
	}

	answer := &model.Answer{
		Question:   question,
		Collection: collection,
		Text:       strings.TrimSpace(text),
		Retrieved:  len(results),
	}
	if e.Config.IncludeSources {
		answer.Sources = results
	}

	log.Info("Answered question", slog.Int("sources", len(results)), slog.Duration("took", time.Since(start)))

	return answer, nil
}
