package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/siherrmann/docqa/model"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "text-embedding-3-small"

var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIConfig configures an OpenAI-compatible embedding endpoint
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions is required for models not in the known list.
	// For text-embedding-3 models a smaller value shortens the vectors.
	Dimensions int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIEmbedder calls the /embeddings endpoint once per Embed call.
// SDK retries are disabled.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	shorten    bool
	log        *slog.Logger
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder from config
func NewOpenAIEmbedder(config OpenAIConfig, logger *slog.Logger) (*OpenAIEmbedder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}

	dimensions := knownDimensions[config.Model]
	shorten := false
	if config.Dimensions > 0 && config.Dimensions != dimensions {
		shorten = dimensions != 0
		dimensions = config.Dimensions
	}
	if dimensions == 0 {
		return nil, fmt.Errorf("unknown embedding model %q: dimensions must be configured", config.Model)
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		model:      config.Model,
		dimensions: dimensions,
		shorten:    shorten,
		log:        logger,
	}, nil
}

// Embed sends all texts in one request
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.shorten {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	start := time.Now()
	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, embeddingError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, &model.EmbeddingServiceError{
			Kind: model.EmbeddingErrorInvalidResponse,
			Err:  fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	// The response is not guaranteed to be in input order
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) || vectors[d.Index] != nil {
			return nil, &model.EmbeddingServiceError{
				Kind: model.EmbeddingErrorInvalidResponse,
				Err:  fmt.Errorf("invalid embedding index %d", d.Index),
			}
		}
		vector := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vector[i] = float32(v)
		}
		vectors[d.Index] = vector
	}

	if err := checkVectors(vectors); err != nil {
		return nil, &model.EmbeddingServiceError{Kind: model.EmbeddingErrorInvalidResponse, Err: err}
	}

	e.log.Debug("Embedded texts", slog.Int("count", len(texts)), slog.String("model", e.model), slog.Duration("took", time.Since(start)))

	return vectors, nil
}

// Dimensions returns the vector length
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the embedding model
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Close is a no-op, the HTTP client is shared
func (e *OpenAIEmbedder) Close() error {
	return nil
}

func embeddingError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &model.EmbeddingServiceError{
			Kind:       model.EmbeddingKindFromStatus(apiErr.StatusCode),
			StatusCode: apiErr.StatusCode,
			Err:        err,
		}
	}
	return &model.EmbeddingServiceError{Kind: model.EmbeddingErrorNetwork, Err: err}
}
