package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/docqa/helper"
	"github.com/siherrmann/docqa/model"
)

// DefaultHugotModel produces 384-dimensional embeddings
const DefaultHugotModel = "sentence-transformers/all-MiniLM-L6-v2"

// HugotEmbedder runs a sentence transformer locally with the hugot Go backend
type HugotEmbedder struct {
	model      string
	dimensions int
	destroy    func() error
	run        func(texts []string) ([][]float32, error)
	// The Go backend session is not safe for concurrent pipeline runs
	mu sync.Mutex
}

var _ Embedder = (*HugotEmbedder)(nil)

// NewHugotEmbedder downloads the model if needed and starts a session.
// dimensions must match the model output, 384 for the default model.
func NewHugotEmbedder(modelName string, dimensions int) (*HugotEmbedder, error) {
	if modelName == "" {
		modelName = DefaultHugotModel
	}
	if dimensions <= 0 {
		dimensions = 384
	}

	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "docqa-embedder",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return &HugotEmbedder{
		model:      modelName,
		dimensions: dimensions,
		destroy:    session.Destroy,
		run: func(texts []string) ([][]float32, error) {
			result, err := sentencePipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
	}, nil
}

// Embed runs the pipeline on all texts
func (e *HugotEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &model.EmbeddingServiceError{Kind: model.EmbeddingErrorNetwork, Err: err}
	}

	e.mu.Lock()
	vectors, err := e.run(texts)
	e.mu.Unlock()
	if err != nil {
		return nil, &model.EmbeddingServiceError{Kind: model.EmbeddingErrorService, Err: fmt.Errorf("failed to generate embedding: %w", err)}
	}

	if len(vectors) != len(texts) {
		return nil, &model.EmbeddingServiceError{
			Kind: model.EmbeddingErrorInvalidResponse,
			Err:  fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors)),
		}
	}
	for i, v := range vectors {
		if len(v) != e.dimensions {
			return nil, &model.EmbeddingServiceError{
				Kind: model.EmbeddingErrorInvalidResponse,
				Err:  fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), e.dimensions),
			}
		}
	}

	return vectors, nil
}

// Dimensions returns the vector length
func (e *HugotEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the model repository name
func (e *HugotEmbedder) ModelName() string {
	return e.model
}

// Close destroys the hugot session
func (e *HugotEmbedder) Close() error {
	if e.destroy == nil {
		return nil
	}
	return e.destroy()
}
